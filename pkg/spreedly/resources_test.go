package spreedly

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestResourcePaths(t *testing.T) {
	hc := &fakeHTTP{status: http.StatusOK, body: []byte(`{}`)}
	c := newTestClient(hc)
	ctx := context.Background()

	calls := []struct {
		name   string
		call   func() (*Result, error)
		method string
		path   string
	}{
		{"gateways list", func() (*Result, error) { return c.Gateways().List(ctx, nil) }, http.MethodGet, "v1/gateways.json"},
		{"gateway create", func() (*Result, error) { return c.Gateways().Create(ctx, "test", nil) }, http.MethodPost, "v1/gateways.json"},
		{"gateway redact", func() (*Result, error) { return c.Gateways().Redact(ctx, "gw") }, http.MethodPut, "v1/gateways/gw/redact.json"},
		{"gateway purchase", func() (*Result, error) {
			return c.Gateways().Purchase(ctx, "gw", Charge{PaymentMethodToken: "pm", Amount: 100, CurrencyCode: "USD"})
		}, http.MethodPost, "v1/gateways/gw/purchase.json"},
		{"payment retain", func() (*Result, error) { return c.Payments().Retain(ctx, "pm") }, http.MethodPut, "v1/payment_methods/pm/retain.json"},
		{"transaction capture", func() (*Result, error) { return c.Transactions().Capture(ctx, "tx", 50) }, http.MethodPost, "v1/transactions/tx/capture.json"},
		{"transaction credit", func() (*Result, error) { return c.Transactions().Credit(ctx, "a/b", 0) }, http.MethodPost, "v1/transactions/a%2Fb/credit.json"},
	}

	for i, tc := range calls {
		if _, err := tc.call(); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		req := hc.requests[i]
		if req.Method != tc.method || req.URL != DefaultBaseURL+tc.path {
			t.Fatalf("%s: unexpected request %s %s", tc.name, req.Method, req.URL)
		}
	}
}

func TestGatewayCreateWrapsFields(t *testing.T) {
	hc := &fakeHTTP{status: http.StatusCreated, body: []byte(`{"gateway":{"token":"gw"}}`)}
	if _, err := newTestClient(hc).Gateways().Create(context.Background(), "braintree", map[string]any{"login": "x"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	body := hc.requests[0].Body.(map[string]any)
	gw := body["gateway"].(map[string]any)
	if gw["gateway_type"] != "braintree" || gw["login"] != "x" {
		t.Fatalf("unexpected gateway body %#v", gw)
	}
}

func TestChargeValidation(t *testing.T) {
	hc := &fakeHTTP{status: http.StatusOK}
	c := newTestClient(hc)
	if _, err := c.Gateways().Authorize(context.Background(), "gw", Charge{PaymentMethodToken: "pm", CurrencyCode: "USD"}); err == nil {
		t.Fatalf("expected zero amount to be rejected")
	}
	if _, err := c.Gateways().Purchase(context.Background(), "", Charge{}); err == nil {
		t.Fatalf("expected empty gateway token to be rejected")
	}
	if _, err := c.Transactions().Capture(context.Background(), "tx", -1); err == nil {
		t.Fatalf("expected negative amount to be rejected")
	}
	if len(hc.requests) != 0 {
		t.Fatalf("invalid input must not reach the network")
	}
}

func TestChargeValidationReportsFields(t *testing.T) {
	hc := &fakeHTTP{status: http.StatusOK}
	_, err := newTestClient(hc).Gateways().Purchase(context.Background(), "gw", Charge{PaymentMethodToken: "  ", Amount: 100})
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	fields := map[string]bool{}
	for _, fe := range verrs {
		fields[fe.Field()] = true
	}
	if !fields["PaymentMethodToken"] || !fields["CurrencyCode"] || fields["Amount"] {
		t.Fatalf("unexpected invalid fields %v", fields)
	}
}

func TestResourceHelpersCheckCredentialsFirst(t *testing.T) {
	hc := &fakeHTTP{status: http.StatusOK}
	c := New(Options{}, WithHTTPClient(hc))
	ctx := context.Background()

	calls := map[string]func() (*Result, error){
		"gateway show":       func() (*Result, error) { return c.Gateways().Show(ctx, "") },
		"gateway create":     func() (*Result, error) { return c.Gateways().Create(ctx, "", nil) },
		"gateway purchase":   func() (*Result, error) { return c.Gateways().Purchase(ctx, "", Charge{}) },
		"payment redact":     func() (*Result, error) { return c.Payments().Redact(ctx, " ") },
		"transaction void":   func() (*Result, error) { return c.Transactions().Void(ctx, "") },
		"transaction credit": func() (*Result, error) { return c.Transactions().Credit(ctx, "tx", -1) },
	}
	for name, call := range calls {
		_, err := call()
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("%s: expected ConfigurationError, got %v", name, err)
		}
	}
	if len(hc.requests) != 0 {
		t.Fatalf("no request must be sent, got %d", len(hc.requests))
	}
}
