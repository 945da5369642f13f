package spreedly

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

func resourcePath(collection, token, action string) string {
	var b strings.Builder
	b.WriteString("v1/")
	b.WriteString(collection)
	if token != "" {
		b.WriteString("/")
		b.WriteString(url.PathEscape(token))
	}
	if action != "" {
		b.WriteString("/")
		b.WriteString(action)
	}
	b.WriteString(".json")
	return b.String()
}

// ready checks the credentials before the caller supplied value named name.
func (c *Client) ready(name, value string) error {
	if err := c.opts.Validate(); err != nil {
		return err
	}
	if err := validate.Var(value, "required,notblank"); err != nil {
		return fmt.Errorf("spreedly: %s is empty: %w", name, err)
	}
	return nil
}

// Gateways groups the gateway endpoints.
type Gateways struct{ c *Client }

// Gateways returns the gateway endpoints bound to c.
func (c *Client) Gateways() Gateways { return Gateways{c: c} }

// List returns the gateways of the environment.
func (g Gateways) List(ctx context.Context, params map[string]string) (*Result, error) {
	return g.c.Get(ctx, resourcePath("gateways", "", ""), params)
}

// Show returns a single gateway.
func (g Gateways) Show(ctx context.Context, token string) (*Result, error) {
	if err := g.c.ready("gateway token", token); err != nil {
		return nil, err
	}
	return g.c.Get(ctx, resourcePath("gateways", token, ""), nil)
}

// Create adds a gateway of gatewayType; fields holds gateway specific credentials.
func (g Gateways) Create(ctx context.Context, gatewayType string, fields map[string]any) (*Result, error) {
	if err := g.c.ready("gateway type", gatewayType); err != nil {
		return nil, err
	}
	gateway := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		gateway[k] = v
	}
	gateway["gateway_type"] = gatewayType
	return g.c.Post(ctx, resourcePath("gateways", "", ""), map[string]any{"gateway": gateway})
}

// Redact removes the stored credentials of a gateway.
func (g Gateways) Redact(ctx context.Context, token string) (*Result, error) {
	if err := g.c.ready("gateway token", token); err != nil {
		return nil, err
	}
	return g.c.Put(ctx, resourcePath("gateways", token, "redact"), nil)
}

// Charge describes an amount to move against a payment method.
type Charge struct {
	PaymentMethodToken string `json:"payment_method_token" validate:"required,notblank"`
	Amount             int64  `json:"amount" validate:"required,gt=0"`
	CurrencyCode       string `json:"currency_code" validate:"required,notblank"`
	OrderID            string `json:"order_id,omitempty"`
	Description        string `json:"description,omitempty"`
	Retain             bool   `json:"retain_on_success,omitempty"`
}

func (ch Charge) validate() error {
	if err := validate.Struct(ch); err != nil {
		return fmt.Errorf("spreedly: invalid charge: %w", err)
	}
	return nil
}

// Purchase authorizes and captures a charge on the gateway.
func (g Gateways) Purchase(ctx context.Context, token string, ch Charge) (*Result, error) {
	return g.transact(ctx, token, "purchase", ch)
}

// Authorize places a hold for the charge on the gateway.
func (g Gateways) Authorize(ctx context.Context, token string, ch Charge) (*Result, error) {
	return g.transact(ctx, token, "authorize", ch)
}

func (g Gateways) transact(ctx context.Context, token, action string, ch Charge) (*Result, error) {
	if err := g.c.ready("gateway token", token); err != nil {
		return nil, err
	}
	if err := ch.validate(); err != nil {
		return nil, err
	}
	return g.c.Post(ctx, resourcePath("gateways", token, action), map[string]any{"transaction": ch})
}

// Payments groups the payment method endpoints.
type Payments struct{ c *Client }

// Payments returns the payment method endpoints bound to c.
func (c *Client) Payments() Payments { return Payments{c: c} }

// List returns the payment methods of the environment.
func (p Payments) List(ctx context.Context, params map[string]string) (*Result, error) {
	return p.c.Get(ctx, resourcePath("payment_methods", "", ""), params)
}

// Show returns a single payment method.
func (p Payments) Show(ctx context.Context, token string) (*Result, error) {
	if err := p.c.ready("payment method token", token); err != nil {
		return nil, err
	}
	return p.c.Get(ctx, resourcePath("payment_methods", token, ""), nil)
}

// Retain keeps the payment method stored beyond its default lifetime.
func (p Payments) Retain(ctx context.Context, token string) (*Result, error) {
	if err := p.c.ready("payment method token", token); err != nil {
		return nil, err
	}
	return p.c.Put(ctx, resourcePath("payment_methods", token, "retain"), nil)
}

// Redact removes the sensitive data of the payment method.
func (p Payments) Redact(ctx context.Context, token string) (*Result, error) {
	if err := p.c.ready("payment method token", token); err != nil {
		return nil, err
	}
	return p.c.Put(ctx, resourcePath("payment_methods", token, "redact"), nil)
}

// Transactions groups the transaction endpoints.
type Transactions struct{ c *Client }

// Transactions returns the transaction endpoints bound to c.
func (c *Client) Transactions() Transactions { return Transactions{c: c} }

// Show returns a single transaction.
func (t Transactions) Show(ctx context.Context, token string) (*Result, error) {
	if err := t.c.ready("transaction token", token); err != nil {
		return nil, err
	}
	return t.c.Get(ctx, resourcePath("transactions", token, ""), nil)
}

// Capture settles an authorization. A zero amount captures the full authorization.
func (t Transactions) Capture(ctx context.Context, token string, amount int64) (*Result, error) {
	return t.withAmount(ctx, token, "capture", amount)
}

// Credit refunds a settled transaction. A zero amount refunds it in full.
func (t Transactions) Credit(ctx context.Context, token string, amount int64) (*Result, error) {
	return t.withAmount(ctx, token, "credit", amount)
}

// Void cancels a transaction that has not settled yet.
func (t Transactions) Void(ctx context.Context, token string) (*Result, error) {
	return t.withAmount(ctx, token, "void", 0)
}

func (t Transactions) withAmount(ctx context.Context, token, action string, amount int64) (*Result, error) {
	if err := t.c.ready("transaction token", token); err != nil {
		return nil, err
	}
	if err := validate.Var(amount, "gte=0"); err != nil {
		return nil, fmt.Errorf("spreedly: amount must not be negative, got %d: %w", amount, err)
	}
	var body any
	if amount > 0 {
		body = map[string]any{"transaction": map[string]any{"amount": amount}}
	}
	return t.c.Post(ctx, resourcePath("transactions", token, action), body)
}
