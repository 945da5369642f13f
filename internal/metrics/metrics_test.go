package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCallsCountsByMethodAndCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	calls, err := NewCalls(reg)
	if err != nil {
		t.Fatalf("NewCalls: %v", err)
	}

	calls.ObserveCall("GET", 200, 10*time.Millisecond)
	calls.ObserveCall("GET", 200, 20*time.Millisecond)
	calls.ObserveCall("POST", 500, time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "spreedly_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var method, code string
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "method":
					method = lp.GetValue()
				case "code":
					code = lp.GetValue()
				}
			}
			counts[method+" "+code] = m.GetCounter().GetValue()
		}
	}
	if counts["GET 200"] != 2 || counts["POST 500"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestNewCallsRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewCalls(reg); err != nil {
		t.Fatalf("NewCalls: %v", err)
	}
	if _, err := NewCalls(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestNilCallsIsSafe(t *testing.T) {
	var calls *Calls
	calls.ObserveCall("GET", 200, time.Millisecond)
}
