package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubPublisher struct {
	id    string
	err   error
	calls int
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return "stub" }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}

func TestFanoutAggregatesErrors(t *testing.T) {
	ok := &stubPublisher{id: "ok"}
	bad := &stubPublisher{id: "bad", err: errors.New("boom")}
	fan := NewFanout([]Publisher{ok, nil, bad})

	if fan.Size() != 2 {
		t.Fatalf("expected nil publishers to be skipped, size=%d", fan.Size())
	}

	n, err := fan.Publish(context.Background(), Event{ID: "e"})
	if n != 1 {
		t.Fatalf("expected 1 success, got %d", n)
	}
	if err == nil || !strings.Contains(err.Error(), "publisher[bad]") {
		t.Fatalf("expected aggregated error naming bad, got %v", err)
	}
	if ok.calls != 1 || bad.calls != 1 {
		t.Fatalf("every publisher must be called once")
	}
}

func TestEmptyFanoutIsNoop(t *testing.T) {
	var fan *Fanout
	n, err := fan.Publish(context.Background(), Event{})
	if n != 0 || err != nil {
		t.Fatalf("unexpected result %d %v", n, err)
	}
	if err := fan.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
