package publishers

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/pubsub"
)

type fakePubSubSender struct {
	msgs   []*pubsub.Message
	err    error
	closed bool
}

func (f *fakePubSubSender) Send(_ context.Context, msg *pubsub.Message) (string, error) {
	f.msgs = append(f.msgs, msg)
	if f.err != nil {
		return "", f.err
	}
	return "server-id", nil
}

func (f *fakePubSubSender) Close() error {
	f.closed = true
	return nil
}

func TestPubSubPublisherSendsAttributes(t *testing.T) {
	sender := &fakePubSubSender{}
	pub := &pubsubPublisher{id: "ps", typ: TypePubSub, sender: sender, log: noopLogger{}}

	evt := NewEvent("PUT", "v1/payment_methods/pm/retain.json", 200, true)
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(sender.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.msgs))
	}
	if sender.msgs[0].Attributes["event_id"] != evt.ID || sender.msgs[0].Attributes["method"] != "PUT" {
		t.Fatalf("unexpected attributes %v", sender.msgs[0].Attributes)
	}

	fan := NewFanout([]Publisher{pub})
	if err := fan.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !sender.closed {
		t.Fatalf("expected sender to be closed")
	}
}

func TestPubSubPublisherWrapsError(t *testing.T) {
	pub := &pubsubPublisher{id: "ps", sender: &fakePubSubSender{err: errors.New("unavailable")}, log: noopLogger{}}
	if err := pub.Publish(context.Background(), Event{}); err == nil {
		t.Fatalf("expected error")
	}
}
