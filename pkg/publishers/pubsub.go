package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// pubsubSender publishes one message and waits for the server ack.
type pubsubSender interface {
	Send(ctx context.Context, msg *pubsub.Message) (string, error)
	Close() error
}

type topicSender struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

func (t *topicSender) Send(ctx context.Context, msg *pubsub.Message) (string, error) {
	return t.topic.Publish(ctx, msg).Get(ctx)
}

func (t *topicSender) Close() error {
	t.topic.Stop()
	return t.client.Close()
}

// pubsubPublisher implements the Publisher interface for Google Cloud Pub/Sub.
type pubsubPublisher struct {
	id     string
	typ    string
	sender pubsubSender
	log    Logger
}

func newPubSubPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.PubSub == nil {
		return nil, fmt.Errorf("publisher %q missing pubsub configuration", cfg.ID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.PubSub.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.PubSub.CredentialsFile))
	}
	if cfg.PubSub.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.PubSub.Endpoint), option.WithoutAuthentication())
	}

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &pubsubPublisher{
		id:     cfg.ID,
		typ:    TypePubSub,
		sender: &topicSender{client: client, topic: client.Topic(cfg.PubSub.TopicID)},
		log:    ensureLogger(log),
	}, nil
}

func (p *pubsubPublisher) ID() string   { return p.id }
func (p *pubsubPublisher) Type() string { return p.typ }

// Publish sends the event to the configured topic and waits for the ack.
func (p *pubsubPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	id, err := p.sender.Send(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: eventAttributes(evt),
	})
	if err != nil {
		p.log.ErrorObj("pubsub publisher send failed", "publisher_pubsub_error", map[string]any{
			"publisher_id": p.id,
			"error":        err.Error(),
		})
		return fmt.Errorf("publish to pubsub: %w", err)
	}
	p.log.DebugObj("pubsub publisher delivered event", "publisher_pubsub_delivery", map[string]any{
		"publisher_id": p.id,
		"event_id":     evt.ID,
		"message_id":   id,
	})
	return nil
}

// Close stops the topic and releases the client.
func (p *pubsubPublisher) Close() error {
	if p == nil || p.sender == nil {
		return nil
	}
	return p.sender.Close()
}
