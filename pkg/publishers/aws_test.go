package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func TestSQSPublisherSendsEventWithAttributes(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{id: "queue", typ: TypeSQS, queueURL: "https://example.com/queue", client: client, log: noopLogger{}}

	evt := NewEvent("POST", "v1/gateways/gw/purchase.json", 200, true)
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if aws.ToString(client.input.QueueUrl) != "https://example.com/queue" {
		t.Fatalf("unexpected queue url %s", aws.ToString(client.input.QueueUrl))
	}
	var body Event
	if err := json.Unmarshal([]byte(aws.ToString(client.input.MessageBody)), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ID != evt.ID {
		t.Fatalf("unexpected body %+v", body)
	}
	if got := aws.ToString(client.input.MessageAttributes["success"].StringValue); got != "true" {
		t.Fatalf("unexpected success attribute %q", got)
	}
}

func TestSQSPublisherWrapsSendError(t *testing.T) {
	pub := &sqsPublisher{id: "queue", client: &fakeSQSClient{err: errors.New("throttled")}, log: noopLogger{}}
	err := pub.Publish(context.Background(), Event{ID: "x"})
	if err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestSNSPublisherSendsToTopic(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{id: "topic", typ: TypeSNS, topicARN: "arn:aws:sns:us-east-1:1:calls", client: client, log: noopLogger{}}

	if err := pub.Publish(context.Background(), NewEvent("GET", "v1/transactions/t.json", 500, false)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if aws.ToString(client.input.TopicArn) != "arn:aws:sns:us-east-1:1:calls" {
		t.Fatalf("unexpected topic %s", aws.ToString(client.input.TopicArn))
	}
	if got := aws.ToString(client.input.MessageAttributes["success"].StringValue); got != "false" {
		t.Fatalf("unexpected success attribute %q", got)
	}
}

func TestSNSPublisherWrapsError(t *testing.T) {
	pub := &snsPublisher{id: "topic", client: &fakeSNSClient{err: errors.New("denied")}, log: noopLogger{}}
	if err := pub.Publish(context.Background(), Event{}); err == nil {
		t.Fatalf("expected error")
	}
}
