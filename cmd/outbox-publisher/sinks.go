package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/kafka"
	"github.com/angelmondragon/packfinderz-settlement/pkg/outbox"
)

// sink delivers one outbox row to the downstream bus.
type sink interface {
	Name() string
	Ping(context.Context) error
	Publish(context.Context, models.OutboxEvent, outbox.PayloadEnvelope) error
}

type nonRetryableError struct {
	err error
}

func (e nonRetryableError) Error() string { return e.err.Error() }
func (e nonRetryableError) Unwrap() error { return e.err }

func eventAttributes(event models.OutboxEvent, envelope outbox.PayloadEnvelope) map[string]string {
	attrs := map[string]string{
		"event_id":       envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
	}
	if envelope.SourceEvent != "" {
		attrs["source_event"] = envelope.SourceEvent
	}
	return attrs
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type pubsubPinger interface {
	Ping(context.Context) error
}

type pubsubSink struct {
	pinger pubsubPinger
	pub    publisher
	topic  string
}

func newPubSubSink(pinger pubsubPinger, pub publisher, topic string) *pubsubSink {
	return &pubsubSink{pinger: pinger, pub: pub, topic: topic}
}

func (s *pubsubSink) Name() string { return "pubsub:" + s.topic }

func (s *pubsubSink) Ping(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	return s.pinger.Ping(ctx)
}

func (s *pubsubSink) Publish(ctx context.Context, event models.OutboxEvent, envelope outbox.PayloadEnvelope) error {
	if s.pub == nil {
		return nonRetryableError{fmt.Errorf("publisher not configured for topic %s", s.topic)}
	}
	msg := &gcppubsub.Message{
		Data:        event.Payload,
		Attributes:  eventAttributes(event, envelope),
		OrderingKey: event.AggregateID.String(),
	}
	result := s.pub.Publish(ctx, msg)
	if result == nil {
		return nonRetryableError{fmt.Errorf("publisher returned nil for topic %s", s.topic)}
	}
	_, err := result.Get(ctx)
	return err
}

type kafkaWriter interface {
	Write(context.Context, ...kafka.Message) error
	Ping(context.Context) error
	Topic() string
}

type kafkaSink struct {
	writer kafkaWriter
}

func newKafkaSink(w kafkaWriter) *kafkaSink {
	return &kafkaSink{writer: w}
}

func (s *kafkaSink) Name() string { return "kafka:" + s.writer.Topic() }

func (s *kafkaSink) Ping(ctx context.Context) error {
	return s.writer.Ping(ctx)
}

func (s *kafkaSink) Publish(ctx context.Context, event models.OutboxEvent, envelope outbox.PayloadEnvelope) error {
	return s.writer.Write(ctx, kafka.Message{
		Key:     event.AggregateID.String(),
		Value:   event.Payload,
		Headers: eventAttributes(event, envelope),
	})
}

func newGCPPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{Publisher: p}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
