package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/config"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	"github.com/angelmondragon/packfinderz-settlement/pkg/kafka"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
	"github.com/angelmondragon/packfinderz-settlement/pkg/outbox"
)

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{
		newEvent(t, "event-one", 0),
		newEvent(t, "event-two", 0),
	}}
	pub := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}}
	service := newTestService(t, repo, newPubSubSink(nil, pub, "settlement-events"), nil)

	processed, err := service.processBatch(context.Background())
	require.NoError(t, err)
	require.True(t, processed)
	require.Equal(t, []uuid.UUID{repo.events[0].ID}, repo.failed)
	require.Equal(t, []uuid.UUID{repo.events[1].ID}, repo.published)
	require.Len(t, pub.messages, 2)
	require.Equal(t, repo.events[0].AggregateID.String(), pub.messages[0].OrderingKey)
	require.Equal(t, "order_paid", pub.messages[0].Attributes["event_type"])
	require.Equal(t, "event-one", pub.messages[0].Attributes["event_id"])
}

func TestServiceProcessBatchTerminalOnBadEnvelope(t *testing.T) {
	event := newEvent(t, "bad", 0)
	event.Payload = json.RawMessage(`not-json`)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	service := newTestService(t, repo, newPubSubSink(nil, pub, "settlement-events"), nil)

	processed, err := service.processBatch(context.Background())
	require.NoError(t, err)
	require.True(t, processed)
	require.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
	require.Empty(t, pub.messages)
}

func TestServiceProcessBatchTerminalOnMaxAttempts(t *testing.T) {
	event := newEvent(t, "max-attempts", 1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("transient")}}}
	service := newTestService(t, repo, newPubSubSink(nil, pub, "settlement-events"), &config.OutboxConfig{MaxAttempts: 2})

	_, err := service.processBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
	require.Empty(t, repo.failed)
}

func TestServiceProcessBatchNilPublisherIsTerminal(t *testing.T) {
	event := newEvent(t, "no-publisher", 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	service := newTestService(t, repo, newPubSubSink(nil, nil, "settlement-events"), nil)

	_, err := service.processBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
}

func TestServiceProcessBatchKafkaSink(t *testing.T) {
	event := newEvent(t, "kafka", 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	writer := &fakeKafkaWriter{topic: "settlement-events"}
	service := newTestService(t, repo, newKafkaSink(writer), nil)

	processed, err := service.processBatch(context.Background())
	require.NoError(t, err)
	require.True(t, processed)
	require.Equal(t, []uuid.UUID{event.ID}, repo.published)
	require.Len(t, writer.messages, 1)
	require.Equal(t, event.AggregateID.String(), writer.messages[0].Key)
	require.Equal(t, "kafka", writer.messages[0].Headers["event_id"])
}

func TestServiceProcessBatchEmpty(t *testing.T) {
	service := newTestService(t, &fakeRepo{}, newKafkaSink(&fakeKafkaWriter{topic: "t"}), nil)
	processed, err := service.processBatch(context.Background())
	require.NoError(t, err)
	require.False(t, processed)
}

func TestNewServiceRequiresSink(t *testing.T) {
	_, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.Nop(),
		DB:         fakeDB{},
		Repository: &fakeRepo{},
	})
	require.Error(t, err)
}

func TestNextBackoff(t *testing.T) {
	require.Equal(t, 2*time.Second, nextBackoff(time.Second, time.Second, maxBackoff))
	require.Equal(t, maxBackoff, nextBackoff(8*time.Second, time.Second, maxBackoff))
	require.Equal(t, 2*time.Second, nextBackoff(0, time.Second, maxBackoff))
}

func TestWithJitterStaysInWindow(t *testing.T) {
	for i := 0; i < 20; i++ {
		got := withJitter(time.Second)
		require.GreaterOrEqual(t, got, time.Second)
		require.Less(t, got, time.Second+jitterWindow)
	}
	require.Zero(t, withJitter(0))
}

func newTestService(t *testing.T, repo *fakeRepo, s sink, outboxCfg *config.OutboxConfig) *Service {
	t.Helper()
	cfg := &config.Config{}
	if outboxCfg != nil {
		cfg.Outbox = *outboxCfg
	}
	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logger.Nop(),
		DB:         fakeDB{},
		Repository: repo,
		Sink:       s,
	})
	require.NoError(t, err)
	return service
}

func newEvent(t *testing.T, eventID string, attempts int) models.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
		AttemptCount:  attempts,
	}
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (r *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return r.events, nil
}

func (r *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	r.failed = append(r.failed, id)
	return nil
}

func (r *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	r.terminal = append(r.terminal, id)
	return nil
}

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (p *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	if len(p.results) == 0 {
		return fakePublishResult{}
	}
	res := p.results[0]
	p.results = p.results[1:]
	return res
}

type fakePublishResult struct {
	err error
}

func (r fakePublishResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id", nil
}

type fakeKafkaWriter struct {
	topic    string
	messages []kafka.Message
	err      error
}

func (w *fakeKafkaWriter) Write(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeKafkaWriter) Ping(context.Context) error { return nil }
func (w *fakeKafkaWriter) Topic() string              { return w.topic }
