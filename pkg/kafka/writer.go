package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/angelmondragon/packfinderz-settlement/pkg/config"
)

// Writer publishes keyed messages to a single topic.
type Writer struct {
	writer  *kafka.Writer
	brokers []string
	topic   string
}

// NewWriter builds a writer for the configured settlement topic.
func NewWriter(cfg config.KafkaConfig) (*Writer, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka topic is required")
	}
	return &Writer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
		brokers: brokers,
		topic:   cfg.Topic,
	}, nil
}

// Message is one record written to the topic. Key drives partitioning so
// events for one aggregate stay ordered.
type Message struct {
	Key     string
	Value   []byte
	Headers map[string]string
}

// Write publishes messages synchronously.
func (w *Writer) Write(ctx context.Context, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]kafka.Message, 0, len(msgs))
	now := time.Now()
	for _, m := range msgs {
		km := kafka.Message{Key: []byte(m.Key), Value: m.Value, Time: now}
		for k, v := range m.Headers {
			km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
		}
		out = append(out, km)
	}
	return w.writer.WriteMessages(ctx, out...)
}

// Ping dials the first reachable broker.
func (w *Writer) Ping(ctx context.Context) error {
	var lastErr error
	dialer := &kafka.Dialer{Timeout: 5 * time.Second}
	for _, b := range w.brokers {
		conn, err := dialer.DialContext(ctx, "tcp", b)
		if err != nil {
			lastErr = err
			continue
		}
		_ = conn.Close()
		return nil
	}
	var netErr net.Error
	if errors.As(lastErr, &netErr) && netErr.Timeout() {
		return fmt.Errorf("kafka brokers timed out: %w", lastErr)
	}
	return fmt.Errorf("kafka brokers unreachable: %w", lastErr)
}

// Topic returns the destination topic.
func (w *Writer) Topic() string {
	return w.topic
}

// Close flushes pending writes.
func (w *Writer) Close() error {
	return w.writer.Close()
}
