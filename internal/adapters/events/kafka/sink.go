// Package kafka relays outbox events to a Kafka topic keyed by listing id
package kafka

import (
	"context"
	"strings"
	"time"

	"harborlist/internal/platform/config"
	"harborlist/internal/services/outbox/domain"

	kafkago "github.com/segmentio/kafka-go"
)

// Config for the Kafka sink
type Config struct {
	Enabled bool
	Brokers []string
	Topic   string
	Timeout time.Duration

	// Compression is one of none, gzip, snappy, lz4 or zstd
	Compression string
}

// FromConfig reads SERVICE_KAFKA_* values
func FromConfig(cfg config.Conf) Config {
	kc := cfg.Prefix("SERVICE_KAFKA_")
	return Config{
		Enabled:     kc.MayBool("ENABLED", false),
		Brokers:     kc.MayCSV("BROKERS", nil),
		Topic:       kc.MayString("TOPIC", "listing-events"),
		Timeout:     kc.MayDuration("TIMEOUT", 10*time.Second),
		Compression: strings.ToLower(kc.MayEnum("COMPRESSION", "none", "none", "gzip", "snappy", "lz4", "zstd")),
	}
}

// writer is the part of *kafkago.Writer the sink uses
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Sink writes one message per event
type Sink struct {
	w       writer
	timeout time.Duration
}

var _ domain.Sink = (*Sink)(nil)

// New returns a sink writing to cfg.Topic. Messages for one listing share a
// partition so consumers see them in order
func New(cfg Config) *Sink {
	return &Sink{
		w: &kafkago.Writer{
			Addr:         kafkago.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireAll,
			Compression:  codec(cfg.Compression),
		},
		timeout: cfg.Timeout,
	}
}

func codec(name string) kafkago.Compression {
	switch name {
	case "gzip":
		return kafkago.Gzip
	case "snappy":
		return kafkago.Snappy
	case "lz4":
		return kafkago.Lz4
	case "zstd":
		return kafkago.Zstd
	}
	return 0
}

// Name implements domain.Sink
func (s *Sink) Name() string { return "kafka" }

// Deliver writes e synchronously
func (s *Sink) Deliver(ctx context.Context, e domain.Event) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.w.WriteMessages(ctx, message(e))
}

// Close flushes and closes the writer
func (s *Sink) Close() error { return s.w.Close() }

func message(e domain.Event) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(e.ListingID),
		Value: e.Payload,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(e.ID)},
			{Key: "event_type", Value: []byte(e.Type)},
		},
		Time: e.CreatedAt,
	}
}
