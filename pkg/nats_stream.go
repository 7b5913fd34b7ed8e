package pkg

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSStream publishes to and consumes from a JetStream stream with a durable consumer.
type NATSStream struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	consumer jetstream.Consumer
	topic    string
	logger   apt.Logger

	mu      sync.Mutex
	consume jetstream.ConsumeContext
}

// NATSStreamConfig configures a NATSStream instance.
type NATSStreamConfig struct {
	URL          string        // NATS server URL
	StreamName   string        // JetStream stream name (e.g., "STOCK_EVENTS")
	Topic        string        // Subject bound to the stream (e.g., "stock.deductions")
	ConsumerName string        // Durable consumer name
	MaxAge       time.Duration // How long to retain events
	MaxDeliver   int           // Delivery attempts before a message is dropped (0 = unlimited)
}

// NewNATSStream creates a new NATSStream and ensures the stream and consumer exist.
func NewNATSStream(ctx context.Context, cfg NATSStreamConfig, logger apt.Logger) (*NATSStream, error) {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	conn, err := connect(cfg.URL, cfg.ConsumerName)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{cfg.Topic},
		MaxAge:   cfg.MaxAge,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create/update stream %s: %w", cfg.StreamName, err)
	}

	consumerConfig := jetstream.ConsumerConfig{
		Name:          cfg.ConsumerName,
		Durable:       cfg.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		FilterSubject: cfg.Topic,
	}
	if cfg.MaxDeliver > 0 {
		consumerConfig.MaxDeliver = cfg.MaxDeliver
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, consumerConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create/update consumer %s: %w", cfg.ConsumerName, err)
	}

	return &NATSStream{
		conn:     conn,
		js:       js,
		consumer: consumer,
		topic:    cfg.Topic,
		logger:   logger,
	}, nil
}

// Publish publishes a message to the stream and waits for the server ack.
func (s *NATSStream) Publish(ctx context.Context, topic string, msg []byte) error {
	if topic == "" {
		topic = s.topic
	}
	if _, err := s.js.Publish(ctx, topic, msg); err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}
	return nil
}

// Subscribe implements events.Subscriber. The topic is ignored because the
// durable consumer is already bound to the stream subject.
func (s *NATSStream) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	cc, err := s.consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(ctx, msg.Data()); err != nil {
			s.logger.Error("stream handler failed, requesting redelivery", "subject", msg.Subject(), "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to consume stream: %w", err)
	}

	s.mu.Lock()
	s.consume = cc
	s.mu.Unlock()
	return nil
}

// Close stops consumption and closes the NATS connection.
func (s *NATSStream) Close() error {
	s.mu.Lock()
	if s.consume != nil {
		s.consume.Stop()
		s.consume = nil
	}
	s.mu.Unlock()

	s.conn.Close()
	return nil
}
