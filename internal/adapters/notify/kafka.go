package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/okian/netrisk/pkg/json"
	"github.com/okian/netrisk/pkg/logger"
	"github.com/okian/netrisk/pkg/metrics"
)

// DefaultTopic receives alerts when none is configured.
const DefaultTopic = "netrisk.alerts"

// KafkaConfig addresses the alert topic.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// KafkaNotifier publishes alerts as JSON messages keyed by identifier.
type KafkaNotifier struct {
	writer *kafka.Writer
	logger logger.Logger
}

// NewKafkaNotifier creates a notifier. No connection is made until the
// first alert.
func NewKafkaNotifier(cfg KafkaConfig) *KafkaNotifier {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: cfg.WriteTimeout,
			MaxAttempts:  3,
			RequiredAcks: kafka.RequireOne,
		},
		logger: logger.Get().Named("alerts"),
	}
}

func (n *KafkaNotifier) Notify(ctx context.Context, a Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		metrics.RecordAlert("error")
		return fmt.Errorf("encode alert: %w", err)
	}
	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(a.Key),
		Value: payload,
		Time:  a.CreatedAt,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(a.Kind)},
		},
	})
	if err != nil {
		metrics.RecordAlert("error")
		n.logger.Warn(ctx, "alert publish failed",
			logger.String("kind", a.Kind), logger.String("key", a.Key), logger.Error(err))
		return fmt.Errorf("publish alert: %w", err)
	}
	metrics.RecordAlert("published")
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
