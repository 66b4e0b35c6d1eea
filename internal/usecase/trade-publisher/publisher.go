package tradepublisher

import (
	"context"
	"encoding/json"

	"github.com/muhammadchandra19/market-gateway/pkg/config"
	"github.com/muhammadchandra19/market-gateway/pkg/errors"
	"github.com/muhammadchandra19/market-gateway/pkg/logger"
	"github.com/oklog/ulid/v2"
	"github.com/segmentio/kafka-go"
)

// Event is one executed trade published to the trades topic.
type Event struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productID"`
	Timestamp string  `json:"timestamp"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	// Source distinguishes trades ingested from the market feed from fills
	// produced by locally submitted orders.
	Source string `json:"source"`
}

// Interface is the publishing contract consumed by the session.
//
//go:generate mockgen -source publisher.go -destination=mock/publisher_mock.go -package=tradepublisher_mock
type Interface interface {
	PublishTrade(ctx context.Context, event Event) error
	Close() error
}

// Publisher writes trade events to Kafka.
type Publisher struct {
	kafkaWriter *kafka.Writer
	logger      logger.Interface
}

// NewPublisher creates a new Kafka publisher for trade events.
func NewPublisher(cfg config.KafkaConfig, log logger.Interface) *Publisher {
	kafkaWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
	})

	return &Publisher{
		kafkaWriter: kafkaWriter,
		logger:      log,
	}
}

// PublishTrade publishes a trade event, assigning a ULID event id when the
// caller did not set one.
func (p *Publisher) PublishTrade(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = ulid.Make().String()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return errors.NewTracer("failed to marshal trade event").Wrap(err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ProductID),
		Value: value,
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(err,
			logger.Field{Key: "operation", Value: "PublishTrade"},
			logger.Field{Key: "eventID", Value: event.ID},
		)
		return errors.NewTracer("failed to publish trade event").Wrap(err)
	}
	return nil
}

// Close properly closes the Kafka writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}
