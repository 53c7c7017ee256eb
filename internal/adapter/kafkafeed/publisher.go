// Package kafkafeed publishes projection updates to a Kafka topic.
package kafkafeed

import (
	"context"
	"log/slog"
	"sort"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/almadenlabs/covidlag/internal/config"
	"github.com/almadenlabs/covidlag/internal/domain"
)

// Publisher produces projection messages to the feed topic.
// It implements pipeline.Feed.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured feed topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes one projection and writes it to the feed topic.
func (p *Publisher) Publish(ctx context.Context, proj domain.Projection) error {
	msg, err := toMessage(proj)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// toMessage converts a projection into a Kafka message. Headers are emitted
// in sorted key order so output is stable.
func toMessage(proj domain.Projection) (kafkago.Message, error) {
	fm, err := domain.SerializeProjection(proj)
	if err != nil {
		return kafkago.Message{}, err
	}

	keys := make([]string, 0, len(fm.Headers))
	for k := range fm.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(fm.Headers[k])})
	}

	return kafkago.Message{
		Key:     fm.Key,
		Value:   fm.Value,
		Headers: headers,
	}, nil
}
