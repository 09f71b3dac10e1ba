package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/vegloss-service/internal/config"
	"github.com/couchcryptid/vegloss-service/internal/domain"
	"github.com/couchcryptid/vegloss-service/internal/observability"
	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
)

const eventType = "vegetation_loss.analysis_completed"

// Publisher produces analysis events to a Kafka topic. It implements
// domain.Publisher.
type Publisher struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates an asynchronous Kafka producer for the configured
// topic. Delivery results are reported through metrics and logs only.
func NewPublisher(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	p := &Publisher{metrics: metrics, logger: logger}
	p.writer = &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           100 * time.Millisecond,
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion:             p.completion,
	}
	return p
}

// Publish enqueues the event. With an async writer the returned error only
// covers serialization and a closed writer.
func (p *Publisher) Publish(ctx context.Context, event domain.AnalysisEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		p.metrics.PublishErrors.Inc()
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.PublishErrors.Inc()
		return fmt.Errorf("publish analysis event: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) completion(messages []kafkago.Message, err error) {
	if err != nil {
		p.metrics.PublishErrors.Add(float64(len(messages)))
		p.logger.Error("analysis event delivery failed", "count", len(messages), "error", err)
		return
	}
	p.metrics.EventsPublished.Add(float64(len(messages)))
}

// serializeToMessage marshals an AnalysisEvent into a Kafka message keyed by
// request ID.
func serializeToMessage(event domain.AnalysisEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize analysis event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.RequestID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "processed_at", Value: []byte(event.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
