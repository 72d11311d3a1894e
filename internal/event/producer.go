// Package event publishes review lifecycle events to Kafka.
package event

import (
	"context"
	"log/slog"

	"github.com/netz98/app-builder-product-reviews/internal/domain"
	"github.com/netz98/app-builder-product-reviews/pkg/kafka"
	"github.com/netz98/app-builder-product-reviews/pkg/logger"
)

// Topics for review lifecycle events.
const (
	TopicReviewCreated = "reviews.review.created"
	TopicReviewUpdated = "reviews.review.updated"
	TopicReviewDeleted = "reviews.review.deleted"
)

const (
	aggregateType = "review"
	source        = "reviews-service"
)

// publisher is the subset of the Kafka producer the event layer needs.
type publisher interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// Producer emits review events. Publishing is best-effort; failures are
// logged and never fail the originating request.
type Producer struct {
	pub    publisher
	logger *slog.Logger
}

// NewProducer wraps a Kafka producer for review event publishing.
func NewProducer(pub publisher, log *slog.Logger) *Producer {
	return &Producer{pub: pub, logger: log}
}

// ReviewCreated publishes a reviews.review.created event.
func (p *Producer) ReviewCreated(ctx context.Context, review *domain.Review) {
	p.publish(ctx, TopicReviewCreated, "review.created", review.ID, review)
}

// ReviewUpdated publishes a reviews.review.updated event.
func (p *Producer) ReviewUpdated(ctx context.Context, review *domain.Review) {
	p.publish(ctx, TopicReviewUpdated, "review.updated", review.ID, review)
}

// ReviewDeleted publishes a reviews.review.deleted event carrying only the id.
func (p *Producer) ReviewDeleted(ctx context.Context, id string) {
	p.publish(ctx, TopicReviewDeleted, "review.deleted", id, map[string]string{"id": id})
}

// Discard is a no-op publisher used when event publishing is disabled.
type Discard struct{}

func (Discard) ReviewCreated(context.Context, *domain.Review) {}
func (Discard) ReviewUpdated(context.Context, *domain.Review) {}
func (Discard) ReviewDeleted(context.Context, string)         {}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID string, data any) {
	evt, err := kafka.NewEvent(eventType, aggregateID, aggregateType, source, data)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}
	if err := p.pub.Publish(ctx, topic, evt); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.String("aggregate_id", aggregateID),
			slog.String("error", err.Error()),
		)
	}
}
