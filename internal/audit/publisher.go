// Package audit streams admission decisions to Kafka. Publishing is best
// effort: a broker failure is logged and dropped, never surfaced to the
// admission worker or the caller.
package audit

import (
	"context"
	"time"

	"posada/internal/admission"
	"posada/pkg/kafka"
	"posada/pkg/logger"
)

const (
	// EventTypeDecision is the event-type header on every decision message.
	EventTypeDecision = "reservation.admission.decision"

	sourceService  = "posada-admission"
	publishTimeout = 2 * time.Second
)

type producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

// Publisher implements admission.DecisionPublisher over a Kafka producer.
// Messages are keyed by queue and resource key so decisions for one resource
// stay ordered within a partition.
type Publisher struct {
	producer producer
	log      *logger.Logger
}

func NewPublisher(producer producer, log *logger.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		log:      log,
	}
}

func (p *Publisher) PublishDecision(ctx context.Context, decision admission.Decision) {
	msg := kafka.NewMessage().
		WithKey(decision.Queue + ":" + decision.ResourceKey).
		WithValue(decision).
		WithEventType(EventTypeDecision).
		WithSource(sourceService).
		Build()

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish admission decision",
			"queue", decision.Queue,
			"resource_key", decision.ResourceKey,
			"accepted", decision.Accepted,
			"error", err,
		)
	}
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
