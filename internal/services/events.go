package services

import (
	"context"
	"log/slog"

	"tietkiem/internal/amqp"
)

// EventPublisher delivers transaction events to the mirror worker.
// *amqp.Client satisfies it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev amqp.TransactionEvent) error
}

// publish is best effort: the write already succeeded locally.
func publish(ctx context.Context, p EventPublisher, ev *amqp.TransactionEvent) {
	if p == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping event", "type", ev.Type, "id", ev.ID)
		return
	}
	if err := p.PublishTransactionEvent(ctx, *ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"type", ev.Type, "id", ev.ID, "error", err)
	}
}
