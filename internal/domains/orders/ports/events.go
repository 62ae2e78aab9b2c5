package ports

import (
	"context"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
)

// EventPublisher forwards order events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, domain.Event) error { return nil }
