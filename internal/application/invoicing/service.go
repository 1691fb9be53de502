package invoicing

import (
	"context"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
)

// Clock returns the current time. Services default to time.Now; tests pin it.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// eventSource is any aggregate that buffers domain events
type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// collectEvents drains buffered events from aggregates in order
func collectEvents(sources ...eventSource) []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, src := range sources {
		if src == nil {
			continue
		}
		events = append(events, src.GetDomainEvents()...)
		src.ClearDomainEvents()
	}
	return events
}

// publishEvents hands committed events to the publisher. Publishing errors are logged by the bus.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, events []shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	_ = publisher.Publish(ctx, events...)
}
