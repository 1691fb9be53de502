package event

import (
	"context"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// JournalHandler writes every domain event to the structured log as JSON.
// It subscribes to all event types.
type JournalHandler struct {
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewJournalHandler creates a journal handler
func NewJournalHandler(serializer *EventSerializer, log *zap.Logger) *JournalHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &JournalHandler{serializer: serializer, logger: log.Named("journal")}
}

// EventTypes returns nil so the handler receives every event
func (h *JournalHandler) EventTypes() []string {
	return nil
}

// Handle logs the event with its request correlation fields
func (h *JournalHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.serializer.IsRegistered(event.EventType()) {
		h.logger.Warn("Unregistered event type", zap.String("event_type", event.EventType()))
	}
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return err
	}

	fields := append(logger.Fields(ctx),
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("owner_id", event.OwnerID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.ByteString("payload", payload),
	)
	h.logger.Info("Domain event", fields...)
	return nil
}

// Ensure JournalHandler implements EventHandler
var _ shared.EventHandler = (*JournalHandler)(nil)
