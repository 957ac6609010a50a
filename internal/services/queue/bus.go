package queue

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sbstnppl/worldkeeper/pkg/events"
)

// Bus couples the durable event feed with the live broadcaster. Feed
// writes are authoritative and their errors propagate; broadcast failures
// are logged and dropped.
type Bus struct {
	feed   *EventFeed
	cast   *Broadcaster
	logger *slog.Logger
}

func NewBus(feed *EventFeed, cast *Broadcaster, logger *slog.Logger) *Bus {
	return &Bus{
		feed:   feed,
		cast:   cast,
		logger: logger,
	}
}

func (b *Bus) Publish(ctx context.Context, sessionID uuid.UUID, evt events.Event) error {
	if err := b.feed.Publish(ctx, sessionID, evt); err != nil {
		return err
	}
	if b.cast != nil {
		if err := b.cast.Publish(ctx, sessionID, evt); err != nil {
			b.logger.Warn("Failed to broadcast event",
				"session_id", sessionID,
				"event_type", evt.Type,
				"error", err,
			)
		}
	}
	return nil
}

func (b *Bus) Drain(ctx context.Context, sessionID uuid.UUID) ([]events.Event, error) {
	return b.feed.Drain(ctx, sessionID)
}

func (b *Bus) Peek(ctx context.Context, sessionID uuid.UUID, limit int) ([]events.Event, error) {
	return b.feed.Peek(ctx, sessionID, limit)
}
