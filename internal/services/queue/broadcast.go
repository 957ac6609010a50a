package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sbstnppl/worldkeeper/pkg/events"
)

// LiveChannel is the Pub/Sub channel carrying a session's committed
// events to live listeners.
func LiveChannel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-live:%s", sessionID.String())
}

// Broadcaster pushes committed events onto the session's live channel for
// SSE subscribers. Delivery is fire-and-forget: the durable copy lives in
// the EventFeed, so a dropped broadcast loses a live update, never state.
type Broadcaster struct {
	client *Client
}

func NewBroadcaster(client *Client) *Broadcaster {
	return &Broadcaster{client: client}
}

// Publish sends one event to everyone currently subscribed to the
// session's live channel.
func (b *Broadcaster) Publish(ctx context.Context, sessionID uuid.UUID, evt events.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	if err := b.client.rdb.Publish(ctx, LiveChannel(sessionID), data).Err(); err != nil {
		return fmt.Errorf("failed to broadcast event: %w", err)
	}
	return nil
}
