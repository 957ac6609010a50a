package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sbstnppl/worldkeeper/pkg/events"
)

// EventFeed buffers simulation events per session until the narrator
// drains them. Events survive process restarts but not a Redis flush;
// they are narration hints, not state.
type EventFeed struct {
	client *Client
}

func NewEventFeed(client *Client) *EventFeed {
	return &EventFeed{
		client: client,
	}
}

func feedKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// Publish appends an event to the end of the session's feed
func (f *EventFeed) Publish(ctx context.Context, sessionID uuid.UUID, evt events.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	key := feedKey(sessionID)
	if err := f.client.rdb.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Drain removes and returns all pending events for a session
func (f *EventFeed) Drain(ctx context.Context, sessionID uuid.UUID) ([]events.Event, error) {
	key := feedKey(sessionID)

	raw, err := f.client.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to drain events: %w", err)
	}
	if len(raw) > 0 {
		if err := f.client.rdb.Del(ctx, key).Err(); err != nil {
			return nil, fmt.Errorf("failed to clear event feed after drain: %w", err)
		}
	}
	return decodeEvents(raw)
}

// Peek returns pending events without removing them. limit <= 0 means all.
func (f *EventFeed) Peek(ctx context.Context, sessionID uuid.UUID, limit int) ([]events.Event, error) {
	key := feedKey(sessionID)

	end := int64(limit - 1)
	if limit <= 0 {
		end = -1
	}
	raw, err := f.client.rdb.LRange(ctx, key, 0, end).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to peek events: %w", err)
	}
	return decodeEvents(raw)
}

// Depth returns the number of pending events for a session
func (f *EventFeed) Depth(ctx context.Context, sessionID uuid.UUID) (int, error) {
	count, err := f.client.rdb.LLen(ctx, feedKey(sessionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get feed depth: %w", err)
	}
	return int(count), nil
}

// Clear removes all pending events for a session
func (f *EventFeed) Clear(ctx context.Context, sessionID uuid.UUID) error {
	if err := f.client.rdb.Del(ctx, feedKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear event feed: %w", err)
	}
	return nil
}

func decodeEvents(raw []string) ([]events.Event, error) {
	out := make([]events.Event, 0, len(raw))
	for _, r := range raw {
		var evt events.Event
		if err := json.Unmarshal([]byte(r), &evt); err != nil {
			return nil, fmt.Errorf("failed to parse event: %w", err)
		}
		out = append(out, evt)
	}
	return out, nil
}
