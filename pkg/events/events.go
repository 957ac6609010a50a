// Package events defines the session event feed: structured facts the
// simulation emits for the narrator to weave into its next description.
// Events are queued per session and drained at prompt-build time.
package events

import (
	"github.com/google/uuid"
)

// EventType represents the type of event being emitted
type EventType string

const (
	EventTypeNeedUrgent     EventType = "need.urgent"
	EventTypeNeedRecovered  EventType = "need.recovered"
	EventTypeTravelHop      EventType = "travel.hop"
	EventTypeTravelArrived  EventType = "travel.arrived"
	EventTypeTravelHalted   EventType = "travel.halted"
	EventTypeCheckFailed    EventType = "travel.check_failed"
	EventTypeCheckPassed    EventType = "travel.check_passed"
	EventTypeZoneDiscovered EventType = "zone.discovered"
	EventTypeTurnAdvanced   EventType = "turn.advanced"
)

// Event is one entry in a session's feed.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	EntityKey string         `json:"entity_key,omitempty"`
	Turn      int            `json:"turn"`
	Data      map[string]any `json:"data,omitempty"`
}

func newEvent(t EventType, sessionID, entityKey string, turn int, data map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		SessionID: sessionID,
		EntityKey: entityKey,
		Turn:      turn,
		Data:      data,
	}
}

// NewNeedUrgent marks a need crossing below its effective threshold.
func NewNeedUrgent(sessionID, entityKey string, turn int, need string, value, threshold float64) Event {
	return newEvent(EventTypeNeedUrgent, sessionID, entityKey, turn, map[string]any{
		"need":      need,
		"value":     value,
		"threshold": threshold,
	})
}

// NewNeedRecovered marks a need climbing back above its threshold.
func NewNeedRecovered(sessionID, entityKey string, turn int, need string, value float64) Event {
	return newEvent(EventTypeNeedRecovered, sessionID, entityKey, turn, map[string]any{
		"need":  need,
		"value": value,
	})
}

// NewTravelHop marks one completed hop of a journey.
func NewTravelHop(sessionID, entityKey string, turn int, fromZone, toZone string, minutes float64, remainingHops int) Event {
	return newEvent(EventTypeTravelHop, sessionID, entityKey, turn, map[string]any{
		"from_zone":      fromZone,
		"to_zone":        toZone,
		"minutes":        minutes,
		"remaining_hops": remainingHops,
	})
}

// NewTravelArrived marks a journey reaching its destination.
func NewTravelArrived(sessionID, entityKey string, turn int, destination string, elapsedMinutes float64) Event {
	return newEvent(EventTypeTravelArrived, sessionID, entityKey, turn, map[string]any{
		"destination":     destination,
		"elapsed_minutes": elapsedMinutes,
	})
}

// NewTravelHalted marks a journey stopped by the world.
func NewTravelHalted(sessionID, entityKey string, turn int, atZone, reason string) Event {
	return newEvent(EventTypeTravelHalted, sessionID, entityKey, turn, map[string]any{
		"at_zone": atZone,
		"reason":  reason,
	})
}

// NewCheckFailed marks a failed travel skill check and its consequence.
func NewCheckFailed(sessionID, entityKey string, turn int, skill string, difficulty, rolled int, consequence string) Event {
	return newEvent(EventTypeCheckFailed, sessionID, entityKey, turn, map[string]any{
		"skill":       skill,
		"difficulty":  difficulty,
		"rolled":      rolled,
		"consequence": consequence,
	})
}

// NewCheckPassed marks a passed travel skill check.
func NewCheckPassed(sessionID, entityKey string, turn int, skill string, difficulty, rolled int) Event {
	return newEvent(EventTypeCheckPassed, sessionID, entityKey, turn, map[string]any{
		"skill":      skill,
		"difficulty": difficulty,
		"rolled":     rolled,
	})
}

// NewZoneDiscovered marks an entity learning of a zone.
func NewZoneDiscovered(sessionID, entityKey string, turn int, zoneKey, method, source string) Event {
	return newEvent(EventTypeZoneDiscovered, sessionID, entityKey, turn, map[string]any{
		"zone_key": zoneKey,
		"method":   method,
		"source":   source,
	})
}

// NewTurnAdvanced marks the end of a turn pipeline run.
func NewTurnAdvanced(sessionID string, turn int, elapsedMinutes float64, expiredModifiers int) Event {
	return newEvent(EventTypeTurnAdvanced, sessionID, "", turn, map[string]any{
		"elapsed_minutes":   elapsedMinutes,
		"expired_modifiers": expiredModifiers,
	})
}
