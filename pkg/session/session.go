// Package session defines the game session: one playthrough of one world,
// owning a turn counter and an in-world clock. All simulation state hangs
// off a session and dies with it.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is the root aggregate. Turn advances once per advance_turn tool
// call; ClockMinutes accumulates every simulated minute, including travel.
type Session struct {
	ID        uuid.UUID `json:"id"`
	WorldName string    `json:"world_name"`
	Name      string    `json:"name,omitempty"`

	Turn         int     `json:"turn"`
	ClockMinutes float64 `json:"clock_minutes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New starts a session on turn zero.
func New(worldName, name string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New(),
		WorldName: worldName,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Validate() error {
	if s.ID == uuid.Nil {
		return fmt.Errorf("session id is required")
	}
	if s.WorldName == "" {
		return fmt.Errorf("session world_name is required")
	}
	if s.Turn < 0 {
		return fmt.Errorf("session turn cannot be negative")
	}
	return nil
}
