// Package travel holds the journey model: a planned multi-zone trip that
// advances one zone per tool call, so the narrator can interleave events
// between hops.
package travel

import "fmt"

// Status is a journey's lifecycle state.
type Status string

const (
	// StatusTraveling journeys advance on each continue_travel call.
	StatusTraveling Status = "traveling"
	// StatusArrived journeys reached their destination.
	StatusArrived Status = "arrived"
	// StatusAborted journeys were given up mid-route; the traveler stays
	// wherever the last completed hop left them.
	StatusAborted Status = "aborted"
	// StatusHalted journeys were stopped by the world: a failed skill
	// check, a blockade that appeared mid-session.
	StatusHalted Status = "halted"
)

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusTraveling, StatusArrived, StatusAborted, StatusHalted:
		return st, nil
	}
	return "", fmt.Errorf("unknown journey status %q", s)
}

// Journey is one planned trip. Position indexes Path at the traveler's
// current zone; it only ever moves forward, one hop per advance, except for
// a turn_back consequence which moves it one hop backward.
type Journey struct {
	ID        string `json:"id"`
	EntityKey string `json:"entity_key"`

	OriginKey      string `json:"origin_key"`
	DestinationKey string `json:"destination_key"`
	TransportKey   string `json:"transport_key"`
	PreferRoads    bool   `json:"prefer_roads,omitempty"`

	Path     []string `json:"path"`
	Position int      `json:"position"`

	ElapsedMinutes   float64 `json:"elapsed_minutes"`
	EstimatedMinutes int     `json:"estimated_minutes"`

	Status     Status `json:"status"`
	HaltReason string `json:"halt_reason,omitempty"`

	StartedTurn   int  `json:"started_turn"`
	CompletedTurn *int `json:"completed_turn,omitempty"`
}

// CurrentZone is where the traveler stands right now.
func (j Journey) CurrentZone() string {
	if j.Position < 0 || j.Position >= len(j.Path) {
		return ""
	}
	return j.Path[j.Position]
}

// NextZone is the upcoming hop, if any.
func (j Journey) NextZone() (string, bool) {
	if j.Position+1 >= len(j.Path) {
		return "", false
	}
	return j.Path[j.Position+1], true
}

// RemainingHops counts hops still ahead of the traveler.
func (j Journey) RemainingHops() int {
	r := len(j.Path) - 1 - j.Position
	if r < 0 {
		return 0
	}
	return r
}

// InFlight reports whether the journey still accepts advances.
func (j Journey) InFlight() bool {
	return j.Status == StatusTraveling
}

func (j Journey) Validate() error {
	if j.EntityKey == "" {
		return fmt.Errorf("journey entity_key is required")
	}
	if len(j.Path) < 2 {
		return fmt.Errorf("journey path needs at least two zones")
	}
	if j.Position < 0 || j.Position >= len(j.Path) {
		return fmt.Errorf("journey position %d out of path range", j.Position)
	}
	if _, err := ParseStatus(string(j.Status)); err != nil {
		return err
	}
	return nil
}
