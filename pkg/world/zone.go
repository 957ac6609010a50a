package world

import "fmt"

// VisibilityRange controls how far away a zone can be noticed. Adjacent
// zones reveal themselves when a traveler stands next door; far zones (a
// mountain peak, a lighthouse) reveal themselves from two hops out.
type VisibilityRange string

const (
	VisibilityNone     VisibilityRange = "none"
	VisibilityAdjacent VisibilityRange = "adjacent"
	VisibilityFar      VisibilityRange = "far"
)

func ParseVisibility(s string) (VisibilityRange, error) {
	v := VisibilityRange(s)
	switch v {
	case VisibilityNone, VisibilityAdjacent, VisibilityFar:
		return v, nil
	}
	return "", fmt.Errorf("unknown visibility range %q", s)
}

// FailureConsequence is what happens when a skill gate's check fails. The
// set is closed: narration may dress the outcome up, but the simulation only
// knows these four.
type FailureConsequence string

const (
	ConsequenceHalt           FailureConsequence = "halt"
	ConsequenceTurnBack       FailureConsequence = "turn_back"
	ConsequenceWellnessPenalty FailureConsequence = "wellness_penalty"
	ConsequenceStaminaPenalty  FailureConsequence = "stamina_penalty"
)

func ParseConsequence(s string) (FailureConsequence, error) {
	c := FailureConsequence(s)
	switch c {
	case ConsequenceHalt, ConsequenceTurnBack, ConsequenceWellnessPenalty, ConsequenceStaminaPenalty:
		return c, nil
	}
	return "", fmt.Errorf("unknown failure consequence %q", s)
}

// SkillGate annotates terrain or a crossing that demands a check before
// passage. Gates never exclude a route from planning; they surface in the
// route annotations and are rolled when travel actually reaches them.
type SkillGate struct {
	Skill       string             `json:"skill"`
	Difficulty  int                `json:"difficulty"`
	Consequence FailureConsequence `json:"consequence"`
}

func (g SkillGate) Validate() error {
	if g.Skill == "" {
		return fmt.Errorf("skill gate requires a skill")
	}
	if g.Difficulty < 1 {
		return fmt.Errorf("skill gate difficulty %d must be positive", g.Difficulty)
	}
	if _, err := ParseConsequence(string(g.Consequence)); err != nil {
		return err
	}
	return nil
}

// Zone is one node of the session's world graph. Zones may nest through
// ParentKey (a clearing inside a forest); containment forms a forest, never
// a cycle.
//
// MountedCostMinutes is nil when mounts cannot operate in the zone at all;
// absence is the signal, there is no magic -1.
type Zone struct {
	Key         string      `json:"key"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Terrain     TerrainType `json:"terrain"`
	ParentKey   string      `json:"parent_key,omitempty"`

	BaseCostMinutes    int  `json:"base_cost_minutes"`
	MountedCostMinutes *int `json:"mounted_cost_minutes,omitempty"`

	SkillGate          *SkillGate      `json:"skill_gate,omitempty"`
	Visibility         VisibilityRange `json:"visibility"`
	EncounterFrequency float64         `json:"encounter_frequency,omitempty"`

	Accessible    bool   `json:"accessible"`
	BlockedReason string `json:"blocked_reason,omitempty"`
}

func (z Zone) Validate() error {
	if z.Key == "" {
		return fmt.Errorf("zone key is required")
	}
	if z.Name == "" {
		return fmt.Errorf("zone %s: name is required", z.Key)
	}
	if !z.Terrain.IsValid() {
		return fmt.Errorf("zone %s: unknown terrain %q", z.Key, z.Terrain)
	}
	if z.BaseCostMinutes < 0 {
		return fmt.Errorf("zone %s: negative base cost", z.Key)
	}
	if z.MountedCostMinutes != nil && *z.MountedCostMinutes < 0 {
		return fmt.Errorf("zone %s: negative mounted cost", z.Key)
	}
	if z.Visibility != "" {
		if _, err := ParseVisibility(string(z.Visibility)); err != nil {
			return fmt.Errorf("zone %s: %w", z.Key, err)
		}
	}
	if z.EncounterFrequency < 0 || z.EncounterFrequency > 1 {
		return fmt.Errorf("zone %s: encounter frequency %v not in [0,1]", z.Key, z.EncounterFrequency)
	}
	if z.SkillGate != nil {
		if err := z.SkillGate.Validate(); err != nil {
			return fmt.Errorf("zone %s: %w", z.Key, err)
		}
	}
	return nil
}

// ConnectionType describes how two zones join.
type ConnectionType string

const (
	ConnectionOpen   ConnectionType = "open"
	ConnectionPath   ConnectionType = "path"
	ConnectionBridge ConnectionType = "bridge"
	ConnectionClimb  ConnectionType = "climb"
	ConnectionSwim   ConnectionType = "swim"
	ConnectionDoor   ConnectionType = "door"
	ConnectionGate   ConnectionType = "gate"
	ConnectionHidden ConnectionType = "hidden"
)

var connectionTypes = []ConnectionType{
	ConnectionOpen, ConnectionPath, ConnectionBridge, ConnectionClimb,
	ConnectionSwim, ConnectionDoor, ConnectionGate, ConnectionHidden,
}

func ParseConnectionType(s string) (ConnectionType, error) {
	c := ConnectionType(s)
	for _, known := range connectionTypes {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown connection type %q", s)
}

// Connection is one edge of the world graph. Parallel edges between the
// same pair are allowed (a bridge and a swim across the same river).
// Hidden connections stay out of route planning until the far side has
// been discovered.
type Connection struct {
	FromKey string         `json:"from_key"`
	ToKey   string         `json:"to_key"`
	Type    ConnectionType `json:"type"`

	CrossingMinutes int        `json:"crossing_minutes"`
	SkillGate       *SkillGate `json:"skill_gate,omitempty"`

	Passable      bool   `json:"passable"`
	BlockedReason string `json:"blocked_reason,omitempty"`
	Bidirectional bool   `json:"bidirectional"`
}

func (c Connection) Validate() error {
	if c.FromKey == "" || c.ToKey == "" {
		return fmt.Errorf("connection requires from_key and to_key")
	}
	if c.FromKey == c.ToKey {
		return fmt.Errorf("connection %s: self-loops are not allowed", c.FromKey)
	}
	if _, err := ParseConnectionType(string(c.Type)); err != nil {
		return fmt.Errorf("connection %s->%s: %w", c.FromKey, c.ToKey, err)
	}
	if c.CrossingMinutes < 0 {
		return fmt.Errorf("connection %s->%s: negative crossing minutes", c.FromKey, c.ToKey)
	}
	if c.SkillGate != nil {
		if err := c.SkillGate.Validate(); err != nil {
			return fmt.Errorf("connection %s->%s: %w", c.FromKey, c.ToKey, err)
		}
	}
	return nil
}

// Location is a discoverable point of interest inside a zone. Locations do
// not participate in pathfinding; they exist for discovery and narration.
type Location struct {
	Key         string `json:"key"`
	ZoneKey     string `json:"zone_key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// DiscoverOnEntry marks locations obvious enough to reveal the moment
	// a traveler enters the zone.
	DiscoverOnEntry bool `json:"discover_on_entry"`
}

func (l Location) Validate() error {
	if l.Key == "" {
		return fmt.Errorf("location key is required")
	}
	if l.ZoneKey == "" {
		return fmt.Errorf("location %s: zone_key is required", l.Key)
	}
	if l.Name == "" {
		return fmt.Errorf("location %s: name is required", l.Key)
	}
	return nil
}
