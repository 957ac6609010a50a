package world

import (
	"fmt"
	"regexp"

	"github.com/sbstnppl/worldkeeper/pkg/needs"
)

var keyPattern = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

// ValidKey reports whether a content key is snake_case. World content is
// keyed by stable snake_case identifiers; display names carry the prose.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// EntityDef seeds one entity at session creation. Needs lists initial
// values per need; needs absent from the map start at DefaultInitialNeed.
type EntityDef struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Kind        string `json:"kind"` // "player", "npc" or "creature"
	Pronouns    string `json:"pronouns,omitempty"`
	Description string `json:"description,omitempty"`

	HP         int            `json:"hp,omitempty"`
	AC         int            `json:"ac,omitempty"`
	Attributes map[string]int `json:"attributes,omitempty"`
	Skills     map[string]int `json:"skills,omitempty"`

	Traits      []string               `json:"traits,omitempty"`
	Preferences *needs.Preferences     `json:"preferences,omitempty"`
	Needs       map[needs.Need]float64 `json:"needs,omitempty"`

	StartZone string `json:"start_zone"`

	// StartingKnowledge lists zone keys the entity knows before play.
	StartingKnowledge []string `json:"starting_knowledge,omitempty"`

	Extra map[string]string `json:"extra,omitempty"`
}

// DefaultInitialNeed is the starting value for needs a definition leaves
// unset.
const DefaultInitialNeed = 80.0

func (e EntityDef) Validate() error {
	if !ValidKey(e.Key) {
		return fmt.Errorf("entity key %q must be snake_case", e.Key)
	}
	if e.Name == "" {
		return fmt.Errorf("entity %s: name is required", e.Key)
	}
	switch e.Kind {
	case "player", "npc", "creature":
	default:
		return fmt.Errorf("entity %s: unknown kind %q", e.Key, e.Kind)
	}
	if e.StartZone == "" {
		return fmt.Errorf("entity %s: start_zone is required", e.Key)
	}
	for n, v := range e.Needs {
		if !n.IsValid() {
			return fmt.Errorf("entity %s: %w: %q", e.Key, needs.ErrUnknownNeed, n)
		}
		if err := needs.ValidateValue(v); err != nil {
			return fmt.Errorf("entity %s need %s: %w", e.Key, n, err)
		}
	}
	return nil
}

// Definition is a loadable world template: the zones, connections,
// locations, transport extensions and starting entities a fresh session is
// seeded from. Definitions live as JSON files under the data directory,
// one world per file.
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Zones       []Zone          `json:"zones"`
	Connections []Connection    `json:"connections,omitempty"`
	Locations   []Location      `json:"locations,omitempty"`
	Transports  []TransportMode `json:"transports,omitempty"`
	Entities    []EntityDef     `json:"entities"`
}

// Validate checks the definition's internal consistency: key formats,
// enum values, referential integrity and parent containment shape.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("world name is required")
	}
	if len(d.Zones) == 0 {
		return fmt.Errorf("world %s: at least one zone is required", d.Name)
	}

	zoneKeys := make(map[string]bool, len(d.Zones))
	for _, z := range d.Zones {
		if !ValidKey(z.Key) {
			return fmt.Errorf("zone key %q must be snake_case", z.Key)
		}
		if zoneKeys[z.Key] {
			return fmt.Errorf("duplicate zone key %q", z.Key)
		}
		if err := z.Validate(); err != nil {
			return err
		}
		zoneKeys[z.Key] = true
	}

	// Parent containment must form a forest.
	parents := make(map[string]string, len(d.Zones))
	for _, z := range d.Zones {
		if z.ParentKey == "" {
			continue
		}
		if !zoneKeys[z.ParentKey] {
			return fmt.Errorf("zone %s: unknown parent %q", z.Key, z.ParentKey)
		}
		if z.ParentKey == z.Key {
			return fmt.Errorf("zone %s: cannot contain itself", z.Key)
		}
		parents[z.Key] = z.ParentKey
	}
	for key := range parents {
		seen := map[string]bool{key: true}
		for cur := parents[key]; cur != ""; cur = parents[cur] {
			if seen[cur] {
				return fmt.Errorf("zone containment cycle through %q", cur)
			}
			seen[cur] = true
		}
	}

	for _, c := range d.Connections {
		if err := c.Validate(); err != nil {
			return err
		}
		if !zoneKeys[c.FromKey] {
			return fmt.Errorf("connection %s->%s: unknown zone %q", c.FromKey, c.ToKey, c.FromKey)
		}
		if !zoneKeys[c.ToKey] {
			return fmt.Errorf("connection %s->%s: unknown zone %q", c.FromKey, c.ToKey, c.ToKey)
		}
	}

	locationKeys := make(map[string]bool, len(d.Locations))
	for _, l := range d.Locations {
		if !ValidKey(l.Key) {
			return fmt.Errorf("location key %q must be snake_case", l.Key)
		}
		if locationKeys[l.Key] {
			return fmt.Errorf("duplicate location key %q", l.Key)
		}
		if err := l.Validate(); err != nil {
			return err
		}
		if !zoneKeys[l.ZoneKey] {
			return fmt.Errorf("location %s: unknown zone %q", l.Key, l.ZoneKey)
		}
		locationKeys[l.Key] = true
	}

	for _, t := range d.Transports {
		if !ValidKey(t.Key) {
			return fmt.Errorf("transport key %q must be snake_case", t.Key)
		}
		if err := t.Validate(); err != nil {
			return err
		}
	}

	if len(d.Entities) == 0 {
		return fmt.Errorf("world %s: at least one entity is required", d.Name)
	}
	entityKeys := make(map[string]bool, len(d.Entities))
	for _, e := range d.Entities {
		if err := e.Validate(); err != nil {
			return err
		}
		if entityKeys[e.Key] {
			return fmt.Errorf("duplicate entity key %q", e.Key)
		}
		entityKeys[e.Key] = true
		if !zoneKeys[e.StartZone] {
			return fmt.Errorf("entity %s: unknown start zone %q", e.Key, e.StartZone)
		}
		for _, known := range e.StartingKnowledge {
			if !zoneKeys[known] {
				return fmt.Errorf("entity %s: starting knowledge references unknown zone %q", e.Key, known)
			}
		}
	}

	return nil
}

// InitialNeeds resolves an entity definition to a full need map.
func (e EntityDef) InitialNeeds() map[needs.Need]float64 {
	out := make(map[needs.Need]float64, len(needs.All))
	for _, n := range needs.All {
		out[n] = DefaultInitialNeed
	}
	for n, v := range e.Needs {
		out[n] = v
	}
	return out
}
