package world

import (
	"fmt"
	"sort"
)

// TransportMode prices movement across terrain. The catalog of modes is
// global, read-only state shared by every session; zones and connections
// are per-session.
type TransportMode struct {
	Key  string `json:"key"`
	Name string `json:"name"`

	// Mounted modes additionally require the destination zone to carry a
	// mounted cost; a zone without one cannot be ridden into.
	Mounted bool `json:"mounted,omitempty"`

	// TerrainCosts multiplies crossing minutes per destination terrain.
	// A terrain absent from the map is impassable for this mode.
	TerrainCosts map[TerrainType]float64 `json:"terrain_costs"`

	RequiredSkill string `json:"required_skill,omitempty"`
	RequiredItem  string `json:"required_item,omitempty"`

	// FatiguePerMinute drains stamina while traveling by this mode, on
	// top of ordinary decay.
	FatiguePerMinute float64 `json:"fatigue_per_minute,omitempty"`

	EncounterModifier float64 `json:"encounter_modifier,omitempty"`
}

func (t TransportMode) Validate() error {
	if t.Key == "" {
		return fmt.Errorf("transport key is required")
	}
	if len(t.TerrainCosts) == 0 {
		return fmt.Errorf("transport %s: at least one terrain cost is required", t.Key)
	}
	for terrain, mult := range t.TerrainCosts {
		if !terrain.IsValid() {
			return fmt.Errorf("transport %s: unknown terrain %q", t.Key, terrain)
		}
		if mult <= 0 {
			return fmt.Errorf("transport %s: terrain %s multiplier %v must be positive", t.Key, terrain, mult)
		}
	}
	if t.FatiguePerMinute < 0 {
		return fmt.Errorf("transport %s: negative fatigue rate", t.Key)
	}
	return nil
}

// CanTraverse reports whether this mode can move across the given terrain.
func (t TransportMode) CanTraverse(terrain TerrainType) bool {
	_, ok := t.TerrainCosts[terrain]
	return ok
}

// Multiplier returns the cost multiplier for a terrain. The boolean is
// false when the terrain is impassable for this mode.
func (t TransportMode) Multiplier(terrain TerrainType) (float64, bool) {
	m, ok := t.TerrainCosts[terrain]
	return m, ok
}

// Catalog is the global transport registry.
type Catalog map[string]TransportMode

// Get resolves a transport key from external input.
func (c Catalog) Get(key string) (TransportMode, error) {
	t, ok := c[key]
	if !ok {
		return TransportMode{}, fmt.Errorf("%w: %q", ErrTransportNotFound, key)
	}
	return t, nil
}

// Keys returns the catalog keys sorted for deterministic listings.
func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Default transport keys.
const (
	TransportWalking  = "walking"
	TransportMounted  = "horseback"
	TransportSwimming = "swimming"
	TransportClimbing = "climbing"
	TransportBoating  = "boating"
)

// DefaultCatalog returns the stock transport modes. Sessions may extend the
// catalog through their world definition but never mutate it mid-session.
func DefaultCatalog() Catalog {
	return Catalog{
		TransportWalking: {
			Key:  TransportWalking,
			Name: "Walking",
			TerrainCosts: map[TerrainType]float64{
				TerrainPlains:   1.0,
				TerrainForest:   2.0,
				TerrainRoad:     0.8,
				TerrainTrail:    0.9,
				TerrainMountain: 3.0,
				TerrainSwamp:    2.5,
				TerrainDesert:   1.8,
				TerrainCave:     2.0,
				TerrainUrban:    1.0,
				TerrainRuins:    1.5,
			},
			FatiguePerMinute: 0.02,
		},
		TransportMounted: {
			Key:     TransportMounted,
			Name:    "Horseback",
			Mounted: true,
			TerrainCosts: map[TerrainType]float64{
				TerrainPlains: 0.5,
				TerrainForest: 1.5,
				TerrainRoad:   0.4,
				TerrainTrail:  0.7,
				TerrainDesert: 1.2,
				TerrainUrban:  0.8,
			},
			RequiredItem:      "mount",
			FatiguePerMinute:  0.005,
			EncounterModifier: 0.8,
		},
		TransportSwimming: {
			Key:  TransportSwimming,
			Name: "Swimming",
			TerrainCosts: map[TerrainType]float64{
				TerrainLake:  2.0,
				TerrainRiver: 2.5,
				TerrainOcean: 4.0,
			},
			RequiredSkill:    "swimming",
			FatiguePerMinute: 0.5,
		},
		TransportClimbing: {
			Key:  TransportClimbing,
			Name: "Climbing",
			TerrainCosts: map[TerrainType]float64{
				TerrainCliff:    6.0,
				TerrainMountain: 4.0,
				TerrainCave:     3.0,
			},
			RequiredSkill:    "climbing",
			FatiguePerMinute: 0.4,
		},
		TransportBoating: {
			Key:  TransportBoating,
			Name: "Boating",
			TerrainCosts: map[TerrainType]float64{
				TerrainLake:  1.0,
				TerrainRiver: 1.2,
				TerrainOcean: 2.0,
			},
			RequiredItem:      "boat",
			FatiguePerMinute:  0.05,
			EncounterModifier: 0.6,
		},
	}
}
