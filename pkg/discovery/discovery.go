// Package discovery holds the types for entity world-knowledge: which zones
// and locations an entity has learned about, and how. Entities can only
// travel to places they know exist; narration leans on the how.
package discovery

import "fmt"

// Method is how an entity came to know a place. The set is closed.
type Method string

const (
	MethodVisited           Method = "visited"
	MethodToldByNPC         Method = "told_by_npc"
	MethodMapViewed         Method = "map_viewed"
	MethodDigitalLookup     Method = "digital_lookup"
	MethodVisibleFrom       Method = "visible_from"
	MethodStartingKnowledge Method = "starting_knowledge"
)

var methods = []Method{
	MethodVisited, MethodToldByNPC, MethodMapViewed,
	MethodDigitalLookup, MethodVisibleFrom, MethodStartingKnowledge,
}

func ParseMethod(s string) (Method, error) {
	m := Method(s)
	for _, known := range methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown discovery method %q", s)
}

// ZoneDiscovery records that an entity knows a zone. The first discovery
// wins: later rediscoveries never overwrite the original method, source or
// turn.
type ZoneDiscovery struct {
	EntityKey string `json:"entity_key"`
	ZoneKey   string `json:"zone_key"`
	Method    Method `json:"method"`

	// Source names where the knowledge came from: the telling NPC, the
	// map item, or the vantage zone for visible_from.
	Source string `json:"source,omitempty"`
	Turn   int    `json:"turn"`
}

// LocationDiscovery records that an entity knows a location.
type LocationDiscovery struct {
	EntityKey   string `json:"entity_key"`
	LocationKey string `json:"location_key"`
	Method      Method `json:"method"`
	Source      string `json:"source,omitempty"`
	Turn        int    `json:"turn"`
}

// Outcome reports one discovery attempt. NewlyDiscovered is false when the
// entity already knew the place; the embedded record is then the original.
type Outcome struct {
	Key             string `json:"key"`
	NewlyDiscovered bool   `json:"newly_discovered"`
	Method          Method `json:"method"`
	Turn            int    `json:"turn"`
}
