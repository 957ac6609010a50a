package world

import "fmt"

// TerrainType classifies a zone for travel pricing. Transport modes carry a
// cost multiplier per terrain; a terrain missing from a mode's map is
// impassable for that mode.
type TerrainType string

const (
	TerrainPlains   TerrainType = "plains"
	TerrainForest   TerrainType = "forest"
	TerrainRoad     TerrainType = "road"
	TerrainTrail    TerrainType = "trail"
	TerrainMountain TerrainType = "mountain"
	TerrainSwamp    TerrainType = "swamp"
	TerrainDesert   TerrainType = "desert"
	TerrainLake     TerrainType = "lake"
	TerrainRiver    TerrainType = "river"
	TerrainOcean    TerrainType = "ocean"
	TerrainCliff    TerrainType = "cliff"
	TerrainCave     TerrainType = "cave"
	TerrainUrban    TerrainType = "urban"
	TerrainRuins    TerrainType = "ruins"
)

// Terrains lists every terrain in canonical order.
var Terrains = []TerrainType{
	TerrainPlains, TerrainForest, TerrainRoad, TerrainTrail,
	TerrainMountain, TerrainSwamp, TerrainDesert, TerrainLake,
	TerrainRiver, TerrainOcean, TerrainCliff, TerrainCave,
	TerrainUrban, TerrainRuins,
}

func ParseTerrain(s string) (TerrainType, error) {
	t := TerrainType(s)
	for _, known := range Terrains {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown terrain %q", s)
}

func (t TerrainType) IsValid() bool {
	_, err := ParseTerrain(string(t))
	return err == nil
}

func (t TerrainType) String() string { return string(t) }
