package world

import (
	"errors"
	"reflect"
	"testing"
)

func testZone(key string, terrain TerrainType, opts ...func(*Zone)) Zone {
	z := Zone{
		Key:             key,
		Name:            key,
		Terrain:         terrain,
		BaseCostMinutes: 5,
		Visibility:      VisibilityAdjacent,
		Accessible:      true,
	}
	for _, opt := range opts {
		opt(&z)
	}
	return z
}

func testConn(from, to string, minutes int, opts ...func(*Connection)) Connection {
	c := Connection{
		FromKey:         from,
		ToKey:           to,
		Type:            ConnectionOpen,
		CrossingMinutes: minutes,
		Passable:        true,
		Bidirectional:   true,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func mustGraph(t *testing.T, zones []Zone, conns []Connection) *Graph {
	t.Helper()
	g, err := NewGraph(zones, conns)
	if err != nil {
		t.Fatalf("NewGraph returned error: %v", err)
	}
	return g
}

func walking(t *testing.T) TransportMode {
	t.Helper()
	w, err := DefaultCatalog().Get(TransportWalking)
	if err != nil {
		t.Fatalf("walking mode missing from default catalog: %v", err)
	}
	return w
}

func TestFindPathCrossingCost(t *testing.T) {
	// village -> forest over a 5-minute crossing; walking prices forest
	// terrain at 2.0, so the hop costs exactly 10 minutes.
	g := mustGraph(t,
		[]Zone{testZone("village", TerrainUrban), testZone("forest", TerrainForest)},
		[]Connection{testConn("village", "forest", 5)},
	)

	route, err := g.FindPath("village", "forest", walking(t), PathOptions{})
	if err != nil {
		t.Fatalf("FindPath returned error: %v", err)
	}
	if !route.Found {
		t.Fatalf("route not found: %s", route.Reason)
	}
	if !reflect.DeepEqual(route.Path, []string{"village", "forest"}) {
		t.Errorf("Path = %v, want [village forest]", route.Path)
	}
	if route.TotalMinutes != 10 {
		t.Errorf("TotalMinutes = %d, want 10", route.TotalMinutes)
	}
	if len(route.Legs) != 1 || route.Legs[0].Minutes != 10 {
		t.Errorf("Legs = %+v, want one 10-minute leg", route.Legs)
	}
}

func TestFindPathPicksCheaperRoute(t *testing.T) {
	// Direct forest hop costs 10; the road detour costs about 8.
	g := mustGraph(t,
		[]Zone{
			testZone("village", TerrainUrban),
			testZone("forest", TerrainForest),
			testZone("old_road", TerrainRoad),
			testZone("goal", TerrainUrban),
		},
		[]Connection{
			testConn("village", "forest", 5),
			testConn("forest", "goal", 5),
			testConn("village", "old_road", 5),
			testConn("old_road", "goal", 5),
		},
	)

	route, err := g.FindPath("village", "goal", walking(t), PathOptions{})
	if err != nil {
		t.Fatalf("FindPath returned error: %v", err)
	}
	want := []string{"village", "old_road", "goal"}
	if !reflect.DeepEqual(route.Path, want) {
		t.Errorf("Path = %v, want %v", route.Path, want)
	}
}

func TestFindPathUnknownZone(t *testing.T) {
	g := mustGraph(t, []Zone{testZone("village", TerrainUrban)}, nil)

	if _, err := g.FindPath("village", "atlantis", walking(t), PathOptions{}); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("unknown destination error = %v, want ErrZoneNotFound", err)
	}
	if _, err := g.FindPath("atlantis", "village", walking(t), PathOptions{}); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("unknown origin error = %v, want ErrZoneNotFound", err)
	}
}

func TestFindPathNoRoute(t *testing.T) {
	g := mustGraph(t,
		[]Zone{testZone("village", TerrainUrban), testZone("island", TerrainPlains)},
		nil,
	)

	route, err := g.FindPath("village", "island", walking(t), PathOptions{})
	if err != nil {
		t.Fatalf("unreachable destination should not error, got %v", err)
	}
	if route.Found {
		t.Fatal("route to disconnected zone should not be found")
	}
	if route.Reason == "" {
		t.Error("missing human-readable reason for no route")
	}
}

func TestFindPathSameZone(t *testing.T) {
	g := mustGraph(t, []Zone{testZone("village", TerrainUrban)}, nil)

	route, err := g.FindPath("village", "village", walking(t), PathOptions{})
	if err != nil {
		t.Fatalf("FindPath returned error: %v", err)
	}
	if !route.Found || route.TotalMinutes != 0 || len(route.Path) != 1 {
		t.Errorf("same-zone route = %+v, want trivial found route", route)
	}
}

func TestFindPathExclusions(t *testing.T) {
	blocked := func(c *Connection) { c.Passable = false; c.BlockedReason = "washed out" }
	collapsed := func(z *Zone) { z.Accessible = false; z.BlockedReason = "rockslide" }

	t.Run("impassable connection", func(t *testing.T) {
		g := mustGraph(t,
			[]Zone{testZone("a", TerrainPlains), testZone("b", TerrainPlains)},
			[]Connection{testConn("a", "b", 5, blocked)},
		)
		route, err := g.FindPath("a", "b", walking(t), PathOptions{})
		if err != nil {
			t.Fatalf("FindPath returned error: %v", err)
		}
		if route.Found {
			t.Error("route through impassable connection should not be found")
		}
	})

	t.Run("inaccessible zone", func(t *testing.T) {
		g := mustGraph(t,
			[]Zone{
				testZone("a", TerrainPlains),
				testZone("mid", TerrainPlains, collapsed),
				testZone("b", TerrainPlains),
			},
			[]Connection{testConn("a", "mid", 5), testConn("mid", "b", 5)},
		)
		route, err := g.FindPath("a", "b", walking(t), PathOptions{})
		if err != nil {
			t.Fatalf("FindPath returned error: %v", err)
		}
		if route.Found {
			t.Error("route through inaccessible zone should not be found")
		}
	})

	t.Run("unmapped terrain", func(t *testing.T) {
		g := mustGraph(t,
			[]Zone{testZone("shore", TerrainPlains), testZone("deep_lake", TerrainLake)},
			[]Connection{testConn("shore", "deep_lake", 10)},
		)
		route, err := g.FindPath("shore", "deep_lake", walking(t), PathOptions{})
		if err != nil {
			t.Fatalf("FindPath returned error: %v", err)
		}
		if route.Found {
			t.Error("walking route onto a lake should not be found")
		}

		boat, err := DefaultCatalog().Get(TransportBoating)
		if err != nil {
			t.Fatalf("boating mode missing: %v", err)
		}
		route, err = g.FindPath("shore", "deep_lake", boat, PathOptions{})
		if err != nil {
			t.Fatalf("FindPath returned error: %v", err)
		}
		if !route.Found {
			t.Errorf("boating route should be found: %s", route.Reason)
		}
	})
}

func TestFindPathHiddenConnection(t *testing.T) {
	hidden := func(c *Connection) { c.Type = ConnectionHidden }
	g := mustGraph(t,
		[]Zone{testZone("forest", TerrainForest), testZone("cave_hollow", TerrainCave)},
		[]Connection{testConn("forest", "cave_hollow", 5, hidden)},
	)

	route, err := g.FindPath("forest", "cave_hollow", walking(t), PathOptions{})
	if err != nil {
		t.Fatalf("FindPath returned error: %v", err)
	}
	if route.Found {
		t.Error("hidden connection should not be usable before discovery")
	}

	route, err = g.FindPath("forest", "cave_hollow", walking(t), PathOptions{
		Discovered: map[string]bool{"cave_hollow": true},
	})
	if err != nil {
		t.Fatalf("FindPath returned error: %v", err)
	}
	if !route.Found {
		t.Errorf("hidden connection should open once discovered: %s", route.Reason)
	}
}

func TestFindPathMounted(t *testing.T) {
	mountedCost := 4
	rider, err := DefaultCatalog().Get(TransportMounted)
	if err != nil {
		t.Fatalf("mounted mode missing: %v", err)
	}

	withMounts := func(z *Zone) { z.MountedCostMinutes = &mountedCost }
	g := mustGraph(t,
		[]Zone{
			testZone("village", TerrainUrban, withMounts),
			testZone("pasture", TerrainPlains, withMounts),
			testZone("dense_thicket", TerrainForest), // no mounted cost: unridable
		},
		[]Connection{
			testConn("village", "pasture", 0), // zero minutes: fall back to zone cost
			testConn("pasture", "dense_thicket", 5),
		},
	)

	route, err := g.FindPath("village", "pasture", rider, PathOptions{})
	if err != nil {
		t.Fatalf("FindPath returned error: %v", err)
	}
	if !route.Found {
		t.Fatalf("mounted route should be found: %s", route.Reason)
	}
	// Mounted fallback cost: 4 minutes x 0.5 plains multiplier.
	if route.TotalMinutes != 2 {
		t.Errorf("TotalMinutes = %d, want 2", route.TotalMinutes)
	}

	route, err = g.FindPath("village", "dense_thicket", rider, PathOptions{})
	if err != nil {
		t.Fatalf("FindPath returned error: %v", err)
	}
	if route.Found {
		t.Error("zone without a mounted cost should be unridable")
	}
}

func TestFindPathZeroMinutesFallsBackToZoneCost(t *testing.T) {
	g := mustGraph(t,
		[]Zone{
			testZone("village", TerrainUrban),
			testZone("forest", TerrainForest, func(z *Zone) { z.BaseCostMinutes = 10 }),
		},
		[]Connection{testConn("village", "forest", 0)},
	)

	route, err := g.FindPath("village", "forest", walking(t), PathOptions{})
	if err != nil {
		t.Fatalf("FindPath returned error: %v", err)
	}
	if route.TotalMinutes != 20 {
		t.Errorf("TotalMinutes = %d, want 20 (zone base 10 x forest 2.0)", route.TotalMinutes)
	}
}

func TestFindPathTieBreakFewerGates(t *testing.T) {
	gated := func(z *Zone) {
		z.SkillGate = &SkillGate{Skill: "climbing", Difficulty: 12, Consequence: ConsequenceHalt}
	}
	// Both routes cost exactly 10; alpha_pass sorts first lexically but
	// carries a gate, so the ungated zulu_trail route wins.
	g := mustGraph(t,
		[]Zone{
			testZone("village", TerrainUrban),
			testZone("alpha_pass", TerrainPlains, gated),
			testZone("zulu_trail", TerrainPlains),
			testZone("goal", TerrainUrban),
		},
		[]Connection{
			testConn("village", "alpha_pass", 5),
			testConn("alpha_pass", "goal", 5),
			testConn("village", "zulu_trail", 5),
			testConn("zulu_trail", "goal", 5),
		},
	)

	route, err := g.FindPath("village", "goal", walking(t), PathOptions{})
	if err != nil {
		t.Fatalf("FindPath returned error: %v", err)
	}
	want := []string{"village", "zulu_trail", "goal"}
	if !reflect.DeepEqual(route.Path, want) {
		t.Errorf("Path = %v, want %v", route.Path, want)
	}
	if len(route.Gates) != 0 {
		t.Errorf("Gates = %+v, want none", route.Gates)
	}
}

func TestFindPathTieBreakLexical(t *testing.T) {
	// Identical cost, identical gate count: the lexically smallest key
	// sequence wins, making route planning fully deterministic.
	g := mustGraph(t,
		[]Zone{
			testZone("village", TerrainUrban),
			testZone("apple_field", TerrainPlains),
			testZone("zebra_meadow", TerrainPlains),
			testZone("goal", TerrainUrban),
		},
		[]Connection{
			testConn("village", "zebra_meadow", 5),
			testConn("zebra_meadow", "goal", 5),
			testConn("village", "apple_field", 5),
			testConn("apple_field", "goal", 5),
		},
	)

	route, err := g.FindPath("village", "goal", walking(t), PathOptions{})
	if err != nil {
		t.Fatalf("FindPath returned error: %v", err)
	}
	want := []string{"village", "apple_field", "goal"}
	if !reflect.DeepEqual(route.Path, want) {
		t.Errorf("Path = %v, want %v", route.Path, want)
	}
}

func TestFindPathPreferRoads(t *testing.T) {
	g := mustGraph(t,
		[]Zone{
			testZone("village", TerrainUrban),
			testZone("forest", TerrainForest),
			testZone("east_road", TerrainRoad),
			testZone("mill_road", TerrainRoad),
			testZone("goal", TerrainUrban),
		},
		[]Connection{
			testConn("village", "forest", 5),
			testConn("forest", "goal", 0), // falls back to goal's 5-minute base cost
			testConn("village", "east_road", 7),
			testConn("east_road", "mill_road", 8),
			testConn("mill_road", "goal", 5),
		},
	)
	w := walking(t)

	// Unbiased, the forest shortcut wins: 10 + 5 = 15 versus 5.6 + 6.4 + 5 = 17.
	route, err := g.FindPath("village", "goal", w, PathOptions{})
	if err != nil {
		t.Fatalf("FindPath returned error: %v", err)
	}
	if !reflect.DeepEqual(route.Path, []string{"village", "forest", "goal"}) {
		t.Fatalf("unbiased Path = %v, want the forest shortcut", route.Path)
	}

	// With prefer_roads the forest hops are inflated for planning and the
	// road route wins, but reported minutes stay true.
	route, err = g.FindPath("village", "goal", w, PathOptions{PreferRoads: true})
	if err != nil {
		t.Fatalf("FindPath returned error: %v", err)
	}
	want := []string{"village", "east_road", "mill_road", "goal"}
	if !reflect.DeepEqual(route.Path, want) {
		t.Fatalf("biased Path = %v, want %v", route.Path, want)
	}
	if route.TotalMinutes != 17 {
		t.Errorf("TotalMinutes = %d, want true cost 17", route.TotalMinutes)
	}
}

func TestFindPathAnnotatesGates(t *testing.T) {
	g := mustGraph(t,
		[]Zone{
			testZone("trailhead", TerrainTrail),
			testZone("cliff_face", TerrainMountain, func(z *Zone) {
				z.SkillGate = &SkillGate{Skill: "climbing", Difficulty: 14, Consequence: ConsequenceStaminaPenalty}
			}),
		},
		[]Connection{
			testConn("trailhead", "cliff_face", 5, func(c *Connection) {
				c.Type = ConnectionClimb
				c.SkillGate = &SkillGate{Skill: "climbing", Difficulty: 10, Consequence: ConsequenceHalt}
			}),
		},
	)

	route, err := g.FindPath("trailhead", "cliff_face", walking(t), PathOptions{})
	if err != nil {
		t.Fatalf("FindPath returned error: %v", err)
	}
	if !route.Found {
		t.Fatalf("gated route should still be planned: %s", route.Reason)
	}
	if len(route.Gates) != 2 {
		t.Fatalf("Gates = %+v, want connection and zone gates", route.Gates)
	}
	if route.Gates[0].Source != "connection" || route.Gates[1].Source != "zone" {
		t.Errorf("gate sources = %s, %s; want connection then zone", route.Gates[0].Source, route.Gates[1].Source)
	}
}

func TestCheckAccessibility(t *testing.T) {
	mountedCost := 6
	g := mustGraph(t,
		[]Zone{
			testZone("village", TerrainUrban, func(z *Zone) { z.MountedCostMinutes = &mountedCost }),
			testZone("deep_lake", TerrainLake),
			testZone("old_mine", TerrainCave, func(z *Zone) {
				z.Accessible = false
				z.BlockedReason = "the entrance collapsed"
			}),
			testZone("cliff_face", TerrainCliff, func(z *Zone) {
				z.SkillGate = &SkillGate{Skill: "climbing", Difficulty: 14, Consequence: ConsequenceHalt}
			}),
		},
		nil,
	)
	catalog := DefaultCatalog()
	w := walking(t)

	report, err := g.CheckAccessibility("village", w)
	if err != nil {
		t.Fatalf("CheckAccessibility returned error: %v", err)
	}
	if !report.CanEnter || report.EntryMinutes != 5 {
		t.Errorf("village on foot = %+v, want enterable in 5 minutes", report)
	}

	report, err = g.CheckAccessibility("deep_lake", w)
	if err != nil {
		t.Fatalf("CheckAccessibility returned error: %v", err)
	}
	if report.CanEnter || report.Reason == "" {
		t.Errorf("lake on foot = %+v, want refusal with reason", report)
	}

	report, err = g.CheckAccessibility("old_mine", w)
	if err != nil {
		t.Fatalf("CheckAccessibility returned error: %v", err)
	}
	if report.CanEnter || report.Reason != "the entrance collapsed" {
		t.Errorf("blocked zone = %+v, want blocked reason surfaced", report)
	}

	climb, err := catalog.Get(TransportClimbing)
	if err != nil {
		t.Fatalf("climbing mode missing: %v", err)
	}
	report, err = g.CheckAccessibility("cliff_face", climb)
	if err != nil {
		t.Fatalf("CheckAccessibility returned error: %v", err)
	}
	if !report.CanEnter || report.Skill != "climbing" || report.Difficulty != 14 {
		t.Errorf("cliff by climbing = %+v, want gate annotation", report)
	}

	rider, err := catalog.Get(TransportMounted)
	if err != nil {
		t.Fatalf("mounted mode missing: %v", err)
	}
	report, err = g.CheckAccessibility("village", rider)
	if err != nil {
		t.Fatalf("CheckAccessibility returned error: %v", err)
	}
	if !report.CanEnter {
		t.Errorf("village on horseback = %+v, want enterable", report)
	}

	if _, err := g.CheckAccessibility("atlantis", w); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("unknown zone error = %v, want ErrZoneNotFound", err)
	}
}

func TestVisibleFrom(t *testing.T) {
	g := mustGraph(t,
		[]Zone{
			testZone("village", TerrainUrban),
			testZone("meadow", TerrainPlains), // adjacent visibility
			testZone("hollow", TerrainForest, func(z *Zone) { z.Visibility = VisibilityNone }),
			testZone("peak", TerrainMountain, func(z *Zone) { z.Visibility = VisibilityFar }),
			testZone("secret_grove", TerrainForest),
		},
		[]Connection{
			testConn("village", "meadow", 5),
			testConn("village", "hollow", 5),
			testConn("meadow", "peak", 30),
			testConn("village", "secret_grove", 5, func(c *Connection) { c.Type = ConnectionHidden }),
		},
	)

	visible, err := g.VisibleFrom("village")
	if err != nil {
		t.Fatalf("VisibleFrom returned error: %v", err)
	}
	want := []string{"meadow", "peak"}
	if !reflect.DeepEqual(visible, want) {
		t.Errorf("VisibleFrom(village) = %v, want %v", visible, want)
	}

	if _, err := g.VisibleFrom("atlantis"); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("unknown vantage error = %v, want ErrZoneNotFound", err)
	}
}

func TestNewGraphValidation(t *testing.T) {
	if _, err := NewGraph(
		[]Zone{testZone("a", TerrainPlains), testZone("a", TerrainPlains)},
		nil,
	); err == nil {
		t.Error("duplicate zone keys should fail")
	}

	if _, err := NewGraph(
		[]Zone{testZone("a", TerrainPlains)},
		[]Connection{testConn("a", "ghost", 5)},
	); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("dangling connection error = %v, want ErrZoneNotFound", err)
	}
}
