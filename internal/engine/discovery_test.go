package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/sbstnppl/worldkeeper/internal/storage"
	"github.com/sbstnppl/worldkeeper/pkg/discovery"
	"github.com/sbstnppl/worldkeeper/pkg/session"
	"github.com/sbstnppl/worldkeeper/pkg/world"
)

// seedDiscoveryWorld stores a small map: the village opens onto a forest,
// a hidden passage links the forest to a cave, and a far-visible peak
// rises beyond the forest.
func seedDiscoveryWorld(t *testing.T, store *storage.MemoryStore, sess *session.Session) {
	t.Helper()
	ctx := context.Background()

	zones := []world.Zone{
		{Key: "village", Name: "Village", Terrain: world.TerrainUrban, BaseCostMinutes: 5, Visibility: world.VisibilityAdjacent, Accessible: true},
		{Key: "forest", Name: "Darkwood", Terrain: world.TerrainForest, BaseCostMinutes: 10, Visibility: world.VisibilityAdjacent, Accessible: true},
		{Key: "cave", Name: "Smugglers' Cave", Terrain: world.TerrainCave, BaseCostMinutes: 8, Visibility: world.VisibilityNone, Accessible: true},
		{Key: "peak", Name: "Grey Peak", Terrain: world.TerrainMountain, BaseCostMinutes: 20, Visibility: world.VisibilityFar, Accessible: true},
	}
	if err := store.SaveZones(ctx, sess.ID, zones); err != nil {
		t.Fatalf("save zones: %v", err)
	}

	conns := []world.Connection{
		{FromKey: "village", ToKey: "forest", Type: world.ConnectionPath, CrossingMinutes: 5, Passable: true, Bidirectional: true},
		{FromKey: "forest", ToKey: "cave", Type: world.ConnectionHidden, CrossingMinutes: 3, Passable: true, Bidirectional: true},
		{FromKey: "forest", ToKey: "peak", Type: world.ConnectionPath, CrossingMinutes: 15, Passable: true, Bidirectional: true},
	}
	if err := store.SaveConnections(ctx, sess.ID, conns); err != nil {
		t.Fatalf("save connections: %v", err)
	}

	locs := []world.Location{
		{Key: "marketplace", ZoneKey: "village", Name: "Marketplace", DiscoverOnEntry: true},
		{Key: "hidden_cellar", ZoneKey: "village", Name: "Hidden Cellar"},
		{Key: "old_shrine", ZoneKey: "forest", Name: "Old Shrine", DiscoverOnEntry: true},
	}
	if err := store.SaveLocations(ctx, sess.ID, locs); err != nil {
		t.Fatalf("save locations: %v", err)
	}
}

func TestDiscoverZoneFirstWins(t *testing.T) {
	ctx := context.Background()
	store, sess := newTestSession(t, nil)
	seedDiscoveryWorld(t, store, sess)
	tracker := NewDiscoveryTracker(store, testLogger())

	out, err := tracker.DiscoverZone(ctx, sess.ID, "mara", "forest", discovery.MethodToldByNPC, "bartender", 2)
	if err != nil {
		t.Fatalf("discover zone: %v", err)
	}
	if !out.NewlyDiscovered {
		t.Error("expected newly discovered")
	}
	if out.Method != discovery.MethodToldByNPC || out.Turn != 2 {
		t.Errorf("expected told_by_npc at turn 2, got %s at turn %d", out.Method, out.Turn)
	}

	// Visiting later does not overwrite how she first learned of it.
	out, err = tracker.DiscoverZone(ctx, sess.ID, "mara", "forest", discovery.MethodVisited, "", 7)
	if err != nil {
		t.Fatalf("rediscover zone: %v", err)
	}
	if out.NewlyDiscovered {
		t.Error("expected rediscovery to report not new")
	}
	if out.Method != discovery.MethodToldByNPC || out.Turn != 2 {
		t.Errorf("expected original record preserved, got %s at turn %d", out.Method, out.Turn)
	}

	known, err := tracker.IsZoneDiscovered(ctx, sess.ID, "mara", "forest")
	if err != nil {
		t.Fatalf("is zone discovered: %v", err)
	}
	if !known {
		t.Error("expected forest known")
	}
	known, err = tracker.IsZoneDiscovered(ctx, sess.ID, "mara", "cave")
	if err != nil {
		t.Fatalf("is zone discovered: %v", err)
	}
	if known {
		t.Error("expected cave unknown")
	}
}

func TestDiscoverZoneUnknownTargets(t *testing.T) {
	ctx := context.Background()
	store, sess := newTestSession(t, nil)
	seedDiscoveryWorld(t, store, sess)
	tracker := NewDiscoveryTracker(store, testLogger())

	if _, err := tracker.DiscoverZone(ctx, sess.ID, "mara", "atlantis", discovery.MethodVisited, "", 1); !errors.Is(err, world.ErrZoneNotFound) {
		t.Errorf("expected ErrZoneNotFound for unknown zone, got %v", err)
	}
	if _, err := tracker.DiscoverZone(ctx, sess.ID, "nobody", "forest", discovery.MethodVisited, "", 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown entity, got %v", err)
	}
}

func TestDiscoverLocationImpliesZone(t *testing.T) {
	ctx := context.Background()
	store, sess := newTestSession(t, nil)
	seedDiscoveryWorld(t, store, sess)
	tracker := NewDiscoveryTracker(store, testLogger())

	out, err := tracker.DiscoverLocation(ctx, sess.ID, "mara", "old_shrine", discovery.MethodToldByNPC, "hunter", 3)
	if err != nil {
		t.Fatalf("discover location: %v", err)
	}
	if !out.NewlyDiscovered {
		t.Error("expected location newly discovered")
	}

	known, err := tracker.IsZoneDiscovered(ctx, sess.ID, "mara", "forest")
	if err != nil {
		t.Fatalf("is zone discovered: %v", err)
	}
	if !known {
		t.Error("expected the shrine's zone discovered alongside it")
	}
	rec, err := store.GetZoneDiscovery(ctx, sess.ID, "mara", "forest")
	if err != nil {
		t.Fatalf("get zone discovery: %v", err)
	}
	if rec.Method != discovery.MethodToldByNPC || rec.Source != "hunter" {
		t.Errorf("expected zone record to carry the location's method and source, got %s/%s", rec.Method, rec.Source)
	}
}

func TestAutoDiscoverSurroundings(t *testing.T) {
	ctx := context.Background()
	store, sess := newTestSession(t, nil)
	seedDiscoveryWorld(t, store, sess)
	tracker := NewDiscoveryTracker(store, testLogger())

	zones, err := store.ListZones(ctx, sess.ID)
	if err != nil {
		t.Fatalf("list zones: %v", err)
	}
	conns, err := store.ListConnections(ctx, sess.ID)
	if err != nil {
		t.Fatalf("list connections: %v", err)
	}
	g, err := world.NewGraph(zones, conns)
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}

	zoneOuts, locOuts, err := tracker.AutoDiscoverSurroundings(ctx, sess.ID, g, "mara", "village", 1)
	if err != nil {
		t.Fatalf("auto discover: %v", err)
	}

	// The forest is adjacent and the peak shows over it; the cave stays
	// hidden behind its secret passage.
	gotZones := map[string]bool{}
	for _, out := range zoneOuts {
		gotZones[out.Key] = true
		if out.Method != discovery.MethodVisibleFrom {
			t.Errorf("zone %s: expected method visible_from, got %s", out.Key, out.Method)
		}
	}
	if len(gotZones) != 2 || !gotZones["forest"] || !gotZones["peak"] {
		t.Errorf("expected forest and peak visible from village, got %v", gotZones)
	}
	if known, _ := tracker.IsZoneDiscovered(ctx, sess.ID, "mara", "cave"); known {
		t.Error("expected hidden cave to stay unknown")
	}

	if len(locOuts) != 1 || locOuts[0].Key != "marketplace" {
		t.Errorf("expected only the marketplace revealed on entry, got %v", locOuts)
	}

	// A second arrival finds nothing new.
	zoneOuts, locOuts, err = tracker.AutoDiscoverSurroundings(ctx, sess.ID, g, "mara", "village", 2)
	if err != nil {
		t.Fatalf("auto discover again: %v", err)
	}
	if len(zoneOuts) != 0 || len(locOuts) != 0 {
		t.Errorf("expected no new discoveries on repeat, got %v and %v", zoneOuts, locOuts)
	}
}

func TestDiscoveredZoneSet(t *testing.T) {
	ctx := context.Background()
	store, sess := newTestSession(t, nil)
	seedDiscoveryWorld(t, store, sess)
	tracker := NewDiscoveryTracker(store, testLogger())

	set, err := tracker.DiscoveredZoneSet(ctx, sess.ID, "mara")
	if err != nil {
		t.Fatalf("discovered zone set: %v", err)
	}
	if len(set) != 0 {
		t.Errorf("expected empty set, got %v", set)
	}

	for _, zone := range []string{"village", "forest"} {
		if _, err := tracker.DiscoverZone(ctx, sess.ID, "mara", zone, discovery.MethodStartingKnowledge, "", 0); err != nil {
			t.Fatalf("discover %s: %v", zone, err)
		}
	}

	set, err = tracker.DiscoveredZoneSet(ctx, sess.ID, "mara")
	if err != nil {
		t.Fatalf("discovered zone set: %v", err)
	}
	if len(set) != 2 || !set["village"] || !set["forest"] {
		t.Errorf("expected village and forest in set, got %v", set)
	}
}
