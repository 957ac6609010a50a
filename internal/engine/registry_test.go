package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/sbstnppl/worldkeeper/internal/storage"
	"github.com/sbstnppl/worldkeeper/pkg/needs"
)

func TestModifierSetAndReplace(t *testing.T) {
	ctx := context.Background()
	store, sess := newTestSession(t, map[needs.Need]float64{needs.Hunger: 50})
	registry := NewModifierRegistry(store, testLogger())

	replaced, err := registry.Set(ctx, sess.ID, needs.Modifier{
		EntityKey:       "mara",
		Need:            needs.Hunger,
		SourceKind:      needs.SourceTrait,
		SourceDetail:    "hearty_appetite",
		DecayMultiplier: 1.5,
	})
	if err != nil {
		t.Fatalf("set modifier: %v", err)
	}
	if replaced {
		t.Error("first set should not report replaced")
	}

	// Same source tuple again replaces rather than stacks.
	replaced, err = registry.Set(ctx, sess.ID, needs.Modifier{
		EntityKey:       "mara",
		Need:            needs.Hunger,
		SourceKind:      needs.SourceTrait,
		SourceDetail:    "hearty_appetite",
		DecayMultiplier: 1.2,
	})
	if err != nil {
		t.Fatalf("set modifier again: %v", err)
	}
	if !replaced {
		t.Error("second set should report replaced")
	}

	mods, err := store.ListModifiers(ctx, sess.ID, "mara")
	if err != nil {
		t.Fatalf("list modifiers: %v", err)
	}
	if len(mods) != 1 {
		t.Fatalf("expected 1 modifier, got %d", len(mods))
	}
	if got := mods.ForNeed(needs.Hunger).DecayMultiplier(); got != 1.2 {
		t.Errorf("expected decay multiplier 1.2 after replace, got %v", got)
	}
}

func TestModifierSetNormalizesDefaults(t *testing.T) {
	ctx := context.Background()
	store, sess := newTestSession(t, map[needs.Need]float64{needs.Hunger: 50})
	registry := NewModifierRegistry(store, testLogger())

	// Only a threshold adjustment; the multiplier knobs default.
	if _, err := registry.Set(ctx, sess.ID, needs.Modifier{
		EntityKey:           "mara",
		Need:                needs.Hunger,
		SourceKind:          needs.SourceCustom,
		SourceDetail:        "festival_fast",
		ThresholdAdjustment: -10,
	}); err != nil {
		t.Fatalf("set modifier: %v", err)
	}

	mods, err := store.ListModifiers(ctx, sess.ID, "mara")
	if err != nil {
		t.Fatalf("list modifiers: %v", err)
	}
	forHunger := mods.ForNeed(needs.Hunger)
	if got := forHunger.DecayMultiplier(); got != 1.0 {
		t.Errorf("expected default decay multiplier 1.0, got %v", got)
	}
	if got := forHunger.IntensityCap(); got != needs.MaxValue {
		t.Errorf("expected default cap %v, got %v", needs.MaxValue, got)
	}
	if got := forHunger.EffectiveThreshold(30); got != 20 {
		t.Errorf("expected effective threshold 20, got %v", got)
	}
}

func TestModifierSetRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	store, sess := newTestSession(t, map[needs.Need]float64{needs.Hunger: 50})
	registry := NewModifierRegistry(store, testLogger())

	if _, err := registry.Set(ctx, sess.ID, needs.Modifier{
		EntityKey:    "mara",
		Need:         "bloodlust",
		SourceKind:   needs.SourceTrait,
		SourceDetail: "x",
	}); !errors.Is(err, needs.ErrUnknownNeed) {
		t.Errorf("expected ErrUnknownNeed, got %v", err)
	}

	if _, err := registry.Set(ctx, sess.ID, needs.Modifier{
		EntityKey:    "nobody",
		Need:         needs.Hunger,
		SourceKind:   needs.SourceTrait,
		SourceDetail: "x",
	}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown entity, got %v", err)
	}
}

func TestModifierDeactivate(t *testing.T) {
	ctx := context.Background()
	store, sess := newTestSession(t, map[needs.Need]float64{needs.Hunger: 50})
	registry := NewModifierRegistry(store, testLogger())

	if _, err := registry.Set(ctx, sess.ID, needs.Modifier{
		EntityKey:       "mara",
		Need:            needs.Hunger,
		SourceKind:      needs.SourceTemporary,
		SourceDetail:    "feast_day",
		DecayMultiplier: 0.5,
	}); err != nil {
		t.Fatalf("set modifier: %v", err)
	}

	if err := registry.Deactivate(ctx, sess.ID, "mara", needs.Hunger, needs.SourceTemporary, "feast_day"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	mods, err := store.ListModifiers(ctx, sess.ID, "mara")
	if err != nil {
		t.Fatalf("list modifiers: %v", err)
	}
	// The row survives for audit but no longer composes.
	if len(mods) != 1 {
		t.Fatalf("expected 1 modifier row, got %d", len(mods))
	}
	if got := mods.ForNeed(needs.Hunger).DecayMultiplier(); got != 1.0 {
		t.Errorf("expected neutral multiplier after deactivation, got %v", got)
	}

	// Deactivating again is a no-op, not an error.
	if err := registry.Deactivate(ctx, sess.ID, "mara", needs.Hunger, needs.SourceTemporary, "feast_day"); err != nil {
		t.Errorf("repeat deactivate: %v", err)
	}

	err = registry.Deactivate(ctx, sess.ID, "mara", needs.Hunger, needs.SourceTemporary, "never_set")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown source, got %v", err)
	}
}

func TestExpireStale(t *testing.T) {
	ctx := context.Background()
	store, sess := newTestSession(t, map[needs.Need]float64{needs.Hunger: 50, needs.Sleep: 50})
	registry := NewModifierRegistry(store, testLogger())

	expiry := 5
	if _, err := registry.Set(ctx, sess.ID, needs.Modifier{
		EntityKey:       "mara",
		Need:            needs.Hunger,
		SourceKind:      needs.SourceTemporary,
		SourceDetail:    "travel_rations",
		DecayMultiplier: 0.8,
		ExpiresAtTurn:   &expiry,
	}); err != nil {
		t.Fatalf("set expiring modifier: %v", err)
	}
	if _, err := registry.Set(ctx, sess.ID, needs.Modifier{
		EntityKey:       "mara",
		Need:            needs.Sleep,
		SourceKind:      needs.SourceTrait,
		SourceDetail:    "light_sleeper",
		DecayMultiplier: 1.3,
	}); err != nil {
		t.Fatalf("set permanent modifier: %v", err)
	}

	// Turn 4 is before expiry; nothing happens.
	expired, err := registry.ExpireStale(ctx, sess.ID, 4)
	if err != nil {
		t.Fatalf("expire stale: %v", err)
	}
	if expired != 0 {
		t.Errorf("expected 0 expired at turn 4, got %d", expired)
	}

	expired, err = registry.ExpireStale(ctx, sess.ID, 5)
	if err != nil {
		t.Fatalf("expire stale: %v", err)
	}
	if expired != 1 {
		t.Errorf("expected 1 expired at turn 5, got %d", expired)
	}

	mods, err := store.ListModifiers(ctx, sess.ID, "mara")
	if err != nil {
		t.Fatalf("list modifiers: %v", err)
	}
	if got := mods.ForNeed(needs.Hunger).DecayMultiplier(); got != 1.0 {
		t.Errorf("expected expired modifier out of composition, got multiplier %v", got)
	}
	if got := mods.ForNeed(needs.Sleep).DecayMultiplier(); got != 1.3 {
		t.Errorf("expected permanent modifier untouched, got multiplier %v", got)
	}

	// Idempotent: a second sweep finds nothing.
	expired, err = registry.ExpireStale(ctx, sess.ID, 6)
	if err != nil {
		t.Fatalf("expire stale again: %v", err)
	}
	if expired != 0 {
		t.Errorf("expected 0 expired on repeat sweep, got %d", expired)
	}
}

func TestAdaptationRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, sess := newTestSession(t, map[needs.Need]float64{needs.Comfort: 50})
	registry := NewModifierRegistry(store, testLogger())

	// First adaptation raises the comfort threshold by 10.
	first, adjustment, err := registry.RecordAdaptation(ctx, sess.ID, needs.Adaptation{
		EntityKey:   "mara",
		Need:        needs.Comfort,
		Delta:       10,
		Reason:      "grew used to soft beds",
		Trigger:     "moved_to_city",
		Reversible:  true,
		StartedTurn: 3,
	})
	if err != nil {
		t.Fatalf("record adaptation: %v", err)
	}
	if adjustment != 10 {
		t.Errorf("expected adjustment 10, got %v", adjustment)
	}
	if first.PriorAdjustment != 0 {
		t.Errorf("expected prior adjustment 0, got %v", first.PriorAdjustment)
	}

	// Second adaptation stacks on the first.
	second, adjustment, err := registry.RecordAdaptation(ctx, sess.ID, needs.Adaptation{
		EntityKey:   "mara",
		Need:        needs.Comfort,
		Delta:       5,
		Reason:      "servant brings breakfast",
		Trigger:     "hired_help",
		Reversible:  true,
		StartedTurn: 8,
	})
	if err != nil {
		t.Fatalf("record second adaptation: %v", err)
	}
	if adjustment != 15 {
		t.Errorf("expected adjustment 15, got %v", adjustment)
	}
	if second.PriorAdjustment != 10 {
		t.Errorf("expected prior adjustment 10, got %v", second.PriorAdjustment)
	}

	mods, err := store.ListModifiers(ctx, sess.ID, "mara")
	if err != nil {
		t.Fatalf("list modifiers: %v", err)
	}
	if got := mods.ForNeed(needs.Comfort).EffectiveThreshold(30); got != 45 {
		t.Errorf("expected effective threshold 45, got %v", got)
	}

	// Reversing the second restores exactly what the first had set.
	reversed, adjustment, err := registry.ReverseAdaptation(ctx, sess.ID, "mara", needs.Comfort, "hired_help", 12)
	if err != nil {
		t.Fatalf("reverse adaptation: %v", err)
	}
	if adjustment != 10 {
		t.Errorf("expected adjustment restored to 10, got %v", adjustment)
	}
	if reversed.ID != second.ID {
		t.Errorf("expected the second record reversed, got %s", reversed.ID)
	}

	mods, err = store.ListModifiers(ctx, sess.ID, "mara")
	if err != nil {
		t.Fatalf("list modifiers: %v", err)
	}
	if got := mods.ForNeed(needs.Comfort).EffectiveThreshold(30); got != 40 {
		t.Errorf("expected effective threshold 40 after reversal, got %v", got)
	}

	// The same trigger cannot be reversed twice; the counter-record is
	// non-reversible and the original is marked done.
	if _, _, err := registry.ReverseAdaptation(ctx, sess.ID, "mara", needs.Comfort, "hired_help", 13); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on double reversal, got %v", err)
	}
}

func TestReverseAdaptationByReversalTrigger(t *testing.T) {
	ctx := context.Background()
	store, sess := newTestSession(t, map[needs.Need]float64{needs.Hygiene: 50})
	registry := NewModifierRegistry(store, testLogger())

	if _, _, err := registry.RecordAdaptation(ctx, sess.ID, needs.Adaptation{
		EntityKey:       "mara",
		Need:            needs.Hygiene,
		Delta:           -8,
		Reason:          "weeks on the road",
		Trigger:         "long_journey",
		Reversible:      true,
		ReversalTrigger: "settled_down",
		StartedTurn:     2,
	}); err != nil {
		t.Fatalf("record adaptation: %v", err)
	}

	// The start trigger does not match when a reversal trigger is set.
	if _, _, err := registry.ReverseAdaptation(ctx, sess.ID, "mara", needs.Hygiene, "long_journey", 9); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for start trigger, got %v", err)
	}

	_, adjustment, err := registry.ReverseAdaptation(ctx, sess.ID, "mara", needs.Hygiene, "settled_down", 9)
	if err != nil {
		t.Fatalf("reverse by reversal trigger: %v", err)
	}
	if adjustment != 0 {
		t.Errorf("expected adjustment back to 0, got %v", adjustment)
	}
}

func TestReverseAdaptationNoMatch(t *testing.T) {
	store, sess := newTestSession(t, map[needs.Need]float64{needs.Comfort: 50})
	registry := NewModifierRegistry(store, testLogger())

	_, _, err := registry.ReverseAdaptation(context.Background(), sess.ID, "mara", needs.Comfort, "anything", 1)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
