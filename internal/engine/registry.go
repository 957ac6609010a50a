package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sbstnppl/worldkeeper/internal/storage"
	"github.com/sbstnppl/worldkeeper/pkg/needs"
)

// ModifierRegistry manages modifier lifecycles and the adaptation audit
// trail. Writes go through the source-tuple upsert so the same source
// never stacks with itself.
type ModifierRegistry struct {
	store  storage.Store
	logger *slog.Logger
}

func NewModifierRegistry(store storage.Store, logger *slog.Logger) *ModifierRegistry {
	return &ModifierRegistry{
		store:  store,
		logger: logger,
	}
}

// Set normalizes, validates and upserts a modifier. The registry owns
// activation: a set modifier is active until Deactivate or expiry.
func (r *ModifierRegistry) Set(ctx context.Context, sessionID uuid.UUID, m needs.Modifier) (bool, error) {
	m = m.Normalize()
	m.Active = true
	if err := m.Validate(); err != nil {
		return false, err
	}
	if _, err := r.store.GetEntity(ctx, sessionID, m.EntityKey); err != nil {
		return false, err
	}

	replaced, err := r.store.UpsertModifier(ctx, sessionID, m)
	if err != nil {
		return false, err
	}

	r.logger.Debug("Modifier set",
		"entity", m.EntityKey,
		"need", m.Need,
		"source", m.SourceID(),
		"replaced", replaced,
	)
	return replaced, nil
}

// Deactivate turns a modifier off without deleting it, preserving the row
// for audit. Unknown source tuples are an error.
func (r *ModifierRegistry) Deactivate(ctx context.Context, sessionID uuid.UUID, entityKey string, need needs.Need, kind needs.SourceKind, detail string) error {
	mods, err := r.store.ListModifiers(ctx, sessionID, entityKey)
	if err != nil {
		return err
	}

	for _, m := range mods {
		if m.Need != need || m.SourceKind != kind || m.SourceDetail != detail {
			continue
		}
		if !m.Active {
			return nil
		}
		m.Active = false
		if _, err := r.store.UpsertModifier(ctx, sessionID, m); err != nil {
			return err
		}
		return nil
	}
	return fmt.Errorf("modifier %s:%s on %s/%s: %w", kind, detail, entityKey, need, storage.ErrNotFound)
}

// ExpireStale deactivates every modifier whose expiry turn has passed.
// It runs first in the turn pipeline and is idempotent.
func (r *ModifierRegistry) ExpireStale(ctx context.Context, sessionID uuid.UUID, turn int) (int, error) {
	mods, err := r.store.ListSessionModifiers(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, m := range mods {
		if !m.Active || !m.ExpiredAt(turn) {
			continue
		}
		m.Active = false
		if _, err := r.store.UpsertModifier(ctx, sessionID, m); err != nil {
			return expired, err
		}
		expired++
	}

	if expired > 0 {
		r.logger.Debug("Expired stale modifiers", "count", expired, "turn", turn)
	}
	return expired, nil
}

// RecordAdaptation appends an audit record and folds its delta into the
// entity's adaptation modifier for that need. The record snapshots the
// adjustment that was in force before it, so reversal can restore it
// exactly.
func (r *ModifierRegistry) RecordAdaptation(ctx context.Context, sessionID uuid.UUID, a needs.Adaptation) (*needs.Adaptation, float64, error) {
	if _, err := r.store.GetEntity(ctx, sessionID, a.EntityKey); err != nil {
		return nil, 0, err
	}

	mods, err := r.store.ListModifiers(ctx, sessionID, a.EntityKey)
	if err != nil {
		return nil, 0, err
	}
	prior := 0.0
	for _, m := range mods {
		if m.Need == a.Need && m.SourceKind == needs.SourceAdaptation && m.SourceDetail == string(a.Need) {
			prior = m.ThresholdAdjustment
			break
		}
	}

	a.ID = uuid.NewString()
	a.PriorAdjustment = prior
	if err := a.Validate(); err != nil {
		return nil, 0, err
	}
	if err := r.store.AppendAdaptation(ctx, sessionID, a); err != nil {
		return nil, 0, err
	}

	adjustment := prior + a.Delta
	mod := needs.Modifier{
		EntityKey:           a.EntityKey,
		Need:                a.Need,
		SourceKind:          needs.SourceAdaptation,
		SourceDetail:        string(a.Need),
		ThresholdAdjustment: adjustment,
	}
	if _, err := r.Set(ctx, sessionID, mod); err != nil {
		return nil, 0, err
	}

	r.logger.Info("Adaptation recorded",
		"entity", a.EntityKey,
		"need", a.Need,
		"delta", a.Delta,
		"adjustment", adjustment,
	)
	return &a, adjustment, nil
}

// ReverseAdaptation finds the most recent unreversed, reversible
// adaptation matching the trigger, appends the equal-and-opposite record,
// and restores the modifier adjustment to the original snapshot.
func (r *ModifierRegistry) ReverseAdaptation(ctx context.Context, sessionID uuid.UUID, entityKey string, need needs.Need, trigger string, turn int) (*needs.Adaptation, float64, error) {
	records, err := r.store.ListAdaptations(ctx, sessionID, entityKey, need)
	if err != nil {
		return nil, 0, err
	}

	// Counter-records from earlier reversals are appended non-reversible,
	// so they can never be picked here.
	var target *needs.Adaptation
	for i := len(records) - 1; i >= 0; i-- {
		a := records[i]
		if !a.Reversible || a.Reversed() {
			continue
		}
		match := a.ReversalTrigger
		if match == "" {
			match = a.Trigger
		}
		if match == trigger {
			target = &a
			break
		}
	}
	if target == nil {
		return nil, 0, fmt.Errorf("reversible adaptation for %s/%s triggered by %q: %w", entityKey, need, trigger, storage.ErrNotFound)
	}

	if err := r.store.MarkAdaptationReversed(ctx, sessionID, target.ID, turn); err != nil {
		return nil, 0, err
	}

	counter := needs.Adaptation{
		ID:              uuid.NewString(),
		EntityKey:       entityKey,
		Need:            need,
		Delta:           -target.Delta,
		PriorAdjustment: target.PriorAdjustment + target.Delta,
		Reason:          fmt.Sprintf("reversal of %s", target.Reason),
		Trigger:         trigger,
		StartedTurn:     turn,
	}
	if err := r.store.AppendAdaptation(ctx, sessionID, counter); err != nil {
		return nil, 0, err
	}

	mod := needs.Modifier{
		EntityKey:           entityKey,
		Need:                need,
		SourceKind:          needs.SourceAdaptation,
		SourceDetail:        string(need),
		ThresholdAdjustment: target.PriorAdjustment,
	}
	if _, err := r.Set(ctx, sessionID, mod); err != nil {
		return nil, 0, err
	}

	r.logger.Info("Adaptation reversed",
		"entity", entityKey,
		"need", need,
		"restored_adjustment", target.PriorAdjustment,
	)
	reversed := *target
	reversed.ReversedAtTurn = &turn
	return &reversed, target.PriorAdjustment, nil
}
