// Package engine implements the simulation rules: need decay and
// satisfaction, modifier lifecycles, discovery, and journey advancement.
// Engines hold no session state; every operation loads from and writes to
// the store, so one engine instance serves all sessions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sbstnppl/worldkeeper/internal/storage"
	"github.com/sbstnppl/worldkeeper/pkg/needs"
)

// Morale nudges from remembered stimuli. Intensity drives craving, the
// emotion drives morale.
const (
	moraleFondBoost     = 2.0
	moralePainfulDamage = 2.0
)

// ErrUnknownStimulus is returned for stimulus types outside the catalog.
var ErrUnknownStimulus = errors.New("unknown stimulus type")

// stimulusNeeds is the closed stimulus catalog. Free-text stimuli are the
// narrator's business; only these keys move the simulation.
var stimulusNeeds = map[string]needs.Need{
	"smell_of_food":     needs.Hunger,
	"sight_of_food":     needs.Hunger,
	"sight_of_drink":    needs.Thirst,
	"sound_of_water":    needs.Thirst,
	"soft_bed":          needs.Sleep,
	"cozy_hearth":       needs.Comfort,
	"bathhouse_steam":   needs.Hygiene,
	"lively_music":      needs.Morale,
	"celebration":       needs.Morale,
	"friendly_face":     needs.SocialConnection,
	"bustling_crowd":    needs.SocialConnection,
	"perfume":           needs.Intimacy,
	"flirtation":        needs.Intimacy,
	"training_grounds":  needs.SenseOfPurpose,
	"call_to_adventure": needs.SenseOfPurpose,
}

// NeedsEngine owns every read and write of need values. Multipliers from
// modifiers and preferences are applied here and nowhere else.
type NeedsEngine struct {
	store  storage.Store
	tuning needs.Tuning
	logger *slog.Logger
}

func NewNeedsEngine(store storage.Store, tuning needs.Tuning, logger *slog.Logger) *NeedsEngine {
	return &NeedsEngine{
		store:  store,
		tuning: tuning,
		logger: logger,
	}
}

// NeedView is a need state with its derived urgency fields.
type NeedView struct {
	needs.State
	EffectiveThreshold float64
	Urgent             bool
	Satisfied          bool
}

// SatisfyResult reports one satisfaction application.
type SatisfyResult struct {
	Need                   needs.Need
	OldValue               float64
	NewValue               float64
	Delta                  float64
	PreferenceMultiplier   float64
	SatisfactionMultiplier float64
	Quality                float64
	CravingCleared         bool
}

// StimulusResult reports one stimulus application.
type StimulusResult struct {
	NeedAffected needs.Need
	CravingBoost int
	Craving      int
	MoraleChange float64
}

// loadStates returns the entity's need states keyed by need. An entity
// with no seeded needs is an error, never a fabricated default.
func (e *NeedsEngine) loadStates(ctx context.Context, sessionID uuid.UUID, entityKey string) (map[needs.Need]needs.State, error) {
	states, err := e.store.GetNeedStates(ctx, sessionID, entityKey)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("%w: %s", needs.ErrNotInitialized, entityKey)
	}
	byNeed := make(map[needs.Need]needs.State, len(states))
	for _, st := range states {
		byNeed[st.Need] = st
	}
	return byNeed, nil
}

// Needs returns the entity's needs in canonical order with thresholds
// already adjusted by active modifiers.
func (e *NeedsEngine) Needs(ctx context.Context, sessionID uuid.UUID, entityKey string) ([]NeedView, error) {
	byNeed, err := e.loadStates(ctx, sessionID, entityKey)
	if err != nil {
		return nil, err
	}
	mods, err := e.store.ListModifiers(ctx, sessionID, entityKey)
	if err != nil {
		return nil, err
	}

	views := make([]NeedView, 0, len(byNeed))
	for _, n := range needs.All {
		st, ok := byNeed[n]
		if !ok {
			continue
		}
		threshold := mods.ForNeed(n).EffectiveThreshold(e.tuning.UrgencyThreshold)
		views = append(views, NeedView{
			State:              st,
			EffectiveThreshold: threshold,
			Urgent:             st.Value < threshold,
			Satisfied:          st.Value >= e.tuning.SatisfiedThreshold,
		})
	}
	return views, nil
}

// SatisfyNeed raises a need by baseAmount scaled by quality, the entity's
// preferences, and active satisfaction modifiers. The result is clamped to
// the modifier intensity cap. A positive change clears any craving.
func (e *NeedsEngine) SatisfyNeed(ctx context.Context, sessionID uuid.UUID, entityKey string, need needs.Need, baseAmount, quality float64, actionType string, tags []string) (*SatisfyResult, error) {
	if quality <= 0 {
		quality = 1.0
	}

	byNeed, err := e.loadStates(ctx, sessionID, entityKey)
	if err != nil {
		return nil, err
	}
	st, ok := byNeed[need]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %s state", needs.ErrNotInitialized, entityKey, need)
	}

	prefMult := 1.0
	prefs, err := e.store.GetPreferences(ctx, sessionID, entityKey)
	switch {
	case err == nil:
		prefMult = prefs.SatisfactionMultiplier(need, actionType, tags)
	case errors.Is(err, storage.ErrNotFound):
		// No preferences recorded; neutral.
	default:
		return nil, err
	}

	mods, err := e.store.ListModifiers(ctx, sessionID, entityKey)
	if err != nil {
		return nil, err
	}
	forNeed := mods.ForNeed(need)
	satMult := forNeed.SatisfactionMultiplier()

	oldValue := st.Value
	raw := oldValue + baseAmount*quality*prefMult*satMult
	st.Value = needs.ClampWithCap(raw, forNeed.IntensityCap())

	cleared := false
	if st.Value > oldValue && st.Craving > 0 {
		st.Craving = 0
		cleared = true
	}

	if err := e.store.SaveNeedState(ctx, sessionID, entityKey, st); err != nil {
		return nil, err
	}

	e.logger.Debug("Need satisfied",
		"entity", entityKey,
		"need", need,
		"old_value", oldValue,
		"new_value", st.Value,
		"preference_multiplier", prefMult,
		"satisfaction_multiplier", satMult,
	)

	return &SatisfyResult{
		Need:                   need,
		OldValue:               oldValue,
		NewValue:               st.Value,
		Delta:                  st.Value - oldValue,
		PreferenceMultiplier:   prefMult,
		SatisfactionMultiplier: satMult,
		Quality:                quality,
		CravingCleared:         cleared,
	}, nil
}

// ApplyDecay ages every need of an entity by elapsedMinutes. Per-need decay
// rate is the base rate times the product of active decay multipliers;
// values never fall below zero and never exceed the modifier cap.
func (e *NeedsEngine) ApplyDecay(ctx context.Context, sessionID uuid.UUID, entityKey string, elapsedMinutes float64) error {
	if elapsedMinutes < 0 {
		return fmt.Errorf("%w: elapsed minutes %v", needs.ErrOutOfRange, elapsedMinutes)
	}
	if elapsedMinutes == 0 {
		return nil
	}

	byNeed, err := e.loadStates(ctx, sessionID, entityKey)
	if err != nil {
		return err
	}
	mods, err := e.store.ListModifiers(ctx, sessionID, entityKey)
	if err != nil {
		return err
	}

	for _, n := range needs.All {
		st, ok := byNeed[n]
		if !ok {
			continue
		}
		forNeed := mods.ForNeed(n)
		rate := e.tuning.DecayRate(n) * forNeed.DecayMultiplier()
		next := needs.DecayStep(st.Value, rate, elapsedMinutes, forNeed.IntensityCap())
		if next == st.Value {
			continue
		}
		st.Value = next
		if err := e.store.SaveNeedState(ctx, sessionID, entityKey, st); err != nil {
			return err
		}
	}
	return nil
}

// ApplyCraving boosts a need's craving overlay from a stimulus of the given
// relevance. The need value itself is untouched.
func (e *NeedsEngine) ApplyCraving(ctx context.Context, sessionID uuid.UUID, entityKey string, need needs.Need, relevance float64) (boost int, craving int, err error) {
	if err := needs.ValidateRelevance(relevance); err != nil {
		return 0, 0, err
	}

	byNeed, err := e.loadStates(ctx, sessionID, entityKey)
	if err != nil {
		return 0, 0, err
	}
	st, ok := byNeed[need]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s has no %s state", needs.ErrNotInitialized, entityKey, need)
	}

	boost = e.tuning.CravingBoost(relevance, st.Value)
	st.Craving = needs.ClampCraving(st.Craving + boost)
	if err := e.store.SaveNeedState(ctx, sessionID, entityKey, st); err != nil {
		return 0, 0, err
	}
	return boost, st.Craving, nil
}

// ApplyStimulus maps a stimulus type to its need, applies a craving boost
// with intensity as relevance, and nudges morale for remembered emotions.
func (e *NeedsEngine) ApplyStimulus(ctx context.Context, sessionID uuid.UUID, entityKey, stimulusType string, intensity float64, memoryEmotion string) (*StimulusResult, error) {
	need, ok := stimulusNeeds[stimulusType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStimulus, stimulusType)
	}

	boost, craving, err := e.ApplyCraving(ctx, sessionID, entityKey, need, intensity)
	if err != nil {
		return nil, err
	}

	result := &StimulusResult{
		NeedAffected: need,
		CravingBoost: boost,
		Craving:      craving,
	}

	switch memoryEmotion {
	case "fond":
		result.MoraleChange = moraleFondBoost
	case "painful":
		result.MoraleChange = -moralePainfulDamage
	}
	if result.MoraleChange != 0 {
		if err := e.AdjustValue(ctx, sessionID, entityKey, needs.Morale, result.MoraleChange); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// AdjustValue moves a need value directly by delta, honoring the modifier
// intensity cap. Used for penalties and morale nudges, not satisfaction.
func (e *NeedsEngine) AdjustValue(ctx context.Context, sessionID uuid.UUID, entityKey string, need needs.Need, delta float64) error {
	byNeed, err := e.loadStates(ctx, sessionID, entityKey)
	if err != nil {
		return err
	}
	st, ok := byNeed[need]
	if !ok {
		return fmt.Errorf("%w: %s has no %s state", needs.ErrNotInitialized, entityKey, need)
	}
	mods, err := e.store.ListModifiers(ctx, sessionID, entityKey)
	if err != nil {
		return err
	}
	st.Value = needs.ClampWithCap(st.Value+delta, mods.ForNeed(need).IntensityCap())
	return e.store.SaveNeedState(ctx, sessionID, entityKey, st)
}

// ApplyExertion drains stamina for physical effort on top of time decay.
// The stamina decay multiplier applies, so hardy or frail traits show in
// travel fatigue too.
func (e *NeedsEngine) ApplyExertion(ctx context.Context, sessionID uuid.UUID, entityKey string, staminaCost float64) error {
	if staminaCost <= 0 {
		return nil
	}
	byNeed, err := e.loadStates(ctx, sessionID, entityKey)
	if err != nil {
		return err
	}
	st, ok := byNeed[needs.Stamina]
	if !ok {
		return nil
	}
	mods, err := e.store.ListModifiers(ctx, sessionID, entityKey)
	if err != nil {
		return err
	}
	forStamina := mods.ForNeed(needs.Stamina)
	st.Value = needs.ClampWithCap(st.Value-staminaCost*forStamina.DecayMultiplier(), forStamina.IntensityCap())
	return e.store.SaveNeedState(ctx, sessionID, entityKey, st)
}

// DecayCravings fades every craving of an entity by the per-turn decay.
func (e *NeedsEngine) DecayCravings(ctx context.Context, sessionID uuid.UUID, entityKey string) error {
	byNeed, err := e.loadStates(ctx, sessionID, entityKey)
	if err != nil {
		return err
	}
	for _, n := range needs.All {
		st, ok := byNeed[n]
		if !ok || st.Craving == 0 {
			continue
		}
		st.Craving = needs.ClampCraving(st.Craving - e.tuning.CravingDecayPerTurn)
		if err := e.store.SaveNeedState(ctx, sessionID, entityKey, st); err != nil {
			return err
		}
	}
	return nil
}
