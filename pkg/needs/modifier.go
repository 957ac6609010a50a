package needs

import (
	"fmt"
	"math"
)

// SourceKind classifies where a modifier came from. The set is closed;
// narrative one-offs belong under SourceTemporary or SourceCustom rather
// than new kinds.
type SourceKind string

const (
	SourceTrait      SourceKind = "trait"
	SourceAge        SourceKind = "age"
	SourceAdaptation SourceKind = "adaptation"
	SourceCustom     SourceKind = "custom"
	SourceTemporary  SourceKind = "temporary"
)

var sourceKinds = []SourceKind{SourceTrait, SourceAge, SourceAdaptation, SourceCustom, SourceTemporary}

func ParseSourceKind(s string) (SourceKind, error) {
	k := SourceKind(s)
	for _, known := range sourceKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown source kind %q", s)
}

// Modifier adjusts how one need behaves for one entity. A modifier is
// unique per (entity, need, source kind, source detail); setting the same
// source tuple again replaces the previous values.
//
// Zero-valued knobs mean "default": multipliers 1.0, cap 100, adjustment 0.
// Normalize applies the defaults before persistence so composition never
// sees an accidental zero multiplier.
type Modifier struct {
	EntityKey    string     `json:"entity_key"`
	Need         Need       `json:"need"`
	SourceKind   SourceKind `json:"source_kind"`
	SourceDetail string     `json:"source_detail"`

	DecayMultiplier        float64 `json:"decay_multiplier"`
	SatisfactionMultiplier float64 `json:"satisfaction_multiplier"`
	MaxIntensityCap        float64 `json:"max_intensity_cap"`
	ThresholdAdjustment    float64 `json:"threshold_adjustment"`

	Active        bool `json:"active"`
	ExpiresAtTurn *int `json:"expires_at_turn,omitempty"`
}

// SourceID is the uniqueness key within (entity, need).
func (m Modifier) SourceID() string {
	return string(m.SourceKind) + ":" + m.SourceDetail
}

// Normalize fills defaulted knobs on a freshly built modifier.
func (m Modifier) Normalize() Modifier {
	if m.DecayMultiplier == 0 {
		m.DecayMultiplier = 1.0
	}
	if m.SatisfactionMultiplier == 0 {
		m.SatisfactionMultiplier = 1.0
	}
	if m.MaxIntensityCap == 0 {
		m.MaxIntensityCap = MaxValue
	}
	return m
}

func (m Modifier) Validate() error {
	if m.EntityKey == "" {
		return fmt.Errorf("modifier entity_key is required")
	}
	if !m.Need.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownNeed, m.Need)
	}
	if _, err := ParseSourceKind(string(m.SourceKind)); err != nil {
		return err
	}
	if m.SourceDetail == "" {
		return fmt.Errorf("modifier source_detail is required")
	}
	if m.DecayMultiplier < 0 || math.IsNaN(m.DecayMultiplier) {
		return fmt.Errorf("%w: decay_multiplier %v", ErrOutOfRange, m.DecayMultiplier)
	}
	if m.SatisfactionMultiplier < 0 || math.IsNaN(m.SatisfactionMultiplier) {
		return fmt.Errorf("%w: satisfaction_multiplier %v", ErrOutOfRange, m.SatisfactionMultiplier)
	}
	if m.MaxIntensityCap < MinValue || m.MaxIntensityCap > MaxValue {
		return fmt.Errorf("%w: max_intensity_cap %v", ErrOutOfRange, m.MaxIntensityCap)
	}
	if m.ThresholdAdjustment < -MaxValue || m.ThresholdAdjustment > MaxValue {
		return fmt.Errorf("%w: threshold_adjustment %v", ErrOutOfRange, m.ThresholdAdjustment)
	}
	return nil
}

// ExpiredAt reports whether the modifier's lifetime ended at or before the
// given turn. Permanent modifiers never expire.
func (m Modifier) ExpiredAt(turn int) bool {
	return m.ExpiresAtTurn != nil && *m.ExpiresAtTurn <= turn
}

// ModifierSet composes the active modifiers of one (entity, need) pair.
// Multipliers compose multiplicatively, threshold adjustments additively,
// and caps by taking the most restrictive.
type ModifierSet []Modifier

// ForNeed filters the set down to one need.
func (ms ModifierSet) ForNeed(n Need) ModifierSet {
	var out ModifierSet
	for _, m := range ms {
		if m.Need == n {
			out = append(out, m)
		}
	}
	return out
}

func (ms ModifierSet) DecayMultiplier() float64 {
	mult := 1.0
	for _, m := range ms {
		if m.Active {
			mult *= m.DecayMultiplier
		}
	}
	return mult
}

func (ms ModifierSet) SatisfactionMultiplier() float64 {
	mult := 1.0
	for _, m := range ms {
		if m.Active {
			mult *= m.SatisfactionMultiplier
		}
	}
	return mult
}

// IntensityCap returns the lowest active cap, MaxValue when uncapped.
func (ms ModifierSet) IntensityCap() float64 {
	lowest := MaxValue
	for _, m := range ms {
		if m.Active && m.MaxIntensityCap < lowest {
			lowest = m.MaxIntensityCap
		}
	}
	return lowest
}

func (ms ModifierSet) ThresholdAdjustment() float64 {
	sum := 0.0
	for _, m := range ms {
		if m.Active {
			sum += m.ThresholdAdjustment
		}
	}
	return sum
}

// EffectiveThreshold shifts the base urgency threshold by the set's
// adjustments, clamped to the need scale.
func (ms ModifierSet) EffectiveThreshold(base float64) float64 {
	return Clamp(base + ms.ThresholdAdjustment())
}
