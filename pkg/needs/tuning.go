package needs

import "math"

// Scale bounds shared by values, cravings, caps and thresholds.
const (
	MinValue = 0.0
	MaxValue = 100.0
)

// Default balance constants. Every one of these is a game-design choice,
// not protocol: deployments tune them through the Tuning struct.
const (
	// DefaultCravingAttention is the share of attention a stimulus
	// commands relative to its relevance.
	DefaultCravingAttention = 0.6

	// DefaultCravingScale dampens the raw craving product so a single
	// stimulus cannot dominate the overlay.
	DefaultCravingScale = 0.6

	// DefaultCravingCap bounds a single craving boost.
	DefaultCravingCap = 50

	// DefaultCravingDecayPerTurn is subtracted from every craving each
	// turn so stale cravings fade without intervention.
	DefaultCravingDecayPerTurn = 10

	// DefaultUrgencyThreshold is the value below which a need presses on
	// the narrative. Modifier threshold adjustments shift it per entity.
	DefaultUrgencyThreshold = 30.0

	// DefaultSatisfiedThreshold is the value at or above which a need
	// counts as satisfied and its craving clears.
	DefaultSatisfiedThreshold = 70.0
)

// Tuning carries the balance constants for the needs engine.
type Tuning struct {
	CravingAttention    float64          `json:"craving_attention"`
	CravingScale        float64          `json:"craving_scale"`
	CravingCap          int              `json:"craving_cap"`
	CravingDecayPerTurn int              `json:"craving_decay_per_turn"`
	UrgencyThreshold    float64          `json:"urgency_threshold"`
	SatisfiedThreshold  float64          `json:"satisfied_threshold"`
	DecayRates          map[Need]float64 `json:"decay_rates"`
}

// DefaultTuning returns the stock balance. Decay rates are points per
// minute; hunger's 0.10 means one point per ten minutes.
func DefaultTuning() Tuning {
	return Tuning{
		CravingAttention:    DefaultCravingAttention,
		CravingScale:        DefaultCravingScale,
		CravingCap:          DefaultCravingCap,
		CravingDecayPerTurn: DefaultCravingDecayPerTurn,
		UrgencyThreshold:    DefaultUrgencyThreshold,
		SatisfiedThreshold:  DefaultSatisfiedThreshold,
		DecayRates: map[Need]float64{
			Hunger:           0.10,
			Thirst:           0.15,
			Stamina:          0.08,
			Sleep:            0.07,
			Hygiene:          0.05,
			Comfort:          0.04,
			Wellness:         0.01,
			SocialConnection: 0.03,
			Morale:           0.02,
			SenseOfPurpose:   0.01,
			Intimacy:         0.02,
		},
	}
}

// DecayRate returns the base decay rate for a need, zero when untracked.
func (t Tuning) DecayRate(n Need) float64 {
	return t.DecayRates[n]
}

// CravingBoost computes the attention boost a stimulus produces:
// round(relevance x attention x (100 - value) x scale), capped. A nearly
// satisfied need yields almost nothing regardless of relevance.
func (t Tuning) CravingBoost(relevance, value float64) int {
	raw := relevance * t.CravingAttention * (MaxValue - value) * t.CravingScale
	boost := int(math.Round(raw))
	if boost > t.CravingCap {
		return t.CravingCap
	}
	if boost < 0 {
		return 0
	}
	return boost
}

// ClampCraving bounds a craving total to [0,100].
func ClampCraving(c int) int {
	if c < int(MinValue) {
		return int(MinValue)
	}
	if c > int(MaxValue) {
		return int(MaxValue)
	}
	return c
}
