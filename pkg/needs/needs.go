package needs

import (
	"fmt"
	"math"
)

// Need identifies one tracked need. All needs share the same scale:
// values live in [0,100] and 100 means fully satisfied.
type Need string

const (
	Hunger           Need = "hunger"
	Thirst           Need = "thirst"
	Stamina          Need = "stamina"
	Sleep            Need = "sleep"
	Hygiene          Need = "hygiene"
	Comfort          Need = "comfort"
	Wellness         Need = "wellness"
	SocialConnection Need = "social_connection"
	Morale           Need = "morale"
	SenseOfPurpose   Need = "sense_of_purpose"
	Intimacy         Need = "intimacy"
)

// All lists every need in canonical order. Iteration over needs must use
// this slice so turn processing stays deterministic.
var All = []Need{
	Hunger,
	Thirst,
	Stamina,
	Sleep,
	Hygiene,
	Comfort,
	Wellness,
	SocialConnection,
	Morale,
	SenseOfPurpose,
	Intimacy,
}

// Parse validates a need name from external input.
func Parse(s string) (Need, error) {
	n := Need(s)
	for _, known := range All {
		if n == known {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownNeed, s)
}

func (n Need) IsValid() bool {
	_, err := Parse(string(n))
	return err == nil
}

func (n Need) String() string { return string(n) }

// State is the live record for one need of one entity. Value decays toward
// zero over time and is restored by satisfying actions. Craving is a
// separate attention overlay in [0,100]; it never feeds back into Value.
type State struct {
	Need    Need    `json:"need"`
	Value   float64 `json:"value"`
	Craving int     `json:"craving"`

	// Anti-repetition bookkeeping for the narrator: when and at what level
	// this need was last surfaced in prose.
	LastCommunicatedTurn  int     `json:"last_communicated_turn,omitempty"`
	LastCommunicatedValue float64 `json:"last_communicated_value,omitempty"`
}

// Clamp bounds a need value to [0,100].
func Clamp(v float64) float64 {
	return ClampWithCap(v, MaxValue)
}

// ClampWithCap bounds a need value to [0, min(100, cap)]. Caps come from
// modifier composition; a cap at or above 100 is a no-op.
func ClampWithCap(v, cap float64) float64 {
	upper := math.Min(MaxValue, cap)
	if v > upper {
		return upper
	}
	if v < MinValue {
		return MinValue
	}
	return v
}

// DecayStep returns the new value after decaying for elapsedMinutes at the
// effective rate (base rate times composed decay multipliers). The result is
// exact: no rounding is applied, only clamping.
func DecayStep(value, ratePerMinute, elapsedMinutes, cap float64) float64 {
	return ClampWithCap(value-ratePerMinute*elapsedMinutes, cap)
}

// ValidateValue rejects values outside the need scale.
func ValidateValue(v float64) error {
	if math.IsNaN(v) || v < MinValue || v > MaxValue {
		return fmt.Errorf("%w: value %v not in [%v,%v]", ErrOutOfRange, v, MinValue, MaxValue)
	}
	return nil
}

// ValidateRelevance rejects stimulus relevance outside [0,1].
func ValidateRelevance(r float64) error {
	if math.IsNaN(r) || r < 0 || r > 1 {
		return fmt.Errorf("%w: relevance %v not in [0,1]", ErrOutOfRange, r)
	}
	return nil
}
