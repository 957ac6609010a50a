package entity

import "fmt"

// Disposition bands derived from a relationship score.
type Disposition string

const (
	DispositionHostile    Disposition = "hostile"
	DispositionUnfriendly Disposition = "unfriendly"
	DispositionNeutral    Disposition = "neutral"
	DispositionFriendly   Disposition = "friendly"
	DispositionDevoted    Disposition = "devoted"
)

// Relationship score bounds and band cutoffs.
const (
	RelationshipMin = -100
	RelationshipMax = 100

	hostileBelow    = -50
	unfriendlyBelow = -15
	friendlyAbove   = 15
	devotedAbove    = 60
)

// Relationship tracks how one entity regards another. Scores are directed:
// a and b each hold their own row about the other.
type Relationship struct {
	FromKey string `json:"from_key"`
	ToKey   string `json:"to_key"`
	Score   int    `json:"score"`

	// LastChangeReason records why the score last moved, for narration.
	LastChangeReason string `json:"last_change_reason,omitempty"`
}

func (r Relationship) Validate() error {
	if r.FromKey == "" || r.ToKey == "" {
		return fmt.Errorf("relationship requires from_key and to_key")
	}
	if r.FromKey == r.ToKey {
		return fmt.Errorf("relationship %s: entities cannot relate to themselves", r.FromKey)
	}
	if r.Score < RelationshipMin || r.Score > RelationshipMax {
		return fmt.Errorf("relationship %s->%s: score %d not in [%d,%d]",
			r.FromKey, r.ToKey, r.Score, RelationshipMin, RelationshipMax)
	}
	return nil
}

// Disposition maps the score onto its narrative band.
func (r Relationship) Disposition() Disposition {
	switch {
	case r.Score <= hostileBelow:
		return DispositionHostile
	case r.Score <= unfriendlyBelow:
		return DispositionUnfriendly
	case r.Score >= devotedAbove:
		return DispositionDevoted
	case r.Score >= friendlyAbove:
		return DispositionFriendly
	default:
		return DispositionNeutral
	}
}

// ClampScore bounds a relationship score after adjustment.
func ClampScore(s int) int {
	if s < RelationshipMin {
		return RelationshipMin
	}
	if s > RelationshipMax {
		return RelationshipMax
	}
	return s
}
