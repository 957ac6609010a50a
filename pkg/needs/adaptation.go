package needs

import "fmt"

// Adaptation is an audit record of a gradual baseline shift, such as an
// entity getting used to sleeping rough. The live effect is carried by one
// cumulative modifier per need (SourceAdaptation, detail = need key); the
// record exists so the shift can be explained and reversed later.
//
// PriorAdjustment snapshots the paired modifier's threshold adjustment
// before this adaptation applied. Reversal restores that snapshot rather
// than subtracting Delta, so round-trips are exact.
type Adaptation struct {
	ID        string `json:"id"`
	EntityKey string `json:"entity_key"`
	Need      Need   `json:"need"`

	Delta           float64 `json:"delta"`
	PriorAdjustment float64 `json:"prior_adjustment"`
	Reason          string  `json:"reason"`
	Trigger         string  `json:"trigger"`

	StartedTurn   int  `json:"started_turn"`
	CompletedTurn *int `json:"completed_turn,omitempty"`
	Gradual       bool `json:"gradual,omitempty"`
	DurationDays  int  `json:"duration_days,omitempty"`

	Reversible      bool   `json:"reversible"`
	ReversalTrigger string `json:"reversal_trigger,omitempty"`
	ReversedAtTurn  *int   `json:"reversed_at_turn,omitempty"`
}

func (a Adaptation) Validate() error {
	if a.EntityKey == "" {
		return fmt.Errorf("adaptation entity_key is required")
	}
	if !a.Need.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownNeed, a.Need)
	}
	if a.Trigger == "" {
		return fmt.Errorf("adaptation trigger is required")
	}
	if a.Delta < -MaxValue || a.Delta > MaxValue {
		return fmt.Errorf("%w: delta %v", ErrOutOfRange, a.Delta)
	}
	return nil
}

// Reversed reports whether this record was already undone.
func (a Adaptation) Reversed() bool {
	return a.ReversedAtTurn != nil
}
