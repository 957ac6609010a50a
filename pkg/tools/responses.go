package tools

import (
	"github.com/sbstnppl/worldkeeper/pkg/events"
	"github.com/sbstnppl/worldkeeper/pkg/world"
)

// NeedView is one need as the narrator sees it: the raw value plus the
// derived urgency verdict so prose never has to re-derive thresholds.
type NeedView struct {
	Need               string  `json:"need"`
	Value              float64 `json:"value"`
	Craving            int     `json:"craving"`
	EffectiveThreshold float64 `json:"effective_threshold"`
	Urgent             bool    `json:"urgent"`
	Satisfied          bool    `json:"satisfied"`
}

type GetNeedsResponse struct {
	EntityKey string     `json:"entity_key"`
	Turn      int        `json:"turn"`
	Needs     []NeedView `json:"needs"`
}

type SatisfyNeedResponse struct {
	EntityKey string  `json:"entity_key"`
	Need      string  `json:"need"`
	OldValue  float64 `json:"old_value"`
	NewValue  float64 `json:"new_value"`
	Delta     float64 `json:"delta"`

	// The multipliers the engine applied, reported so the narrator can
	// explain a muted or amplified outcome.
	PreferenceMultiplier   float64 `json:"preference_multiplier"`
	SatisfactionMultiplier float64 `json:"satisfaction_multiplier"`
	Quality                float64 `json:"quality"`

	CravingCleared bool `json:"craving_cleared,omitempty"`
}

type ApplyStimulusResponse struct {
	EntityKey    string `json:"entity_key"`
	NeedAffected string `json:"need_affected,omitempty"`
	CravingBoost int    `json:"craving_boost"`
	Craving      int    `json:"craving"`

	// MoraleChange is set for memory stimuli only.
	MoraleChange float64 `json:"morale_change,omitempty"`
}

type ModifierResponse struct {
	EntityKey    string `json:"entity_key"`
	Need         string `json:"need"`
	SourceKind   string `json:"source_kind"`
	SourceDetail string `json:"source_detail"`
	Replaced     bool   `json:"replaced,omitempty"`
	Deactivated  bool   `json:"deactivated,omitempty"`
}

type AdaptationResponse struct {
	EntityKey           string  `json:"entity_key"`
	Need                string  `json:"need"`
	Trigger             string  `json:"trigger"`
	Delta               float64 `json:"delta"`
	ThresholdAdjustment float64 `json:"threshold_adjustment"`
	Reversed            bool    `json:"reversed,omitempty"`
}

// UrgentNeed is one urgency transition surfaced by advance_turn.
type UrgentNeed struct {
	EntityKey string  `json:"entity_key"`
	Need      string  `json:"need"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

type AdvanceTurnResponse struct {
	Turn             int          `json:"turn"`
	ElapsedMinutes   float64      `json:"elapsed_minutes"`
	ExpiredModifiers int          `json:"expired_modifiers"`
	UrgentNeeds      []UrgentNeed `json:"urgent_needs,omitempty"`
	QueuedEvents     int          `json:"queued_events"`
}

// CheckRouteResponse reuses the planner's route verbatim; the tool adds
// only the transport echo.
type CheckRouteResponse struct {
	Transport string      `json:"transport"`
	Route     world.Route `json:"route"`
}

type CheckTerrainResponse struct {
	ZoneKey   string             `json:"zone_key"`
	Transport string             `json:"transport"`
	Report    world.AccessReport `json:"report"`
}

type StartTravelResponse struct {
	JourneyID        string            `json:"journey_id"`
	Path             []string          `json:"path"`
	EstimatedMinutes int               `json:"estimated_minutes"`
	Gates            []world.RouteGate `json:"gates,omitempty"`
}

// CheckOutcome is one resolved skill check. Margin is total minus
// difficulty; the tier grades the result for narration (critical_success,
// success, failure, critical_failure).
type CheckOutcome struct {
	EntityKey  string `json:"entity_key"`
	Skill      string `json:"skill"`
	Difficulty int    `json:"difficulty"`
	Roll       int    `json:"roll"`
	Bonus      int    `json:"bonus"`
	Total      int    `json:"total"`
	Margin     int    `json:"margin"`
	Success    bool   `json:"success"`
	Tier       string `json:"outcome_tier"`

	// Consequence is set when a failed check carried one.
	Consequence string `json:"consequence,omitempty"`
}

type TravelStepResponse struct {
	JourneyID string `json:"journey_id"`
	FromZone  string `json:"from_zone"`

	// ToZone is where the traveler stands after the step: the next zone
	// on a completed hop, the boundary zone on a halt, one hop back on a
	// turn-back.
	ToZone        string  `json:"to_zone,omitempty"`
	MinutesSpent  float64 `json:"minutes_spent"`
	Status        string  `json:"status"`
	RemainingHops int     `json:"remaining_hops"`
	Arrived       bool    `json:"arrived,omitempty"`
	TurnedBack    bool    `json:"turned_back,omitempty"`
	HaltReason    string  `json:"halt_reason,omitempty"`

	// Checks lists every gate rolled on this hop, in order. A hop can
	// roll two: the connection's gate and the destination zone's.
	Checks          []CheckOutcome `json:"checks,omitempty"`
	NewlyDiscovered []string       `json:"newly_discovered,omitempty"`
}

type MoveToZoneResponse struct {
	EntityKey string  `json:"entity_key"`
	FromZone  string  `json:"from_zone"`
	ToZone    string  `json:"to_zone"`
	Minutes   float64 `json:"minutes"`

	// Moved is false when a failed gate kept the entity in place; the
	// attempt still cost the reported minutes.
	Moved           bool           `json:"moved"`
	Checks          []CheckOutcome `json:"checks,omitempty"`
	NewlyDiscovered []string       `json:"newly_discovered,omitempty"`
}

type DiscoveryResponse struct {
	EntityKey       string `json:"entity_key"`
	Key             string `json:"key"`
	NewlyDiscovered bool   `json:"newly_discovered"`
	Method          string `json:"method"`
	Turn            int    `json:"turn"`
}

type RelationshipResponse struct {
	FromKey     string `json:"from_key"`
	ToKey       string `json:"to_key"`
	Score       int    `json:"score"`
	Disposition string `json:"disposition"`
}

type PendingEventsResponse struct {
	SessionID string         `json:"session_id"`
	Events    []events.Event `json:"events"`
	Drained   bool           `json:"drained"`
}
