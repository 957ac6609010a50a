package tools

// Request argument shapes, one per tool. Needs and modifier writes reuse
// the domain wire shapes directly (needs.Modifier already is its own
// contract); everything else is defined here.

type GetNeedsRequest struct {
	EntityKey string `json:"entity_key"`
}

type SatisfyNeedRequest struct {
	EntityKey  string  `json:"entity_key"`
	Need       string  `json:"need"`
	BaseAmount float64 `json:"base_amount"`
	ActionType string  `json:"action_type"`

	// Quality scales the base amount directly: 1.0 is typical, a feast
	// might be 1.5. Zero means unspecified and is treated as 1.0.
	Quality float64 `json:"quality,omitempty"`

	// Tags describe the action for preference matching ("stew", "group").
	Tags []string `json:"tags,omitempty"`
}

type ApplyStimulusRequest struct {
	EntityKey    string  `json:"entity_key"`
	StimulusType string  `json:"stimulus_type"`
	Description  string  `json:"description,omitempty"`
	Intensity    float64 `json:"intensity"`

	// MemoryEmotion colors remembered stimuli: "fond" lifts morale,
	// "painful" dents it, anything else leaves morale alone.
	MemoryEmotion string `json:"memory_emotion,omitempty"`
}

type RemoveNeedModifierRequest struct {
	EntityKey    string `json:"entity_key"`
	Need         string `json:"need"`
	SourceKind   string `json:"source_kind"`
	SourceDetail string `json:"source_detail"`
}

type RecordAdaptationRequest struct {
	EntityKey       string  `json:"entity_key"`
	Need            string  `json:"need"`
	Delta           float64 `json:"delta"`
	Reason          string  `json:"reason"`
	Trigger         string  `json:"trigger"`
	Gradual         bool    `json:"gradual,omitempty"`
	DurationDays    int     `json:"duration_days,omitempty"`
	Reversible      bool    `json:"reversible,omitempty"`
	ReversalTrigger string  `json:"reversal_trigger,omitempty"`
}

type ReverseAdaptationRequest struct {
	EntityKey string `json:"entity_key"`
	Need      string `json:"need"`
	Trigger   string `json:"trigger"`
}

type AdvanceTurnRequest struct {
	ElapsedMinutes float64 `json:"elapsed_minutes"`
}

type CheckRouteRequest struct {
	EntityKey   string `json:"entity_key"`
	FromZone    string `json:"from_zone,omitempty"` // defaults to the entity's zone
	ToZone      string `json:"to_zone"`
	Transport   string `json:"transport,omitempty"` // defaults to walking
	PreferRoads bool   `json:"prefer_roads,omitempty"`
}

type CheckTerrainRequest struct {
	ZoneKey   string `json:"zone_key"`
	Transport string `json:"transport,omitempty"`
}

type StartTravelRequest struct {
	EntityKey   string `json:"entity_key"`
	ToZone      string `json:"to_zone"`
	Transport   string `json:"transport,omitempty"`
	PreferRoads bool   `json:"prefer_roads,omitempty"`
}

type ContinueTravelRequest struct {
	EntityKey string `json:"entity_key"`
}

type AbortTravelRequest struct {
	EntityKey string `json:"entity_key"`
	Reason    string `json:"reason,omitempty"`
}

type MoveToZoneRequest struct {
	EntityKey string `json:"entity_key"`
	ToZone    string `json:"to_zone"`
	Transport string `json:"transport,omitempty"`
}

type DiscoverZoneRequest struct {
	EntityKey string `json:"entity_key"`
	ZoneKey   string `json:"zone_key"`
	Method    string `json:"method"`
	Source    string `json:"source,omitempty"`
}

type DiscoverLocationRequest struct {
	EntityKey   string `json:"entity_key"`
	LocationKey string `json:"location_key"`
	Method      string `json:"method"`
	Source      string `json:"source,omitempty"`
}

type SkillCheckRequest struct {
	EntityKey  string `json:"entity_key"`
	Skill      string `json:"skill"`
	Difficulty int    `json:"difficulty"`

	// Advantage rolls twice and keeps the better die; Disadvantage keeps
	// the worse. Setting both cancels out.
	Advantage    bool `json:"advantage,omitempty"`
	Disadvantage bool `json:"disadvantage,omitempty"`
}

type AdjustRelationshipRequest struct {
	FromKey string `json:"from_key"`
	ToKey   string `json:"to_key"`
	Delta   int    `json:"delta"`
	Reason  string `json:"reason,omitempty"`
}

type GetRelationshipRequest struct {
	FromKey string `json:"from_key"`
	ToKey   string `json:"to_key"`
}

type GetPendingEventsRequest struct {
	// Peek leaves the feed intact instead of draining it.
	Peek bool `json:"peek,omitempty"`
}
