package storage

import (
	"time"

	"github.com/google/uuid"
)

// Row types for the Postgres schema. Hot fields (need values, discovery
// tuples) get real columns; structured documents (zone definitions, entity
// sheets, journeys) are stored as jsonb and marshaled by the repo methods.

type sessionRow struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	WorldName    string    `gorm:"not null"`
	Name         string
	Turn         int     `gorm:"not null;default:0"`
	ClockMinutes float64 `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (sessionRow) TableName() string { return "sessions" }

type entityRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_entities_session_key"`
	Key       string    `gorm:"not null;uniqueIndex:ux_entities_session_key"`
	Doc       []byte    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (entityRow) TableName() string { return "entities" }

type needStateRow struct {
	ID                    int64     `gorm:"primaryKey;autoIncrement"`
	SessionID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_need_states_key"`
	EntityKey             string    `gorm:"not null;uniqueIndex:ux_need_states_key"`
	Need                  string    `gorm:"not null;uniqueIndex:ux_need_states_key"`
	Value                 float64   `gorm:"not null"`
	Craving               int       `gorm:"not null;default:0"`
	LastCommunicatedTurn  int       `gorm:"not null;default:0"`
	LastCommunicatedValue float64   `gorm:"not null;default:0"`
	UpdatedAt             time.Time
}

func (needStateRow) TableName() string { return "need_states" }

type needModifierRow struct {
	ID                     int64     `gorm:"primaryKey;autoIncrement"`
	SessionID              uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_need_modifiers_source"`
	EntityKey              string    `gorm:"not null;uniqueIndex:ux_need_modifiers_source"`
	Need                   string    `gorm:"not null;uniqueIndex:ux_need_modifiers_source"`
	SourceKind             string    `gorm:"not null;uniqueIndex:ux_need_modifiers_source"`
	SourceDetail           string    `gorm:"not null;uniqueIndex:ux_need_modifiers_source"`
	DecayMultiplier        float64   `gorm:"not null;default:1"`
	SatisfactionMultiplier float64   `gorm:"not null;default:1"`
	MaxIntensityCap        float64   `gorm:"not null;default:100"`
	ThresholdAdjustment    float64   `gorm:"not null;default:0"`
	Active                 bool      `gorm:"not null;default:true"`
	ExpiresAtTurn          *int
	UpdatedAt              time.Time
}

func (needModifierRow) TableName() string { return "need_modifiers" }

type adaptationRow struct {
	ID              string    `gorm:"primaryKey"`
	SessionID       uuid.UUID `gorm:"type:uuid;not null;index:ix_adaptations_entity_need"`
	EntityKey       string    `gorm:"not null;index:ix_adaptations_entity_need"`
	Need            string    `gorm:"not null;index:ix_adaptations_entity_need"`
	Delta           float64   `gorm:"not null"`
	PriorAdjustment float64   `gorm:"not null"`
	Reason          string
	Trigger         string
	StartedTurn     int `gorm:"not null"`
	CompletedTurn   *int
	Gradual         bool
	DurationDays    int
	Reversible      bool
	ReversalTrigger string
	ReversedAtTurn  *int
	CreatedAt       time.Time
}

func (adaptationRow) TableName() string { return "need_adaptations" }

type preferencesRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_preferences_entity"`
	EntityKey string    `gorm:"not null;uniqueIndex:ux_preferences_entity"`
	Doc       []byte    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (preferencesRow) TableName() string { return "entity_preferences" }

type relationshipRow struct {
	ID               int64     `gorm:"primaryKey;autoIncrement"`
	SessionID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_relationships_pair"`
	FromKey          string    `gorm:"not null;uniqueIndex:ux_relationships_pair"`
	ToKey            string    `gorm:"not null;uniqueIndex:ux_relationships_pair"`
	Score            int       `gorm:"not null;default:0"`
	LastChangeReason string
	UpdatedAt        time.Time
}

func (relationshipRow) TableName() string { return "relationships" }

type zoneRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_zones_session_key"`
	Key       string    `gorm:"not null;uniqueIndex:ux_zones_session_key"`
	Doc       []byte    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (zoneRow) TableName() string { return "zones" }

// zoneConnectionRow has no natural key: parallel edges between the same
// pair of zones are allowed.
type zoneConnectionRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index"`
	FromKey   string    `gorm:"not null"`
	ToKey     string    `gorm:"not null"`
	Doc       []byte    `gorm:"type:jsonb;not null"`
}

func (zoneConnectionRow) TableName() string { return "zone_connections" }

type locationRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_locations_session_key"`
	Key       string    `gorm:"not null;uniqueIndex:ux_locations_session_key"`
	ZoneKey   string    `gorm:"not null;index"`
	Doc       []byte    `gorm:"type:jsonb;not null"`
}

func (locationRow) TableName() string { return "locations" }

type transportRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_transports_session_key"`
	Key       string    `gorm:"not null;uniqueIndex:ux_transports_session_key"`
	Doc       []byte    `gorm:"type:jsonb;not null"`
}

func (transportRow) TableName() string { return "session_transports" }

type zoneDiscoveryRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_zone_discoveries"`
	EntityKey string    `gorm:"not null;uniqueIndex:ux_zone_discoveries"`
	ZoneKey   string    `gorm:"not null;uniqueIndex:ux_zone_discoveries"`
	Method    string    `gorm:"not null"`
	Source    string
	Turn      int `gorm:"not null"`
	CreatedAt time.Time
}

func (zoneDiscoveryRow) TableName() string { return "zone_discoveries" }

type locationDiscoveryRow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	SessionID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_location_discoveries"`
	EntityKey   string    `gorm:"not null;uniqueIndex:ux_location_discoveries"`
	LocationKey string    `gorm:"not null;uniqueIndex:ux_location_discoveries"`
	Method      string    `gorm:"not null"`
	Source      string
	Turn        int `gorm:"not null"`
	CreatedAt   time.Time
}

func (locationDiscoveryRow) TableName() string { return "location_discoveries" }

type journeyRow struct {
	ID        string    `gorm:"primaryKey"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index:ix_journeys_entity"`
	EntityKey string    `gorm:"not null;index:ix_journeys_entity"`
	Status    string    `gorm:"not null;index"`
	Doc       []byte    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (journeyRow) TableName() string { return "journeys" }

func allModels() []any {
	return []any{
		&sessionRow{},
		&entityRow{},
		&needStateRow{},
		&needModifierRow{},
		&adaptationRow{},
		&preferencesRow{},
		&relationshipRow{},
		&zoneRow{},
		&zoneConnectionRow{},
		&locationRow{},
		&transportRow{},
		&zoneDiscoveryRow{},
		&locationDiscoveryRow{},
		&journeyRow{},
	}
}
