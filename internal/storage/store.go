// Package storage persists session state. The production store is
// Postgres; a memory store backs unit tests. World definitions are plain
// files under the data directory, loaded through the same store so callers
// never touch the filesystem themselves.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/sbstnppl/worldkeeper/pkg/discovery"
	"github.com/sbstnppl/worldkeeper/pkg/entity"
	"github.com/sbstnppl/worldkeeper/pkg/needs"
	"github.com/sbstnppl/worldkeeper/pkg/session"
	"github.com/sbstnppl/worldkeeper/pkg/travel"
	"github.com/sbstnppl/worldkeeper/pkg/world"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write collides with existing state,
	// such as creating a session that already exists.
	ErrConflict = errors.New("conflict")
)

// HealthChecker verifies the store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Closer releases store resources.
type Closer interface {
	Close() error
}

// TxRunner executes fn inside one transaction. The context passed to fn
// carries the transaction; every store call made with it joins in. Tool
// invocations run exactly one transaction each.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SessionStore persists sessions. Deleting a session removes every row
// that hangs off it.
type SessionStore interface {
	CreateSession(ctx context.Context, s *session.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error)
	SaveSession(ctx context.Context, s *session.Session) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
	ListSessions(ctx context.Context) ([]session.Session, error)
}

// EntityStore persists entity sheets, preferences and relationships.
type EntityStore interface {
	CreateEntity(ctx context.Context, sessionID uuid.UUID, spec *entity.Spec) error
	GetEntity(ctx context.Context, sessionID uuid.UUID, key string) (*entity.Spec, error)
	SaveEntity(ctx context.Context, sessionID uuid.UUID, spec *entity.Spec) error
	ListEntities(ctx context.Context, sessionID uuid.UUID) ([]entity.Spec, error)

	SavePreferences(ctx context.Context, sessionID uuid.UUID, prefs needs.Preferences) error
	GetPreferences(ctx context.Context, sessionID uuid.UUID, entityKey string) (*needs.Preferences, error)

	GetRelationship(ctx context.Context, sessionID uuid.UUID, fromKey, toKey string) (*entity.Relationship, error)
	SaveRelationship(ctx context.Context, sessionID uuid.UUID, rel entity.Relationship) error
}

// NeedsStore persists need states, modifiers and adaptation records.
type NeedsStore interface {
	InitNeeds(ctx context.Context, sessionID uuid.UUID, entityKey string, values map[needs.Need]float64) error
	GetNeedStates(ctx context.Context, sessionID uuid.UUID, entityKey string) ([]needs.State, error)
	SaveNeedState(ctx context.Context, sessionID uuid.UUID, entityKey string, st needs.State) error

	// UpsertModifier replaces any modifier with the same source tuple and
	// reports whether one was replaced.
	UpsertModifier(ctx context.Context, sessionID uuid.UUID, m needs.Modifier) (bool, error)
	ListModifiers(ctx context.Context, sessionID uuid.UUID, entityKey string) (needs.ModifierSet, error)
	ListSessionModifiers(ctx context.Context, sessionID uuid.UUID) (needs.ModifierSet, error)

	AppendAdaptation(ctx context.Context, sessionID uuid.UUID, a needs.Adaptation) error
	ListAdaptations(ctx context.Context, sessionID uuid.UUID, entityKey string, need needs.Need) ([]needs.Adaptation, error)
	MarkAdaptationReversed(ctx context.Context, sessionID uuid.UUID, id string, turn int) error
}

// WorldStore persists the session's zone graph.
type WorldStore interface {
	SaveZones(ctx context.Context, sessionID uuid.UUID, zones []world.Zone) error
	SaveZone(ctx context.Context, sessionID uuid.UUID, z world.Zone) error
	GetZone(ctx context.Context, sessionID uuid.UUID, key string) (*world.Zone, error)
	ListZones(ctx context.Context, sessionID uuid.UUID) ([]world.Zone, error)

	SaveConnections(ctx context.Context, sessionID uuid.UUID, conns []world.Connection) error
	ListConnections(ctx context.Context, sessionID uuid.UUID) ([]world.Connection, error)

	SaveLocations(ctx context.Context, sessionID uuid.UUID, locs []world.Location) error
	GetLocation(ctx context.Context, sessionID uuid.UUID, key string) (*world.Location, error)
	ListZoneLocations(ctx context.Context, sessionID uuid.UUID, zoneKey string) ([]world.Location, error)

	// Transport modes a world definition added on top of the stock
	// catalog. Most worlds add none.
	SaveTransports(ctx context.Context, sessionID uuid.UUID, modes []world.TransportMode) error
	ListTransports(ctx context.Context, sessionID uuid.UUID) ([]world.TransportMode, error)
}

// DiscoveryStore persists what entities know of the world.
type DiscoveryStore interface {
	GetZoneDiscovery(ctx context.Context, sessionID uuid.UUID, entityKey, zoneKey string) (*discovery.ZoneDiscovery, error)
	CreateZoneDiscovery(ctx context.Context, sessionID uuid.UUID, d discovery.ZoneDiscovery) error
	ListZoneDiscoveries(ctx context.Context, sessionID uuid.UUID, entityKey string) ([]discovery.ZoneDiscovery, error)

	GetLocationDiscovery(ctx context.Context, sessionID uuid.UUID, entityKey, locationKey string) (*discovery.LocationDiscovery, error)
	CreateLocationDiscovery(ctx context.Context, sessionID uuid.UUID, d discovery.LocationDiscovery) error
	ListLocationDiscoveries(ctx context.Context, sessionID uuid.UUID, entityKey string) ([]discovery.LocationDiscovery, error)
}

// JourneyStore persists journeys. An entity has at most one in-flight
// journey at a time.
type JourneyStore interface {
	CreateJourney(ctx context.Context, sessionID uuid.UUID, j travel.Journey) error
	GetActiveJourney(ctx context.Context, sessionID uuid.UUID, entityKey string) (*travel.Journey, error)
	SaveJourney(ctx context.Context, sessionID uuid.UUID, j travel.Journey) error
}

// DefinitionStore loads world definition templates.
type DefinitionStore interface {
	GetWorldDefinition(name string) (*world.Definition, error)
	ListWorldDefinitions() ([]string, error)
}

// Store is everything the engine needs from persistence.
type Store interface {
	HealthChecker
	Closer
	TxRunner
	SessionStore
	EntityStore
	NeedsStore
	WorldStore
	DiscoveryStore
	JourneyStore
	DefinitionStore
}
