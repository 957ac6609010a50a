package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sbstnppl/worldkeeper/pkg/discovery"
	"github.com/sbstnppl/worldkeeper/pkg/entity"
	"github.com/sbstnppl/worldkeeper/pkg/needs"
	"github.com/sbstnppl/worldkeeper/pkg/session"
	"github.com/sbstnppl/worldkeeper/pkg/travel"
	"github.com/sbstnppl/worldkeeper/pkg/world"
)

// MemoryStore is a map-backed Store for tests. RunInTx has no rollback;
// tests that exercise failures assert on state they set up themselves.
type MemoryStore struct {
	mu sync.RWMutex

	sessions      map[uuid.UUID]session.Session
	entities      map[uuid.UUID]map[string]entity.Spec
	needStates    map[uuid.UUID]map[string]map[needs.Need]needs.State
	modifiers     map[uuid.UUID]map[string]needs.Modifier
	adaptations   map[uuid.UUID][]needs.Adaptation
	preferences   map[uuid.UUID]map[string]needs.Preferences
	relationships map[uuid.UUID]map[string]entity.Relationship
	zones         map[uuid.UUID]map[string]world.Zone
	connections   map[uuid.UUID][]world.Connection
	locations     map[uuid.UUID]map[string]world.Location
	transports    map[uuid.UUID]map[string]world.TransportMode
	zoneDiscs     map[uuid.UUID]map[string]discovery.ZoneDiscovery
	locDiscs      map[uuid.UUID]map[string]discovery.LocationDiscovery
	journeys      map[uuid.UUID]map[string]travel.Journey
	worldDefs     map[string]world.Definition
}

// Ensure MemoryStore implements Store interface
var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:      make(map[uuid.UUID]session.Session),
		entities:      make(map[uuid.UUID]map[string]entity.Spec),
		needStates:    make(map[uuid.UUID]map[string]map[needs.Need]needs.State),
		modifiers:     make(map[uuid.UUID]map[string]needs.Modifier),
		adaptations:   make(map[uuid.UUID][]needs.Adaptation),
		preferences:   make(map[uuid.UUID]map[string]needs.Preferences),
		relationships: make(map[uuid.UUID]map[string]entity.Relationship),
		zones:         make(map[uuid.UUID]map[string]world.Zone),
		connections:   make(map[uuid.UUID][]world.Connection),
		locations:     make(map[uuid.UUID]map[string]world.Location),
		transports:    make(map[uuid.UUID]map[string]world.TransportMode),
		zoneDiscs:     make(map[uuid.UUID]map[string]discovery.ZoneDiscovery),
		locDiscs:      make(map[uuid.UUID]map[string]discovery.LocationDiscovery),
		journeys:      make(map[uuid.UUID]map[string]travel.Journey),
		worldDefs:     make(map[string]world.Definition),
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }
func (m *MemoryStore) Close() error                   { return nil }

func (m *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// AddWorldDefinition registers a definition template for tests.
func (m *MemoryStore) AddWorldDefinition(name string, def world.Definition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.worldDefs[name] = def
}

func modifierKey(entityKey string, n needs.Need, sourceID string) string {
	return entityKey + "|" + string(n) + "|" + sourceID
}

func pairKey(fromKey, toKey string) string {
	return fromKey + "|" + toKey
}

func (m *MemoryStore) CreateSession(ctx context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[s.ID]; exists {
		return fmt.Errorf("session %s: %w", s.ID, ErrConflict)
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *MemoryStore) GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return &s, nil
}

func (m *MemoryStore) SaveSession(ctx context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return fmt.Errorf("session %s: %w", s.ID, ErrNotFound)
	}
	s.UpdatedAt = time.Now().UTC()
	m.sessions[s.ID] = *s
	return nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	delete(m.sessions, id)
	delete(m.entities, id)
	delete(m.needStates, id)
	delete(m.modifiers, id)
	delete(m.adaptations, id)
	delete(m.preferences, id)
	delete(m.relationships, id)
	delete(m.zones, id)
	delete(m.connections, id)
	delete(m.locations, id)
	delete(m.transports, id)
	delete(m.zoneDiscs, id)
	delete(m.locDiscs, id)
	delete(m.journeys, id)
	return nil
}

func (m *MemoryStore) ListSessions(ctx context.Context) ([]session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) CreateEntity(ctx context.Context, sessionID uuid.UUID, spec *entity.Spec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entities[sessionID] == nil {
		m.entities[sessionID] = make(map[string]entity.Spec)
	}
	if _, exists := m.entities[sessionID][spec.Key]; exists {
		return fmt.Errorf("entity %s: %w", spec.Key, ErrConflict)
	}
	m.entities[sessionID][spec.Key] = *spec
	return nil
}

func (m *MemoryStore) GetEntity(ctx context.Context, sessionID uuid.UUID, key string) (*entity.Spec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, ok := m.entities[sessionID][key]
	if !ok {
		return nil, fmt.Errorf("entity %s: %w", key, ErrNotFound)
	}
	return &spec, nil
}

func (m *MemoryStore) SaveEntity(ctx context.Context, sessionID uuid.UUID, spec *entity.Spec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[sessionID][spec.Key]; !ok {
		return fmt.Errorf("entity %s: %w", spec.Key, ErrNotFound)
	}
	m.entities[sessionID][spec.Key] = *spec
	return nil
}

func (m *MemoryStore) ListEntities(ctx context.Context, sessionID uuid.UUID) ([]entity.Spec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]entity.Spec, 0, len(m.entities[sessionID]))
	for _, spec := range m.entities[sessionID] {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryStore) SavePreferences(ctx context.Context, sessionID uuid.UUID, prefs needs.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.preferences[sessionID] == nil {
		m.preferences[sessionID] = make(map[string]needs.Preferences)
	}
	m.preferences[sessionID][prefs.EntityKey] = prefs
	return nil
}

func (m *MemoryStore) GetPreferences(ctx context.Context, sessionID uuid.UUID, entityKey string) (*needs.Preferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefs, ok := m.preferences[sessionID][entityKey]
	if !ok {
		return nil, fmt.Errorf("preferences %s: %w", entityKey, ErrNotFound)
	}
	return &prefs, nil
}

func (m *MemoryStore) GetRelationship(ctx context.Context, sessionID uuid.UUID, fromKey, toKey string) (*entity.Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rel, ok := m.relationships[sessionID][pairKey(fromKey, toKey)]
	if !ok {
		return nil, fmt.Errorf("relationship %s->%s: %w", fromKey, toKey, ErrNotFound)
	}
	return &rel, nil
}

func (m *MemoryStore) SaveRelationship(ctx context.Context, sessionID uuid.UUID, rel entity.Relationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.relationships[sessionID] == nil {
		m.relationships[sessionID] = make(map[string]entity.Relationship)
	}
	m.relationships[sessionID][pairKey(rel.FromKey, rel.ToKey)] = rel
	return nil
}

func (m *MemoryStore) InitNeeds(ctx context.Context, sessionID uuid.UUID, entityKey string, values map[needs.Need]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.needStates[sessionID] == nil {
		m.needStates[sessionID] = make(map[string]map[needs.Need]needs.State)
	}
	if _, exists := m.needStates[sessionID][entityKey]; exists {
		return fmt.Errorf("needs for %s: %w", entityKey, ErrConflict)
	}
	states := make(map[needs.Need]needs.State, len(values))
	for n, v := range values {
		states[n] = needs.State{Need: n, Value: v}
	}
	m.needStates[sessionID][entityKey] = states
	return nil
}

func (m *MemoryStore) GetNeedStates(ctx context.Context, sessionID uuid.UUID, entityKey string) ([]needs.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	states := m.needStates[sessionID][entityKey]
	out := make([]needs.State, 0, len(states))
	for _, st := range states {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Need < out[j].Need })
	return out, nil
}

func (m *MemoryStore) SaveNeedState(ctx context.Context, sessionID uuid.UUID, entityKey string, st needs.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	states := m.needStates[sessionID][entityKey]
	if states == nil {
		return fmt.Errorf("need %s for %s: %w", st.Need, entityKey, ErrNotFound)
	}
	if _, ok := states[st.Need]; !ok {
		return fmt.Errorf("need %s for %s: %w", st.Need, entityKey, ErrNotFound)
	}
	states[st.Need] = st
	return nil
}

func (m *MemoryStore) UpsertModifier(ctx context.Context, sessionID uuid.UUID, mod needs.Modifier) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.modifiers[sessionID] == nil {
		m.modifiers[sessionID] = make(map[string]needs.Modifier)
	}
	key := modifierKey(mod.EntityKey, mod.Need, mod.SourceID())
	_, replaced := m.modifiers[sessionID][key]
	m.modifiers[sessionID][key] = mod
	return replaced, nil
}

func (m *MemoryStore) ListModifiers(ctx context.Context, sessionID uuid.UUID, entityKey string) (needs.ModifierSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectModifiers(sessionID, entityKey), nil
}

func (m *MemoryStore) ListSessionModifiers(ctx context.Context, sessionID uuid.UUID) (needs.ModifierSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectModifiers(sessionID, ""), nil
}

// collectModifiers returns modifiers sorted by map key; callers hold the lock.
func (m *MemoryStore) collectModifiers(sessionID uuid.UUID, entityKey string) needs.ModifierSet {
	keys := make([]string, 0, len(m.modifiers[sessionID]))
	for key, mod := range m.modifiers[sessionID] {
		if entityKey != "" && mod.EntityKey != entityKey {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	set := make(needs.ModifierSet, 0, len(keys))
	for _, key := range keys {
		set = append(set, m.modifiers[sessionID][key])
	}
	return set
}

func (m *MemoryStore) AppendAdaptation(ctx context.Context, sessionID uuid.UUID, a needs.Adaptation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.adaptations[sessionID] {
		if existing.ID == a.ID {
			return fmt.Errorf("adaptation %s: %w", a.ID, ErrConflict)
		}
	}
	m.adaptations[sessionID] = append(m.adaptations[sessionID], a)
	return nil
}

func (m *MemoryStore) ListAdaptations(ctx context.Context, sessionID uuid.UUID, entityKey string, need needs.Need) ([]needs.Adaptation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]needs.Adaptation, 0)
	for _, a := range m.adaptations[sessionID] {
		if a.EntityKey == entityKey && a.Need == need {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryStore) MarkAdaptationReversed(ctx context.Context, sessionID uuid.UUID, id string, turn int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.adaptations[sessionID] {
		if a.ID == id {
			t := turn
			m.adaptations[sessionID][i].ReversedAtTurn = &t
			return nil
		}
	}
	return fmt.Errorf("adaptation %s: %w", id, ErrNotFound)
}

func (m *MemoryStore) SaveZones(ctx context.Context, sessionID uuid.UUID, zones []world.Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.zones[sessionID] == nil {
		m.zones[sessionID] = make(map[string]world.Zone)
	}
	for _, z := range zones {
		if _, exists := m.zones[sessionID][z.Key]; exists {
			return fmt.Errorf("zone %s: %w", z.Key, ErrConflict)
		}
	}
	for _, z := range zones {
		m.zones[sessionID][z.Key] = z
	}
	return nil
}

func (m *MemoryStore) SaveZone(ctx context.Context, sessionID uuid.UUID, z world.Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.zones[sessionID] == nil {
		m.zones[sessionID] = make(map[string]world.Zone)
	}
	m.zones[sessionID][z.Key] = z
	return nil
}

func (m *MemoryStore) GetZone(ctx context.Context, sessionID uuid.UUID, key string) (*world.Zone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	z, ok := m.zones[sessionID][key]
	if !ok {
		return nil, fmt.Errorf("zone %s: %w", key, world.ErrZoneNotFound)
	}
	return &z, nil
}

func (m *MemoryStore) ListZones(ctx context.Context, sessionID uuid.UUID) ([]world.Zone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]world.Zone, 0, len(m.zones[sessionID]))
	for _, z := range m.zones[sessionID] {
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryStore) SaveConnections(ctx context.Context, sessionID uuid.UUID, conns []world.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[sessionID] = append(m.connections[sessionID], conns...)
	return nil
}

func (m *MemoryStore) ListConnections(ctx context.Context, sessionID uuid.UUID) ([]world.Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]world.Connection, len(m.connections[sessionID]))
	copy(out, m.connections[sessionID])
	return out, nil
}

func (m *MemoryStore) SaveLocations(ctx context.Context, sessionID uuid.UUID, locs []world.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locations[sessionID] == nil {
		m.locations[sessionID] = make(map[string]world.Location)
	}
	for _, l := range locs {
		if _, exists := m.locations[sessionID][l.Key]; exists {
			return fmt.Errorf("location %s: %w", l.Key, ErrConflict)
		}
	}
	for _, l := range locs {
		m.locations[sessionID][l.Key] = l
	}
	return nil
}

func (m *MemoryStore) GetLocation(ctx context.Context, sessionID uuid.UUID, key string) (*world.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.locations[sessionID][key]
	if !ok {
		return nil, fmt.Errorf("location %s: %w", key, world.ErrLocationNotFound)
	}
	return &l, nil
}

func (m *MemoryStore) ListZoneLocations(ctx context.Context, sessionID uuid.UUID, zoneKey string) ([]world.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]world.Location, 0)
	for _, l := range m.locations[sessionID] {
		if l.ZoneKey == zoneKey {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryStore) SaveTransports(ctx context.Context, sessionID uuid.UUID, modes []world.TransportMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transports[sessionID] == nil {
		m.transports[sessionID] = make(map[string]world.TransportMode)
	}
	for _, mode := range modes {
		if _, exists := m.transports[sessionID][mode.Key]; exists {
			return fmt.Errorf("transport %s: %w", mode.Key, ErrConflict)
		}
	}
	for _, mode := range modes {
		m.transports[sessionID][mode.Key] = mode
	}
	return nil
}

func (m *MemoryStore) ListTransports(ctx context.Context, sessionID uuid.UUID) ([]world.TransportMode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]world.TransportMode, 0, len(m.transports[sessionID]))
	for _, mode := range m.transports[sessionID] {
		out = append(out, mode)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryStore) GetZoneDiscovery(ctx context.Context, sessionID uuid.UUID, entityKey, zoneKey string) (*discovery.ZoneDiscovery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.zoneDiscs[sessionID][pairKey(entityKey, zoneKey)]
	if !ok {
		return nil, fmt.Errorf("zone discovery %s/%s: %w", entityKey, zoneKey, ErrNotFound)
	}
	return &d, nil
}

func (m *MemoryStore) CreateZoneDiscovery(ctx context.Context, sessionID uuid.UUID, d discovery.ZoneDiscovery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.zoneDiscs[sessionID] == nil {
		m.zoneDiscs[sessionID] = make(map[string]discovery.ZoneDiscovery)
	}
	key := pairKey(d.EntityKey, d.ZoneKey)
	if _, exists := m.zoneDiscs[sessionID][key]; exists {
		return fmt.Errorf("zone discovery %s/%s: %w", d.EntityKey, d.ZoneKey, ErrConflict)
	}
	m.zoneDiscs[sessionID][key] = d
	return nil
}

func (m *MemoryStore) ListZoneDiscoveries(ctx context.Context, sessionID uuid.UUID, entityKey string) ([]discovery.ZoneDiscovery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]discovery.ZoneDiscovery, 0)
	for _, d := range m.zoneDiscs[sessionID] {
		if d.EntityKey == entityKey {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZoneKey < out[j].ZoneKey })
	return out, nil
}

func (m *MemoryStore) GetLocationDiscovery(ctx context.Context, sessionID uuid.UUID, entityKey, locationKey string) (*discovery.LocationDiscovery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.locDiscs[sessionID][pairKey(entityKey, locationKey)]
	if !ok {
		return nil, fmt.Errorf("location discovery %s/%s: %w", entityKey, locationKey, ErrNotFound)
	}
	return &d, nil
}

func (m *MemoryStore) CreateLocationDiscovery(ctx context.Context, sessionID uuid.UUID, d discovery.LocationDiscovery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locDiscs[sessionID] == nil {
		m.locDiscs[sessionID] = make(map[string]discovery.LocationDiscovery)
	}
	key := pairKey(d.EntityKey, d.LocationKey)
	if _, exists := m.locDiscs[sessionID][key]; exists {
		return fmt.Errorf("location discovery %s/%s: %w", d.EntityKey, d.LocationKey, ErrConflict)
	}
	m.locDiscs[sessionID][key] = d
	return nil
}

func (m *MemoryStore) ListLocationDiscoveries(ctx context.Context, sessionID uuid.UUID, entityKey string) ([]discovery.LocationDiscovery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]discovery.LocationDiscovery, 0)
	for _, d := range m.locDiscs[sessionID] {
		if d.EntityKey == entityKey {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationKey < out[j].LocationKey })
	return out, nil
}

func (m *MemoryStore) CreateJourney(ctx context.Context, sessionID uuid.UUID, j travel.Journey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.journeys[sessionID] == nil {
		m.journeys[sessionID] = make(map[string]travel.Journey)
	}
	if _, exists := m.journeys[sessionID][j.ID]; exists {
		return fmt.Errorf("journey %s: %w", j.ID, ErrConflict)
	}
	m.journeys[sessionID][j.ID] = j
	return nil
}

func (m *MemoryStore) GetActiveJourney(ctx context.Context, sessionID uuid.UUID, entityKey string) (*travel.Journey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, j := range m.journeys[sessionID] {
		if j.EntityKey == entityKey && j.Status == travel.StatusTraveling {
			out := j
			return &out, nil
		}
	}
	return nil, fmt.Errorf("active journey for %s: %w", entityKey, ErrNotFound)
}

func (m *MemoryStore) SaveJourney(ctx context.Context, sessionID uuid.UUID, j travel.Journey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.journeys[sessionID][j.ID]; !ok {
		return fmt.Errorf("journey %s: %w", j.ID, ErrNotFound)
	}
	m.journeys[sessionID][j.ID] = j
	return nil
}

func (m *MemoryStore) GetWorldDefinition(name string) (*world.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name = strings.TrimSuffix(name, ".json")
	def, ok := m.worldDefs[name]
	if !ok {
		return nil, fmt.Errorf("world %s: %w", name, ErrNotFound)
	}
	return &def, nil
}

func (m *MemoryStore) ListWorldDefinitions() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.worldDefs))
	for name := range m.worldDefs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
