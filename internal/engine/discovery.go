package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sbstnppl/worldkeeper/internal/storage"
	"github.com/sbstnppl/worldkeeper/pkg/discovery"
	"github.com/sbstnppl/worldkeeper/pkg/world"
)

// DiscoveryTracker records what each entity knows of the world. First
// discovery wins; repeats are no-ops that report the original record.
type DiscoveryTracker struct {
	store  storage.Store
	logger *slog.Logger
}

func NewDiscoveryTracker(store storage.Store, logger *slog.Logger) *DiscoveryTracker {
	return &DiscoveryTracker{
		store:  store,
		logger: logger,
	}
}

// DiscoverZone marks a zone known to an entity. Unknown zones and entities
// are errors; re-discovery returns the original record unchanged.
func (d *DiscoveryTracker) DiscoverZone(ctx context.Context, sessionID uuid.UUID, entityKey, zoneKey string, method discovery.Method, source string, turn int) (*discovery.Outcome, error) {
	if _, err := d.store.GetEntity(ctx, sessionID, entityKey); err != nil {
		return nil, err
	}
	if _, err := d.store.GetZone(ctx, sessionID, zoneKey); err != nil {
		return nil, err
	}

	existing, err := d.store.GetZoneDiscovery(ctx, sessionID, entityKey, zoneKey)
	switch {
	case err == nil:
		return &discovery.Outcome{
			Key:             zoneKey,
			NewlyDiscovered: false,
			Method:          existing.Method,
			Turn:            existing.Turn,
		}, nil
	case errors.Is(err, storage.ErrNotFound):
		// Fall through to create.
	default:
		return nil, err
	}

	rec := discovery.ZoneDiscovery{
		EntityKey: entityKey,
		ZoneKey:   zoneKey,
		Method:    method,
		Source:    source,
		Turn:      turn,
	}
	if err := d.store.CreateZoneDiscovery(ctx, sessionID, rec); err != nil {
		return nil, err
	}

	d.logger.Debug("Zone discovered", "entity", entityKey, "zone", zoneKey, "method", method)
	return &discovery.Outcome{
		Key:             zoneKey,
		NewlyDiscovered: true,
		Method:          method,
		Turn:            turn,
	}, nil
}

// DiscoverLocation marks a location known. Knowing a location implies
// knowing its zone, so the owning zone is discovered with the same method
// when still unknown.
func (d *DiscoveryTracker) DiscoverLocation(ctx context.Context, sessionID uuid.UUID, entityKey, locationKey string, method discovery.Method, source string, turn int) (*discovery.Outcome, error) {
	if _, err := d.store.GetEntity(ctx, sessionID, entityKey); err != nil {
		return nil, err
	}
	loc, err := d.store.GetLocation(ctx, sessionID, locationKey)
	if err != nil {
		return nil, err
	}

	existing, err := d.store.GetLocationDiscovery(ctx, sessionID, entityKey, locationKey)
	switch {
	case err == nil:
		return &discovery.Outcome{
			Key:             locationKey,
			NewlyDiscovered: false,
			Method:          existing.Method,
			Turn:            existing.Turn,
		}, nil
	case errors.Is(err, storage.ErrNotFound):
		// Fall through to create.
	default:
		return nil, err
	}

	rec := discovery.LocationDiscovery{
		EntityKey:   entityKey,
		LocationKey: locationKey,
		Method:      method,
		Source:      source,
		Turn:        turn,
	}
	if err := d.store.CreateLocationDiscovery(ctx, sessionID, rec); err != nil {
		return nil, err
	}
	if _, err := d.DiscoverZone(ctx, sessionID, entityKey, loc.ZoneKey, method, source, turn); err != nil {
		return nil, err
	}

	d.logger.Debug("Location discovered", "entity", entityKey, "location", locationKey, "method", method)
	return &discovery.Outcome{
		Key:             locationKey,
		NewlyDiscovered: true,
		Method:          method,
		Turn:            turn,
	}, nil
}

// IsZoneDiscovered reports whether the entity knows the zone.
func (d *DiscoveryTracker) IsZoneDiscovered(ctx context.Context, sessionID uuid.UUID, entityKey, zoneKey string) (bool, error) {
	_, err := d.store.GetZoneDiscovery(ctx, sessionID, entityKey, zoneKey)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// DiscoveredZoneSet returns the entity's known zone keys, in the shape
// pathfinding options expect.
func (d *DiscoveryTracker) DiscoveredZoneSet(ctx context.Context, sessionID uuid.UUID, entityKey string) (map[string]bool, error) {
	recs, err := d.store.ListZoneDiscoveries(ctx, sessionID, entityKey)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(recs))
	for _, rec := range recs {
		set[rec.ZoneKey] = true
	}
	return set, nil
}

// AutoDiscoverSurroundings runs on arrival at a zone: visible neighbor
// zones and the zone's own reveal-on-entry locations become known. Only
// newly discovered keys are returned.
func (d *DiscoveryTracker) AutoDiscoverSurroundings(ctx context.Context, sessionID uuid.UUID, g *world.Graph, entityKey, zoneKey string, turn int) (zones, locations []discovery.Outcome, err error) {
	visible, err := g.VisibleFrom(zoneKey)
	if err != nil {
		return nil, nil, err
	}
	for _, key := range visible {
		out, err := d.DiscoverZone(ctx, sessionID, entityKey, key, discovery.MethodVisibleFrom, zoneKey, turn)
		if err != nil {
			return nil, nil, err
		}
		if out.NewlyDiscovered {
			zones = append(zones, *out)
		}
	}

	locs, err := d.store.ListZoneLocations(ctx, sessionID, zoneKey)
	if err != nil {
		return nil, nil, err
	}
	for _, loc := range locs {
		if !loc.DiscoverOnEntry {
			continue
		}
		out, err := d.DiscoverLocation(ctx, sessionID, entityKey, loc.Key, discovery.MethodVisited, zoneKey, turn)
		if err != nil {
			return nil, nil, err
		}
		if out.NewlyDiscovered {
			locations = append(locations, *out)
		}
	}
	return zones, locations, nil
}
