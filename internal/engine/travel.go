package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sbstnppl/worldkeeper/internal/services/dice"
	"github.com/sbstnppl/worldkeeper/internal/storage"
	"github.com/sbstnppl/worldkeeper/pkg/discovery"
	"github.com/sbstnppl/worldkeeper/pkg/entity"
	"github.com/sbstnppl/worldkeeper/pkg/events"
	"github.com/sbstnppl/worldkeeper/pkg/needs"
	"github.com/sbstnppl/worldkeeper/pkg/tools"
	"github.com/sbstnppl/worldkeeper/pkg/travel"
	"github.com/sbstnppl/worldkeeper/pkg/world"
)

// Need penalties inflicted by failed travel skill checks.
const (
	wellnessPenaltyAmount = 10.0
	staminaPenaltyAmount  = 15.0
)

// GateCheck pairs a route gate with its rolled result.
type GateCheck struct {
	Gate   world.RouteGate  `json:"gate"`
	Result dice.CheckResult `json:"result"`
}

// HopResult reports one zone move: a journey advance or a direct
// move_to_zone. Events are collected here and published by the caller
// once the surrounding transaction commits.
type HopResult struct {
	Journey  *travel.Journey     `json:"journey,omitempty"`
	FromZone string              `json:"from_zone"`
	ToZone   string              `json:"to_zone"`
	Minutes  float64             `json:"minutes"`
	Checks   []GateCheck         `json:"checks,omitempty"`
	Zones    []discovery.Outcome `json:"zones_discovered,omitempty"`
	Places   []discovery.Outcome `json:"locations_discovered,omitempty"`

	Arrived    bool `json:"arrived,omitempty"`
	Halted     bool `json:"halted,omitempty"`
	TurnedBack bool `json:"turned_back,omitempty"`

	Events []events.Event `json:"-"`
}

// TravelOrchestrator plans and advances journeys. Routes are planned once
// at start; every hop re-resolves against live zone state, so a bridge
// that collapses mid-trip halts the traveler at the boundary.
type TravelOrchestrator struct {
	store   storage.Store
	needs   *NeedsEngine
	tracker *DiscoveryTracker
	checker dice.SkillChecker
	catalog world.Catalog
	logger  *slog.Logger
}

func NewTravelOrchestrator(store storage.Store, needsEngine *NeedsEngine, tracker *DiscoveryTracker, checker dice.SkillChecker, catalog world.Catalog, logger *slog.Logger) *TravelOrchestrator {
	return &TravelOrchestrator{
		store:   store,
		needs:   needsEngine,
		tracker: tracker,
		checker: checker,
		catalog: catalog,
		logger:  logger,
	}
}

// graph builds the session's zone graph from stored state.
func (t *TravelOrchestrator) graph(ctx context.Context, sessionID uuid.UUID) (*world.Graph, error) {
	zones, err := t.store.ListZones(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	conns, err := t.store.ListConnections(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return world.NewGraph(zones, conns)
}

// resolveTransport defaults an empty key to walking. Modes the world
// definition added are consulted first, so a definition may shadow a
// stock mode by reusing its key.
func (t *TravelOrchestrator) resolveTransport(ctx context.Context, sessionID uuid.UUID, key string) (world.TransportMode, error) {
	if key == "" {
		key = world.TransportWalking
	}
	extra, err := t.store.ListTransports(ctx, sessionID)
	if err != nil {
		return world.TransportMode{}, err
	}
	for _, mode := range extra {
		if mode.Key == key {
			return mode, nil
		}
	}
	return t.catalog.Get(key)
}

// loadEntity returns the runtime entity for skill rolls.
func (t *TravelOrchestrator) loadEntity(ctx context.Context, sessionID uuid.UUID, key string) (*entity.Entity, error) {
	spec, err := t.store.GetEntity(ctx, sessionID, key)
	if err != nil {
		return nil, err
	}
	return entity.New(spec)
}

// CheckRoute plans a route without moving anyone. An empty from defaults
// to the entity's current zone. Unreachable destinations come back as
// Found=false routes, never errors.
func (t *TravelOrchestrator) CheckRoute(ctx context.Context, sessionID uuid.UUID, entityKey, from, to, transportKey string, preferRoads bool) (*world.Route, error) {
	spec, err := t.store.GetEntity(ctx, sessionID, entityKey)
	if err != nil {
		return nil, err
	}
	if from == "" {
		from = spec.CurrentZone
	}
	if from == "" {
		return nil, fmt.Errorf("entity %s has no current zone and no origin was given", entityKey)
	}
	mode, err := t.resolveTransport(ctx, sessionID, transportKey)
	if err != nil {
		return nil, err
	}
	g, err := t.graph(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	discovered, err := t.tracker.DiscoveredZoneSet(ctx, sessionID, entityKey)
	if err != nil {
		return nil, err
	}

	route, err := g.FindPath(from, to, mode, world.PathOptions{
		PreferRoads: preferRoads,
		Discovered:  discovered,
	})
	if err != nil {
		return nil, err
	}
	return &route, nil
}

// CheckTerrain answers whether a transport can enter a zone at all.
func (t *TravelOrchestrator) CheckTerrain(ctx context.Context, sessionID uuid.UUID, zoneKey, transportKey string) (*world.AccessReport, error) {
	mode, err := t.resolveTransport(ctx, sessionID, transportKey)
	if err != nil {
		return nil, err
	}
	g, err := t.graph(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	report, err := g.CheckAccessibility(zoneKey, mode)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// StartResult pairs a created journey with the route it will follow.
type StartResult struct {
	Journey travel.Journey `json:"journey"`
	Route   world.Route    `json:"route"`
}

// StartJourney plans and records a journey. The refusal return carries the
// reason the trip cannot start: destination undiscovered, a journey already
// in flight, no route. Refusals are normal outcomes, not errors.
func (t *TravelOrchestrator) StartJourney(ctx context.Context, sessionID uuid.UUID, entityKey, destination, transportKey string, preferRoads bool, turn int) (*StartResult, string, error) {
	spec, err := t.store.GetEntity(ctx, sessionID, entityKey)
	if err != nil {
		return nil, "", err
	}
	if _, err := t.store.GetZone(ctx, sessionID, destination); err != nil {
		return nil, "", err
	}

	if _, err := t.store.GetActiveJourney(ctx, sessionID, entityKey); err == nil {
		return nil, fmt.Sprintf("%s is already traveling; continue or abort the current journey first", tools.DisplayName(entityKey)), nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, "", err
	}

	known, err := t.tracker.IsZoneDiscovered(ctx, sessionID, entityKey, destination)
	if err != nil {
		return nil, "", err
	}
	if !known {
		return nil, fmt.Sprintf("%s does not know %s exists; it must be discovered first", tools.DisplayName(entityKey), tools.DisplayName(destination)), nil
	}

	from := spec.CurrentZone
	if from == "" {
		return nil, "", fmt.Errorf("entity %s has no current zone", entityKey)
	}
	if from == destination {
		return nil, fmt.Sprintf("%s is already in %s", tools.DisplayName(entityKey), tools.DisplayName(destination)), nil
	}

	mode, err := t.resolveTransport(ctx, sessionID, transportKey)
	if err != nil {
		return nil, "", err
	}
	g, err := t.graph(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	discovered, err := t.tracker.DiscoveredZoneSet(ctx, sessionID, entityKey)
	if err != nil {
		return nil, "", err
	}

	route, err := g.FindPath(from, destination, mode, world.PathOptions{
		PreferRoads: preferRoads,
		Discovered:  discovered,
	})
	if err != nil {
		return nil, "", err
	}
	if !route.Found {
		return nil, route.Reason, nil
	}

	j := travel.Journey{
		ID:               uuid.NewString(),
		EntityKey:        entityKey,
		OriginKey:        from,
		DestinationKey:   destination,
		TransportKey:     mode.Key,
		PreferRoads:      preferRoads,
		Path:             route.Path,
		Position:         0,
		EstimatedMinutes: route.TotalMinutes,
		Status:           travel.StatusTraveling,
		StartedTurn:      turn,
	}
	if err := t.store.CreateJourney(ctx, sessionID, j); err != nil {
		return nil, "", err
	}

	t.logger.Info("Journey started",
		"entity", entityKey,
		"from", from,
		"to", destination,
		"transport", mode.Key,
		"hops", len(route.Path)-1,
		"estimated_minutes", route.TotalMinutes,
	)
	return &StartResult{Journey: j, Route: route}, "", nil
}

// AdvanceJourney moves the active journey one hop. The hop is re-resolved
// against live zone state; gates are rolled; the hop's minutes feed need
// decay and transport fatigue whether or not the crossing succeeds.
func (t *TravelOrchestrator) AdvanceJourney(ctx context.Context, sessionID uuid.UUID, entityKey string, turn int) (*HopResult, string, error) {
	j, err := t.store.GetActiveJourney(ctx, sessionID, entityKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Sprintf("%s has no journey in progress", tools.DisplayName(entityKey)), nil
		}
		return nil, "", err
	}

	ent, err := t.loadEntity(ctx, sessionID, entityKey)
	if err != nil {
		return nil, "", err
	}
	mode, err := t.resolveTransport(ctx, sessionID, j.TransportKey)
	if err != nil {
		return nil, "", err
	}
	g, err := t.graph(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}

	from := j.CurrentZone()
	next, ok := j.NextZone()
	if !ok {
		return nil, "", fmt.Errorf("journey %s has no next hop", j.ID)
	}
	sid := sessionID.String()

	discovered, err := t.tracker.DiscoveredZoneSet(ctx, sessionID, entityKey)
	if err != nil {
		return nil, "", err
	}
	leg, stepErr := g.Step(from, next, mode, world.PathOptions{
		PreferRoads: j.PreferRoads,
		Discovered:  discovered,
	})
	if stepErr != nil {
		// The world changed under the journey. Halt at the boundary; no
		// time passes because the traveler never set out.
		j.Status = travel.StatusHalted
		j.HaltReason = fmt.Sprintf("the way to %s is no longer passable", tools.DisplayName(next))
		if err := t.store.SaveJourney(ctx, sessionID, *j); err != nil {
			return nil, "", err
		}
		t.logger.Info("Journey halted", "entity", entityKey, "at", from, "reason", j.HaltReason)
		return &HopResult{
			Journey:  j,
			FromZone: from,
			ToZone:   next,
			Halted:   true,
			Events:   []events.Event{events.NewTravelHalted(sid, entityKey, turn, from, j.HaltReason)},
		}, "", nil
	}

	result := &HopResult{
		FromZone: from,
		ToZone:   next,
		Minutes:  leg.Minutes,
	}

	halted, turnedBack, failedGate, err := t.rollGates(ctx, sessionID, ent, leg, turn, result)
	if err != nil {
		return nil, "", err
	}

	// The attempt costs time whether or not the crossing succeeds.
	if err := t.needs.ApplyDecay(ctx, sessionID, entityKey, leg.Minutes); err != nil {
		return nil, "", err
	}
	if fatigue := mode.FatiguePerMinute * leg.Minutes; fatigue > 0 {
		if err := t.needs.ApplyExertion(ctx, sessionID, entityKey, fatigue); err != nil {
			return nil, "", err
		}
	}
	j.ElapsedMinutes += leg.Minutes

	switch {
	case halted:
		j.Status = travel.StatusHalted
		j.HaltReason = fmt.Sprintf("failed %s check entering %s", tools.DisplayName(failedGate.Skill), tools.DisplayName(next))
		result.Halted = true
		result.Events = append(result.Events, events.NewTravelHalted(sid, entityKey, turn, from, j.HaltReason))
		t.logger.Info("Journey halted", "entity", entityKey, "at", from, "reason", j.HaltReason)

	case turnedBack:
		// Forced back one hop; the journey stays in flight so the
		// traveler can try again from there.
		if j.Position > 0 {
			j.Position--
			ent.Spec.CurrentZone = j.CurrentZone()
			if err := t.store.SaveEntity(ctx, sessionID, ent.Spec); err != nil {
				return nil, "", err
			}
		}
		result.TurnedBack = true
		t.logger.Info("Traveler turned back", "entity", entityKey, "at", j.CurrentZone(), "skill", failedGate.Skill)

	default:
		j.Position++
		ent.Spec.CurrentZone = next
		if err := t.store.SaveEntity(ctx, sessionID, ent.Spec); err != nil {
			return nil, "", err
		}
		result.Events = append(result.Events, events.NewTravelHop(sid, entityKey, turn, from, next, leg.Minutes, j.RemainingHops()))

		if err := t.discoverArrival(ctx, sessionID, g, entityKey, next, from, turn, result); err != nil {
			return nil, "", err
		}

		if j.Position == len(j.Path)-1 {
			j.Status = travel.StatusArrived
			completed := turn
			j.CompletedTurn = &completed
			result.Arrived = true
			result.Events = append(result.Events, events.NewTravelArrived(sid, entityKey, turn, j.DestinationKey, j.ElapsedMinutes))
			t.logger.Info("Journey arrived",
				"entity", entityKey,
				"destination", j.DestinationKey,
				"elapsed_minutes", j.ElapsedMinutes,
			)
		}
	}

	if err := t.store.SaveJourney(ctx, sessionID, *j); err != nil {
		return nil, "", err
	}
	result.Journey = j
	return result, "", nil
}

// AbortJourney gives up the active journey at the current zone boundary.
// Discoveries made along the way are kept. The reason is narrational and
// only logged.
func (t *TravelOrchestrator) AbortJourney(ctx context.Context, sessionID uuid.UUID, entityKey, reason string, turn int) (*travel.Journey, string, error) {
	j, err := t.store.GetActiveJourney(ctx, sessionID, entityKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Sprintf("%s has no journey in progress", tools.DisplayName(entityKey)), nil
		}
		return nil, "", err
	}

	j.Status = travel.StatusAborted
	completed := turn
	j.CompletedTurn = &completed
	if err := t.store.SaveJourney(ctx, sessionID, *j); err != nil {
		return nil, "", err
	}

	t.logger.Info("Journey aborted",
		"entity", entityKey,
		"at", j.CurrentZone(),
		"destination", j.DestinationKey,
		"reason", reason,
	)
	return j, "", nil
}

// MoveToZone is the single-hop move for adjacent zones: no journey record,
// same gate and cost rules as a journey hop. Longer trips are refused and
// should be journeys instead.
func (t *TravelOrchestrator) MoveToZone(ctx context.Context, sessionID uuid.UUID, entityKey, zoneKey, transportKey string, turn int) (*HopResult, string, error) {
	ent, err := t.loadEntity(ctx, sessionID, entityKey)
	if err != nil {
		return nil, "", err
	}
	if _, err := t.store.GetZone(ctx, sessionID, zoneKey); err != nil {
		return nil, "", err
	}

	if _, err := t.store.GetActiveJourney(ctx, sessionID, entityKey); err == nil {
		return nil, fmt.Sprintf("%s is mid-journey; continue or abort it before moving freely", tools.DisplayName(entityKey)), nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, "", err
	}

	from := ent.Spec.CurrentZone
	if from == "" {
		return nil, "", fmt.Errorf("entity %s has no current zone", entityKey)
	}
	if from == zoneKey {
		return nil, fmt.Sprintf("%s is already in %s", tools.DisplayName(entityKey), tools.DisplayName(zoneKey)), nil
	}

	mode, err := t.resolveTransport(ctx, sessionID, transportKey)
	if err != nil {
		return nil, "", err
	}
	g, err := t.graph(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	discovered, err := t.tracker.DiscoveredZoneSet(ctx, sessionID, entityKey)
	if err != nil {
		return nil, "", err
	}

	leg, err := g.Step(from, zoneKey, mode, world.PathOptions{Discovered: discovered})
	if err != nil {
		return nil, fmt.Sprintf("%s is not adjacent to %s or cannot be entered by %s; plan a journey for longer trips", tools.DisplayName(zoneKey), tools.DisplayName(from), mode.Key), nil
	}

	sid := sessionID.String()
	result := &HopResult{
		FromZone: from,
		ToZone:   zoneKey,
		Minutes:  leg.Minutes,
	}

	halted, turnedBack, _, err := t.rollGates(ctx, sessionID, ent, leg, turn, result)
	if err != nil {
		return nil, "", err
	}

	if err := t.needs.ApplyDecay(ctx, sessionID, entityKey, leg.Minutes); err != nil {
		return nil, "", err
	}
	if fatigue := mode.FatiguePerMinute * leg.Minutes; fatigue > 0 {
		if err := t.needs.ApplyExertion(ctx, sessionID, entityKey, fatigue); err != nil {
			return nil, "", err
		}
	}

	if halted || turnedBack {
		// A free move has nowhere to halt a journey record; the entity
		// simply stays put.
		result.Halted = halted
		result.TurnedBack = turnedBack
		return result, "", nil
	}

	ent.Spec.CurrentZone = zoneKey
	if err := t.store.SaveEntity(ctx, sessionID, ent.Spec); err != nil {
		return nil, "", err
	}
	result.Events = append(result.Events, events.NewTravelHop(sid, entityKey, turn, from, zoneKey, leg.Minutes, 0))

	if err := t.discoverArrival(ctx, sessionID, g, entityKey, zoneKey, from, turn, result); err != nil {
		return nil, "", err
	}

	t.logger.Debug("Entity moved", "entity", entityKey, "from", from, "to", zoneKey, "minutes", leg.Minutes)
	return result, "", nil
}

// rollGates rolls a hop's gates in order and applies the consequences of
// failures. Halt and turn-back stop the crossing and come back as flags
// with the decisive gate; penalty consequences hurt immediately and let
// the traveler push through. Checks and events accumulate on result.
func (t *TravelOrchestrator) rollGates(ctx context.Context, sessionID uuid.UUID, ent *entity.Entity, leg world.Leg, turn int, result *HopResult) (halted, turnedBack bool, failed world.RouteGate, err error) {
	sid := sessionID.String()
	entityKey := ent.Spec.Key

	for _, gate := range leg.Gates {
		res := t.checker.Check(ent, gate.Skill, gate.Difficulty, false, false)
		result.Checks = append(result.Checks, GateCheck{Gate: gate, Result: res})
		if res.Success {
			result.Events = append(result.Events, events.NewCheckPassed(sid, entityKey, turn, gate.Skill, gate.Difficulty, res.Total))
			continue
		}
		result.Events = append(result.Events, events.NewCheckFailed(sid, entityKey, turn, gate.Skill, gate.Difficulty, res.Total, string(gate.Consequence)))

		switch gate.Consequence {
		case world.ConsequenceHalt:
			halted = true
			failed = gate
		case world.ConsequenceTurnBack:
			turnedBack = true
			failed = gate
		case world.ConsequenceWellnessPenalty:
			if err := t.needs.AdjustValue(ctx, sessionID, entityKey, needs.Wellness, -wellnessPenaltyAmount); err != nil {
				return false, false, world.RouteGate{}, err
			}
		case world.ConsequenceStaminaPenalty:
			if err := t.needs.AdjustValue(ctx, sessionID, entityKey, needs.Stamina, -staminaPenaltyAmount); err != nil {
				return false, false, world.RouteGate{}, err
			}
		}
		if halted || turnedBack {
			break
		}
	}
	return halted, turnedBack, failed, nil
}

// discoverArrival applies arrival knowledge: the zone itself as visited,
// then visible neighbors and reveal-on-entry locations.
func (t *TravelOrchestrator) discoverArrival(ctx context.Context, sessionID uuid.UUID, g *world.Graph, entityKey, zoneKey, from string, turn int, result *HopResult) error {
	sid := sessionID.String()

	visit, err := t.tracker.DiscoverZone(ctx, sessionID, entityKey, zoneKey, discovery.MethodVisited, from, turn)
	if err != nil {
		return err
	}
	if visit.NewlyDiscovered {
		result.Zones = append(result.Zones, *visit)
		result.Events = append(result.Events, events.NewZoneDiscovered(sid, entityKey, turn, zoneKey, string(visit.Method), from))
	}

	zones, locations, err := t.tracker.AutoDiscoverSurroundings(ctx, sessionID, g, entityKey, zoneKey, turn)
	if err != nil {
		return err
	}
	for _, out := range zones {
		result.Zones = append(result.Zones, out)
		result.Events = append(result.Events, events.NewZoneDiscovered(sid, entityKey, turn, out.Key, string(out.Method), zoneKey))
	}
	result.Places = append(result.Places, locations...)
	return nil
}
