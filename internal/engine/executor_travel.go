package engine

import (
	"context"
	"fmt"

	"github.com/sbstnppl/worldkeeper/pkg/events"
	"github.com/sbstnppl/worldkeeper/pkg/session"
	"github.com/sbstnppl/worldkeeper/pkg/tools"
	"github.com/sbstnppl/worldkeeper/pkg/world"
)

func (e *Executor) checkRoute(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.CheckRouteRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	if req.ToZone == "" {
		return tools.Fault(inv.Tool, fmt.Errorf("to_zone is required")), nil, nil
	}

	route, err := e.travel.CheckRoute(ctx, sess.ID, req.EntityKey, req.FromZone, req.ToZone, req.Transport, req.PreferRoads)
	if err != nil {
		return tools.Result{}, nil, err
	}

	transport := req.Transport
	if transport == "" {
		transport = world.TransportWalking
	}
	return tools.Succeed(inv.Tool, tools.CheckRouteResponse{
		Transport: transport,
		Route:     *route,
	}), nil, nil
}

func (e *Executor) checkTerrain(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.CheckTerrainRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	if req.ZoneKey == "" {
		return tools.Fault(inv.Tool, fmt.Errorf("zone_key is required")), nil, nil
	}

	report, err := e.travel.CheckTerrain(ctx, sess.ID, req.ZoneKey, req.Transport)
	if err != nil {
		return tools.Result{}, nil, err
	}

	transport := req.Transport
	if transport == "" {
		transport = world.TransportWalking
	}
	return tools.Succeed(inv.Tool, tools.CheckTerrainResponse{
		ZoneKey:   req.ZoneKey,
		Transport: transport,
		Report:    *report,
	}), nil, nil
}

func (e *Executor) startTravel(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.StartTravelRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}

	start, refusal, err := e.travel.StartJourney(ctx, sess.ID, req.EntityKey, req.ToZone, req.Transport, req.PreferRoads, sess.Turn)
	if err != nil {
		return tools.Result{}, nil, err
	}
	if refusal != "" {
		return tools.Refuse(inv.Tool, refusal), nil, nil
	}

	return tools.Succeed(inv.Tool, tools.StartTravelResponse{
		JourneyID:        start.Journey.ID,
		Path:             start.Route.Path,
		EstimatedMinutes: start.Route.TotalMinutes,
		Gates:            start.Route.Gates,
	}), nil, nil
}

func (e *Executor) continueTravel(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.ContinueTravelRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}

	hop, refusal, err := e.travel.AdvanceJourney(ctx, sess.ID, req.EntityKey, sess.Turn)
	if err != nil {
		return tools.Result{}, nil, err
	}
	if refusal != "" {
		return tools.Refuse(inv.Tool, refusal), nil, nil
	}

	if hop.Minutes > 0 {
		sess.ClockMinutes += hop.Minutes
		if err := e.store.SaveSession(ctx, sess); err != nil {
			return tools.Result{}, nil, err
		}
	}

	return tools.Succeed(inv.Tool, tools.TravelStepResponse{
		JourneyID:       hop.Journey.ID,
		FromZone:        hop.FromZone,
		ToZone:          hop.Journey.CurrentZone(),
		MinutesSpent:    hop.Minutes,
		Status:          string(hop.Journey.Status),
		RemainingHops:   hop.Journey.RemainingHops(),
		Arrived:         hop.Arrived,
		TurnedBack:      hop.TurnedBack,
		HaltReason:      hop.Journey.HaltReason,
		Checks:          checkOutcomes(req.EntityKey, hop.Checks),
		NewlyDiscovered: discoveredKeys(hop),
	}), hop.Events, nil
}

func (e *Executor) abortTravel(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.AbortTravelRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}

	j, refusal, err := e.travel.AbortJourney(ctx, sess.ID, req.EntityKey, req.Reason, sess.Turn)
	if err != nil {
		return tools.Result{}, nil, err
	}
	if refusal != "" {
		return tools.Refuse(inv.Tool, refusal), nil, nil
	}

	return tools.Succeed(inv.Tool, tools.TravelStepResponse{
		JourneyID:     j.ID,
		FromZone:      j.CurrentZone(),
		Status:        string(j.Status),
		RemainingHops: j.RemainingHops(),
	}), nil, nil
}

func (e *Executor) moveToZone(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.MoveToZoneRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}

	hop, refusal, err := e.travel.MoveToZone(ctx, sess.ID, req.EntityKey, req.ToZone, req.Transport, sess.Turn)
	if err != nil {
		return tools.Result{}, nil, err
	}
	if refusal != "" {
		return tools.Refuse(inv.Tool, refusal), nil, nil
	}

	if hop.Minutes > 0 {
		sess.ClockMinutes += hop.Minutes
		if err := e.store.SaveSession(ctx, sess); err != nil {
			return tools.Result{}, nil, err
		}
	}

	moved := !hop.Halted && !hop.TurnedBack
	resp := tools.MoveToZoneResponse{
		EntityKey:       req.EntityKey,
		FromZone:        hop.FromZone,
		ToZone:          hop.ToZone,
		Minutes:         hop.Minutes,
		Moved:           moved,
		Checks:          checkOutcomes(req.EntityKey, hop.Checks),
		NewlyDiscovered: discoveredKeys(hop),
	}
	if !moved {
		return tools.RefuseWithData(inv.Tool,
			fmt.Sprintf("%s could not cross into %s; the attempt cost %.0f minutes", tools.DisplayName(req.EntityKey), tools.DisplayName(req.ToZone), hop.Minutes),
			resp), hop.Events, nil
	}
	return tools.Succeed(inv.Tool, resp), hop.Events, nil
}

// checkOutcomes converts rolled gates into the narrator-facing shape.
func checkOutcomes(entityKey string, checks []GateCheck) []tools.CheckOutcome {
	if len(checks) == 0 {
		return nil
	}
	out := make([]tools.CheckOutcome, 0, len(checks))
	for _, c := range checks {
		oc := tools.CheckOutcome{
			EntityKey:  entityKey,
			Skill:      c.Gate.Skill,
			Difficulty: c.Gate.Difficulty,
			Roll:       c.Result.Roll,
			Bonus:      c.Result.Bonus,
			Total:      c.Result.Total,
			Margin:     c.Result.Total - c.Gate.Difficulty,
			Success:    c.Result.Success,
			Tier:       checkTier(c.Result.Roll, c.Result.Success),
		}
		if !c.Result.Success {
			oc.Consequence = string(c.Gate.Consequence)
		}
		out = append(out, oc)
	}
	return out
}

// discoveredKeys flattens a hop's new knowledge for the response.
func discoveredKeys(hop *HopResult) []string {
	if len(hop.Zones)+len(hop.Places) == 0 {
		return nil
	}
	keys := make([]string, 0, len(hop.Zones)+len(hop.Places))
	for _, out := range hop.Zones {
		keys = append(keys, out.Key)
	}
	for _, out := range hop.Places {
		keys = append(keys, out.Key)
	}
	return keys
}
