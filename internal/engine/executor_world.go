package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/sbstnppl/worldkeeper/internal/storage"
	"github.com/sbstnppl/worldkeeper/pkg/discovery"
	"github.com/sbstnppl/worldkeeper/pkg/entity"
	"github.com/sbstnppl/worldkeeper/pkg/events"
	"github.com/sbstnppl/worldkeeper/pkg/session"
	"github.com/sbstnppl/worldkeeper/pkg/tools"
)

func (e *Executor) discoverZone(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.DiscoverZoneRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	method, err := discovery.ParseMethod(req.Method)
	if err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}

	out, err := e.tracker.DiscoverZone(ctx, sess.ID, req.EntityKey, req.ZoneKey, method, req.Source, sess.Turn)
	if err != nil {
		return tools.Result{}, nil, err
	}

	var queued []events.Event
	if out.NewlyDiscovered {
		queued = append(queued, events.NewZoneDiscovered(sess.ID.String(), req.EntityKey, sess.Turn, req.ZoneKey, string(out.Method), req.Source))
	}
	return tools.Succeed(inv.Tool, tools.DiscoveryResponse{
		EntityKey:       req.EntityKey,
		Key:             out.Key,
		NewlyDiscovered: out.NewlyDiscovered,
		Method:          string(out.Method),
		Turn:            out.Turn,
	}), queued, nil
}

func (e *Executor) discoverLocation(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.DiscoverLocationRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	method, err := discovery.ParseMethod(req.Method)
	if err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}

	out, err := e.tracker.DiscoverLocation(ctx, sess.ID, req.EntityKey, req.LocationKey, method, req.Source, sess.Turn)
	if err != nil {
		return tools.Result{}, nil, err
	}

	return tools.Succeed(inv.Tool, tools.DiscoveryResponse{
		EntityKey:       req.EntityKey,
		Key:             out.Key,
		NewlyDiscovered: out.NewlyDiscovered,
		Method:          string(out.Method),
		Turn:            out.Turn,
	}), nil, nil
}

func (e *Executor) skillCheck(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.SkillCheckRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	if req.Skill == "" {
		return tools.Fault(inv.Tool, fmt.Errorf("skill is required")), nil, nil
	}

	spec, err := e.store.GetEntity(ctx, sess.ID, req.EntityKey)
	if err != nil {
		return tools.Result{}, nil, err
	}
	ent, err := entity.New(spec)
	if err != nil {
		return tools.Result{}, nil, err
	}

	res := e.checker.Check(ent, req.Skill, req.Difficulty, req.Advantage, req.Disadvantage)
	return tools.Succeed(inv.Tool, tools.CheckOutcome{
		EntityKey:  req.EntityKey,
		Skill:      req.Skill,
		Difficulty: req.Difficulty,
		Roll:       res.Roll,
		Bonus:      res.Bonus,
		Total:      res.Total,
		Margin:     res.Total - req.Difficulty,
		Success:    res.Success,
		Tier:       checkTier(res.Roll, res.Success),
	}), nil, nil
}

// checkTier grades a roll for narration. Natural dice only upgrade, never
// flip: a natural 20 that still misses the difficulty is a plain failure.
func checkTier(roll int, success bool) string {
	switch {
	case success && roll == 20:
		return "critical_success"
	case !success && roll == 1:
		return "critical_failure"
	case success:
		return "success"
	default:
		return "failure"
	}
}

func (e *Executor) adjustRelationship(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.AdjustRelationshipRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	if req.FromKey == req.ToKey {
		return tools.Fault(inv.Tool, fmt.Errorf("entities cannot relate to themselves")), nil, nil
	}
	if _, err := e.store.GetEntity(ctx, sess.ID, req.FromKey); err != nil {
		return tools.Result{}, nil, err
	}
	if _, err := e.store.GetEntity(ctx, sess.ID, req.ToKey); err != nil {
		return tools.Result{}, nil, err
	}

	rel, err := e.store.GetRelationship(ctx, sess.ID, req.FromKey, req.ToKey)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		// Strangers start neutral.
		rel = &entity.Relationship{FromKey: req.FromKey, ToKey: req.ToKey}
	default:
		return tools.Result{}, nil, err
	}

	rel.Score = entity.ClampScore(rel.Score + req.Delta)
	rel.LastChangeReason = req.Reason
	if err := e.store.SaveRelationship(ctx, sess.ID, *rel); err != nil {
		return tools.Result{}, nil, err
	}

	return tools.Succeed(inv.Tool, tools.RelationshipResponse{
		FromKey:     rel.FromKey,
		ToKey:       rel.ToKey,
		Score:       rel.Score,
		Disposition: string(rel.Disposition()),
	}), nil, nil
}

func (e *Executor) getRelationship(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.GetRelationshipRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	if _, err := e.store.GetEntity(ctx, sess.ID, req.FromKey); err != nil {
		return tools.Result{}, nil, err
	}
	if _, err := e.store.GetEntity(ctx, sess.ID, req.ToKey); err != nil {
		return tools.Result{}, nil, err
	}

	rel, err := e.store.GetRelationship(ctx, sess.ID, req.FromKey, req.ToKey)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		rel = &entity.Relationship{FromKey: req.FromKey, ToKey: req.ToKey}
	default:
		return tools.Result{}, nil, err
	}

	return tools.Succeed(inv.Tool, tools.RelationshipResponse{
		FromKey:     rel.FromKey,
		ToKey:       rel.ToKey,
		Score:       rel.Score,
		Disposition: string(rel.Disposition()),
	}), nil, nil
}

func (e *Executor) getPendingEvents(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.GetPendingEventsRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}

	var (
		evts []events.Event
		err  error
	)
	if req.Peek {
		evts, err = e.feed.Peek(ctx, sess.ID, 0)
	} else {
		evts, err = e.feed.Drain(ctx, sess.ID)
	}
	if err != nil {
		return tools.Result{}, nil, err
	}
	if evts == nil {
		evts = []events.Event{}
	}

	return tools.Succeed(inv.Tool, tools.PendingEventsResponse{
		SessionID: sess.ID.String(),
		Events:    evts,
		Drained:   !req.Peek,
	}), nil, nil
}
