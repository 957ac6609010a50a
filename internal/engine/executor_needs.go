package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/sbstnppl/worldkeeper/pkg/events"
	"github.com/sbstnppl/worldkeeper/pkg/needs"
	"github.com/sbstnppl/worldkeeper/pkg/session"
	"github.com/sbstnppl/worldkeeper/pkg/tools"
)

func (e *Executor) getNeeds(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.GetNeedsRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	if req.EntityKey == "" {
		return tools.Fault(inv.Tool, fmt.Errorf("entity_key is required")), nil, nil
	}

	views, err := e.needs.Needs(ctx, sess.ID, req.EntityKey)
	if err != nil {
		return tools.Result{}, nil, err
	}

	resp := tools.GetNeedsResponse{
		EntityKey: req.EntityKey,
		Turn:      sess.Turn,
		Needs:     make([]tools.NeedView, 0, len(views)),
	}
	for _, v := range views {
		resp.Needs = append(resp.Needs, tools.NeedView{
			Need:               string(v.Need),
			Value:              v.Value,
			Craving:            v.Craving,
			EffectiveThreshold: v.EffectiveThreshold,
			Urgent:             v.Urgent,
			Satisfied:          v.Satisfied,
		})
	}
	return tools.Succeed(inv.Tool, resp), nil, nil
}

func (e *Executor) satisfyNeed(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.SatisfyNeedRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	need, err := needs.Parse(req.Need)
	if err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	if req.BaseAmount <= 0 {
		return tools.Refusef(inv.Tool, "base_amount must be positive, got %v", req.BaseAmount), nil, nil
	}

	res, err := e.needs.SatisfyNeed(ctx, sess.ID, req.EntityKey, need, req.BaseAmount, req.Quality, req.ActionType, req.Tags)
	if err != nil {
		return tools.Result{}, nil, err
	}

	return tools.Succeed(inv.Tool, tools.SatisfyNeedResponse{
		EntityKey:              req.EntityKey,
		Need:                   string(res.Need),
		OldValue:               res.OldValue,
		NewValue:               res.NewValue,
		Delta:                  res.Delta,
		PreferenceMultiplier:   res.PreferenceMultiplier,
		SatisfactionMultiplier: res.SatisfactionMultiplier,
		Quality:                res.Quality,
		CravingCleared:         res.CravingCleared,
	}), nil, nil
}

func (e *Executor) applyStimulus(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.ApplyStimulusRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	if req.EntityKey == "" {
		return tools.Fault(inv.Tool, fmt.Errorf("entity_key is required")), nil, nil
	}

	res, err := e.needs.ApplyStimulus(ctx, sess.ID, req.EntityKey, req.StimulusType, req.Intensity, req.MemoryEmotion)
	if err != nil {
		return tools.Result{}, nil, err
	}

	return tools.Succeed(inv.Tool, tools.ApplyStimulusResponse{
		EntityKey:    req.EntityKey,
		NeedAffected: string(res.NeedAffected),
		CravingBoost: res.CravingBoost,
		Craving:      res.Craving,
		MoraleChange: res.MoraleChange,
	}), nil, nil
}

func (e *Executor) addNeedModifier(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var m needs.Modifier
	if err := parseArgs(inv, &m); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	if err := m.Normalize().Validate(); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}

	replaced, err := e.registry.Set(ctx, sess.ID, m)
	if err != nil {
		return tools.Result{}, nil, err
	}

	return tools.Succeed(inv.Tool, tools.ModifierResponse{
		EntityKey:    m.EntityKey,
		Need:         string(m.Need),
		SourceKind:   string(m.SourceKind),
		SourceDetail: m.SourceDetail,
		Replaced:     replaced,
	}), nil, nil
}

func (e *Executor) removeNeedModifier(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.RemoveNeedModifierRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	need, err := needs.Parse(req.Need)
	if err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	kind, err := needs.ParseSourceKind(req.SourceKind)
	if err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}

	if err := e.registry.Deactivate(ctx, sess.ID, req.EntityKey, need, kind, req.SourceDetail); err != nil {
		return tools.Result{}, nil, err
	}

	return tools.Succeed(inv.Tool, tools.ModifierResponse{
		EntityKey:    req.EntityKey,
		Need:         string(need),
		SourceKind:   string(kind),
		SourceDetail: req.SourceDetail,
		Deactivated:  true,
	}), nil, nil
}

func (e *Executor) recordAdaptation(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.RecordAdaptationRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	need, err := needs.Parse(req.Need)
	if err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}

	adaptation := needs.Adaptation{
		EntityKey:       req.EntityKey,
		Need:            need,
		Delta:           req.Delta,
		Reason:          req.Reason,
		Trigger:         req.Trigger,
		Gradual:         req.Gradual,
		DurationDays:    req.DurationDays,
		Reversible:      req.Reversible,
		ReversalTrigger: req.ReversalTrigger,
		StartedTurn:     sess.Turn,
	}
	if err := adaptation.Validate(); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}

	rec, adjustment, err := e.registry.RecordAdaptation(ctx, sess.ID, adaptation)
	if err != nil {
		return tools.Result{}, nil, err
	}

	return tools.Succeed(inv.Tool, tools.AdaptationResponse{
		EntityKey:           rec.EntityKey,
		Need:                string(rec.Need),
		Trigger:             rec.Trigger,
		Delta:               rec.Delta,
		ThresholdAdjustment: adjustment,
	}), nil, nil
}

func (e *Executor) reverseAdaptation(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.ReverseAdaptationRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	need, err := needs.Parse(req.Need)
	if err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}

	rec, adjustment, err := e.registry.ReverseAdaptation(ctx, sess.ID, req.EntityKey, need, req.Trigger, sess.Turn)
	if err != nil {
		return tools.Result{}, nil, err
	}

	return tools.Succeed(inv.Tool, tools.AdaptationResponse{
		EntityKey:           rec.EntityKey,
		Need:                string(rec.Need),
		Trigger:             rec.Trigger,
		Delta:               rec.Delta,
		ThresholdAdjustment: adjustment,
		Reversed:            true,
	}), nil, nil
}

// advanceTurn is the per-turn pipeline: expire stale modifiers first so
// decay never uses stale multipliers, then decay values and cravings, then
// report urgency transitions.
func (e *Executor) advanceTurn(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	var req tools.AdvanceTurnRequest
	if err := parseArgs(inv, &req); err != nil {
		return tools.Fault(inv.Tool, err), nil, nil
	}
	if req.ElapsedMinutes < 0 {
		return tools.Fault(inv.Tool, fmt.Errorf("%w: elapsed_minutes %v", needs.ErrOutOfRange, req.ElapsedMinutes)), nil, nil
	}

	sess.Turn++
	sid := sess.ID.String()

	ents, err := e.store.ListEntities(ctx, sess.ID)
	if err != nil {
		return tools.Result{}, nil, err
	}

	// Urgency is snapshotted before expiry so a lapsing threshold
	// modifier shows up as a transition, not a silent flip.
	wasUrgent := make(map[string]map[needs.Need]bool, len(ents))
	for _, spec := range ents {
		views, err := e.needs.Needs(ctx, sess.ID, spec.Key)
		if errors.Is(err, needs.ErrNotInitialized) {
			// Scenery entities carry no needs; nothing to age.
			continue
		}
		if err != nil {
			return tools.Result{}, nil, err
		}
		m := make(map[needs.Need]bool, len(views))
		for _, v := range views {
			m[v.Need] = v.Urgent
		}
		wasUrgent[spec.Key] = m
	}

	expired, err := e.registry.ExpireStale(ctx, sess.ID, sess.Turn)
	if err != nil {
		return tools.Result{}, nil, err
	}

	var queued []events.Event
	var urgent []tools.UrgentNeed
	for _, spec := range ents {
		before, ok := wasUrgent[spec.Key]
		if !ok {
			continue
		}

		if err := e.needs.ApplyDecay(ctx, sess.ID, spec.Key, req.ElapsedMinutes); err != nil {
			return tools.Result{}, nil, err
		}
		if err := e.needs.DecayCravings(ctx, sess.ID, spec.Key); err != nil {
			return tools.Result{}, nil, err
		}

		after, err := e.needs.Needs(ctx, sess.ID, spec.Key)
		if err != nil {
			return tools.Result{}, nil, err
		}
		for _, v := range after {
			switch {
			case v.Urgent && !before[v.Need]:
				urgent = append(urgent, tools.UrgentNeed{
					EntityKey: spec.Key,
					Need:      string(v.Need),
					Value:     v.Value,
					Threshold: v.EffectiveThreshold,
				})
				queued = append(queued, events.NewNeedUrgent(sid, spec.Key, sess.Turn, string(v.Need), v.Value, v.EffectiveThreshold))
			case !v.Urgent && before[v.Need]:
				// An expired modifier can drop the effective threshold
				// back under the value.
				queued = append(queued, events.NewNeedRecovered(sid, spec.Key, sess.Turn, string(v.Need), v.Value))
			}
		}
	}

	sess.ClockMinutes += req.ElapsedMinutes
	if err := e.store.SaveSession(ctx, sess); err != nil {
		return tools.Result{}, nil, err
	}

	queued = append(queued, events.NewTurnAdvanced(sid, sess.Turn, req.ElapsedMinutes, expired))
	return tools.Succeed(inv.Tool, tools.AdvanceTurnResponse{
		Turn:             sess.Turn,
		ElapsedMinutes:   req.ElapsedMinutes,
		ExpiredModifiers: expired,
		UrgentNeeds:      urgent,
		QueuedEvents:     len(queued),
	}), queued, nil
}
