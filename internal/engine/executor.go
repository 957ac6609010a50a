package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sbstnppl/worldkeeper/internal/services/dice"
	"github.com/sbstnppl/worldkeeper/internal/storage"
	"github.com/sbstnppl/worldkeeper/pkg/events"
	"github.com/sbstnppl/worldkeeper/pkg/needs"
	"github.com/sbstnppl/worldkeeper/pkg/session"
	"github.com/sbstnppl/worldkeeper/pkg/tools"
	"github.com/sbstnppl/worldkeeper/pkg/world"
)

// ErrSessionBusy is returned when another invocation holds the session
// lock. Callers should retry after the in-flight call completes.
var ErrSessionBusy = errors.New("another tool call is in progress for this session")

// EventBus is the executor's view of the session event feed.
type EventBus interface {
	Publish(ctx context.Context, sessionID uuid.UUID, evt events.Event) error
	Drain(ctx context.Context, sessionID uuid.UUID) ([]events.Event, error)
	Peek(ctx context.Context, sessionID uuid.UUID, limit int) ([]events.Event, error)
}

// Locker serializes tool calls per session.
type Locker interface {
	Acquire(ctx context.Context, sessionID uuid.UUID) (string, bool, error)
	Release(ctx context.Context, sessionID uuid.UUID, token string) error
}

// Executor runs tool invocations for the game master loop. Each invocation
// takes the session lock, runs in exactly one store transaction, and only
// publishes its events after that transaction commits, so a retried
// transaction never double-publishes.
type Executor struct {
	store    storage.Store
	needs    *NeedsEngine
	registry *ModifierRegistry
	tracker  *DiscoveryTracker
	travel   *TravelOrchestrator
	checker  dice.SkillChecker
	feed     EventBus
	locks    Locker
	logger   *slog.Logger
}

func NewExecutor(store storage.Store, needsEngine *NeedsEngine, registry *ModifierRegistry, tracker *DiscoveryTracker, travelOrch *TravelOrchestrator, checker dice.SkillChecker, feed EventBus, locks Locker, logger *slog.Logger) *Executor {
	return &Executor{
		store:    store,
		needs:    needsEngine,
		registry: registry,
		tracker:  tracker,
		travel:   travelOrch,
		checker:  checker,
		feed:     feed,
		locks:    locks,
		logger:   logger,
	}
}

// Execute runs one tool invocation. The returned error is reserved for
// infrastructure failures (store down, lock service unreachable); every
// domain outcome, including caller mistakes, comes back inside the Result.
func (e *Executor) Execute(ctx context.Context, inv tools.Invocation) (tools.Result, error) {
	if err := inv.Validate(); err != nil {
		return tools.Fault(inv.Tool, err), nil
	}
	sessionID, err := uuid.Parse(inv.SessionID)
	if err != nil {
		return tools.Fault(inv.Tool, fmt.Errorf("invalid session id %q", inv.SessionID)), nil
	}

	token, acquired, err := e.locks.Acquire(ctx, sessionID)
	if err != nil {
		return tools.Result{}, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !acquired {
		return tools.Result{}, ErrSessionBusy
	}
	defer func() {
		if err := e.locks.Release(ctx, sessionID, token); err != nil {
			e.logger.Warn("Failed to release session lock", "session_id", sessionID, "error", err)
		}
	}()

	var (
		result tools.Result
		queued []events.Event
	)
	txErr := e.store.RunInTx(ctx, func(ctx context.Context) error {
		sess, err := e.store.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		res, evts, err := e.dispatch(ctx, sess, inv)
		if err != nil {
			return err
		}
		result = res
		queued = evts
		return nil
	})
	if txErr != nil {
		if res, ok := domainFault(inv.Tool, txErr); ok {
			return res, nil
		}
		return tools.Result{}, txErr
	}

	// Events go out only for committed state. A publish failure loses
	// ambient narration, never simulation state, so it is logged and
	// swallowed.
	for _, evt := range queued {
		if err := e.feed.Publish(ctx, sessionID, evt); err != nil {
			e.logger.Warn("Failed to publish event",
				"session_id", sessionID,
				"event_type", evt.Type,
				"error", err,
			)
		}
	}

	e.logger.Debug("Tool executed",
		"session_id", sessionID,
		"tool", inv.Tool,
		"success", result.Success,
		"events", len(queued),
	)
	return result, nil
}

// domainFault converts expected domain errors into fault results. Anything
// else is infrastructure and propagates.
func domainFault(tool string, err error) (tools.Result, bool) {
	switch {
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrConflict),
		errors.Is(err, needs.ErrUnknownNeed),
		errors.Is(err, needs.ErrNotInitialized),
		errors.Is(err, needs.ErrOutOfRange),
		errors.Is(err, world.ErrZoneNotFound),
		errors.Is(err, world.ErrLocationNotFound),
		errors.Is(err, world.ErrTransportNotFound),
		errors.Is(err, ErrUnknownStimulus):
		return tools.Fault(tool, err), true
	}
	return tools.Result{}, false
}

// parseArgs decodes invocation arguments. Absent arguments leave the
// request at its zero value; per-tool validation catches what's missing.
func parseArgs(inv tools.Invocation, into any) error {
	if len(inv.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(inv.Arguments, into); err != nil {
		return fmt.Errorf("invalid arguments for %s: %w", inv.Tool, err)
	}
	return nil
}

// dispatch routes an invocation to its handler. Handlers return the queued
// events alongside the result; the executor publishes them post-commit.
func (e *Executor) dispatch(ctx context.Context, sess *session.Session, inv tools.Invocation) (tools.Result, []events.Event, error) {
	switch inv.Tool {
	case tools.ToolGetNeeds:
		return e.getNeeds(ctx, sess, inv)
	case tools.ToolSatisfyNeed:
		return e.satisfyNeed(ctx, sess, inv)
	case tools.ToolApplyStimulus:
		return e.applyStimulus(ctx, sess, inv)
	case tools.ToolAddNeedModifier:
		return e.addNeedModifier(ctx, sess, inv)
	case tools.ToolRemoveNeedModifier:
		return e.removeNeedModifier(ctx, sess, inv)
	case tools.ToolRecordAdaptation:
		return e.recordAdaptation(ctx, sess, inv)
	case tools.ToolReverseAdaptation:
		return e.reverseAdaptation(ctx, sess, inv)
	case tools.ToolAdvanceTurn:
		return e.advanceTurn(ctx, sess, inv)
	case tools.ToolCheckRoute:
		return e.checkRoute(ctx, sess, inv)
	case tools.ToolCheckTerrain:
		return e.checkTerrain(ctx, sess, inv)
	case tools.ToolStartTravel:
		return e.startTravel(ctx, sess, inv)
	case tools.ToolContinueTravel:
		return e.continueTravel(ctx, sess, inv)
	case tools.ToolAbortTravel:
		return e.abortTravel(ctx, sess, inv)
	case tools.ToolMoveToZone:
		return e.moveToZone(ctx, sess, inv)
	case tools.ToolDiscoverZone:
		return e.discoverZone(ctx, sess, inv)
	case tools.ToolDiscoverLocation:
		return e.discoverLocation(ctx, sess, inv)
	case tools.ToolSkillCheck:
		return e.skillCheck(ctx, sess, inv)
	case tools.ToolAdjustRelationship:
		return e.adjustRelationship(ctx, sess, inv)
	case tools.ToolGetRelationship:
		return e.getRelationship(ctx, sess, inv)
	case tools.ToolGetPendingEvents:
		return e.getPendingEvents(ctx, sess, inv)
	}
	return tools.Fault(inv.Tool, fmt.Errorf("unknown tool %q", inv.Tool)), nil, nil
}
