// Package tools defines the boundary contract between the simulation and
// the LLM game master: tool names, request and response shapes, and the
// result envelope every invocation returns. Domain failures are results
// with reasons, never errors, so the narrator can explain outcomes in
// prose instead of crashing the loop.
package tools

import (
	"encoding/json"
	"fmt"
)

// Tool names. The executor dispatches on these.
const (
	ToolGetNeeds           = "get_needs"
	ToolSatisfyNeed        = "satisfy_need"
	ToolApplyStimulus      = "apply_stimulus"
	ToolAddNeedModifier    = "add_need_modifier"
	ToolRemoveNeedModifier = "remove_need_modifier"
	ToolRecordAdaptation   = "record_adaptation"
	ToolReverseAdaptation  = "reverse_adaptation"
	ToolAdvanceTurn        = "advance_turn"
	ToolCheckRoute         = "check_route"
	ToolCheckTerrain       = "check_terrain"
	ToolStartTravel        = "start_travel"
	ToolContinueTravel     = "continue_travel"
	ToolAbortTravel        = "abort_travel"
	ToolMoveToZone         = "move_to_zone"
	ToolDiscoverZone       = "discover_zone"
	ToolDiscoverLocation   = "discover_location"
	ToolSkillCheck         = "skill_check"
	ToolAdjustRelationship = "adjust_relationship"
	ToolGetRelationship    = "get_relationship"
	ToolGetPendingEvents   = "get_pending_events"
)

// All lists every tool the executor understands.
var All = []string{
	ToolGetNeeds,
	ToolSatisfyNeed,
	ToolApplyStimulus,
	ToolAddNeedModifier,
	ToolRemoveNeedModifier,
	ToolRecordAdaptation,
	ToolReverseAdaptation,
	ToolAdvanceTurn,
	ToolCheckRoute,
	ToolCheckTerrain,
	ToolStartTravel,
	ToolContinueTravel,
	ToolAbortTravel,
	ToolMoveToZone,
	ToolDiscoverZone,
	ToolDiscoverLocation,
	ToolSkillCheck,
	ToolAdjustRelationship,
	ToolGetRelationship,
	ToolGetPendingEvents,
}

// IsValid reports whether a tool name is known.
func IsValid(name string) bool {
	for _, t := range All {
		if t == name {
			return true
		}
	}
	return false
}

// Result is the envelope every tool invocation returns.
//
// Success=false with a Reason is an expected domain outcome ("destination
// must be discovered first"). Error carries caller mistakes such as unknown
// keys or malformed arguments. Infrastructure failures never appear here;
// they surface as transport-level errors instead.
type Result struct {
	Tool    string          `json:"tool"`
	Success bool            `json:"success"`
	Reason  string          `json:"reason,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Succeed wraps a payload in a successful result.
func Succeed(tool string, payload any) Result {
	r := Result{Tool: tool, Success: true}
	if payload == nil {
		return r
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Fault(tool, fmt.Errorf("failed to encode result: %w", err))
	}
	r.Data = data
	return r
}

// SucceedWithReason is Succeed plus a human-readable note worth narrating.
func SucceedWithReason(tool string, payload any, reason string) Result {
	r := Succeed(tool, payload)
	if r.Success {
		r.Reason = reason
	}
	return r
}

// Refuse reports an expected domain failure.
func Refuse(tool, reason string) Result {
	return Result{Tool: tool, Success: false, Reason: reason}
}

// Refusef is Refuse with formatting.
func Refusef(tool, format string, args ...any) Result {
	return Refuse(tool, fmt.Sprintf(format, args...))
}

// RefuseWithData reports an expected failure that still carries state worth
// narrating, such as a failed crossing that cost real time.
func RefuseWithData(tool, reason string, payload any) Result {
	r := Succeed(tool, payload)
	if r.Error != "" {
		return r
	}
	r.Success = false
	r.Reason = reason
	return r
}

// Fault reports a caller mistake as a structured error string.
func Fault(tool string, err error) Result {
	return Result{Tool: tool, Success: false, Error: err.Error()}
}

// Decode unmarshals a result payload back into a typed response.
func (r Result) Decode(into any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("result carries no data")
	}
	return json.Unmarshal(r.Data, into)
}

// Invocation is one tool call as it arrives over the wire.
type Invocation struct {
	SessionID string          `json:"session_id"`
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

func (inv Invocation) Validate() error {
	if inv.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if inv.Tool == "" {
		return fmt.Errorf("tool is required")
	}
	if !IsValid(inv.Tool) {
		return fmt.Errorf("unknown tool %q", inv.Tool)
	}
	return nil
}
