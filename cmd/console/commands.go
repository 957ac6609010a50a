package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sbstnppl/worldkeeper/pkg/tools"
)

const helpText = `
Commands:
• needs <entity>                              - current need levels
• satisfy <entity> <need> <amount> [tag ...]  - satisfy a need
• stimulus <entity> <type> <intensity>        - apply a stimulus
• advance <minutes>                           - advance one turn
• route <entity> <zone> [transport]           - plan a route
• terrain <zone> [transport]                  - terrain cost lookup
• travel <entity> <zone> [transport]          - start a journey
• continue <entity>                           - travel one hop
• abort <entity> [reason]                     - abandon a journey
• move <entity> <zone> [transport]            - instant zone move
• discover <entity> <zone> [method]           - mark a zone as known
• check <entity> <skill> <difficulty> [adv|dis] - roll a skill check
• relate <from> <to> <delta> [reason]         - adjust a relationship
• relation <from> <to>                        - read a relationship
• events [peek]                               - drain (or peek) queued events
• call <tool> <json>                          - raw tool invocation
• /help, /quit
`

// parseCommand turns one console line into a tool invocation. Shortcuts
// cover the common tools; "call" reaches everything else with raw JSON
// arguments.
func parseCommand(sessionID, input string) (tools.Invocation, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return tools.Invocation{}, fmt.Errorf("empty command")
	}

	switch fields[0] {
	case "needs":
		if len(fields) != 2 {
			return tools.Invocation{}, fmt.Errorf("usage: needs <entity>")
		}
		return invocation(sessionID, tools.ToolGetNeeds, tools.GetNeedsRequest{EntityKey: fields[1]})

	case "satisfy":
		if len(fields) < 4 {
			return tools.Invocation{}, fmt.Errorf("usage: satisfy <entity> <need> <amount> [tag ...]")
		}
		amount, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return tools.Invocation{}, fmt.Errorf("amount %q is not a number", fields[3])
		}
		return invocation(sessionID, tools.ToolSatisfyNeed, tools.SatisfyNeedRequest{
			EntityKey:  fields[1],
			Need:       fields[2],
			BaseAmount: amount,
			Tags:       fields[4:],
		})

	case "stimulus":
		if len(fields) != 4 {
			return tools.Invocation{}, fmt.Errorf("usage: stimulus <entity> <type> <intensity>")
		}
		intensity, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return tools.Invocation{}, fmt.Errorf("intensity %q is not a number", fields[3])
		}
		return invocation(sessionID, tools.ToolApplyStimulus, tools.ApplyStimulusRequest{
			EntityKey:    fields[1],
			StimulusType: fields[2],
			Intensity:    intensity,
		})

	case "advance":
		if len(fields) != 2 {
			return tools.Invocation{}, fmt.Errorf("usage: advance <minutes>")
		}
		minutes, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return tools.Invocation{}, fmt.Errorf("minutes %q is not a number", fields[1])
		}
		return invocation(sessionID, tools.ToolAdvanceTurn, tools.AdvanceTurnRequest{ElapsedMinutes: minutes})

	case "route":
		if len(fields) < 3 || len(fields) > 4 {
			return tools.Invocation{}, fmt.Errorf("usage: route <entity> <zone> [transport]")
		}
		req := tools.CheckRouteRequest{EntityKey: fields[1], ToZone: fields[2]}
		if len(fields) == 4 {
			req.Transport = fields[3]
		}
		return invocation(sessionID, tools.ToolCheckRoute, req)

	case "terrain":
		if len(fields) < 2 || len(fields) > 3 {
			return tools.Invocation{}, fmt.Errorf("usage: terrain <zone> [transport]")
		}
		req := tools.CheckTerrainRequest{ZoneKey: fields[1]}
		if len(fields) == 3 {
			req.Transport = fields[2]
		}
		return invocation(sessionID, tools.ToolCheckTerrain, req)

	case "travel":
		if len(fields) < 3 || len(fields) > 4 {
			return tools.Invocation{}, fmt.Errorf("usage: travel <entity> <zone> [transport]")
		}
		req := tools.StartTravelRequest{EntityKey: fields[1], ToZone: fields[2]}
		if len(fields) == 4 {
			req.Transport = fields[3]
		}
		return invocation(sessionID, tools.ToolStartTravel, req)

	case "continue":
		if len(fields) != 2 {
			return tools.Invocation{}, fmt.Errorf("usage: continue <entity>")
		}
		return invocation(sessionID, tools.ToolContinueTravel, tools.ContinueTravelRequest{EntityKey: fields[1]})

	case "abort":
		if len(fields) < 2 {
			return tools.Invocation{}, fmt.Errorf("usage: abort <entity> [reason]")
		}
		return invocation(sessionID, tools.ToolAbortTravel, tools.AbortTravelRequest{
			EntityKey: fields[1],
			Reason:    strings.Join(fields[2:], " "),
		})

	case "move":
		if len(fields) < 3 || len(fields) > 4 {
			return tools.Invocation{}, fmt.Errorf("usage: move <entity> <zone> [transport]")
		}
		req := tools.MoveToZoneRequest{EntityKey: fields[1], ToZone: fields[2]}
		if len(fields) == 4 {
			req.Transport = fields[3]
		}
		return invocation(sessionID, tools.ToolMoveToZone, req)

	case "discover":
		if len(fields) < 3 || len(fields) > 4 {
			return tools.Invocation{}, fmt.Errorf("usage: discover <entity> <zone> [method]")
		}
		method := "told_by_npc"
		if len(fields) == 4 {
			method = fields[3]
		}
		return invocation(sessionID, tools.ToolDiscoverZone, tools.DiscoverZoneRequest{
			EntityKey: fields[1],
			ZoneKey:   fields[2],
			Method:    method,
		})

	case "check":
		if len(fields) < 4 || len(fields) > 5 {
			return tools.Invocation{}, fmt.Errorf("usage: check <entity> <skill> <difficulty> [adv|dis]")
		}
		difficulty, err := strconv.Atoi(fields[3])
		if err != nil {
			return tools.Invocation{}, fmt.Errorf("difficulty %q is not a number", fields[3])
		}
		req := tools.SkillCheckRequest{EntityKey: fields[1], Skill: fields[2], Difficulty: difficulty}
		if len(fields) == 5 {
			switch fields[4] {
			case "adv":
				req.Advantage = true
			case "dis":
				req.Disadvantage = true
			default:
				return tools.Invocation{}, fmt.Errorf("expected adv or dis, got %q", fields[4])
			}
		}
		return invocation(sessionID, tools.ToolSkillCheck, req)

	case "relate":
		if len(fields) < 4 {
			return tools.Invocation{}, fmt.Errorf("usage: relate <from> <to> <delta> [reason]")
		}
		delta, err := strconv.Atoi(fields[3])
		if err != nil {
			return tools.Invocation{}, fmt.Errorf("delta %q is not a number", fields[3])
		}
		return invocation(sessionID, tools.ToolAdjustRelationship, tools.AdjustRelationshipRequest{
			FromKey: fields[1],
			ToKey:   fields[2],
			Delta:   delta,
			Reason:  strings.Join(fields[4:], " "),
		})

	case "relation":
		if len(fields) != 3 {
			return tools.Invocation{}, fmt.Errorf("usage: relation <from> <to>")
		}
		return invocation(sessionID, tools.ToolGetRelationship, tools.GetRelationshipRequest{
			FromKey: fields[1],
			ToKey:   fields[2],
		})

	case "events":
		peek := len(fields) == 2 && fields[1] == "peek"
		return invocation(sessionID, tools.ToolGetPendingEvents, tools.GetPendingEventsRequest{Peek: peek})

	case "call":
		if len(fields) < 3 {
			return tools.Invocation{}, fmt.Errorf("usage: call <tool> <json>")
		}
		idx := strings.Index(input, fields[1])
		rawArgs := strings.TrimSpace(input[idx+len(fields[1]):])
		if !json.Valid([]byte(rawArgs)) {
			return tools.Invocation{}, fmt.Errorf("arguments are not valid JSON")
		}
		return tools.Invocation{
			SessionID: sessionID,
			Tool:      fields[1],
			Arguments: json.RawMessage(rawArgs),
		}, nil
	}

	return tools.Invocation{}, fmt.Errorf("unknown command %q, try /help", fields[0])
}

func invocation(sessionID, tool string, args any) (tools.Invocation, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return tools.Invocation{}, fmt.Errorf("failed to encode arguments: %w", err)
	}
	return tools.Invocation{SessionID: sessionID, Tool: tool, Arguments: data}, nil
}
