package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sbstnppl/worldkeeper/internal/engine"
	"github.com/sbstnppl/worldkeeper/pkg/tools"
)

// ToolsHandler is the narrator-facing entry point. POST executes one tool
// invocation against a session; GET returns the tool catalog. Domain
// refusals and faults come back as 200 with the outcome in the result
// envelope, so the caller always gets something it can relay to the LLM.
// Only transport and infrastructure problems map to error status codes.
type ToolsHandler struct {
	exec   *engine.Executor
	logger *slog.Logger
}

func NewToolsHandler(exec *engine.Executor, logger *slog.Logger) *ToolsHandler {
	return &ToolsHandler{
		exec:   exec,
		logger: logger,
	}
}

func (h *ToolsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleInvoke(w, r)
	case http.MethodGet:
		writeJSON(h.logger, w, http.StatusOK, tools.All)
	default:
		writeError(h.logger, w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *ToolsHandler) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var inv tools.Invocation
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.exec.Execute(r.Context(), inv)
	if err != nil {
		if errors.Is(err, engine.ErrSessionBusy) {
			writeError(h.logger, w, http.StatusConflict, "Another tool call is in progress for this session")
			return
		}
		h.logger.Error("Tool execution failed",
			"error", err,
			"tool", inv.Tool,
			"session_id", inv.SessionID)
		writeError(h.logger, w, http.StatusInternalServerError, "Tool execution failed")
		return
	}

	writeJSON(h.logger, w, http.StatusOK, result)
}
