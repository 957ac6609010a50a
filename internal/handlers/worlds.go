package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sbstnppl/worldkeeper/internal/storage"
)

// WorldHandler exposes the world definition templates available for new
// sessions. Definitions are read-only over HTTP; they change by editing
// the files in the data directory.
type WorldHandler struct {
	store  storage.DefinitionStore
	logger *slog.Logger
}

func NewWorldHandler(store storage.DefinitionStore, logger *slog.Logger) *WorldHandler {
	return &WorldHandler{
		store:  store,
		logger: logger,
	}
}

func (h *WorldHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(h.logger, w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/worlds"), "/")
	if name == "" {
		h.handleList(w)
		return
	}
	h.handleRead(w, name)
}

func (h *WorldHandler) handleList(w http.ResponseWriter) {
	names, err := h.store.ListWorldDefinitions()
	if err != nil {
		h.logger.Error("Failed to list world definitions", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to list worlds")
		return
	}
	writeJSON(h.logger, w, http.StatusOK, names)
}

func (h *WorldHandler) handleRead(w http.ResponseWriter, name string) {
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		writeError(h.logger, w, http.StatusBadRequest, "Invalid world name")
		return
	}

	def, err := h.store.GetWorldDefinition(name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(h.logger, w, http.StatusNotFound, "World not found")
			return
		}
		h.logger.Error("Failed to load world definition", "error", err, "world", name)
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to load world")
		return
	}
	writeJSON(h.logger, w, http.StatusOK, def)
}
