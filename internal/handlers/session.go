package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sbstnppl/worldkeeper/internal/storage"
	"github.com/sbstnppl/worldkeeper/pkg/discovery"
	"github.com/sbstnppl/worldkeeper/pkg/entity"
	"github.com/sbstnppl/worldkeeper/pkg/needs"
	"github.com/sbstnppl/worldkeeper/pkg/session"
	"github.com/sbstnppl/worldkeeper/pkg/world"
)

// CreateSessionRequest starts a playthrough of a named world definition.
type CreateSessionRequest struct {
	World string `json:"world"`
	Name  string `json:"name,omitempty"`
}

// SessionHandler manages session lifecycle. Creating a session copies the
// world definition into per-session rows: zones, connections, locations,
// added transport modes, entity sheets, needs, preferences, trait modifiers
// and starting discoveries, all inside one transaction.
type SessionHandler struct {
	store  storage.Store
	logger *slog.Logger
}

func NewSessionHandler(store storage.Store, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		store:  store,
		logger: logger,
	}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")

	if path == "" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			writeError(h.logger, w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	id, err := uuid.Parse(path)
	if err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleRead(w, r, id)
	case http.MethodDelete:
		h.handleDelete(w, r, id)
	default:
		writeError(h.logger, w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.World == "" {
		writeError(h.logger, w, http.StatusBadRequest, "World is required")
		return
	}

	def, err := h.store.GetWorldDefinition(req.World)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(h.logger, w, http.StatusBadRequest, "World not found: "+req.World)
			return
		}
		h.logger.Error("Failed to load world definition", "error", err, "world", req.World)
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to load world definition")
		return
	}

	sess := session.New(strings.TrimSuffix(req.World, ".json"), req.Name)

	err = h.store.RunInTx(r.Context(), func(ctx context.Context) error {
		return h.seedSession(ctx, sess, def)
	})
	if err != nil {
		h.logger.Error("Failed to create session", "error", err, "world", req.World)
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.logger.Info("Session created",
		"session_id", sess.ID,
		"world", sess.WorldName,
		"entities", len(def.Entities))
	writeJSON(h.logger, w, http.StatusCreated, sess)
}

// seedSession materializes a world definition as session state.
func (h *SessionHandler) seedSession(ctx context.Context, sess *session.Session, def *world.Definition) error {
	if err := h.store.CreateSession(ctx, sess); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if err := h.store.SaveZones(ctx, sess.ID, def.Zones); err != nil {
		return fmt.Errorf("failed to seed zones: %w", err)
	}
	if len(def.Connections) > 0 {
		if err := h.store.SaveConnections(ctx, sess.ID, def.Connections); err != nil {
			return fmt.Errorf("failed to seed connections: %w", err)
		}
	}
	if len(def.Locations) > 0 {
		if err := h.store.SaveLocations(ctx, sess.ID, def.Locations); err != nil {
			return fmt.Errorf("failed to seed locations: %w", err)
		}
	}
	if len(def.Transports) > 0 {
		if err := h.store.SaveTransports(ctx, sess.ID, def.Transports); err != nil {
			return fmt.Errorf("failed to seed transports: %w", err)
		}
	}
	for _, ed := range def.Entities {
		if err := h.seedEntity(ctx, sess.ID, ed); err != nil {
			return fmt.Errorf("failed to seed entity %q: %w", ed.Key, err)
		}
	}
	return nil
}

func (h *SessionHandler) seedEntity(ctx context.Context, sessionID uuid.UUID, def world.EntityDef) error {
	spec := &entity.Spec{
		Key:         def.Key,
		Name:        def.Name,
		Kind:        entity.Kind(def.Kind),
		Pronouns:    def.Pronouns,
		Description: def.Description,
		HP:          def.HP,
		MaxHP:       def.HP,
		AC:          def.AC,
		Attributes:  def.Attributes,
		Skills:      def.Skills,
		CurrentZone: def.StartZone,
		Extra:       def.Extra,
	}
	if err := h.store.CreateEntity(ctx, sessionID, spec); err != nil {
		return err
	}
	if err := h.store.InitNeeds(ctx, sessionID, def.Key, def.InitialNeeds()); err != nil {
		return err
	}

	prefs := needs.Preferences{EntityKey: def.Key}
	if def.Preferences != nil {
		prefs = *def.Preferences
		prefs.EntityKey = def.Key
	}
	for _, t := range def.Traits {
		if !prefs.HasTrait(t) {
			prefs.Traits = append(prefs.Traits, t)
		}
	}
	if def.Preferences != nil || len(prefs.Traits) > 0 {
		if err := h.store.SavePreferences(ctx, sessionID, prefs); err != nil {
			return err
		}
	}
	for _, m := range needs.TraitModifiers(def.Key, prefs.Traits) {
		if _, err := h.store.UpsertModifier(ctx, sessionID, m); err != nil {
			return err
		}
	}

	// Starting knowledge always includes the zone the entity wakes up in.
	known := make(map[string]bool, len(def.StartingKnowledge)+1)
	for _, zoneKey := range append([]string{def.StartZone}, def.StartingKnowledge...) {
		if zoneKey == "" || known[zoneKey] {
			continue
		}
		known[zoneKey] = true
		d := discovery.ZoneDiscovery{
			EntityKey: def.Key,
			ZoneKey:   zoneKey,
			Method:    discovery.MethodStartingKnowledge,
			Turn:      0,
		}
		if err := h.store.CreateZoneDiscovery(ctx, sessionID, d); err != nil {
			return err
		}
	}
	return nil
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	sess, err := h.store.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(h.logger, w, http.StatusNotFound, "Session not found")
			return
		}
		h.logger.Error("Failed to load session", "error", err, "session_id", id)
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to load session")
		return
	}
	writeJSON(h.logger, w, http.StatusOK, sess)
}

func (h *SessionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListSessions(r.Context())
	if err != nil {
		h.logger.Error("Failed to list sessions", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []session.Session{}
	}
	writeJSON(h.logger, w, http.StatusOK, sessions)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.store.DeleteSession(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(h.logger, w, http.StatusNotFound, "Session not found")
			return
		}
		h.logger.Error("Failed to delete session", "error", err, "session_id", id)
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
