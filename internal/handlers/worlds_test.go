package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sbstnppl/worldkeeper/internal/storage"
	"github.com/sbstnppl/worldkeeper/pkg/world"
)

func newWorldFixture() *WorldHandler {
	store := storage.NewMemoryStore()
	store.AddWorldDefinition("mistvale", testWorldDef())
	return NewWorldHandler(store, testLogger())
}

func TestWorldHandlerList(t *testing.T) {
	handler := newWorldFixture()

	req := httptest.NewRequest(http.MethodGet, "/v1/worlds", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var names []string
	if err := json.NewDecoder(rr.Body).Decode(&names); err != nil {
		t.Fatalf("failed to decode names: %v", err)
	}
	if len(names) != 1 || names[0] != "mistvale" {
		t.Errorf("expected [mistvale], got %v", names)
	}
}

func TestWorldHandlerRead(t *testing.T) {
	handler := newWorldFixture()

	req := httptest.NewRequest(http.MethodGet, "/v1/worlds/mistvale", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	var def world.Definition
	if err := json.NewDecoder(rr.Body).Decode(&def); err != nil {
		t.Fatalf("failed to decode definition: %v", err)
	}
	if def.Name != "Mistvale" {
		t.Errorf("expected world Mistvale, got %q", def.Name)
	}
	if len(def.Zones) != 2 || len(def.Entities) != 2 {
		t.Errorf("expected full definition, got %d zones %d entities", len(def.Zones), len(def.Entities))
	}
}

func TestWorldHandlerErrors(t *testing.T) {
	handler := newWorldFixture()

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"unknown world", http.MethodGet, "/v1/worlds/atlantis", http.StatusNotFound},
		{"path traversal", http.MethodGet, "/v1/worlds/../secrets", http.StatusBadRequest},
		{"method not allowed", http.MethodPost, "/v1/worlds", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}
