package engine

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/sbstnppl/worldkeeper/internal/storage"
	"github.com/sbstnppl/worldkeeper/pkg/entity"
	"github.com/sbstnppl/worldkeeper/pkg/needs"
	"github.com/sbstnppl/worldkeeper/pkg/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// approx compares floats against hand-computed expectations without
// tripping over binary representation.
func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

// newTestSession builds a store holding one session and one entity "mara"
// in the village, with her needs seeded from values. Tests that need more
// entities or a world graph add them on top.
func newTestSession(t *testing.T, values map[needs.Need]float64) (*storage.MemoryStore, *session.Session) {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()

	sess := session.New("greenhollow", "test")
	if err := store.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := store.CreateEntity(ctx, sess.ID, &entity.Spec{
		Key:         "mara",
		Name:        "Mara",
		Kind:        entity.KindPlayer,
		CurrentZone: "village",
	}); err != nil {
		t.Fatalf("create entity: %v", err)
	}
	if len(values) > 0 {
		if err := store.InitNeeds(ctx, sess.ID, "mara", values); err != nil {
			t.Fatalf("init needs: %v", err)
		}
	}
	return store, sess
}

func needValue(t *testing.T, store *storage.MemoryStore, sess *session.Session, entityKey string, n needs.Need) needs.State {
	t.Helper()
	states, err := store.GetNeedStates(context.Background(), sess.ID, entityKey)
	if err != nil {
		t.Fatalf("get need states: %v", err)
	}
	for _, st := range states {
		if st.Need == n {
			return st
		}
	}
	t.Fatalf("no %s state for %s", n, entityKey)
	return needs.State{}
}
