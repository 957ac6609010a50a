package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/sbstnppl/worldkeeper/pkg/entity"
	"github.com/sbstnppl/worldkeeper/pkg/needs"
	"github.com/sbstnppl/worldkeeper/pkg/session"
	"github.com/sbstnppl/worldkeeper/pkg/world"
)

func requirePostgres(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is required for integration test")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := NewPostgresStore(dsn, t.TempDir(), logger)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgresSessionRoundTrip(t *testing.T) {
	store := requirePostgres(t)
	ctx := context.Background()

	sess := session.New("greenhollow", "integration")
	if err := store.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	t.Cleanup(func() { _ = store.DeleteSession(ctx, sess.ID) })

	if err := store.CreateEntity(ctx, sess.ID, &entity.Spec{Key: "mara", Name: "Mara", Kind: entity.KindPlayer, HP: 12, MaxHP: 12}); err != nil {
		t.Fatalf("create entity: %v", err)
	}
	if err := store.InitNeeds(ctx, sess.ID, "mara", map[needs.Need]float64{needs.Hunger: 80, needs.Thirst: 75}); err != nil {
		t.Fatalf("init needs: %v", err)
	}
	if err := store.SaveZones(ctx, sess.ID, []world.Zone{
		{Key: "village", Name: "Village", Terrain: world.TerrainUrban, BaseCostMinutes: 5},
	}); err != nil {
		t.Fatalf("save zones: %v", err)
	}

	got, err := store.GetEntity(ctx, sess.ID, "mara")
	if err != nil {
		t.Fatalf("get entity: %v", err)
	}
	if got.Name != "Mara" || got.HP != 12 {
		t.Errorf("unexpected entity round trip: %+v", got)
	}

	states, err := store.GetNeedStates(ctx, sess.ID, "mara")
	if err != nil {
		t.Fatalf("get need states: %v", err)
	}
	if len(states) != 2 {
		t.Errorf("expected 2 need states, got %d", len(states))
	}
}

func TestPostgresTxRollback(t *testing.T) {
	store := requirePostgres(t)
	ctx := context.Background()

	sess := session.New("greenhollow", "rollback")
	if err := store.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	t.Cleanup(func() { _ = store.DeleteSession(ctx, sess.ID) })

	boom := errors.New("boom")
	err := store.RunInTx(ctx, func(ctx context.Context) error {
		if err := store.CreateEntity(ctx, sess.ID, &entity.Spec{Key: "ghost", Name: "Ghost", Kind: entity.KindNPC}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := store.GetEntity(ctx, sess.ID, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected entity rolled back, got %v", err)
	}
}

func TestPostgresDeleteSessionCascades(t *testing.T) {
	store := requirePostgres(t)
	ctx := context.Background()

	sess := session.New("greenhollow", "cascade")
	if err := store.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := store.CreateEntity(ctx, sess.ID, &entity.Spec{Key: "mara", Name: "Mara", Kind: entity.KindPlayer}); err != nil {
		t.Fatalf("create entity: %v", err)
	}

	err := store.RunInTx(ctx, func(ctx context.Context) error {
		return store.DeleteSession(ctx, sess.ID)
	})
	if err != nil {
		t.Fatalf("delete session: %v", err)
	}

	if _, err := store.GetSession(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected session gone, got %v", err)
	}
	if _, err := store.GetEntity(ctx, sess.ID, "mara"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected entity gone, got %v", err)
	}
}
