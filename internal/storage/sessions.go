package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sbstnppl/worldkeeper/pkg/session"
)

func (s *PostgresStore) CreateSession(ctx context.Context, sess *session.Session) error {
	row := sessionRow{
		ID:           sess.ID,
		WorldName:    sess.WorldName,
		Name:         sess.Name,
		Turn:         sess.Turn,
		ClockMinutes: sess.ClockMinutes,
		CreatedAt:    sess.CreatedAt,
		UpdatedAt:    sess.UpdatedAt,
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("session %s: %w", sess.ID, ErrConflict)
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	var row sessionRow
	if err := s.conn(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session.Session{
		ID:           row.ID,
		WorldName:    row.WorldName,
		Name:         row.Name,
		Turn:         row.Turn,
		ClockMinutes: row.ClockMinutes,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func (s *PostgresStore) SaveSession(ctx context.Context, sess *session.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	res := s.conn(ctx).Model(&sessionRow{}).Where("id = ?", sess.ID).Updates(map[string]any{
		"name":          sess.Name,
		"turn":          sess.Turn,
		"clock_minutes": sess.ClockMinutes,
		"updated_at":    sess.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("save session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session %s: %w", sess.ID, ErrNotFound)
	}
	return nil
}

// DeleteSession removes the session and every row keyed to it. Callers
// should wrap it in RunInTx so the cascade is atomic.
func (s *PostgresStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	db := s.conn(ctx)

	children := []any{
		&entityRow{},
		&needStateRow{},
		&needModifierRow{},
		&adaptationRow{},
		&preferencesRow{},
		&relationshipRow{},
		&zoneRow{},
		&zoneConnectionRow{},
		&locationRow{},
		&transportRow{},
		&zoneDiscoveryRow{},
		&locationDiscoveryRow{},
		&journeyRow{},
	}
	for _, model := range children {
		if err := db.Where("session_id = ?", id).Delete(model).Error; err != nil {
			return fmt.Errorf("delete session rows: %w", err)
		}
	}

	res := db.Where("id = ?", id).Delete(&sessionRow{})
	if res.Error != nil {
		return fmt.Errorf("delete session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListSessions(ctx context.Context) ([]session.Session, error) {
	var rows []sessionRow
	if err := s.conn(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]session.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, session.Session{
			ID:           row.ID,
			WorldName:    row.WorldName,
			Name:         row.Name,
			Turn:         row.Turn,
			ClockMinutes: row.ClockMinutes,
			CreatedAt:    row.CreatedAt,
			UpdatedAt:    row.UpdatedAt,
		})
	}
	return sessions, nil
}
