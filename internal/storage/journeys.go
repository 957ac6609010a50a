package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sbstnppl/worldkeeper/pkg/travel"
)

func (s *PostgresStore) CreateJourney(ctx context.Context, sessionID uuid.UUID, j travel.Journey) error {
	doc, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("marshal journey %s: %w", j.ID, err)
	}

	row := journeyRow{
		ID:        j.ID,
		SessionID: sessionID,
		EntityKey: j.EntityKey,
		Status:    string(j.Status),
		Doc:       doc,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("journey %s: %w", j.ID, ErrConflict)
		}
		return fmt.Errorf("create journey: %w", err)
	}
	return nil
}

// GetActiveJourney returns the entity's traveling journey, or ErrNotFound.
func (s *PostgresStore) GetActiveJourney(ctx context.Context, sessionID uuid.UUID, entityKey string) (*travel.Journey, error) {
	var row journeyRow
	err := s.conn(ctx).
		Where("session_id = ? AND entity_key = ? AND status = ?", sessionID, entityKey, string(travel.StatusTraveling)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("active journey for %s: %w", entityKey, ErrNotFound)
		}
		return nil, fmt.Errorf("get active journey: %w", err)
	}

	var j travel.Journey
	if err := json.Unmarshal(row.Doc, &j); err != nil {
		return nil, fmt.Errorf("unmarshal journey %s: %w", row.ID, err)
	}
	return &j, nil
}

func (s *PostgresStore) SaveJourney(ctx context.Context, sessionID uuid.UUID, j travel.Journey) error {
	doc, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("marshal journey %s: %w", j.ID, err)
	}

	res := s.conn(ctx).Model(&journeyRow{}).
		Where("session_id = ? AND id = ?", sessionID, j.ID).
		Updates(map[string]any{
			"status":     string(j.Status),
			"doc":        doc,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("save journey: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("journey %s: %w", j.ID, ErrNotFound)
	}
	return nil
}
