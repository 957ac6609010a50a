package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sbstnppl/worldkeeper/pkg/entity"
	"github.com/sbstnppl/worldkeeper/pkg/needs"
)

func (s *PostgresStore) CreateEntity(ctx context.Context, sessionID uuid.UUID, spec *entity.Spec) error {
	doc, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("marshal entity %s: %w", spec.Key, err)
	}

	row := entityRow{
		SessionID: sessionID,
		Key:       spec.Key,
		Doc:       doc,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("entity %s: %w", spec.Key, ErrConflict)
		}
		return fmt.Errorf("create entity: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetEntity(ctx context.Context, sessionID uuid.UUID, key string) (*entity.Spec, error) {
	var row entityRow
	err := s.conn(ctx).Where("session_id = ? AND key = ?", sessionID, key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("entity %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("get entity: %w", err)
	}

	var spec entity.Spec
	if err := json.Unmarshal(row.Doc, &spec); err != nil {
		return nil, fmt.Errorf("unmarshal entity %s: %w", key, err)
	}
	return &spec, nil
}

func (s *PostgresStore) SaveEntity(ctx context.Context, sessionID uuid.UUID, spec *entity.Spec) error {
	doc, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("marshal entity %s: %w", spec.Key, err)
	}

	res := s.conn(ctx).Model(&entityRow{}).
		Where("session_id = ? AND key = ?", sessionID, spec.Key).
		Updates(map[string]any{"doc": doc, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("save entity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("entity %s: %w", spec.Key, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListEntities(ctx context.Context, sessionID uuid.UUID) ([]entity.Spec, error) {
	var rows []entityRow
	if err := s.conn(ctx).Where("session_id = ?", sessionID).Order("key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}

	specs := make([]entity.Spec, 0, len(rows))
	for _, row := range rows {
		var spec entity.Spec
		if err := json.Unmarshal(row.Doc, &spec); err != nil {
			return nil, fmt.Errorf("unmarshal entity %s: %w", row.Key, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (s *PostgresStore) SavePreferences(ctx context.Context, sessionID uuid.UUID, prefs needs.Preferences) error {
	doc, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal preferences %s: %w", prefs.EntityKey, err)
	}

	row := preferencesRow{
		SessionID: sessionID,
		EntityKey: prefs.EntityKey,
		Doc:       doc,
		UpdatedAt: time.Now().UTC(),
	}
	err = s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "entity_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"doc", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPreferences(ctx context.Context, sessionID uuid.UUID, entityKey string) (*needs.Preferences, error) {
	var row preferencesRow
	err := s.conn(ctx).Where("session_id = ? AND entity_key = ?", sessionID, entityKey).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("preferences %s: %w", entityKey, ErrNotFound)
		}
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	var prefs needs.Preferences
	if err := json.Unmarshal(row.Doc, &prefs); err != nil {
		return nil, fmt.Errorf("unmarshal preferences %s: %w", entityKey, err)
	}
	return &prefs, nil
}

func (s *PostgresStore) GetRelationship(ctx context.Context, sessionID uuid.UUID, fromKey, toKey string) (*entity.Relationship, error) {
	var row relationshipRow
	err := s.conn(ctx).
		Where("session_id = ? AND from_key = ? AND to_key = ?", sessionID, fromKey, toKey).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("relationship %s->%s: %w", fromKey, toKey, ErrNotFound)
		}
		return nil, fmt.Errorf("get relationship: %w", err)
	}
	return &entity.Relationship{
		FromKey:          row.FromKey,
		ToKey:            row.ToKey,
		Score:            row.Score,
		LastChangeReason: row.LastChangeReason,
	}, nil
}

func (s *PostgresStore) SaveRelationship(ctx context.Context, sessionID uuid.UUID, rel entity.Relationship) error {
	row := relationshipRow{
		SessionID:        sessionID,
		FromKey:          rel.FromKey,
		ToKey:            rel.ToKey,
		Score:            rel.Score,
		LastChangeReason: rel.LastChangeReason,
		UpdatedAt:        time.Now().UTC(),
	}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "from_key"}, {Name: "to_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "last_change_reason", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save relationship: %w", err)
	}
	return nil
}
