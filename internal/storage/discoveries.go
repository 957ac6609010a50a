package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sbstnppl/worldkeeper/pkg/discovery"
)

func (s *PostgresStore) GetZoneDiscovery(ctx context.Context, sessionID uuid.UUID, entityKey, zoneKey string) (*discovery.ZoneDiscovery, error) {
	var row zoneDiscoveryRow
	err := s.conn(ctx).
		Where("session_id = ? AND entity_key = ? AND zone_key = ?", sessionID, entityKey, zoneKey).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("zone discovery %s/%s: %w", entityKey, zoneKey, ErrNotFound)
		}
		return nil, fmt.Errorf("get zone discovery: %w", err)
	}
	return &discovery.ZoneDiscovery{
		EntityKey: row.EntityKey,
		ZoneKey:   row.ZoneKey,
		Method:    discovery.Method(row.Method),
		Source:    row.Source,
		Turn:      row.Turn,
	}, nil
}

func (s *PostgresStore) CreateZoneDiscovery(ctx context.Context, sessionID uuid.UUID, d discovery.ZoneDiscovery) error {
	row := zoneDiscoveryRow{
		SessionID: sessionID,
		EntityKey: d.EntityKey,
		ZoneKey:   d.ZoneKey,
		Method:    string(d.Method),
		Source:    d.Source,
		Turn:      d.Turn,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("zone discovery %s/%s: %w", d.EntityKey, d.ZoneKey, ErrConflict)
		}
		return fmt.Errorf("create zone discovery: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListZoneDiscoveries(ctx context.Context, sessionID uuid.UUID, entityKey string) ([]discovery.ZoneDiscovery, error) {
	var rows []zoneDiscoveryRow
	err := s.conn(ctx).
		Where("session_id = ? AND entity_key = ?", sessionID, entityKey).
		Order("zone_key").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list zone discoveries: %w", err)
	}

	out := make([]discovery.ZoneDiscovery, 0, len(rows))
	for _, row := range rows {
		out = append(out, discovery.ZoneDiscovery{
			EntityKey: row.EntityKey,
			ZoneKey:   row.ZoneKey,
			Method:    discovery.Method(row.Method),
			Source:    row.Source,
			Turn:      row.Turn,
		})
	}
	return out, nil
}

func (s *PostgresStore) GetLocationDiscovery(ctx context.Context, sessionID uuid.UUID, entityKey, locationKey string) (*discovery.LocationDiscovery, error) {
	var row locationDiscoveryRow
	err := s.conn(ctx).
		Where("session_id = ? AND entity_key = ? AND location_key = ?", sessionID, entityKey, locationKey).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("location discovery %s/%s: %w", entityKey, locationKey, ErrNotFound)
		}
		return nil, fmt.Errorf("get location discovery: %w", err)
	}
	return &discovery.LocationDiscovery{
		EntityKey:   row.EntityKey,
		LocationKey: row.LocationKey,
		Method:      discovery.Method(row.Method),
		Source:      row.Source,
		Turn:        row.Turn,
	}, nil
}

func (s *PostgresStore) CreateLocationDiscovery(ctx context.Context, sessionID uuid.UUID, d discovery.LocationDiscovery) error {
	row := locationDiscoveryRow{
		SessionID:   sessionID,
		EntityKey:   d.EntityKey,
		LocationKey: d.LocationKey,
		Method:      string(d.Method),
		Source:      d.Source,
		Turn:        d.Turn,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("location discovery %s/%s: %w", d.EntityKey, d.LocationKey, ErrConflict)
		}
		return fmt.Errorf("create location discovery: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListLocationDiscoveries(ctx context.Context, sessionID uuid.UUID, entityKey string) ([]discovery.LocationDiscovery, error) {
	var rows []locationDiscoveryRow
	err := s.conn(ctx).
		Where("session_id = ? AND entity_key = ?", sessionID, entityKey).
		Order("location_key").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list location discoveries: %w", err)
	}

	out := make([]discovery.LocationDiscovery, 0, len(rows))
	for _, row := range rows {
		out = append(out, discovery.LocationDiscovery{
			EntityKey:   row.EntityKey,
			LocationKey: row.LocationKey,
			Method:      discovery.Method(row.Method),
			Source:      row.Source,
			Turn:        row.Turn,
		})
	}
	return out, nil
}
