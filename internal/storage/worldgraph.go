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

	"github.com/sbstnppl/worldkeeper/pkg/world"
)

func (s *PostgresStore) SaveZones(ctx context.Context, sessionID uuid.UUID, zones []world.Zone) error {
	if len(zones) == 0 {
		return nil
	}

	rows := make([]zoneRow, 0, len(zones))
	for _, z := range zones {
		doc, err := json.Marshal(z)
		if err != nil {
			return fmt.Errorf("marshal zone %s: %w", z.Key, err)
		}
		rows = append(rows, zoneRow{
			SessionID: sessionID,
			Key:       z.Key,
			Doc:       doc,
			UpdatedAt: time.Now().UTC(),
		})
	}
	if err := s.conn(ctx).Create(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("zones: %w", ErrConflict)
		}
		return fmt.Errorf("save zones: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveZone(ctx context.Context, sessionID uuid.UUID, z world.Zone) error {
	doc, err := json.Marshal(z)
	if err != nil {
		return fmt.Errorf("marshal zone %s: %w", z.Key, err)
	}

	row := zoneRow{
		SessionID: sessionID,
		Key:       z.Key,
		Doc:       doc,
		UpdatedAt: time.Now().UTC(),
	}
	err = s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"doc", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save zone: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetZone(ctx context.Context, sessionID uuid.UUID, key string) (*world.Zone, error) {
	var row zoneRow
	err := s.conn(ctx).Where("session_id = ? AND key = ?", sessionID, key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("zone %s: %w", key, world.ErrZoneNotFound)
		}
		return nil, fmt.Errorf("get zone: %w", err)
	}

	var z world.Zone
	if err := json.Unmarshal(row.Doc, &z); err != nil {
		return nil, fmt.Errorf("unmarshal zone %s: %w", key, err)
	}
	return &z, nil
}

func (s *PostgresStore) ListZones(ctx context.Context, sessionID uuid.UUID) ([]world.Zone, error) {
	var rows []zoneRow
	if err := s.conn(ctx).Where("session_id = ?", sessionID).Order("key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}

	zones := make([]world.Zone, 0, len(rows))
	for _, row := range rows {
		var z world.Zone
		if err := json.Unmarshal(row.Doc, &z); err != nil {
			return nil, fmt.Errorf("unmarshal zone %s: %w", row.Key, err)
		}
		zones = append(zones, z)
	}
	return zones, nil
}

func (s *PostgresStore) SaveConnections(ctx context.Context, sessionID uuid.UUID, conns []world.Connection) error {
	if len(conns) == 0 {
		return nil
	}

	rows := make([]zoneConnectionRow, 0, len(conns))
	for _, c := range conns {
		doc, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal connection %s->%s: %w", c.FromKey, c.ToKey, err)
		}
		rows = append(rows, zoneConnectionRow{
			SessionID: sessionID,
			FromKey:   c.FromKey,
			ToKey:     c.ToKey,
			Doc:       doc,
		})
	}
	if err := s.conn(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("save connections: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListConnections(ctx context.Context, sessionID uuid.UUID) ([]world.Connection, error) {
	var rows []zoneConnectionRow
	if err := s.conn(ctx).Where("session_id = ?", sessionID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	conns := make([]world.Connection, 0, len(rows))
	for _, row := range rows {
		var c world.Connection
		if err := json.Unmarshal(row.Doc, &c); err != nil {
			return nil, fmt.Errorf("unmarshal connection %s->%s: %w", row.FromKey, row.ToKey, err)
		}
		conns = append(conns, c)
	}
	return conns, nil
}

func (s *PostgresStore) SaveLocations(ctx context.Context, sessionID uuid.UUID, locs []world.Location) error {
	if len(locs) == 0 {
		return nil
	}

	rows := make([]locationRow, 0, len(locs))
	for _, l := range locs {
		doc, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("marshal location %s: %w", l.Key, err)
		}
		rows = append(rows, locationRow{
			SessionID: sessionID,
			Key:       l.Key,
			ZoneKey:   l.ZoneKey,
			Doc:       doc,
		})
	}
	if err := s.conn(ctx).Create(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("locations: %w", ErrConflict)
		}
		return fmt.Errorf("save locations: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetLocation(ctx context.Context, sessionID uuid.UUID, key string) (*world.Location, error) {
	var row locationRow
	err := s.conn(ctx).Where("session_id = ? AND key = ?", sessionID, key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("location %s: %w", key, world.ErrLocationNotFound)
		}
		return nil, fmt.Errorf("get location: %w", err)
	}

	var l world.Location
	if err := json.Unmarshal(row.Doc, &l); err != nil {
		return nil, fmt.Errorf("unmarshal location %s: %w", key, err)
	}
	return &l, nil
}

func (s *PostgresStore) ListZoneLocations(ctx context.Context, sessionID uuid.UUID, zoneKey string) ([]world.Location, error) {
	var rows []locationRow
	err := s.conn(ctx).
		Where("session_id = ? AND zone_key = ?", sessionID, zoneKey).
		Order("key").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list zone locations: %w", err)
	}

	locs := make([]world.Location, 0, len(rows))
	for _, row := range rows {
		var l world.Location
		if err := json.Unmarshal(row.Doc, &l); err != nil {
			return nil, fmt.Errorf("unmarshal location %s: %w", row.Key, err)
		}
		locs = append(locs, l)
	}
	return locs, nil
}

func (s *PostgresStore) SaveTransports(ctx context.Context, sessionID uuid.UUID, modes []world.TransportMode) error {
	if len(modes) == 0 {
		return nil
	}

	rows := make([]transportRow, 0, len(modes))
	for _, m := range modes {
		doc, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal transport %s: %w", m.Key, err)
		}
		rows = append(rows, transportRow{
			SessionID: sessionID,
			Key:       m.Key,
			Doc:       doc,
		})
	}
	if err := s.conn(ctx).Create(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("transports: %w", ErrConflict)
		}
		return fmt.Errorf("save transports: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListTransports(ctx context.Context, sessionID uuid.UUID) ([]world.TransportMode, error) {
	var rows []transportRow
	if err := s.conn(ctx).Where("session_id = ?", sessionID).Order("key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list transports: %w", err)
	}

	modes := make([]world.TransportMode, 0, len(rows))
	for _, row := range rows {
		var m world.TransportMode
		if err := json.Unmarshal(row.Doc, &m); err != nil {
			return nil, fmt.Errorf("unmarshal transport %s: %w", row.Key, err)
		}
		modes = append(modes, m)
	}
	return modes, nil
}
