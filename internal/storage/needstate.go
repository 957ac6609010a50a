package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sbstnppl/worldkeeper/pkg/needs"
)

func (s *PostgresStore) InitNeeds(ctx context.Context, sessionID uuid.UUID, entityKey string, values map[needs.Need]float64) error {
	rows := make([]needStateRow, 0, len(values))
	for _, n := range needs.All {
		v, ok := values[n]
		if !ok {
			continue
		}
		rows = append(rows, needStateRow{
			SessionID: sessionID,
			EntityKey: entityKey,
			Need:      string(n),
			Value:     v,
			UpdatedAt: time.Now().UTC(),
		})
	}
	if len(rows) == 0 {
		return nil
	}

	if err := s.conn(ctx).Create(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("needs for %s: %w", entityKey, ErrConflict)
		}
		return fmt.Errorf("init needs: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetNeedStates(ctx context.Context, sessionID uuid.UUID, entityKey string) ([]needs.State, error) {
	var rows []needStateRow
	err := s.conn(ctx).
		Where("session_id = ? AND entity_key = ?", sessionID, entityKey).
		Order("need").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get need states: %w", err)
	}

	states := make([]needs.State, 0, len(rows))
	for _, row := range rows {
		states = append(states, needs.State{
			Need:                  needs.Need(row.Need),
			Value:                 row.Value,
			Craving:               row.Craving,
			LastCommunicatedTurn:  row.LastCommunicatedTurn,
			LastCommunicatedValue: row.LastCommunicatedValue,
		})
	}
	return states, nil
}

func (s *PostgresStore) SaveNeedState(ctx context.Context, sessionID uuid.UUID, entityKey string, st needs.State) error {
	res := s.conn(ctx).Model(&needStateRow{}).
		Where("session_id = ? AND entity_key = ? AND need = ?", sessionID, entityKey, string(st.Need)).
		Updates(map[string]any{
			"value":                   st.Value,
			"craving":                 st.Craving,
			"last_communicated_turn":  st.LastCommunicatedTurn,
			"last_communicated_value": st.LastCommunicatedValue,
			"updated_at":              time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("save need state: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("need %s for %s: %w", st.Need, entityKey, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) UpsertModifier(ctx context.Context, sessionID uuid.UUID, m needs.Modifier) (bool, error) {
	db := s.conn(ctx)

	var existing needModifierRow
	err := db.Where(
		"session_id = ? AND entity_key = ? AND need = ? AND source_kind = ? AND source_detail = ?",
		sessionID, m.EntityKey, string(m.Need), string(m.SourceKind), m.SourceDetail,
	).First(&existing).Error

	switch {
	case err == nil:
		res := db.Model(&needModifierRow{}).Where("id = ?", existing.ID).Updates(map[string]any{
			"decay_multiplier":        m.DecayMultiplier,
			"satisfaction_multiplier": m.SatisfactionMultiplier,
			"max_intensity_cap":       m.MaxIntensityCap,
			"threshold_adjustment":    m.ThresholdAdjustment,
			"active":                  m.Active,
			"expires_at_turn":         m.ExpiresAtTurn,
			"updated_at":              time.Now().UTC(),
		})
		if res.Error != nil {
			return false, fmt.Errorf("update modifier: %w", res.Error)
		}
		return true, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		row := modifierToRow(sessionID, m)
		if err := db.Create(&row).Error; err != nil {
			return false, fmt.Errorf("create modifier: %w", err)
		}
		return false, nil

	default:
		return false, fmt.Errorf("lookup modifier: %w", err)
	}
}

func (s *PostgresStore) ListModifiers(ctx context.Context, sessionID uuid.UUID, entityKey string) (needs.ModifierSet, error) {
	var rows []needModifierRow
	err := s.conn(ctx).
		Where("session_id = ? AND entity_key = ?", sessionID, entityKey).
		Order("need, source_kind, source_detail").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list modifiers: %w", err)
	}
	return modifiersFromRows(rows), nil
}

func (s *PostgresStore) ListSessionModifiers(ctx context.Context, sessionID uuid.UUID) (needs.ModifierSet, error) {
	var rows []needModifierRow
	err := s.conn(ctx).
		Where("session_id = ?", sessionID).
		Order("entity_key, need, source_kind, source_detail").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list session modifiers: %w", err)
	}
	return modifiersFromRows(rows), nil
}

func modifierToRow(sessionID uuid.UUID, m needs.Modifier) needModifierRow {
	return needModifierRow{
		SessionID:              sessionID,
		EntityKey:              m.EntityKey,
		Need:                   string(m.Need),
		SourceKind:             string(m.SourceKind),
		SourceDetail:           m.SourceDetail,
		DecayMultiplier:        m.DecayMultiplier,
		SatisfactionMultiplier: m.SatisfactionMultiplier,
		MaxIntensityCap:        m.MaxIntensityCap,
		ThresholdAdjustment:    m.ThresholdAdjustment,
		Active:                 m.Active,
		ExpiresAtTurn:          m.ExpiresAtTurn,
		UpdatedAt:              time.Now().UTC(),
	}
}

func modifiersFromRows(rows []needModifierRow) needs.ModifierSet {
	set := make(needs.ModifierSet, 0, len(rows))
	for _, row := range rows {
		set = append(set, needs.Modifier{
			EntityKey:              row.EntityKey,
			Need:                   needs.Need(row.Need),
			SourceKind:             needs.SourceKind(row.SourceKind),
			SourceDetail:           row.SourceDetail,
			DecayMultiplier:        row.DecayMultiplier,
			SatisfactionMultiplier: row.SatisfactionMultiplier,
			MaxIntensityCap:        row.MaxIntensityCap,
			ThresholdAdjustment:    row.ThresholdAdjustment,
			Active:                 row.Active,
			ExpiresAtTurn:          row.ExpiresAtTurn,
		})
	}
	return set
}

func (s *PostgresStore) AppendAdaptation(ctx context.Context, sessionID uuid.UUID, a needs.Adaptation) error {
	row := adaptationRow{
		ID:              a.ID,
		SessionID:       sessionID,
		EntityKey:       a.EntityKey,
		Need:            string(a.Need),
		Delta:           a.Delta,
		PriorAdjustment: a.PriorAdjustment,
		Reason:          a.Reason,
		Trigger:         a.Trigger,
		StartedTurn:     a.StartedTurn,
		CompletedTurn:   a.CompletedTurn,
		Gradual:         a.Gradual,
		DurationDays:    a.DurationDays,
		Reversible:      a.Reversible,
		ReversalTrigger: a.ReversalTrigger,
		ReversedAtTurn:  a.ReversedAtTurn,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("adaptation %s: %w", a.ID, ErrConflict)
		}
		return fmt.Errorf("append adaptation: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAdaptations(ctx context.Context, sessionID uuid.UUID, entityKey string, need needs.Need) ([]needs.Adaptation, error) {
	var rows []adaptationRow
	err := s.conn(ctx).
		Where("session_id = ? AND entity_key = ? AND need = ?", sessionID, entityKey, string(need)).
		Order("started_turn, created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list adaptations: %w", err)
	}

	out := make([]needs.Adaptation, 0, len(rows))
	for _, row := range rows {
		out = append(out, needs.Adaptation{
			ID:              row.ID,
			EntityKey:       row.EntityKey,
			Need:            needs.Need(row.Need),
			Delta:           row.Delta,
			PriorAdjustment: row.PriorAdjustment,
			Reason:          row.Reason,
			Trigger:         row.Trigger,
			StartedTurn:     row.StartedTurn,
			CompletedTurn:   row.CompletedTurn,
			Gradual:         row.Gradual,
			DurationDays:    row.DurationDays,
			Reversible:      row.Reversible,
			ReversalTrigger: row.ReversalTrigger,
			ReversedAtTurn:  row.ReversedAtTurn,
		})
	}
	return out, nil
}

func (s *PostgresStore) MarkAdaptationReversed(ctx context.Context, sessionID uuid.UUID, id string, turn int) error {
	res := s.conn(ctx).Model(&adaptationRow{}).
		Where("session_id = ? AND id = ?", sessionID, id).
		Update("reversed_at_turn", turn)
	if res.Error != nil {
		return fmt.Errorf("mark adaptation reversed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("adaptation %s: %w", id, ErrNotFound)
	}
	return nil
}
