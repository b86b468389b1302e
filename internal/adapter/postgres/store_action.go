package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tokyoflo/platform/internal/domain/action"
)

func (s *Store) CreateAction(ctx context.Context, a *action.Action) error {
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO actions (id, tenant_id, name, metadata, recorded_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.TenantID, a.Name, meta, a.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("create action: %w", err)
	}
	return nil
}

func (s *Store) ListActions(ctx context.Context, tenantID string, limit int) ([]action.Action, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, name, metadata, recorded_at
		 FROM actions WHERE tenant_id = $1 ORDER BY recorded_at DESC LIMIT $2`,
		tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var actions []action.Action
	for rows.Next() {
		var a action.Action
		var meta []byte
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Name, &meta, &a.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		if meta != nil {
			_ = json.Unmarshal(meta, &a.Metadata)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
