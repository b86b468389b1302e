package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tokyoflo/platform/internal/domain"
	"github.com/tokyoflo/platform/internal/domain/tenant"
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO tenants (id, name, subdomain, status, settings, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Name, t.Subdomain, t.Status, settings, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("create tenant %s: %w", t.Subdomain, domain.ErrSubdomainTaken)
		}
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	return s.scanTenant(ctx,
		`SELECT id, name, subdomain, status, settings, created_at, updated_at
		 FROM tenants WHERE id = $1`, id)
}

func (s *Store) GetTenantBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	return s.scanTenant(ctx,
		`SELECT id, name, subdomain, status, settings, created_at, updated_at
		 FROM tenants WHERE subdomain = $1`, subdomain)
}

func (s *Store) SubdomainExists(ctx context.Context, subdomain string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM tenants WHERE subdomain = $1)`, subdomain,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("subdomain exists %s: %w", subdomain, err)
	}
	return exists, nil
}

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET name = $2, status = $3, settings = $4, updated_at = $5
		 WHERE id = $1`,
		t.ID, t.Name, t.Status, settings, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update tenant %s: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update tenant %s: %w", t.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, subdomain, status, settings, created_at, updated_at
		 FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []tenant.Tenant
	for rows.Next() {
		var t tenant.Tenant
		var settings []byte
		if err := rows.Scan(&t.ID, &t.Name, &t.Subdomain, &t.Status, &settings, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		if settings != nil {
			_ = json.Unmarshal(settings, &t.Settings)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *Store) scanTenant(ctx context.Context, query string, arg any) (*tenant.Tenant, error) {
	var t tenant.Tenant
	var settings []byte
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&t.ID, &t.Name, &t.Subdomain, &t.Status, &settings, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get tenant: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	if settings != nil {
		_ = json.Unmarshal(settings, &t.Settings)
	}
	return &t, nil
}
