package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tokyoflo/platform/internal/domain"
	"github.com/tokyoflo/platform/internal/domain/user"
)

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	roles, err := json.Marshal(u.Roles)
	if err != nil {
		return fmt.Errorf("marshal roles: %w", err)
	}
	sub, err := json.Marshal(u.Subscription)
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err = s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash, roles, tenant_id, subscription, enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Email, u.Name, u.PasswordHash, roles, u.TenantID, sub, u.Enabled, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.scanUser(ctx,
		`SELECT id, email, name, password_hash, roles, tenant_id, subscription, enabled, created_at, updated_at
		 FROM users WHERE id = $1`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.scanUser(ctx,
		`SELECT id, email, name, password_hash, roles, tenant_id, subscription, enabled, created_at, updated_at
		 FROM users WHERE email = $1`, email)
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	roles, err := json.Marshal(u.Roles)
	if err != nil {
		return fmt.Errorf("marshal roles: %w", err)
	}
	sub, err := json.Marshal(u.Subscription)
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}

	u.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET name = $2, password_hash = $3, roles = $4, subscription = $5, enabled = $6, updated_at = $7
		 WHERE id = $1`,
		u.ID, u.Name, u.PasswordHash, roles, sub, u.Enabled, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update user %s: %w", u.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, tenantID string) ([]user.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, email, name, password_hash, roles, tenant_id, subscription, enabled, created_at, updated_at
		 FROM users WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) scanUser(ctx context.Context, query string, arg any) (*user.User, error) {
	row := s.pool.QueryRow(ctx, query, arg)
	u, err := scanUserRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get user: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(row rowScanner) (*user.User, error) {
	var u user.User
	var roles, sub []byte
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &roles, &u.TenantID, &sub, &u.Enabled, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if roles != nil {
		_ = json.Unmarshal(roles, &u.Roles)
	}
	if sub != nil {
		_ = json.Unmarshal(sub, &u.Subscription)
	}
	return &u, nil
}
