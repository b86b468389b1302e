package postgres

import (
	"context"
	"fmt"
	"time"
)

func (s *Store) RevokeToken(ctx context.Context, tokenHash string, expiresAt int64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO revoked_tokens (token_hash, expires_at) VALUES ($1, $2)
		 ON CONFLICT (token_hash) DO NOTHING`,
		tokenHash, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *Store) IsTokenRevoked(ctx context.Context, tokenHash string) (bool, error) {
	var revoked bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE token_hash = $1 AND expires_at > $2)`,
		tokenHash, time.Now().Unix(),
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// PurgeExpiredTokens removes revocation rows whose tokens have expired anyway.
func (s *Store) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at <= $1`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
