// Package credentials defines the token persistence port. It is the
// localStorage analogue for CLI and embedded callers: one opaque credential
// per user agent.
package credentials

import "context"

// Store persists the opaque session credential between process starts.
type Store interface {
	// Load returns the persisted token, or "" when none is stored.
	Load(ctx context.Context) (string, error)

	// Save persists the token, replacing any previous one.
	Save(ctx context.Context, token string) error

	// Clear removes the persisted token. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}
