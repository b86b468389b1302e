// Package identity defines the login boundary port. The session manager
// consumes it; implementations include the in-process auth service and the
// HTTP client used when the identity API runs elsewhere.
package identity

import (
	"context"

	"github.com/tokyoflo/platform/internal/domain/user"
)

// Account is the hydrated user profile returned by the boundary.
type Account struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	TenantID     string            `json:"tenant_id"`
	Roles        []string          `json:"roles"`
	Subscription user.Subscription `json:"subscription"`
}

// LoginResult is a successful login: an opaque credential plus the account.
// Implementations must never return a result missing Token, the account, or
// the account's TenantID; they fail with domain.ErrMalformedResponse or
// domain.ErrMissingTenantLinkage instead.
type LoginResult struct {
	Token   string  `json:"token"`
	Account Account `json:"user"`
}

// Provider is the port interface for the login boundary.
type Provider interface {
	// Login exchanges credentials for a token and hydrated account.
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// CurrentUser fetches the account a token belongs to.
	CurrentUser(ctx context.Context, token string) (*Account, error)

	// Logout invalidates the token server-side. Best-effort for callers:
	// the session manager clears local state regardless of the result.
	Logout(ctx context.Context, token string) error
}
