// Package session defines the authenticated-context domain model.
package session

import (
	"time"

	"github.com/tokyoflo/platform/internal/domain/access"
)

// State is the authentication state machine position.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session binds a user to exactly one tenant with derived roles and
// permissions. Cross-tenant reuse of a session is invalid; a new login is
// required to change tenants.
type Session struct {
	ID          string    `json:"id"`      // session-kind UILD
	UserID      string    `json:"user_id"` // user-kind UILD
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	TenantID    string    `json:"tenant_id"` // tenant-kind UILD
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"` // derived from roles via the access matrix
	Plan        string    `json:"plan"`
	Features    []string  `json:"features"`
	IssuedAt    time.Time `json:"issued_at"`
	Token       string    `json:"-"` // opaque credential, never serialized
}

// HasFeature reports whether the session's subscription includes the feature.
func (s *Session) HasFeature(name string) bool {
	if s == nil {
		return false
	}
	for _, f := range s.Features {
		if f == name {
			return true
		}
	}
	return false
}

// GateSession converts the session into the value snapshot the access gate
// evaluates. A nil session yields an unauthenticated snapshot.
func (s *Session) GateSession() access.Session {
	if s == nil {
		return access.Session{}
	}
	return access.Session{
		Authenticated: true,
		Roles:         append([]string(nil), s.Roles...),
		Permissions:   append([]string(nil), s.Permissions...),
	}
}
