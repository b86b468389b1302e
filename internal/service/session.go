package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tokyoflo/platform/internal/domain"
	"github.com/tokyoflo/platform/internal/domain/access"
	"github.com/tokyoflo/platform/internal/domain/session"
	"github.com/tokyoflo/platform/internal/domain/uild"
	"github.com/tokyoflo/platform/internal/port/credentials"
	"github.com/tokyoflo/platform/internal/port/identity"
)

// tenantManagementFeature marks accounts allowed to operate the global
// tenant administration surface.
const tenantManagementFeature = "tenant-management"

// SessionManager owns the authentication state machine for one user agent:
// Unauthenticated -> Authenticating -> Authenticated, back to Unauthenticated
// on logout or token rejection. It is the single writer of session state;
// readers always observe a consistent snapshot.
type SessionManager struct {
	provider identity.Provider
	creds    credentials.Store
	matrix   access.Matrix

	mu    sync.Mutex
	state session.State
	sess  *session.Session
}

// NewSessionManager creates a SessionManager in the Unauthenticated state.
func NewSessionManager(provider identity.Provider, creds credentials.Store, matrix access.Matrix) *SessionManager {
	if matrix == nil {
		matrix = access.DefaultMatrix()
	}
	return &SessionManager{
		provider: provider,
		creds:    creds,
		matrix:   matrix,
		state:    session.Unauthenticated,
	}
}

// State returns the current state machine position.
func (m *SessionManager) State() session.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns a snapshot copy of the active session, or nil when not
// authenticated. Mutating the copy does not affect the manager.
func (m *SessionManager) Current() *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// GateSession returns the access-gate snapshot for the current state.
func (m *SessionManager) GateSession() access.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != session.Authenticated {
		return access.Session{}
	}
	return m.sess.GateSession()
}

// Login runs the full authentication flow. On success the manager is
// Authenticated and the credential is persisted; on any failure it is
// Unauthenticated with cleared persistence. The error distinguishes
// domain.ErrInvalidCredentials, domain.ErrMalformedResponse and
// domain.ErrMissingTenantLinkage; the last must never be presented as a
// wrong password by this layer.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = session.Authenticating

	result, err := m.provider.Login(ctx, email, password)
	if err != nil {
		m.resetLocked(ctx)
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := checkResult(result); err != nil {
		m.resetLocked(ctx)
		return nil, fmt.Errorf("login: %w", err)
	}

	sess := m.buildSession(result.Token, &result.Account)

	if err := m.creds.Save(ctx, result.Token); err != nil {
		// A session that cannot be persisted still works for this process;
		// restore after restart will simply find nothing.
		slog.Warn("failed to persist session credential", "error", err)
	}

	m.state = session.Authenticated
	m.sess = sess

	slog.Info("session authenticated", "session_id", sess.ID, "user_id", sess.UserID, "tenant_id", sess.TenantID)
	return m.snapshotLocked(), nil
}

// Restore rebuilds the session from a persisted credential at process start.
// Fail-closed: any fetch failure discards the token and leaves the manager
// Unauthenticated. Returns nil with no error when there is nothing to restore.
func (m *SessionManager) Restore(ctx context.Context) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.creds.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if token == "" {
		return nil, nil
	}

	m.state = session.Authenticating

	acct, err := m.provider.CurrentUser(ctx, token)
	if err != nil {
		slog.Debug("session restore failed, discarding credential", "error", err)
		m.resetLocked(ctx)
		return nil, nil
	}
	if acct.TenantID == "" {
		m.resetLocked(ctx)
		return nil, nil
	}

	m.state = session.Authenticated
	m.sess = m.buildSession(token, acct)

	slog.Info("session restored", "session_id", m.sess.ID, "user_id", m.sess.UserID)
	return m.snapshotLocked(), nil
}

// Logout invalidates the credential server-side (best-effort) and clears
// local state unconditionally. Local state never stays authenticated because
// of a network failure.
func (m *SessionManager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess != nil && m.sess.Token != "" {
		if err := m.provider.Logout(ctx, m.sess.Token); err != nil {
			slog.Warn("server-side logout failed", "error", err)
		}
	}
	m.resetLocked(ctx)
}

// HasFeature reports whether the authenticated session's subscription
// includes the named feature. Always false when unauthenticated.
func (m *SessionManager) HasFeature(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != session.Authenticated {
		return false
	}
	return m.sess.HasFeature(name)
}

// IsPrivilegedTenant reports whether the session belongs to a tenant allowed
// to manage other tenants: a valid tenant-kind identifier combined with the
// tenant-management feature.
func (m *SessionManager) IsPrivilegedTenant() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != session.Authenticated {
		return false
	}
	return uild.IsKind(m.sess.TenantID, uild.KindTenant) && m.sess.HasFeature(tenantManagementFeature)
}

// buildSession mints a session identifier and derives permissions from roles
// through the access matrix. Roles and permissions are always set together;
// a session is never visible with one but not the other.
func (m *SessionManager) buildSession(token string, acct *identity.Account) *session.Session {
	return &session.Session{
		ID:          string(uild.MustGenerate(uild.KindSession)),
		UserID:      acct.ID,
		Email:       acct.Email,
		Name:        acct.Name,
		TenantID:    acct.TenantID,
		Roles:       append([]string(nil), acct.Roles...),
		Permissions: m.matrix.PermissionsFor(acct.Roles),
		Plan:        acct.Subscription.Plan,
		Features:    append([]string(nil), acct.Subscription.Features...),
		IssuedAt:    time.Now().UTC(),
		Token:       token,
	}
}

// resetLocked clears state and persistence. Callers hold m.mu.
func (m *SessionManager) resetLocked(ctx context.Context) {
	m.state = session.Unauthenticated
	m.sess = nil
	if err := m.creds.Clear(ctx); err != nil {
		slog.Warn("failed to clear persisted credential", "error", err)
	}
}

// snapshotLocked returns a defensive copy. Callers hold m.mu.
func (m *SessionManager) snapshotLocked() *session.Session {
	if m.state != session.Authenticated || m.sess == nil {
		return nil
	}
	cp := *m.sess
	cp.Roles = append([]string(nil), m.sess.Roles...)
	cp.Permissions = append([]string(nil), m.sess.Permissions...)
	cp.Features = append([]string(nil), m.sess.Features...)
	return &cp
}

// checkResult enforces the login boundary contract on top of whatever the
// provider returned: a success response missing token, account, or tenant
// linkage aborts the login instead of producing a half-populated session.
func checkResult(r *identity.LoginResult) error {
	if r == nil || r.Token == "" || r.Account.ID == "" {
		return domain.ErrMalformedResponse
	}
	if r.Account.TenantID == "" {
		return domain.ErrMissingTenantLinkage
	}
	return nil
}
