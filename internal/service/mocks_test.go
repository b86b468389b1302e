package service

import (
	"context"
	"sync"

	"github.com/tokyoflo/platform/internal/domain"
	"github.com/tokyoflo/platform/internal/domain/action"
	"github.com/tokyoflo/platform/internal/domain/tenant"
	"github.com/tokyoflo/platform/internal/domain/user"
	"github.com/tokyoflo/platform/internal/port/database"
	"github.com/tokyoflo/platform/internal/port/identity"
	"github.com/tokyoflo/platform/internal/port/messagequeue"
)

// Ensure mockStore implements database.Store at compile time.
var _ database.Store = (*mockStore)(nil)

// mockStore is a minimal in-memory implementation of database.Store.
type mockStore struct {
	mu      sync.Mutex
	tenants []tenant.Tenant
	users   []user.User
	actions []action.Action
	revoked map[string]bool

	// Error hooks. Set these to inject failures.
	subdomainExistsErr error
	getTenantErr       error
	createActionErr    error
	isRevokedErr       error

	// Call counters for de-dupe and caching assertions.
	subdomainLookups int
}

func (m *mockStore) CreateTenant(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tenants {
		if existing.Subdomain == t.Subdomain {
			return domain.ErrSubdomainTaken
		}
	}
	m.tenants = append(m.tenants, *t)
	return nil
}

func (m *mockStore) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getTenantErr != nil {
		return nil, m.getTenantErr
	}
	for i := range m.tenants {
		if m.tenants[i].ID == id {
			t := m.tenants[i]
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetTenantBySubdomain(_ context.Context, subdomain string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subdomainLookups++
	for i := range m.tenants {
		if m.tenants[i].Subdomain == subdomain {
			t := m.tenants[i]
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) SubdomainExists(_ context.Context, subdomain string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subdomainLookups++
	if m.subdomainExistsErr != nil {
		return false, m.subdomainExistsErr
	}
	for _, t := range m.tenants {
		if t.Subdomain == subdomain {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) UpdateTenant(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if m.tenants[i].ID == t.ID {
			m.tenants[i] = *t
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tenant.Tenant(nil), m.tenants...), nil
}

func (m *mockStore) CreateUser(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, *u)
	return nil
}

func (m *mockStore) GetUser(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].Email == email {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) UpdateUser(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == u.ID {
			m.users[i] = *u
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ListUsers(_ context.Context, tenantID string) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []user.User
	for _, u := range m.users {
		if u.TenantID == tenantID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockStore) CreateAction(_ context.Context, a *action.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createActionErr != nil {
		return m.createActionErr
	}
	m.actions = append(m.actions, *a)
	return nil
}

func (m *mockStore) ListActions(_ context.Context, tenantID string, limit int) ([]action.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []action.Action
	for i := len(m.actions) - 1; i >= 0; i-- {
		if m.actions[i].TenantID == tenantID {
			out = append(out, m.actions[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockStore) RevokeToken(_ context.Context, tokenHash string, _ int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked == nil {
		m.revoked = make(map[string]bool)
	}
	m.revoked[tokenHash] = true
	return nil
}

func (m *mockStore) IsTokenRevoked(_ context.Context, tokenHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isRevokedErr != nil {
		return false, m.isRevokedErr
	}
	return m.revoked[tokenHash], nil
}

// Ensure mockQueue implements messagequeue.Queue at compile time.
var _ messagequeue.Queue = (*mockQueue)(nil)

// mockQueue captures published messages and subscription handlers in memory.
type mockQueue struct {
	mu        sync.Mutex
	published []publishedMsg
	handlers  map[string]messagequeue.Handler
	cancelled bool
}

type publishedMsg struct {
	subject string
	data    []byte
}

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, publishedMsg{subject: subject, data: data})
	return nil
}

func (q *mockQueue) Subscribe(_ context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.handlers == nil {
		q.handlers = make(map[string]messagequeue.Handler)
	}
	q.handlers[subject] = handler
	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cancelled = true
		delete(q.handlers, subject)
	}, nil
}

// deliver runs every published message through the handler subscribed to its
// subject, mirroring broker delivery.
func (q *mockQueue) deliver(ctx context.Context) error {
	q.mu.Lock()
	msgs := append([]publishedMsg(nil), q.published...)
	handlers := make(map[string]messagequeue.Handler, len(q.handlers))
	for s, h := range q.handlers {
		handlers[s] = h
	}
	q.mu.Unlock()

	for _, m := range msgs {
		if h, ok := handlers[m.subject]; ok {
			if err := h(ctx, m.subject, m.data); err != nil {
				return err
			}
		}
	}
	return nil
}

func (q *mockQueue) Close() error      { return nil }
func (q *mockQueue) IsConnected() bool { return true }

// fakeProvider implements identity.Provider with scripted responses.
type fakeProvider struct {
	loginResult *identity.LoginResult
	loginErr    error

	currentAccount *identity.Account
	currentErr     error

	logoutErr   error
	logoutCalls int
	lastToken   string
}

var _ identity.Provider = (*fakeProvider)(nil)

func (p *fakeProvider) Login(_ context.Context, _, _ string) (*identity.LoginResult, error) {
	return p.loginResult, p.loginErr
}

func (p *fakeProvider) CurrentUser(_ context.Context, token string) (*identity.Account, error) {
	p.lastToken = token
	return p.currentAccount, p.currentErr
}

func (p *fakeProvider) Logout(_ context.Context, token string) error {
	p.logoutCalls++
	p.lastToken = token
	return p.logoutErr
}

// memCreds is an in-memory credentials.Store.
type memCreds struct {
	mu    sync.Mutex
	token string

	saveErr  error
	loadErr  error
	clearErr error
}

func (c *memCreds) Load(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.loadErr
}

func (c *memCreds) Save(_ context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return c.saveErr
	}
	c.token = token
	return nil
}

func (c *memCreds) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clearErr != nil {
		return c.clearErr
	}
	c.token = ""
	return nil
}
