package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tokyoflo/platform/internal/config"
	"github.com/tokyoflo/platform/internal/domain"
	"github.com/tokyoflo/platform/internal/domain/uild"
	"github.com/tokyoflo/platform/internal/domain/user"
)

func newTestAuth(store *mockStore) *AuthService {
	cfg := config.Defaults().Auth
	cfg.JWTSecret = "test-secret"
	cfg.BcryptCost = 4 // keep tests fast
	return NewAuthService(store, &cfg, nil)
}

func registerTestUser(t *testing.T, svc *AuthService, email string, roles []string) *user.User {
	t.Helper()
	u, err := svc.Register(context.Background(), &user.CreateRequest{
		Email:    email,
		Name:     "Test User",
		Password: "correct-horse",
		Roles:    roles,
		TenantID: string(uild.MustGenerate(uild.KindTenant)),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return u
}

func TestRegister(t *testing.T) {
	store := &mockStore{}
	svc := newTestAuth(store)

	u := registerTestUser(t, svc, "owner@acme.test", []string{user.RoleAdmin})

	if !uild.IsKind(u.ID, uild.KindUser) {
		t.Errorf("id %q is not a user identifier", u.ID)
	}
	if u.PasswordHash == "" || u.PasswordHash == "correct-horse" {
		t.Error("password must be stored hashed")
	}
	if !u.Enabled {
		t.Error("new users start enabled")
	}
	if u.Subscription.Plan != "standard" {
		t.Errorf("plan = %q", u.Subscription.Plan)
	}

	// Tenant linkage is checked by identifier kind, not just presence.
	_, err := svc.Register(context.Background(), &user.CreateRequest{
		Email:    "b@acme.test",
		Name:     "B",
		Password: "correct-horse",
		Roles:    []string{user.RoleMember},
		TenantID: "tn-broken",
	})
	if !errors.Is(err, domain.ErrInvalidTenantID) {
		t.Errorf("err = %v, want ErrInvalidTenantID", err)
	}
}

func TestAuthLoginAndCurrentUser(t *testing.T) {
	store := &mockStore{}
	svc := newTestAuth(store)
	u := registerTestUser(t, svc, "owner@acme.test", []string{user.RoleAdmin})

	result, err := svc.Login(context.Background(), "owner@acme.test", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected token")
	}
	if result.Account.ID != u.ID || result.Account.TenantID != u.TenantID {
		t.Errorf("account = %+v", result.Account)
	}

	acct, err := svc.CurrentUser(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if acct.Email != "owner@acme.test" {
		t.Errorf("email = %q", acct.Email)
	}

	claims, err := svc.ValidateAccessToken(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != u.ID || claims.TenantID != u.TenantID {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Expiry <= time.Now().Unix() {
		t.Error("token already expired")
	}
}

func TestAuthLoginFailures(t *testing.T) {
	store := &mockStore{}
	svc := newTestAuth(store)
	registerTestUser(t, svc, "owner@acme.test", []string{user.RoleAdmin})

	disabled := registerTestUser(t, svc, "gone@acme.test", []string{user.RoleMember})
	disabled.Enabled = false
	if err := store.UpdateUser(context.Background(), disabled); err != nil {
		t.Fatalf("disable user: %v", err)
	}

	cases := []struct {
		name  string
		email string
		pass  string
	}{
		{"wrong password", "owner@acme.test", "wrong"},
		{"unknown email", "ghost@acme.test", "correct-horse"},
		{"disabled account", "gone@acme.test", "correct-horse"},
		{"empty password", "owner@acme.test", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.email, tc.pass)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}

	t.Run("missing tenant linkage is not a credential failure", func(t *testing.T) {
		broken := registerTestUser(t, svc, "orphan@acme.test", []string{user.RoleMember})
		broken.TenantID = ""
		if err := store.UpdateUser(context.Background(), broken); err != nil {
			t.Fatalf("break user: %v", err)
		}

		_, err := svc.Login(context.Background(), "orphan@acme.test", "correct-horse")
		if !errors.Is(err, domain.ErrMissingTenantLinkage) {
			t.Errorf("err = %v, want ErrMissingTenantLinkage", err)
		}
		if errors.Is(err, domain.ErrInvalidCredentials) {
			t.Error("linkage failure must not masquerade as wrong password")
		}
	})
}

func TestTokenRevocation(t *testing.T) {
	store := &mockStore{}
	svc := newTestAuth(store)
	registerTestUser(t, svc, "owner@acme.test", []string{user.RoleAdmin})

	result, err := svc.Login(context.Background(), "owner@acme.test", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), result.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.CurrentUser(context.Background(), result.Token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("current user after logout: %v, want ErrUnauthenticated", err)
	}
	if _, err := svc.ValidateAccessToken(context.Background(), result.Token); err == nil {
		t.Error("revoked token must not validate")
	}

	// Revoking garbage is a no-op.
	if err := svc.Logout(context.Background(), "not-a-jwt"); err != nil {
		t.Errorf("logout of invalid token: %v", err)
	}
}

func TestRevocationCheckFailsClosed(t *testing.T) {
	store := &mockStore{}
	svc := newTestAuth(store)
	registerTestUser(t, svc, "owner@acme.test", []string{user.RoleAdmin})

	result, err := svc.Login(context.Background(), "owner@acme.test", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	store.isRevokedErr = errors.New("store down")
	if _, err := svc.CurrentUser(context.Background(), result.Token); err == nil {
		t.Error("revocation-check failure must deny the token")
	}
	if _, err := svc.ValidateAccessToken(context.Background(), result.Token); err == nil {
		t.Error("revocation-check failure must deny the token")
	}
}

func TestTokenTampering(t *testing.T) {
	store := &mockStore{}
	svc := newTestAuth(store)
	registerTestUser(t, svc, "owner@acme.test", []string{user.RoleAdmin})

	result, err := svc.Login(context.Background(), "owner@acme.test", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	tampered := result.Token[:len(result.Token)-2] + "xx"
	if _, err := svc.ValidateAccessToken(context.Background(), tampered); err == nil {
		t.Error("tampered token must not validate")
	}

	other := newTestAuth(store)
	other.secret = []byte("different-secret")
	if _, err := other.ValidateAccessToken(context.Background(), result.Token); err == nil {
		t.Error("token signed with another secret must not validate")
	}
}

func TestUsersForTenant(t *testing.T) {
	store := &mockStore{}
	svc := newTestAuth(store)

	acmeOwner := registerTestUser(t, svc, "owner@acme.test", []string{user.RoleAdmin})
	registerTestUser(t, svc, "owner@globex.test", []string{user.RoleAdmin})

	users, err := svc.UsersForTenant(context.Background(), acmeOwner.TenantID)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].Email != "owner@acme.test" {
		t.Errorf("users = %+v", users)
	}

	if _, err := svc.UsersForTenant(context.Background(), "garbage"); !errors.Is(err, domain.ErrInvalidTenantID) {
		t.Errorf("err = %v, want ErrInvalidTenantID", err)
	}
	userKind := string(uild.MustGenerate(uild.KindUser))
	if _, err := svc.UsersForTenant(context.Background(), userKind); !errors.Is(err, domain.ErrInvalidTenantID) {
		t.Errorf("err = %v, want ErrInvalidTenantID for non-tenant identifier", err)
	}
}
