package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tokyoflo/platform/internal/adapter/otel"
	"github.com/tokyoflo/platform/internal/config"
	"github.com/tokyoflo/platform/internal/domain"
	"github.com/tokyoflo/platform/internal/domain/access"
	"github.com/tokyoflo/platform/internal/domain/uild"
	"github.com/tokyoflo/platform/internal/domain/user"
	"github.com/tokyoflo/platform/internal/port/database"
	"github.com/tokyoflo/platform/internal/port/identity"
)

const (
	tokenAudience = "tokyoflo"
	tokenIssuer   = "tokyoflo-core"
)

// AuthService is the server side of the login boundary: it authenticates
// users against the store, issues HS256 access tokens, and hydrates accounts
// with roles and subscription data. It implements identity.Provider so the
// session manager can run in-process against it.
type AuthService struct {
	store   database.Store
	cfg     *config.Auth
	matrix  access.Matrix
	metrics *otel.Metrics
	secret  []byte
}

// NewAuthService creates a new authentication service.
func NewAuthService(store database.Store, cfg *config.Auth, metrics *otel.Metrics) *AuthService {
	return &AuthService{
		store:   store,
		cfg:     cfg,
		matrix:  access.DefaultMatrix(),
		metrics: metrics,
		secret:  []byte(cfg.JWTSecret),
	}
}

// Matrix returns the role/permission matrix used to derive permissions.
func (s *AuthService) Matrix() access.Matrix { return s.matrix }

// Register creates a new user with a bcrypt-hashed password. The tenant
// linkage is mandatory; a user without a tenant cannot log in.
func (s *AuthService) Register(ctx context.Context, req *user.CreateRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if !uild.IsKind(req.TenantID, uild.KindTenant) {
		return nil, fmt.Errorf("register: %w", domain.ErrInvalidTenantID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		ID:           string(uild.MustGenerate(uild.KindUser)),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Roles:        req.Roles,
		TenantID:     req.TenantID,
		Subscription: defaultSubscription(),
		Enabled:      true,
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// UsersForTenant returns every user belonging to the given tenant. Fails
// with domain.ErrInvalidTenantID when the id is not a tenant identifier.
func (s *AuthService) UsersForTenant(ctx context.Context, tenantID string) ([]user.User, error) {
	if !uild.IsKind(tenantID, uild.KindTenant) {
		return nil, fmt.Errorf("list users: %w", domain.ErrInvalidTenantID)
	}
	users, err := s.store.ListUsers(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Login authenticates a user and returns a token plus the hydrated account.
// Credential failures surface as domain.ErrInvalidCredentials regardless of
// whether the email exists, the password is wrong, or the account is
// disabled. A stored user missing tenant linkage is a data defect and fails
// with domain.ErrMissingTenantLinkage, never with ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*identity.LoginResult, error) {
	req := user.LoginRequest{Email: email, Password: password}
	if err := req.Validate(); err != nil {
		s.metrics.CountLogin(ctx, "invalid_credentials")
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidCredentials, err)
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.CountLogin(ctx, "invalid_credentials")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !u.Enabled {
		s.metrics.CountLogin(ctx, "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.metrics.CountLogin(ctx, "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	if u.TenantID == "" {
		s.metrics.CountLogin(ctx, "missing_tenant_linkage")
		slog.Error("user has no tenant linkage", "user_id", u.ID)
		return nil, domain.ErrMissingTenantLinkage
	}

	token, err := s.signJWT(u)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.metrics.CountLogin(ctx, "success")
	return &identity.LoginResult{
		Token:   token,
		Account: accountFor(u),
	}, nil
}

// CurrentUser validates a token and returns the hydrated account it belongs
// to. Fail-closed: revocation-check failure denies the token.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*identity.Account, error) {
	claims, err := s.verifyJWT(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnauthenticated, err)
	}

	revoked, err := s.store.IsTokenRevoked(ctx, hashSHA256(token))
	if err != nil {
		slog.Error("token revocation check failed, denying token", "error", err)
		return nil, domain.ErrUnauthenticated
	}
	if revoked {
		return nil, domain.ErrUnauthenticated
	}

	u, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !u.Enabled {
		return nil, domain.ErrUnauthenticated
	}

	acct := accountFor(u)
	return &acct, nil
}

// Logout revokes the token until its natural expiry. Revoking an already
// invalid token is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.verifyJWT(token)
	if err != nil {
		return nil
	}
	if err := s.store.RevokeToken(ctx, hashSHA256(token), claims.Expiry); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// ValidateAccessToken verifies a token and returns the claims, checking
// revocation (fail-closed on store error).
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (*user.TokenClaims, error) {
	claims, err := s.verifyJWT(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.store.IsTokenRevoked(ctx, hashSHA256(token))
	if err != nil {
		slog.Error("token revocation check failed, denying token", "error", err)
		return nil, errors.New("unable to verify token status")
	}
	if revoked {
		return nil, errors.New("token has been revoked")
	}
	return claims, nil
}

// PermissionsFor derives the permission set for a role list.
func (s *AuthService) PermissionsFor(roles []string) []string {
	return s.matrix.PermissionsFor(roles)
}

// accountFor maps a stored user to the boundary account shape.
func accountFor(u *user.User) identity.Account {
	return identity.Account{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		TenantID:     u.TenantID,
		Roles:        append([]string(nil), u.Roles...),
		Subscription: u.Subscription,
	}
}

// defaultSubscription is the plan assigned at registration until billing
// assigns a real one.
func defaultSubscription() user.Subscription {
	return user.Subscription{
		Plan:     "standard",
		Features: []string{"ecommerce", "crm", "erp", "accounting"},
		Limits:   map[string]int{"users": 25, "storage_gb": 10},
	}
}

// --- JWT implementation (HS256 with stdlib) ---

// jwtHeader is the fixed base64url-encoded header for HS256.
var jwtHeader = base64URLEncode([]byte(`{"alg":"HS256","typ":"JWT"}`))

func (s *AuthService) signJWT(u *user.User) (string, error) {
	now := time.Now()
	claims := user.TokenClaims{
		UserID:   u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Roles:    u.Roles,
		TenantID: u.TenantID,
		IssuedAt: now.Unix(),
		Expiry:   now.Add(s.cfg.AccessTokenExpiry).Unix(),
		Audience: tokenAudience,
		Issuer:   tokenIssuer,
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	payloadB64 := base64URLEncode(payload)
	signingInput := jwtHeader + "." + payloadB64

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingInput))
	sig := base64URLEncode(mac.Sum(nil))

	return signingInput + "." + sig, nil
}

func (s *AuthService) verifyJWT(tokenStr string) (*user.TokenClaims, error) {
	parts := strings.SplitN(tokenStr, ".", 3)
	if len(parts) != 3 {
		return nil, errors.New("malformed token")
	}

	signingInput := parts[0] + "." + parts[1]
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingInput))
	expectedSig := base64URLEncode(mac.Sum(nil))

	if !hmac.Equal([]byte(parts[2]), []byte(expectedSig)) {
		return nil, errors.New("invalid signature")
	}

	payload, err := base64URLDecode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	var claims user.TokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("unmarshal claims: %w", err)
	}

	if time.Now().Unix() > claims.Expiry {
		return nil, errors.New("token expired")
	}

	if claims.Audience != tokenAudience {
		return nil, errors.New("invalid token audience")
	}
	if claims.Issuer != tokenIssuer {
		return nil, errors.New("invalid token issuer")
	}

	return &claims, nil
}

// --- Helpers ---

func base64URLEncode(data []byte) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(data), "=")
}

func base64URLDecode(s string) ([]byte, error) {
	// Add padding back
	switch len(s) % 4 {
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	return base64.URLEncoding.DecodeString(s)
}

func hashSHA256(data string) string {
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])
}
