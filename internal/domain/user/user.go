// Package user defines the user domain model for authentication and authorization.
package user

import (
	"errors"
	"net/mail"
	"time"
)

// Role names understood by the default access matrix.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
)

// ValidRoles is the set of roles accepted at registration.
var ValidRoles = map[string]bool{
	RoleAdmin:   true,
	RoleManager: true,
	RoleMember:  true,
}

// Subscription describes the plan a user's tenant is on.
type Subscription struct {
	Plan     string         `json:"plan"`
	Features []string       `json:"features"`
	Limits   map[string]int `json:"limits"`
}

// HasFeature reports whether the subscription includes the named feature.
func (s Subscription) HasFeature(name string) bool {
	for _, f := range s.Features {
		if f == name {
			return true
		}
	}
	return false
}

// User represents a registered user within a tenant.
type User struct {
	ID           string       `json:"id"` // user-kind UILD
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	PasswordHash string       `json:"-"` // never serialized
	Roles        []string     `json:"roles"`
	TenantID     string       `json:"tenant_id"` // tenant-kind UILD
	Subscription Subscription `json:"subscription"`
	Enabled      bool         `json:"enabled"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// HasRole reports whether the user carries the named role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CreateRequest is the input for registering a new user.
type CreateRequest struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Password string   `json:"password"` //nolint:gosec // request field, not a hardcoded secret
	Roles    []string `json:"roles"`
	TenantID string   `json:"tenant_id"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	if len(r.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if len(r.Roles) == 0 {
		return errors.New("at least one role is required")
	}
	for _, role := range r.Roles {
		if !ValidRoles[role] {
			return errors.New("invalid role: must be admin, manager, or member")
		}
	}
	if r.TenantID == "" {
		return errors.New("tenant_id is required")
	}
	return nil
}

// LoginRequest is the input for user authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks that the LoginRequest has all required fields.
func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// TokenClaims contains the access token payload fields.
type TokenClaims struct {
	UserID   string   `json:"sub"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Roles    []string `json:"roles"`
	TenantID string   `json:"tid"`
	IssuedAt int64    `json:"iat"`
	Expiry   int64    `json:"exp"`
	Audience string   `json:"aud"`
	Issuer   string   `json:"iss"`
}
