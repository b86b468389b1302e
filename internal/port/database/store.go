// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/tokyoflo/platform/internal/domain/action"
	"github.com/tokyoflo/platform/internal/domain/tenant"
	"github.com/tokyoflo/platform/internal/domain/user"
)

// Store is the port interface for database operations.
type Store interface {
	// Tenants
	CreateTenant(ctx context.Context, t *tenant.Tenant) error
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error)
	SubdomainExists(ctx context.Context, subdomain string) (bool, error)
	UpdateTenant(ctx context.Context, t *tenant.Tenant) error
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)

	// Users
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	UpdateUser(ctx context.Context, u *user.User) error
	ListUsers(ctx context.Context, tenantID string) ([]user.User, error)

	// Actions
	CreateAction(ctx context.Context, a *action.Action) error
	ListActions(ctx context.Context, tenantID string, limit int) ([]action.Action, error)

	// Revoked tokens (logout invalidation)
	RevokeToken(ctx context.Context, tokenHash string, expiresAt int64) error
	IsTokenRevoked(ctx context.Context, tokenHash string) (bool, error)
}
