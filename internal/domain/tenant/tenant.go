// Package tenant defines the tenant domain model for multi-tenancy.
package tenant

import "time"

// Status is the lifecycle state of a tenant. Tenants are never deleted;
// deactivation is a status change.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// ValidStatuses is the set of all valid tenant statuses.
var ValidStatuses = map[Status]bool{
	StatusActive:    true,
	StatusInactive:  true,
	StatusSuspended: true,
}

// Settings holds per-tenant configuration.
type Settings struct {
	Theme        string   `json:"theme"`
	Language     string   `json:"language"`
	Timezone     string   `json:"timezone"`
	FeatureFlags []string `json:"feature_flags"`
}

// DefaultFeatureFlags are the module flags enabled for a new tenant.
var DefaultFeatureFlags = []string{"ecommerce", "crm", "erp", "accounting"}

// DefaultSettings returns the settings applied to a newly created tenant.
func DefaultSettings() Settings {
	return Settings{
		Theme:        "system",
		Language:     "en",
		Timezone:     "UTC",
		FeatureFlags: append([]string(nil), DefaultFeatureFlags...),
	}
}

// HasFlag reports whether the named feature flag is enabled.
func (s Settings) HasFlag(name string) bool {
	for _, f := range s.FeatureFlags {
		if f == name {
			return true
		}
	}
	return false
}

// Tenant represents an isolated tenant occupying one subdomain.
type Tenant struct {
	ID        string    `json:"id"` // tenant-kind UILD
	Name      string    `json:"name"`
	Subdomain string    `json:"subdomain"`
	Status    Status    `json:"status"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest holds the fields required to create a new tenant.
type CreateRequest struct {
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
}

// SettingsPatch is an explicit partial update of tenant settings. Nil fields
// are left unchanged.
type SettingsPatch struct {
	Theme        *string   `json:"theme,omitempty"`
	Language     *string   `json:"language,omitempty"`
	Timezone     *string   `json:"timezone,omitempty"`
	FeatureFlags *[]string `json:"feature_flags,omitempty"`
}

// Apply merges the patch into s.
func (p SettingsPatch) Apply(s *Settings) {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.Timezone != nil {
		s.Timezone = *p.Timezone
	}
	if p.FeatureFlags != nil {
		s.FeatureFlags = append([]string(nil), (*p.FeatureFlags)...)
	}
}
