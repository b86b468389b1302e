// Package action defines the tracked-action domain model. Actions are a
// fire-and-log side channel recorded by the surrounding UI (page views,
// wizard steps, session ends).
package action

import "time"

// Action is a single tracked event scoped to a tenant.
type Action struct {
	ID         string            `json:"id"`        // action-kind UILD
	TenantID   string            `json:"tenant_id"` // tenant-kind UILD
	Name       string            `json:"name"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	RecordedAt time.Time         `json:"recorded_at"`
}

// RecordRequest is the input for recording an action.
type RecordRequest struct {
	TenantID string            `json:"tenant_id"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
