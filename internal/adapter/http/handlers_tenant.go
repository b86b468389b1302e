package http

import (
	"net/http"
	"strings"

	"github.com/tokyoflo/platform/internal/domain/tenant"
	"github.com/tokyoflo/platform/internal/middleware"
)

type resolutionResponse struct {
	Type   string         `json:"type"`
	Tenant *tenant.Tenant `json:"tenant,omitempty"`
}

// ResolveHost handles GET /api/v1/resolve. It maps the ?host query parameter,
// or the request's own Host header when absent, to a tenant context.
func (h *Handlers) ResolveHost(w http.ResponseWriter, r *http.Request) {
	host := r.URL.Query().Get("host")
	if host == "" {
		host = r.Host
	}

	res, err := h.Resolver.ResolveFromHost(r.Context(), host)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, resolutionResponse{
		Type:   res.Type.String(),
		Tenant: res.Tenant,
	})
}

// GetTenant handles GET /api/v1/tenants/{subdomain}
func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := h.Resolver.TenantBySubdomain(r.Context(), urlParam(r, "subdomain"))
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ListTenants handles GET /api/v1/tenants. Global-admin directory of every
// tenant; the route is admin-gated.
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.Resolver.ListTenants(r.Context())
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

// CreateTenant handles POST /api/v1/tenants
func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.CreateRequest](w, r)
	if !ok {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	t, err := h.Resolver.CreateTenant(r.Context(), req.Name, strings.ToLower(req.Subdomain))
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTenantSettings handles PATCH /api/v1/tenants/{id}/settings
func (h *Handlers) UpdateTenantSettings(w http.ResponseWriter, r *http.Request) {
	patch, ok := readJSON[tenant.SettingsPatch](w, r)
	if !ok {
		return
	}

	t, err := h.Resolver.UpdateSettings(r.Context(), urlParam(r, "id"), patch)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// SubdomainAvailability handles GET /api/v1/subdomains/availability. It backs
// the live signup check and returns the structured verdict for any input.
func (h *Handlers) SubdomainAvailability(w http.ResponseWriter, r *http.Request) {
	candidate := strings.ToLower(r.URL.Query().Get("candidate"))
	if candidate == "" {
		writeError(w, http.StatusBadRequest, "candidate is required")
		return
	}

	verdict, err := h.Resolver.ValidateSubdomainCandidate(r.Context(), candidate)
	if err != nil {
		writeDomainError(w, err, "availability check failed")
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

// CurrentTenant handles GET /api/v1/tenant. It returns the tenant the request
// host resolved to, set by the resolve middleware.
func (h *Handlers) CurrentTenant(w http.ResponseWriter, r *http.Request) {
	res := middleware.ResolutionFromContext(r.Context())
	if res == nil || res.Tenant == nil {
		writeError(w, http.StatusNotFound, "no tenant context")
		return
	}
	writeJSON(w, http.StatusOK, res.Tenant)
}
