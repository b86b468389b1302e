package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tokyoflo/platform/internal/adapter/otel"
	"github.com/tokyoflo/platform/internal/domain/access"
	"github.com/tokyoflo/platform/internal/domain/user"
	"github.com/tokyoflo/platform/internal/middleware"
)

// MountRoutes registers all API routes on the given chi router. The caller
// is expected to have installed the request-id, auth, and logging middleware
// on r already; host resolution applies only to the tenant-scoped group.
func MountRoutes(r chi.Router, h *Handlers, metrics *otel.Metrics) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Host-to-tenant mapping
		r.Get("/resolve", h.ResolveHost)

		// Identity
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.With(middleware.Gate(access.Requirement{}, metrics)).
			Get("/auth/me", h.Me)
		r.With(middleware.Gate(access.Requirement{}, metrics)).
			Post("/auth/logout", h.LogoutHandler)

		// Tenant lifecycle
		r.Get("/subdomains/availability", h.SubdomainAvailability)
		r.Get("/tenants/{subdomain}", h.GetTenant)
		r.With(middleware.RequireRoles(metrics, user.RoleAdmin)).
			Get("/tenants", h.ListTenants)
		r.With(middleware.RequireRoles(metrics, user.RoleAdmin)).
			Post("/tenants", h.CreateTenant)
		r.With(middleware.RequirePermissions(metrics, "manage_settings")).
			Patch("/tenants/{id}/settings", h.UpdateTenantSettings)
		r.With(middleware.RequirePermissions(metrics, "manage_users")).
			Get("/tenants/{id}/users", h.ListTenantUsers)

		// Tenant-scoped routes: the request Host decides the tenant.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Resolve(h.Resolver))

			r.Get("/tenant", h.CurrentTenant)

			// Visit tracking stays open; page views arrive before login.
			r.Post("/visits", h.StartVisit)
			r.Post("/visits/{id}/end", h.EndVisit)
			r.Post("/actions", h.RecordAction)
			r.With(middleware.RequirePermissions(metrics, "view_reports")).
				Get("/actions", h.ListActions)
		})
	})
}
