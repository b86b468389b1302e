package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tokyoflo/platform/internal/adapter/otel"
	"github.com/tokyoflo/platform/internal/domain/access"
)

// Gate returns middleware that evaluates the route's declared requirement
// against the request's session through the access gate. Denials map to
// 401 (unauthenticated) or 403 (role/permission) with the missing context in
// the body so callers can redirect appropriately.
func Gate(req access.Requirement, metrics *otel.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			d := access.Evaluate(sess.GateSession(), req)

			metrics.CountGateDecision(r.Context(), d.Verdict.String())

			switch d.Verdict {
			case access.Admit:
				next.ServeHTTP(w, r)
			case access.DenyUnauthenticated:
				writeDenial(w, http.StatusUnauthorized, d)
			default:
				slog.Debug("access denied",
					"verdict", d.Verdict.String(),
					"path", r.URL.Path,
					"missing_roles", d.MissingRoles,
					"missing_permissions", d.MissingPermissions,
				)
				writeDenial(w, http.StatusForbidden, d)
			}
		})
	}
}

// RequireRoles gates a route on holding any one of the given roles.
func RequireRoles(metrics *otel.Metrics, roles ...string) func(http.Handler) http.Handler {
	return Gate(access.Requirement{RequiredRoles: roles}, metrics)
}

// RequirePermissions gates a route on holding all of the given permissions.
func RequirePermissions(metrics *otel.Metrics, perms ...string) func(http.Handler) http.Handler {
	return Gate(access.Requirement{RequiredPermissions: perms}, metrics)
}

type denialResponse struct {
	Error              string   `json:"error"`
	MissingRoles       []string `json:"missing_roles,omitempty"`
	MissingPermissions []string `json:"missing_permissions,omitempty"`
}

func writeDenial(w http.ResponseWriter, status int, d access.Decision) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(denialResponse{
		Error:              d.Verdict.String(),
		MissingRoles:       d.MissingRoles,
		MissingPermissions: d.MissingPermissions,
	})
}
