package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tokyoflo/platform/internal/domain"
	"github.com/tokyoflo/platform/internal/service"
)

type resolutionCtxKey struct{}

// Resolve is middleware that maps the request's Host header to a tenant
// context and stores the resolution in the request context. Requests for
// unknown tenant subdomains get a 404.
func Resolve(resolver *service.ResolverService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := resolver.ResolveFromHost(r.Context(), r.Host)
			if err != nil {
				if errors.Is(err, domain.ErrTenantNotFound) {
					http.Error(w, `{"error":"tenant not found"}`, http.StatusNotFound)
					return
				}
				slog.Error("host resolution failed", "host", r.Host, "error", err)
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), resolutionCtxKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ResolutionFromContext returns the tenant resolution stored by Resolve, or
// nil when the request did not pass through it.
func ResolutionFromContext(ctx context.Context) *service.Resolution {
	res, _ := ctx.Value(resolutionCtxKey{}).(*service.Resolution)
	return res
}
