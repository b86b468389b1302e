package http

import (
	"github.com/tokyoflo/platform/internal/service"
)

// Handlers aggregates the services the HTTP layer exposes.
type Handlers struct {
	Resolver *service.ResolverService
	Auth     *service.AuthService
	Actions  *service.ActionService
}

// NewHandlers creates a Handlers with all dependencies.
func NewHandlers(resolver *service.ResolverService, auth *service.AuthService, actions *service.ActionService) *Handlers {
	return &Handlers{
		Resolver: resolver,
		Auth:     auth,
		Actions:  actions,
	}
}
