package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/tokyoflo/platform/internal/adapter/otel"
	"github.com/tokyoflo/platform/internal/config"
	"github.com/tokyoflo/platform/internal/domain"
	"github.com/tokyoflo/platform/internal/domain/tenant"
	"github.com/tokyoflo/platform/internal/domain/uild"
	"github.com/tokyoflo/platform/internal/port/cache"
	"github.com/tokyoflo/platform/internal/port/database"
	"github.com/tokyoflo/platform/internal/port/messagequeue"
)

// ResolutionType classifies what a host name maps to.
type ResolutionType int

const (
	ResolutionGlobalAdmin ResolutionType = iota
	ResolutionAuthDomain
	ResolutionTenant
)

// String returns the resolution type name for logging.
func (t ResolutionType) String() string {
	switch t {
	case ResolutionGlobalAdmin:
		return "global_admin"
	case ResolutionAuthDomain:
		return "auth_domain"
	case ResolutionTenant:
		return "tenant"
	default:
		return "unknown"
	}
}

// Resolution is the outcome of mapping a host name. Tenant is set only for
// ResolutionTenant.
type Resolution struct {
	Type   ResolutionType
	Tenant *tenant.Tenant
}

// CandidateVerdict is the structured result of subdomain validation, shaped
// for interactive use (live validation as the user types).
type CandidateVerdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

const (
	subdomainMinLen = 3
	subdomainMaxLen = 63
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// baseReservedSubdomains can never be claimed as tenant subdomains. The
// configured global-admin and auth labels are added at construction.
var baseReservedSubdomains = []string{"www", "api", "admin", "login", "signup"}

// ResolverService maps host names to tenant contexts and owns the tenant
// record lifecycle.
type ResolverService struct {
	store    database.Store
	cache    cache.Cache
	queue    messagequeue.Queue
	cfg      config.Domain
	ttl      time.Duration
	metrics  *otel.Metrics
	reserved map[string]bool
}

// NewResolverService creates a new ResolverService. Cache and queue may be
// nil; lookups then always hit the store and no creation events are published.
func NewResolverService(store database.Store, c cache.Cache, q messagequeue.Queue, cfg config.Domain, ttl time.Duration, metrics *otel.Metrics) *ResolverService {
	reserved := make(map[string]bool, len(baseReservedSubdomains)+2)
	for _, r := range baseReservedSubdomains {
		reserved[r] = true
	}
	reserved[cfg.GlobalAdminLabel] = true
	reserved[cfg.AuthLabel] = true

	return &ResolverService{
		store:    store,
		cache:    c,
		queue:    q,
		cfg:      cfg,
		ttl:      ttl,
		metrics:  metrics,
		reserved: reserved,
	}
}

// ResolveFromHost maps an inbound host name to a tenant context. Loopback
// hosts resolve through the configured dev fallback; otherwise the leading
// label decides: global-admin label, auth label, or a tenant subdomain
// looked up in the store. Unknown subdomains fail with domain.ErrTenantNotFound.
func (s *ResolverService) ResolveFromHost(ctx context.Context, hostname string) (*Resolution, error) {
	label, ok := s.leadingLabel(hostname)
	if !ok {
		switch s.cfg.DevFallback {
		case "auth":
			s.metrics.CountResolution(ctx, "auth_domain")
			return &Resolution{Type: ResolutionAuthDomain}, nil
		case "tenant":
			label = s.cfg.DevTenantSubdomain
		default:
			s.metrics.CountResolution(ctx, "global_admin")
			return &Resolution{Type: ResolutionGlobalAdmin}, nil
		}
	}

	switch label {
	case s.cfg.GlobalAdminLabel:
		s.metrics.CountResolution(ctx, "global_admin")
		return &Resolution{Type: ResolutionGlobalAdmin}, nil
	case s.cfg.AuthLabel:
		s.metrics.CountResolution(ctx, "auth_domain")
		return &Resolution{Type: ResolutionAuthDomain}, nil
	}

	t, err := s.tenantBySubdomain(ctx, label)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.CountResolution(ctx, "not_found")
			return nil, fmt.Errorf("resolve %q: %w", label, domain.ErrTenantNotFound)
		}
		return nil, fmt.Errorf("resolve %q: %w", label, err)
	}

	s.metrics.CountResolution(ctx, "tenant")
	return &Resolution{Type: ResolutionTenant, Tenant: t}, nil
}

// ValidateSubdomainCandidate checks a candidate against length bounds, the
// character pattern, the reserved set, and finally uniqueness (a store
// round-trip). It returns a structured reason instead of an error for the
// interactive cases; err is non-nil only when the uniqueness check itself fails.
func (s *ResolverService) ValidateSubdomainCandidate(ctx context.Context, candidate string) (CandidateVerdict, error) {
	if v := s.validateShape(candidate); !v.Valid {
		return v, nil
	}

	exists, err := s.store.SubdomainExists(ctx, candidate)
	if err != nil {
		return CandidateVerdict{}, fmt.Errorf("subdomain availability %q: %w", candidate, err)
	}
	if exists {
		return CandidateVerdict{Valid: false, Reason: "subdomain is already taken"}, nil
	}
	return CandidateVerdict{Valid: true}, nil
}

// validateShape runs the local (no store) checks.
func (s *ResolverService) validateShape(candidate string) CandidateVerdict {
	switch {
	case len(candidate) < subdomainMinLen:
		return CandidateVerdict{Valid: false, Reason: "subdomain too short"}
	case len(candidate) > subdomainMaxLen:
		return CandidateVerdict{Valid: false, Reason: "subdomain too long"}
	case !subdomainPattern.MatchString(candidate):
		return CandidateVerdict{Valid: false, Reason: "subdomain can only contain lowercase letters, numbers, and hyphens"}
	case s.reserved[candidate]:
		return CandidateVerdict{Valid: false, Reason: "subdomain is reserved"}
	}
	return CandidateVerdict{Valid: true}
}

// CreateTenant validates the candidate, mints a tenant identifier and stores
// a record with default settings. Fails with domain.ErrSubdomainInvalid or
// domain.ErrSubdomainTaken.
func (s *ResolverService) CreateTenant(ctx context.Context, name, subdomain string) (*tenant.Tenant, error) {
	if name == "" {
		return nil, fmt.Errorf("tenant name is required: %w", domain.ErrSubdomainInvalid)
	}
	if v := s.validateShape(subdomain); !v.Valid {
		return nil, fmt.Errorf("%s: %w", v.Reason, domain.ErrSubdomainInvalid)
	}
	exists, err := s.store.SubdomainExists(ctx, subdomain)
	if err != nil {
		return nil, fmt.Errorf("subdomain availability %q: %w", subdomain, err)
	}
	if exists {
		return nil, fmt.Errorf("%q: %w", subdomain, domain.ErrSubdomainTaken)
	}

	now := time.Now().UTC()
	t := &tenant.Tenant{
		ID:        string(uild.MustGenerate(uild.KindTenant)),
		Name:      name,
		Subdomain: subdomain,
		Status:    tenant.StatusActive,
		Settings:  tenant.DefaultSettings(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateTenant(ctx, t); err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	s.publishCreated(ctx, t)
	slog.Info("tenant created", "tenant_id", t.ID, "subdomain", t.Subdomain)
	return t, nil
}

// UpdateSettings merges the patch into the tenant's settings and bumps
// UpdatedAt. Fails with domain.ErrInvalidTenantID unless tenantID is a valid
// tenant-kind identifier.
func (s *ResolverService) UpdateSettings(ctx context.Context, tenantID string, patch tenant.SettingsPatch) (*tenant.Tenant, error) {
	if !uild.IsKind(tenantID, uild.KindTenant) {
		return nil, fmt.Errorf("%q: %w", tenantID, domain.ErrInvalidTenantID)
	}

	t, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("get tenant %s: %w", tenantID, err)
	}

	patch.Apply(&t.Settings)
	t.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateTenant(ctx, t); err != nil {
		return nil, fmt.Errorf("update tenant %s: %w", tenantID, err)
	}

	s.invalidate(ctx, t.Subdomain)
	return t, nil
}

// TenantBySubdomain returns the tenant owning a subdomain, going through the
// cache. Unknown subdomains fail with domain.ErrTenantNotFound.
func (s *ResolverService) TenantBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	t, err := s.tenantBySubdomain(ctx, strings.ToLower(subdomain))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListTenants returns every tenant record. Serves the global-admin directory;
// callers gate access before reaching here.
func (s *ResolverService) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, nil
}

// tenantBySubdomain looks up a tenant record, going through the L1 cache.
func (s *ResolverService) tenantBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	key := cacheKey(subdomain)

	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var t tenant.Tenant
			if err := json.Unmarshal(data, &t); err == nil {
				return &t, nil
			}
			// Corrupt entry: drop it and fall through to the store.
			_ = s.cache.Delete(ctx, key)
		}
	}

	t, err := s.store.GetTenantBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(t); err == nil {
			_ = s.cache.Set(ctx, key, data, s.ttl)
		}
	}
	return t, nil
}

// leadingLabel extracts the first DNS label of hostname. ok is false for
// loopback and bare hosts, which have no subdomain to extract.
func (s *ResolverService) leadingLabel(hostname string) (string, bool) {
	host := strings.ToLower(hostname)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")

	if host == "localhost" || host == s.cfg.BaseDomain {
		return "", false
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return "", false
	}

	label, rest, found := strings.Cut(host, ".")
	if !found || rest == "" {
		return "", false
	}
	return label, true
}

func (s *ResolverService) publishCreated(ctx context.Context, t *tenant.Tenant) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := s.queue.Publish(ctx, messagequeue.SubjectTenantCreated, data); err != nil {
		slog.Warn("failed to publish tenant created event", "tenant_id", t.ID, "error", err)
	}
}

func (s *ResolverService) invalidate(ctx context.Context, subdomain string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, cacheKey(subdomain))
	}
}

func cacheKey(subdomain string) string { return "tenant:subdomain:" + subdomain }
