// Package access implements the pure admit/deny decision gate guarding
// protected resources. Evaluate performs no I/O and no navigation; callers
// translate denials into redirects or error responses.
package access

// Wildcard in a session's permission set satisfies any permission requirement.
const Wildcard = "*"

// Session is the minimal identity snapshot the gate evaluates. It is a value
// copy: mutating it after evaluation has no effect on the decision.
type Session struct {
	Authenticated bool
	Roles         []string
	Permissions   []string
}

// Requirement declares what a route needs. Roles use OR semantics (any one
// suffices), permissions use AND semantics (all required). Empty sets impose
// no constraint.
type Requirement struct {
	RequiredRoles       []string
	RequiredPermissions []string
}

// Verdict classifies a decision.
type Verdict int

const (
	Admit Verdict = iota
	DenyUnauthenticated
	DenyRole
	DenyPermission
)

// String returns the verdict name for logging.
func (v Verdict) String() string {
	switch v {
	case Admit:
		return "admit"
	case DenyUnauthenticated:
		return "deny_unauthenticated"
	case DenyRole:
		return "deny_role"
	case DenyPermission:
		return "deny_permission"
	default:
		return "unknown"
	}
}

// Decision is the outcome of evaluating a requirement against a session.
// On denial it carries the roles or permissions that were missing so the
// caller can log or redirect appropriately.
type Decision struct {
	Verdict            Verdict
	MissingRoles       []string
	MissingPermissions []string
}

// Admitted reports whether the decision admits the request.
func (d Decision) Admitted() bool { return d.Verdict == Admit }

// Evaluate runs the ordered checks: authenticated, then any-required-role,
// then all-required-permissions. It short-circuits on the first failure.
func Evaluate(s Session, req Requirement) Decision {
	if !s.Authenticated {
		return Decision{Verdict: DenyUnauthenticated}
	}

	if len(req.RequiredRoles) > 0 {
		held := make(map[string]bool, len(s.Roles))
		for _, r := range s.Roles {
			held[r] = true
		}
		any := false
		for _, r := range req.RequiredRoles {
			if held[r] {
				any = true
				break
			}
		}
		if !any {
			return Decision{
				Verdict:      DenyRole,
				MissingRoles: append([]string(nil), req.RequiredRoles...),
			}
		}
	}

	if len(req.RequiredPermissions) > 0 {
		held := make(map[string]bool, len(s.Permissions))
		for _, p := range s.Permissions {
			held[p] = true
		}
		if !held[Wildcard] {
			var missing []string
			for _, p := range req.RequiredPermissions {
				if !held[p] {
					missing = append(missing, p)
				}
			}
			if len(missing) > 0 {
				return Decision{Verdict: DenyPermission, MissingPermissions: missing}
			}
		}
	}

	return Decision{Verdict: Admit}
}
