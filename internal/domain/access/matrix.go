package access

// Matrix maps role names to the permissions they grant. Session permissions
// are derived from roles through a matrix at login time, never stored per user.
type Matrix map[string][]string

// DefaultMatrix is the built-in role/permission mapping. Admin holds the
// wildcard; everything else is enumerated.
func DefaultMatrix() Matrix {
	return Matrix{
		"admin": {Wildcard},
		"manager": {
			"manage_users",
			"manage_settings",
			"view_reports",
			"view_dashboard",
		},
		"member": {
			"view_dashboard",
		},
	}
}

// PermissionsFor returns the deduplicated union of permissions granted by the
// given roles. If any role grants the wildcard, the result is just the
// wildcard. Unknown roles grant nothing.
func (m Matrix) PermissionsFor(roles []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, role := range roles {
		for _, p := range m[role] {
			if p == Wildcard {
				return []string{Wildcard}
			}
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}
