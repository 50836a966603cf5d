package domain

// Portal roles. The backend also issues "parent" accounts, but those belong to
// the mobile client and are rejected at this boundary.
const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleSpecialist = "specialist"
)

// RoleAllowed reports whether a backend role may sign in to this portal.
func RoleAllowed(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleSpecialist:
		return true
	}
	return false
}

// LandingPath is the single source of truth for "where does this role belong".
// It is total: every unrecognised or absent role lands on the login page.
func LandingPath(role string) string {
	switch role {
	case RoleSuperAdmin:
		return "/superadmin"
	case RoleAdmin:
		return "/admin"
	case RoleSpecialist:
		return "/specialist"
	default:
		return "/auth/login"
	}
}

// Principal models the authenticated identity carried in the browser session.
// The bearer token issued by the backend at login travels with it; the portal
// treats the token as opaque and never expires or role-checks it locally.
type Principal struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Center string `json:"center,omitempty"`
	Token  string `json:"token"`
}

// CanRefresh reports whether the principal can be re-validated against the
// backend. A principal without a token must be treated as logged out; this is
// a correctness invariant of re-hydration, not a defensive nil-check.
func (p *Principal) CanRefresh() bool {
	return p != nil && p.Token != ""
}
