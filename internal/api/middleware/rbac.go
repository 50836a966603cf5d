package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aymen-fh/bmo-care/internal/api/flash"
	"github.com/aymen-fh/bmo-care/internal/core/domain"
)

const (
	msgAuthRequired = "Please sign in first."
	msgNoPermission = "You do not have permission to access this page."
)

// EnsureAuthenticated passes authenticated requests through; anyone else is
// sent to the login page with a notice.
func EnsureAuthenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if PrincipalFrom(c) == nil {
			flash.Error(c, msgAuthRequired)
			return c.Redirect(http.StatusFound, "/auth/login")
		}
		return next(c)
	}
}

// EnsureGuest keeps already-signed-in users off guest pages (the login form)
// by bouncing them to their role's landing page.
func EnsureGuest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if p := PrincipalFrom(c); p != nil {
			return redirectByRole(c, p)
		}
		return next(c)
	}
}

// EnsureRole requires an authenticated principal whose role is in the allowed
// set. Unauthenticated requests go to the login page; authenticated but
// disallowed ones go to their own landing page — "forbidden" is never an
// error page here, always a redirect.
func EnsureRole(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if p == nil {
				flash.Error(c, msgAuthRequired)
				return c.Redirect(http.StatusFound, "/auth/login")
			}
			if _, ok := allowed[p.Role]; !ok {
				flash.Error(c, msgNoPermission)
				return redirectByRole(c, p)
			}
			return next(c)
		}
	}
}

// Role sets are inclusive of higher-privilege roles: an admin can reach
// specialist-only views.
var (
	EnsureSuperAdmin = EnsureRole(domain.RoleSuperAdmin)
	EnsureAdmin      = EnsureRole(domain.RoleAdmin, domain.RoleSuperAdmin)
	EnsureSpecialist = EnsureRole(domain.RoleSpecialist, domain.RoleAdmin, domain.RoleSuperAdmin)
)

func redirectByRole(c echo.Context, p *domain.Principal) error {
	role := ""
	if p != nil {
		role = p.Role
	}
	return c.Redirect(http.StatusFound, domain.LandingPath(role))
}
