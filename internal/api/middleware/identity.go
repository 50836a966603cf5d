package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/aymen-fh/bmo-care/internal/api/session"
	"github.com/aymen-fh/bmo-care/internal/core/domain"
)

const principalContextKey = "principal"

// Identity re-hydrates the session principal once per request and injects it
// into the echo context for the guards and handlers downstream. Requests
// without a usable session pass through anonymous; the middleware never fails
// the request.
func Identity(codec *session.Codec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if exemptPath(c.Request().URL.Path) {
				return next(c)
			}
			if p := codec.Deserialize(c); p != nil {
				c.Set(principalContextKey, p)
			}
			return next(c)
		}
	}
}

// PrincipalFrom returns the hydrated principal, nil for anonymous requests.
func PrincipalFrom(c echo.Context) *domain.Principal {
	p, _ := c.Get(principalContextKey).(*domain.Principal)
	return p
}
