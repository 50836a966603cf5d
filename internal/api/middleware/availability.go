package middleware

import (
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aymen-fh/bmo-care/internal/api/metrics"
	"github.com/aymen-fh/bmo-care/internal/core/service"
)

const backendDownContextKey = "backend_down"

// Availability annotates each eligible request with the monitor's degraded
// flag. It never blocks or fails the request: the flag is only consumed by
// handlers and views to render a "service unavailable" affordance. Health,
// metrics, and static-asset paths are exempt and always non-degraded.
func Availability(monitor *service.Monitor) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if exemptPath(c.Request().URL.Path) {
				return next(c)
			}

			degraded := monitor.Check(c.Request().Context())
			if degraded {
				metrics.DegradedRequestsTotal.Inc()
			}
			c.Set(backendDownContextKey, degraded)
			return next(c)
		}
	}
}

// BackendDown reports whether the availability middleware marked this request
// degraded.
func BackendDown(c echo.Context) bool {
	down, _ := c.Get(backendDownContextKey).(bool)
	return down
}

// exemptPath lists what the availability gate and session hydration skip:
// the portal's own probes and metrics, static assets, and the /api proxy
// (proxied calls carry the browser's bearer semantics end to end and report
// their own failures).
func exemptPath(p string) bool {
	if p == "/health" || strings.HasPrefix(p, "/health/") || p == "/metrics" || strings.HasPrefix(p, "/api/") {
		return true
	}
	switch path.Ext(p) {
	case ".css", ".js", ".png", ".jpg", ".jpeg", ".gif", ".ico", ".woff", ".woff2":
		return true
	}
	return false
}
