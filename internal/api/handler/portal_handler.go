package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aymen-fh/bmo-care/internal/api/flash"
	"github.com/aymen-fh/bmo-care/internal/api/middleware"
	"github.com/aymen-fh/bmo-care/internal/core/domain"
	"github.com/aymen-fh/bmo-care/internal/core/service"
	"github.com/aymen-fh/bmo-care/internal/web"
)

// PortalHandler serves the home redirect and the role landing pages. The
// pages themselves are shells: the business views they link into live behind
// the /api proxy and are out of scope here.
type PortalHandler struct{}

func NewPortalHandler() *PortalHandler {
	return &PortalHandler{}
}

// Home sends each visitor where they belong: their role's landing page, or
// the login form for anonymous requests.
func (h *PortalHandler) Home(c echo.Context) error {
	if p := middleware.PrincipalFrom(c); p != nil {
		return c.Redirect(http.StatusFound, domain.LandingPath(p.Role))
	}
	return c.Redirect(http.StatusFound, "/auth/login")
}

func (h *PortalHandler) SuperAdmin(c echo.Context) error {
	return h.renderDashboard(c, "Super administrator")
}

func (h *PortalHandler) Admin(c echo.Context) error {
	return h.renderDashboard(c, "Center administrator")
}

func (h *PortalHandler) Specialist(c echo.Context) error {
	return h.renderDashboard(c, "Specialist")
}

// renderDashboard renders the landing shell. When the backend is degraded,
// XHR callers get a structured 503 instead of an HTML page they cannot parse;
// browser requests still render, with the degraded affordance shown.
func (h *PortalHandler) renderDashboard(c echo.Context, title string) error {
	down := middleware.BackendDown(c)
	if down && WantsJSON(c) {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"message": service.MsgUnavailable,
		})
	}

	return c.Render(http.StatusOK, "dashboard.html", web.Page{
		Title:       title,
		Principal:   middleware.PrincipalFrom(c),
		BackendDown: down,
		Flash:       flash.Pop(c),
	})
}
