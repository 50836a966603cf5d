package handler

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// WantsJSON reports whether the request is an XHR/API call that should get a
// JSON payload rather than a rendered page or a redirect.
func WantsJSON(c echo.Context) bool {
	if strings.EqualFold(c.Request().Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	accept := c.Request().Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
