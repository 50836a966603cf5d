// Package web renders the portal's server-side views from embedded templates.
package web

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/aymen-fh/bmo-care/internal/api/flash"
	"github.com/aymen-fh/bmo-care/internal/core/domain"
)

//go:embed templates/*.html
var files embed.FS

// Page is the view model shared by all templates.
type Page struct {
	Title       string
	Principal   *domain.Principal
	BackendDown bool
	Flash       flash.Messages

	// Token carries the verified reset code into the reset-password form.
	Token string

	// Status and Message feed the error template.
	Status  int
	Message string
}

// Renderer implements echo.Renderer over the embedded template set.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates; a malformed template is a
// programming error and panics at startup.
func NewRenderer() *Renderer {
	return &Renderer{tmpl: template.Must(template.ParseFS(files, "templates/*.html"))}
}

// Render satisfies echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}
