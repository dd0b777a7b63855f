package folio

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// page builds the view data shared by every HTML response.
func (a *App) page(c echo.Context, meta PageMeta) Page {
	s := a.LoadSettings(c)
	if meta.Title == "" {
		meta.Title = a.Config.Name
	} else if meta.Title != a.Config.Name {
		meta.Title += " | " + a.Config.Name
	}
	if meta.Description == "" {
		meta.Description = a.Config.Description
	}
	if meta.URL == "" {
		meta.URL = a.Config.URL + c.Request().URL.Path
	}
	if meta.OGType == "" {
		meta.OGType = "website"
	}
	meta.Image = AbsoluteURL(a.Config.URL, meta.Image)
	return Page{
		Site:     a.Config,
		Meta:     meta,
		Path:     c.Request().URL.Path,
		Settings: s,
		Mode:     a.resolvedMode(c, s),
		CSRF:     CsrfToken(c),
		Presets:  a.Presets,
	}
}
