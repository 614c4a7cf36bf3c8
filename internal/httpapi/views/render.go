// Package views renders the two static dashboard shell pages from
// embedded templates.
package views

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var viewsFS embed.FS

var pages = template.Must(template.ParseFS(viewsFS, "templates/*.html"))

func RenderHome(w io.Writer) error {
	return pages.ExecuteTemplate(w, "home.html", nil)
}

func RenderDashboard(w io.Writer) error {
	return pages.ExecuteTemplate(w, "dashboard.html", nil)
}
