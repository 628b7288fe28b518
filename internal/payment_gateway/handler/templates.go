package handler

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names rendered by the return handler
const (
	templateIframeRedirect = "iframe_redirect.html"
	templateIframeStatus   = "iframe_status.html"
	templateIframeError    = "iframe_error.html"
)

// Templates parses the pages rendered inside the hosted payment iframe
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}
