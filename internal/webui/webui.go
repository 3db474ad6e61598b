package webui

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Template names registered by Load.
const (
	IndexTemplate         = "index.html"
	NotFoundTemplate      = "404.html"
	InternalErrorTemplate = "500.html"
)

// Load parses the embedded HTML templates.
func Load() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.html")
}
