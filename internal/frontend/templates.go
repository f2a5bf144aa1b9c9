// Package frontend serves the local web front end: the login form, the
// team dashboard and sign-out.
package frontend

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// NewTemplates loads the teamdash templates.
func NewTemplates() (*template.Template, error) {
	t, err := template.New("teamdash-templates").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("internal/frontend: error parsing templates: %w", err)
	}
	return t, nil
}
