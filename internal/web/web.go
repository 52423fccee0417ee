// Package web renders the single map page.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/index.html
var templateFS embed.FS

// PageData is what the page template needs from configuration
type PageData struct {
	TileURL         string
	TileAttribution string
}

// Renderer renders the map page with fixed configuration
type Renderer struct {
	tmpl *template.Template
	data PageData
}

// NewRenderer parses the embedded page template
func NewRenderer(data PageData) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	return &Renderer{tmpl: tmpl, data: data}, nil
}

// Render writes the page
func (r *Renderer) Render(w io.Writer) error {
	return r.tmpl.Execute(w, r.data)
}
