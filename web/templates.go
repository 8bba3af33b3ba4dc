// ABOUTME: Template loading, rendering, and FuncMap for the run browser pages.
// ABOUTME: Each page template is parsed against the base layout once at construction.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/2389-research/spoor/render"
)

// TemplateRenderer renders the browser's HTML pages. Every page is parsed
// together with base.html at construction so pages can override the
// layout's blocks without colliding with each other.
type TemplateRenderer struct {
	pages map[string]*template.Template
}

// NewTemplateRenderer parses all page templates from the embedded FS.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	funcMap := template.FuncMap{
		"markdown":  markdownToHTML,
		"startTime": render.FormatStartTime,
	}
	pages := make(map[string]*template.Template)
	for _, name := range []string{"runs.html", "run.html"} {
		tmpl, err := template.New("base.html").
			Funcs(funcMap).
			ParseFS(ContentFS, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &TemplateRenderer{pages: pages}, nil
}

// Render executes a page template inside the base layout.
func (r *TemplateRenderer) Render(w http.ResponseWriter, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page template %q", page)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.ExecuteTemplate(w, "base.html", data)
}

// markdownToHTML converts a markdown string to HTML using goldmark.
// Raw HTML in the input is not passed through, which keeps stored block
// output from injecting markup into the report page.
func markdownToHTML(input string) template.HTML {
	var buf bytes.Buffer
	md := goldmark.New()
	if err := md.Convert([]byte(input), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(input))
	}
	return template.HTML(buf.String())
}
