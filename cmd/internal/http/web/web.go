package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Renderer renders the embedded pages. Every page is parsed together with
// the shared layout and executed through it.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, file := range files {
		if file == layoutFile {
			continue
		}

		name := strings.TrimSuffix(path.Base(file), ".html")
		t, err := template.New(name).Funcs(funcMap).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parsing page %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("page %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

var funcMap = template.FuncMap{
	"lower": strings.ToLower,
	"pct": func(v float64) string {
		return fmt.Sprintf("%.1f%%", v)
	},
	"date": func(rfc string) string {
		// RFC3339 values rendered as their date part
		if len(rfc) >= 10 {
			return rfc[:10]
		}
		return rfc
	},
	"join": strings.Join,
}
