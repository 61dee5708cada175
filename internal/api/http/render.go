package httpapi

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"index", "menu-add", "menu-edit", "menu-item"}

// Views holds one parsed template set per page, each sharing the layout.
type Views struct {
	pages map[string]*template.Template
}

func NewViews() (*Views, error) {
	funcs := template.FuncMap{
		"price": formatPrice,
	}

	v := &Views{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		v.pages[page] = tmpl
	}
	return v, nil
}

func formatPrice(p float64) string {
	if math.IsNaN(p) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", p)
}

// Render executes page into a buffer first so a template failure never
// leaves a half-written response.
func (v *Views) Render(w http.ResponseWriter, page string, data interface{}) error {
	tmpl, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
