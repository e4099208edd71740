package rendering

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/jonathan/jobplus/internal/geo"
	"github.com/jonathan/jobplus/internal/session"
	"github.com/jonathan/jobplus/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names.
const (
	TemplateLayout   = "layout"
	TemplateContent  = "content"
	TemplateItemList = "item-list"
	TemplateItem     = "item"
)

// Renderer renders the page and its fragments.
type Renderer struct {
	t *template.Template
}

// NewRenderer parses the embedded templates. locationAge is the oldest browser
// position fix the page may reuse; zero means geo.DefaultMaxAge.
func NewRenderer(locationAge time.Duration) (*Renderer, error) {
	if locationAge <= 0 {
		locationAge = geo.DefaultMaxAge
	}
	t, err := template.New("root").Funcs(templateFuncs(locationAge)).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, &TemplateError{Message: "failed to parse templates", Cause: err}
	}
	return &Renderer{t: t}, nil
}

// Execute writes the named template to w.
func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	if err := r.t.ExecuteTemplate(w, name, data); err != nil {
		return &TemplateError{Message: "failed to execute " + name, Cause: err}
	}
	return nil
}

// RenderFull renders the whole page.
func (r *Renderer) RenderFull(w http.ResponseWriter, state *session.State) error {
	return r.render(w, TemplateLayout, state)
}

// RenderPartial renders only the contents of the main element, for htmx swaps.
func (r *Renderer) RenderPartial(w http.ResponseWriter, state *session.State) error {
	return r.render(w, TemplateContent, state)
}

// RenderItem renders a single item block, used after a favorite toggle.
func (r *Renderer) RenderItem(w http.ResponseWriter, item types.JobItem) error {
	return r.render(w, TemplateItem, item)
}

func (r *Renderer) render(w http.ResponseWriter, name string, data any) error {
	var buf bytes.Buffer
	if err := r.Execute(&buf, name, data); err != nil {
		log.Printf("[rendering] %v", err)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		return &RenderError{Message: "failed to write " + name, Cause: err}
	}
	return nil
}
