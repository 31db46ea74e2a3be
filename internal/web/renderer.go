package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/savelydental/Savely/internal/domain/entities"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const layoutFile = "templates/layout.html"

// Page names accepted by Renderer.Render
const (
	PageLanding  = "landing"
	PageSearch   = "search"
	PageCompare  = "compare"
	PageClinic   = "clinic"
	PageAuth     = "auth"
	PageCallback = "callback"
	PageProfile  = "profile"
	PageNotFound = "notfound"
	PageError    = "error"
)

// Page is the data every template receives. Data holds the page specific
// view model.
type Page struct {
	Title string
	User  *entities.User
	Flash *entities.Flash
	Data  any
}

// Renderer executes the embedded page templates inside the shared layout
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page template together with the layout
func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		tmpl, err := template.New("layout.html").Funcs(Funcs()).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render writes page to w. The output is buffered so a failing template
// never leaves a half written response.
func (r *Renderer) Render(w io.Writer, page string, data Page) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler serves the embedded stylesheet under /static/
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// Funcs returns the template helpers
func Funcs() template.FuncMap {
	return template.FuncMap{
		"euro":   Euro,
		"rating": Rating,
		"join":   Join,
		"number": entities.FormatNumber,
		"add":    func(a, b int) int { return a + b },
	}
}

// Euro formats an amount in euros without trailing zeros, e.g. "1200€" or
// "1250.5€". Nil pointers render as an empty string.
func Euro(v any) string {
	switch n := v.(type) {
	case float64:
		return entities.FormatNumber(n) + "€"
	case *float64:
		if n == nil {
			return ""
		}
		return entities.FormatNumber(*n) + "€"
	case int:
		return strconv.Itoa(n) + "€"
	default:
		return fmt.Sprint(v) + "€"
	}
}

// Rating formats a rating with one decimal
func Rating(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Join joins items with a comma
func Join(items []string) string {
	return strings.Join(items, ", ")
}
