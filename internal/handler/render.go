// Package handler contains the HTTP handlers of the catalog.
//
// Handlers are the glue between HTTP and the services: they parse forms, call
// a service, and either render a page or redirect. They hold no business rules
// and never talk to the database directly.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/sakif/video-catalog/internal/model"
)

// Page names, each backed by templates/<name>.html.
const (
	PageIndex      = "index"
	PageDashboard  = "dashboard"
	PageAdminUsers = "admin_users"
)

// PageData is the single view model passed to every template. Pages read the
// fields they need; base.html reads Username and IsAdmin for the top bar.
type PageData struct {
	Username string
	IsAdmin  bool
	Error    string
	Videos   []model.Video
	Users    []model.User
}

// Renderer holds the parsed page templates.
//
// TEMPLATE COMPOSITION:
// Every page is parsed together with base.html. base.html defines the "base"
// layout with a {{template "content" .}} placeholder, and each page defines
// "content" (and optionally "title"). Pages are parsed into separate template
// sets because they all define the same block names.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses templates/base.html plus each page from fsys. Parsing
// happens once at startup; a broken template fails here, not on a request.
func NewRenderer(fsys fs.FS, logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template), logger: logger}
	for _, page := range []string{PageIndex, PageDashboard, PageAdminUsers} {
		tmpl, err := template.ParseFS(fsys, "templates/base.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("handler: parsing %s template: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// Render executes a page with the given status code.
//
// The page is rendered into a buffer first, so a template error becomes a
// clean 500 instead of half a page followed by an error message.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data PageData) {
	tmpl, ok := r.pages[page]
	if !ok {
		r.logger.Error("unknown page", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		r.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Debug("writing response body", slog.String("error", err.Error()))
	}
}
