package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/video-catalog/internal/auth"
)

// PageHandler serves the read-only pages: landing, dashboard and user roster.
type PageHandler struct {
	renderer *Renderer
	catalog  Catalog
	accounts Accounts
	logger   *slog.Logger
}

func NewPageHandler(renderer *Renderer, catalog Catalog, accounts Accounts, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		renderer: renderer,
		catalog:  catalog,
		accounts: accounts,
		logger:   logger,
	}
}

// HandleLanding shows the login and register forms, or sends a signed-in
// visitor straight to the dashboard.
//
// HTTP: GET /
func (h *PageHandler) HandleLanding(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.IdentityFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.renderer.Render(w, http.StatusOK, PageIndex, PageData{})
}

// HandleDashboard lists the catalog. Admins also get the add form, delete
// buttons and the roster link; the template keys all of those off IsAdmin.
//
// HTTP: GET /dashboard (behind auth.RequireSession)
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	videos, err := h.catalog.List(r.Context())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, http.StatusOK, PageDashboard, PageData{
		Username: id.Username,
		IsAdmin:  id.Admin,
		Videos:   videos,
	})
}

// HandleAdminUsers lists every registered username.
//
// HTTP: GET /admin_users (behind auth.RequireAdmin)
func (h *PageHandler) HandleAdminUsers(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, http.StatusOK, PageAdminUsers, PageData{
		Username: id.Username,
		IsAdmin:  id.Admin,
		Users:    users,
	})
}
