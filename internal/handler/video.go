package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/video-catalog/internal/apperror"
)

// VideoHandler handles the admin's add and delete forms. Both routes are
// mounted behind auth.RequireAdmin.
type VideoHandler struct {
	catalog Catalog
	logger  *slog.Logger
}

func NewVideoHandler(catalog Catalog, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{catalog: catalog, logger: logger}
}

// HandleAdd stores a new video and returns to the dashboard.
//
// A missing title or URL is not reported to the user: the browser is simply
// sent back to the dashboard and nothing is stored.
//
// HTTP: POST /add_video  (form: title, description, url)
func (h *VideoHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	_, err := h.catalog.Add(r.Context(),
		r.PostForm.Get("title"),
		r.PostForm.Get("description"),
		r.PostForm.Get("url"),
	)
	if err != nil && !errors.Is(err, apperror.ErrValidation) {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleDelete removes one video.
//
// HTTP: POST /delete_video/{id}
//
//	303 → /dashboard   deleted
//	404                id is not a non-negative integer, or no such video
//	500                storage failure; the catalog is unchanged
func (h *VideoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	// ParseUint rejects signs, so "+3" and "-3" are 404 like any other junk.
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 63)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.catalog.Delete(r.Context(), int64(id)); err != nil {
		if statusFor(err) == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		http.Error(w, deletionFailedMessage, http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
