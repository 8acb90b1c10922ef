package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/video-catalog/internal/auth"
)

// AuthHandler handles the login, register and logout forms.
//
// Failed logins and registrations re-render the landing page with the error
// message and an error status (401, 400 or 409). Successful ones start a
// session and redirect to /dashboard with 303 See Other, so a browser refresh
// does not resubmit the form.
type AuthHandler struct {
	accounts Accounts
	sessions *auth.SessionManager
	renderer *Renderer
	logger   *slog.Logger
}

func NewAuthHandler(
	accounts Accounts,
	sessions *auth.SessionManager,
	renderer *Renderer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		renderer: renderer,
		logger:   logger,
	}
}

// HandleLogin authenticates a username and password.
//
// HTTP: POST /login  (form: username, password)
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.Render(w, http.StatusBadRequest, PageIndex, PageData{Error: "Invalid form submission."})
		return
	}

	user, err := h.accounts.Login(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		h.renderer.Render(w, statusFor(err), PageIndex, PageData{Error: userMessage(err)})
		return
	}

	h.startSession(w, r, user.Username)
}

// HandleRegister creates an account and signs it in.
//
// HTTP: POST /register  (form: username, password)
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.Render(w, http.StatusBadRequest, PageIndex, PageData{Error: "Invalid form submission."})
		return
	}

	user, err := h.accounts.Register(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		h.renderer.Render(w, statusFor(err), PageIndex, PageData{Error: userMessage(err)})
		return
	}

	h.startSession(w, r, user.Username)
}

// HandleLogout clears the session cookie and returns to the landing page.
// It always succeeds from the browser's point of view.
//
// HTTP: GET /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(w, r); err != nil {
		h.logger.Warn("session cookie cleared but not revoked", slog.String("error", err.Error()))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, username string) {
	if _, err := h.sessions.Start(w, username); err != nil {
		h.logger.Error("failed to start session",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
