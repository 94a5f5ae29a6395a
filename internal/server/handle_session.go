package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/messages"
)

// SessionResponse describes the caller's login state.
type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Redirect      string `json:"redirect,omitempty"`
}

// LoginRequest is the request body for POST /api/session/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the request body for POST /api/session/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// afterLogin is where the SPA goes once signed in.
const afterLogin = "/welcome"

func handleSessionGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CSRF-Token", csrf.Token(r))
		writeJSON(w, http.StatusOK, SessionResponse{Authenticated: sessionFrom(r).Authenticated()})
	}
}

func handleLogin(d *Deps, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}
		startSession(w, r, d, logger, req.Email, req.Password, messages.Get("auth.login_failed"))
	}
}

func handleRegister(d *Deps, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		req.Username = strings.TrimSpace(req.Username)
		if req.Email == "" || req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email, username and password are required")
			return
		}

		_, err := d.Backend.Register(r.Context(), backend.RegisterRequest{
			Email:    req.Email,
			Username: req.Username,
			Password: req.Password,
		})
		if err != nil {
			writeError(w, backendStatus(err), backend.Detail(err, messages.Get("auth.register_failed")))
			return
		}
		startSession(w, r, d, logger, req.Email, req.Password, messages.Get("auth.register_failed"))
	}
}

// startSession logs in against the backend and stores the token behind a
// fresh cookie.
func startSession(w http.ResponseWriter, r *http.Request, d *Deps, logger *slog.Logger, email, password, fallback string) {
	tok, err := d.Backend.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, backendStatus(err), backend.Detail(err, fallback))
		return
	}

	if old := sessionFrom(r).ID(); old != "" {
		d.Workspaces.Drop(old)
		_ = d.Sessions.Delete(r.Context(), old)
	}

	rec, err := d.Sessions.Create(r.Context(), tok.AccessToken)
	if err != nil {
		logger.Error("creating session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if who, ok := r.Context().Value(ctxKeySubject).(*requestSubject); ok {
		who.value = rec.Subject
	}
	setSessionCookie(w, rec.ID, rec.ExpiresAt, d.CookieSecure)
	writeJSON(w, http.StatusOK, SessionResponse{Authenticated: true, Redirect: afterLogin})
}

// handleLogout never calls the backend; the token is simply forgotten.
func handleLogout(d *Deps, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id := sessionFrom(r).ID(); id != "" {
			d.Workspaces.Drop(id)
			if err := d.Sessions.Delete(context.WithoutCancel(r.Context()), id); err != nil {
				logger.Error("deleting session", "error", err)
			}
		}
		clearSessionCookie(w, d.CookieSecure)
		writeJSON(w, http.StatusOK, SessionResponse{Redirect: "/login"})
	}
}

// backendStatus maps a backend failure onto the status the portal answers
// with: client errors pass through, everything else is a bad gateway.
func backendStatus(err error) int {
	if s := backend.StatusOf(err); s >= 400 && s < 500 {
		return s
	}
	return http.StatusBadGateway
}
