package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/messages"
	"github.com/hacknet/portal/internal/session"
)

type ctxKey int

const (
	ctxKeySession ctxKey = iota
	ctxKeyAPI
	ctxKeySubject
)

// requestSubject carries the token subject back up to the request logger.
type requestSubject struct{ value string }

// sessionMiddleware resolves the session cookie and binds a backend client
// to it. Requests without a valid cookie continue anonymously.
func sessionMiddleware(d *Deps, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var rec session.Record
			if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
				got, err := d.Sessions.Get(r.Context(), c.Value)
				switch {
				case err == nil:
					rec = got
				case errors.Is(err, session.ErrNotFound):
					if err != session.ErrNotFound {
						logger.Warn("dropped unreadable session", "error", err)
					}
					clearSessionCookie(w, d.CookieSecure)
				default:
					logger.Error("loading session", "error", err)
					writeError(w, http.StatusServiceUnavailable, "session store unavailable")
					return
				}
			}

			if who, ok := r.Context().Value(ctxKeySubject).(*requestSubject); ok {
				who.value = rec.Subject
			}

			sess := session.New(rec)
			api := d.Backend.WithSession(sess, sess.UnauthorizedHook(d.Sessions, logger))
			ctx := context.WithValue(r.Context(), ctxKeySession, sess)
			ctx = context.WithValue(ctx, ctxKeyAPI, api)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireSession turns away anonymous requests with a login redirect.
func requireSession(d *Deps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessionFrom(r).Authenticated() {
				unauthorized(w, r, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// csrfMiddleware guards state-changing API calls. It is a no-op without a
// key.
func csrfMiddleware(d *Deps, logger *slog.Logger) func(http.Handler) http.Handler {
	if len(d.CSRFKey) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	protect := csrf.Protect(d.CSRFKey,
		csrf.Secure(d.CookieSecure),
		csrf.Path("/"),
		csrf.CookieName("hacknet_csrf"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("csrf check failed", "reason", csrf.FailureReason(r), "path", r.URL.Path)
			writeError(w, http.StatusForbidden, "invalid csrf token")
		})),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		if d.CookieSecure {
			return h
		}
		// Without TLS the origin check must not insist on https referers.
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

func sessionFrom(r *http.Request) *session.Session {
	if s, ok := r.Context().Value(ctxKeySession).(*session.Session); ok {
		return s
	}
	return session.New(session.Record{})
}

func apiFrom(r *http.Request) *backend.Client {
	return r.Context().Value(ctxKeyAPI).(*backend.Client)
}

func workspaceFrom(r *http.Request, d *Deps) *Workspace {
	return d.Workspaces.Get(sessionFrom(r).ID())
}

// unauthorized forgets the session and sends the SPA to the login page.
func unauthorized(w http.ResponseWriter, r *http.Request, d *Deps) {
	if id := sessionFrom(r).ID(); id != "" {
		d.Workspaces.Drop(id)
	}
	clearSessionCookie(w, d.CookieSecure)
	writeRedirect(w, http.StatusUnauthorized, messages.Get("auth.session_expired"), session.LoginPath)
}

// respond writes v with status, unless the backend rejected the session
// while serving this request.
func respond(w http.ResponseWriter, r *http.Request, d *Deps, status int, v any, err error) {
	if errors.Is(err, backend.ErrUnauthorized) || sessionFrom(r).Invalidated() {
		unauthorized(w, r, d)
		return
	}
	writeJSON(w, status, v)
}
