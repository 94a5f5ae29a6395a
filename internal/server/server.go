// Package server is the portal's HTTP front: the JSON API the single-page
// app talks to, the profile event streams, and the SPA itself.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/profile"
	"github.com/hacknet/portal/internal/session"
)

// Deps are the collaborators the handlers share.
type Deps struct {
	Backend    *backend.Client
	Sessions   session.Store
	Workspaces *session.Registry[*Workspace]
	Broker     *profile.Broker
	// CSRFKey enables CSRF protection on the JSON API when non-empty.
	CSRFKey      []byte
	CookieSecure bool
	SPADir       string
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// New builds the router. mount, when not nil, adds infrastructure routes
// such as health checks.
func New(addr string, logger *slog.Logger, deps Deps, mount func(r chi.Router)) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(middleware.Recoverer)

	if mount != nil {
		mount(r)
	}
	addRoutes(r, logger, &deps)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			who := &requestSubject{}
			r = r.WithContext(context.WithValue(r.Context(), ctxKeySubject, who))

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
					"subject", who.value,
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
