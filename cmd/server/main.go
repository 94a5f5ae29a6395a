package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/config"
	"github.com/hacknet/portal/internal/database"
	"github.com/hacknet/portal/internal/handler/health"
	"github.com/hacknet/portal/internal/migrations"
	"github.com/hacknet/portal/internal/profile"
	"github.com/hacknet/portal/internal/server"
	"github.com/hacknet/portal/internal/session"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	sealer, err := session.NewSealer(cfg.SessionKey)
	if err != nil {
		return fmt.Errorf("creating sealer: %w", err)
	}

	// --- Session store ---
	checks := map[string]health.Checker{}
	var (
		store   session.Store
		sqlite  *session.SQLStore
		cleanup []func()
	)
	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()

	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		cleanup = append(cleanup, func() { rdb.Close() })
		rs := session.NewRedisStore(rdb, sealer, cfg.SessionTTL)
		store = rs
		checks["sessions"] = rs
		logger.Info("session store: redis")
	} else {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating data dir: %w", err)
			}
		}
		db, err := database.Open(ctx, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("connecting to sqlite: %w", err)
		}
		cleanup = append(cleanup, func() { db.Close() })

		if err := migrations.Run(db); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		sqlite = session.NewSQLStore(db, sealer, cfg.SessionTTL)
		store = sqlite
		checks["sessions"] = sqlite
		logger.Info("session store: sqlite", "path", cfg.DBPath)
	}

	// --- Backend ---
	api, err := backend.New(cfg.BackendURL,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}
	checks["backend"] = backendChecker{url: api.BaseURL()}

	csrfKey, err := deriveCSRFKey(cfg.CSRFKey)
	if err != nil {
		return err
	}
	if cfg.CSRFKey == "" {
		logger.Warn("CSRF_KEY not set; using a random key, tokens reset on restart")
	}

	workspaces := session.NewRegistry(server.NewWorkspace)
	defer workspaces.Close()

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Backend:      api,
		Sessions:     store,
		Workspaces:   workspaces,
		Broker:       profile.NewBroker(),
		CSRFKey:      csrfKey,
		CookieSecure: cfg.CookieSecure,
		SPADir:       cfg.SPADir,
	}, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "backend", api.BaseURL())
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	g.Go(func() error {
		sweep(gctx, logger, workspaces, sqlite, cfg.SessionIdle)
		return nil
	})

	return g.Wait()
}

// sweep drops page state of idle sessions and purges expired session rows.
func sweep(ctx context.Context, logger *slog.Logger, workspaces *session.Registry[*server.Workspace], sqlite *session.SQLStore, idle time.Duration) {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if n := workspaces.Sweep(idle); n > 0 {
				logger.Debug("dropped idle workspaces", "count", n)
			}
			if sqlite == nil {
				continue
			}
			n, err := sqlite.Purge(ctx)
			if err != nil {
				logger.Error("purging sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired sessions", "count", n)
			}
		}
	}
}

// deriveCSRFKey stretches the configured secret to the 32 bytes
// gorilla/csrf needs, or generates a random key.
func deriveCSRFKey(secret string) ([]byte, error) {
	if secret != "" {
		sum := sha256.Sum256([]byte(secret))
		return sum[:], nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating csrf key: %w", err)
	}
	return key, nil
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// backendChecker reports the backend reachable when it answers HTTP at all.
type backendChecker struct{ url string }

func (b backendChecker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url+"/welcome", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("backend answered %s", resp.Status)
	}
	return nil
}
