package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	BackendURL     string        `env:"BACKEND_URL" envDefault:"http://localhost:8000"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`
	DBPath         string        `env:"DB_PATH" envDefault:"data/portal.db"`
	// RedisURL switches session storage to Redis when set.
	RedisURL     string        `env:"REDIS_URL"`
	SessionKey   string        `env:"SESSION_KEY,required,notEmpty"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SessionIdle  time.Duration `env:"SESSION_IDLE" envDefault:"30m"`
	CSRFKey      string        `env:"CSRF_KEY"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"true"`
	LogLevel     slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir       string        `env:"SPA_DIR" envDefault:"../web/dist"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}

// Client configures the terminal client.
type Client struct {
	BackendURL string        `env:"HACKNET_BACKEND_URL" envDefault:"http://localhost:8000"`
	Timeout    time.Duration `env:"HACKNET_TIMEOUT" envDefault:"15s"`
	// TokenFile and HistoryFile default to files under the user config dir.
	TokenFile   string `env:"HACKNET_TOKEN_FILE"`
	HistoryFile string `env:"HACKNET_HISTORY_FILE"`
}

func LoadClient() (*Client, error) {
	cfg, err := env.ParseAs[Client]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.TokenFile == "" || cfg.HistoryFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locating config dir: %w", err)
		}
		dir = filepath.Join(dir, "hacknet")
		if cfg.TokenFile == "" {
			cfg.TokenFile = filepath.Join(dir, "token")
		}
		if cfg.HistoryFile == "" {
			cfg.HistoryFile = filepath.Join(dir, "history")
		}
	}
	return &cfg, nil
}
