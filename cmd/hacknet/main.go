package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/cli"
	"github.com/hacknet/portal/internal/config"
	"github.com/hacknet/portal/internal/session"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	tokens, err := session.OpenTokenFile(cfg.TokenFile)
	if err != nil {
		return err
	}

	// Backend warnings would interleave with command output.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	api, err := backend.New(cfg.BackendURL,
		backend.WithTimeout(cfg.Timeout),
		backend.WithLogger(quiet),
	)
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.HistoryFile), 0o700); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "hacknet> ",
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	c := cli.New(api, tokens, rl.Stdout())
	fmt.Fprintf(rl.Stdout(), "HackNet %s. Команды: help\n", api.BaseURL())
	if !tokens.Authenticated() {
		fmt.Fprintln(rl.Stdout(), "Вы не вошли: login <email> <password>")
	}
	return c.Run(ctx, rl)
}
