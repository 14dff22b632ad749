package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kindklick/internal/config"
	"kindklick/internal/metrics"
	"kindklick/internal/services"
	"kindklick/internal/storage"
)

// app is the fully wired service graph shared by every command
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *storage.Store
	metrics    *metrics.Metrics
	gate       *services.Gate
	approvals  *services.ApprovalService
	requests   *services.RequestService
	settings   *services.SettingsService
	navigator  *services.Navigator
	dispatcher *services.Dispatcher
}

// openApp loads configuration from the command's flags and wires services
func openApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, _, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), cfg, newLogger(cfg.Log, os.Stderr))
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	backend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	store := storage.New(backend, logger)
	m := metrics.New()
	sessions := services.NewSessionIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.SessionMinutes)*time.Minute)
	gate := services.NewGate(store, services.PinAlgorithm(cfg.Auth.PinAlgorithm), sessions, logger, m)
	approvals := services.NewApprovalService(store, gate, logger, m, cfg.Policy.DefaultApprovalMinutes)
	requests := services.NewRequestService(store, logger, m, cfg.Policy.MaxAccessRequests)

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		metrics:    m,
		gate:       gate,
		approvals:  approvals,
		requests:   requests,
		settings:   services.NewSettingsService(store, gate, logger),
		navigator:  services.NewNavigator(store, cfg.Policy.BlockPageURL, logger, m),
		dispatcher: services.NewDispatcher(approvals, requests),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// loadConfig reads path, or the first config found in the standard
// locations, or falls back to defaults. It returns the path it used.
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		path = resolveConfigPath()
	}

	var cfg *config.Config
	if path == "" {
		cfg = config.Default()
	} else {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}

	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// resolveConfigPath searches for a config file in standard locations.
// Search order: $KINDKLICK_CONFIG → $XDG_CONFIG_HOME/kindklick/kindklick.yaml
// → ./kindklick.yaml → ./configs/kindklick.yaml
func resolveConfigPath() string {
	if p, ok := os.LookupEnv("KINDKLICK_CONFIG"); ok && p != "" {
		return p
	}

	var candidates []string
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "kindklick", "kindklick.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "kindklick", "kindklick.yaml"))
	}
	candidates = append(candidates, "kindklick.yaml", filepath.Join("configs", "kindklick.yaml"))

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func openBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return storage.NewMemoryBackend(), nil
	case config.BackendFile:
		return storage.NewFileBackend(cfg.DataDir, cfg.Key)
	case config.BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.DataDir, "kindklick.db")
		}
		return storage.OpenSQLite(ctx, path, cfg.Key)
	case config.BackendRedis:
		return storage.OpenRedis(ctx, storage.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Key,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// pinCredentials builds credentials from the --pin flag
func pinCredentials(cmd *cobra.Command) services.Credentials {
	pin, _ := cmd.Flags().GetString("pin")
	return services.Credentials{PIN: pin}
}

// describeAuthError turns gate errors into CLI guidance
func describeAuthError(err error) error {
	if services.IsAuthError(err) {
		return fmt.Errorf("%w (pass --pin)", err)
	}
	return err
}
