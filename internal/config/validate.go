package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/robfig/cron/v3"
)

var (
	backends      = []string{BackendMemory, BackendFile, BackendSQLite, BackendRedis}
	pinAlgorithms = []string{"sha256", "bcrypt"}
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"text", "json"}
)

// Validate checks a loaded Config and reports every problem at once
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: server.port %d out of range", cfg.Server.Port))
	}
	if cfg.Server.ReadTimeoutSeconds < 0 || cfg.Server.WriteTimeoutSeconds < 0 {
		errs = append(errs, errors.New("config: server timeouts must not be negative"))
	}

	errs = append(errs, validateStorage(cfg.Storage)...)

	if _, err := cron.ParseStandard(cfg.Policy.SweepSchedule); err != nil {
		errs = append(errs, fmt.Errorf("config: policy.sweep_schedule %q: %w", cfg.Policy.SweepSchedule, err))
	}
	if cfg.Policy.MaxAccessRequests < 1 {
		errs = append(errs, errors.New("config: policy.max_access_requests must be positive"))
	}
	if cfg.Policy.DefaultApprovalMinutes < 1 {
		errs = append(errs, errors.New("config: policy.default_approval_minutes must be positive"))
	}

	if !slices.Contains(pinAlgorithms, cfg.Auth.PinAlgorithm) {
		errs = append(errs, fmt.Errorf("config: unknown auth.pin_algorithm %q", cfg.Auth.PinAlgorithm))
	}
	if cfg.Auth.SessionMinutes < 1 {
		errs = append(errs, errors.New("config: auth.session_minutes must be positive"))
	}

	if !slices.Contains(logLevels, cfg.Log.Level) {
		errs = append(errs, fmt.Errorf("config: unknown log.level %q", cfg.Log.Level))
	}
	if !slices.Contains(logFormats, cfg.Log.Format) {
		errs = append(errs, fmt.Errorf("config: unknown log.format %q", cfg.Log.Format))
	}

	return errors.Join(errs...)
}

func validateStorage(s StorageConfig) []error {
	var errs []error

	if !slices.Contains(backends, s.Backend) {
		return append(errs, fmt.Errorf("config: unknown storage.backend %q", s.Backend))
	}

	switch s.Backend {
	case BackendFile:
		if s.DataDir == "" {
			errs = append(errs, errors.New("config: storage.data_dir is required for the file backend"))
		}
	case BackendSQLite:
		if s.SQLitePath == "" && s.DataDir == "" {
			errs = append(errs, errors.New("config: storage.sqlite_path or storage.data_dir is required for the sqlite backend"))
		}
	case BackendRedis:
		if s.Redis.Addr == "" {
			errs = append(errs, errors.New("config: storage.redis.addr is required for the redis backend"))
		}
		if s.Redis.DB < 0 {
			errs = append(errs, errors.New("config: storage.redis.db must not be negative"))
		}
	}
	return errs
}
