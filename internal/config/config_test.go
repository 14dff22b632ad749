package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_Valid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Server.Addr() != ":8080" {
		t.Errorf("Addr = %q", cfg.Server.Addr())
	}
	if cfg.Policy.SweepSchedule != "@every 30m" || cfg.Policy.MaxAccessRequests != 50 || cfg.Policy.DefaultApprovalMinutes != 10 {
		t.Errorf("policy defaults = %+v", cfg.Policy)
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "kindklick.yaml")
	yml := `
server:
  host: 127.0.0.1
  port: 9090
storage:
  backend: sqlite
  sqlite_path: /tmp/k.db
policy:
  sweep_schedule: "*/5 * * * *"
auth:
  pin_algorithm: bcrypt
log:
  format: json
`
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Errorf("Addr = %q", cfg.Server.Addr())
	}
	if cfg.Storage.Backend != BackendSQLite || cfg.Storage.SQLitePath != "/tmp/k.db" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Auth.PinAlgorithm != "bcrypt" || cfg.Log.Format != "json" {
		t.Errorf("auth/log = %+v / %+v", cfg.Auth, cfg.Log)
	}
	// Untouched sections still get defaults.
	if cfg.Auth.SessionMinutes != 15 || cfg.Log.Level != "info" {
		t.Errorf("defaults missing: %+v / %+v", cfg.Auth, cfg.Log)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("KK_TEST_SECRET", "s3cret")

	cfg, err := Parse([]byte(`
auth:
  jwt_secret: ${KK_TEST_SECRET}
storage:
  redis:
    addr: ${KK_TEST_UNSET_ADDR:-redis:6379}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Storage.Redis.Addr != "redis:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Storage.Redis.Addr)
	}
}

func TestParse_UnresolvedVariable(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("auth:\n  jwt_secret: ${KK_TEST_DEFINITELY_UNSET_VAR}\n"))
	if err == nil || !strings.Contains(err.Error(), "KK_TEST_DEFINITELY_UNSET_VAR") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Server.Port = 70000
	cfg.Storage.Backend = "floppy"
	cfg.Policy.SweepSchedule = "whenever"
	cfg.Auth.PinAlgorithm = "md5"
	cfg.Log.Level = "loud"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"server.port", "storage.backend", "sweep_schedule", "pin_algorithm", "log.level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %v", want, err)
		}
	}
}

func TestValidate_Backends(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		storage StorageConfig
		wantErr bool
	}{
		{"memory", StorageConfig{Backend: BackendMemory}, false},
		{"file without dir", StorageConfig{Backend: BackendFile}, true},
		{"sqlite with dir", StorageConfig{Backend: BackendSQLite, DataDir: "./data"}, false},
		{"sqlite without path", StorageConfig{Backend: BackendSQLite}, true},
		{"redis", StorageConfig{Backend: BackendRedis, Redis: RedisConfig{Addr: "r:6379"}}, false},
		{"redis negative db", StorageConfig{Backend: BackendRedis, Redis: RedisConfig{Addr: "r:6379", DB: -1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			errs := validateStorage(tt.storage)
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("errs = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}
