package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kindklick/internal/config"
	"kindklick/internal/services"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kindklick.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "kindklick ") {
		t.Errorf("output = %q", out)
	}
}

func TestConfigCheck(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "storage:\n  backend: memory\nlog:\n  level: warn\n")
	out, err := runCLI(t, "config", "check", path)
	if err != nil {
		t.Fatalf("config check: %v", err)
	}
	if !strings.Contains(out, "Configuration OK") || !strings.Contains(out, "memory") {
		t.Errorf("output = %q", out)
	}

	bad := writeConfig(t, "storage:\n  backend: tape\n")
	if _, err := runCLI(t, "config", "check", bad); err == nil {
		t.Error("expected validation error")
	}
}

func TestApproveAndSweep_FileBackend(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, "storage:\n  backend: file\n  data_dir: "+dir+"\nlog:\n  level: error\n")

	if _, err := runCLI(t, "--config", path, "approve", "www.example-adult.test", "--always"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	out, err := runCLI(t, "--config", path, "evaluate", "https://example-adult.test/")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !strings.Contains(out, "allow") || !strings.Contains(out, "example-adult.test") {
		t.Errorf("evaluate output = %q", out)
	}

	out, err = runCLI(t, "--config", path, "sweep")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out, "removed 0") || !strings.Contains(out, "forever") {
		t.Errorf("sweep output = %q", out)
	}

	if _, err := runCLI(t, "--config", path, "revoke", "example-adult.test"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	out, err = runCLI(t, "--config", path, "evaluate", "https://example-adult.test/")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !strings.Contains(out, "block") {
		t.Errorf("after revoke = %q", out)
	}
}

func TestPinSet_NonInteractive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, "storage:\n  backend: sqlite\n  sqlite_path: "+filepath.Join(dir, "k.db")+"\nlog:\n  level: error\n")

	if _, err := runCLI(t, "--config", path, "pin", "set", "--new-pin", "1234"); err != nil {
		t.Fatalf("pin set: %v", err)
	}
	if _, err := runCLI(t, "--config", path, "approve", "a.test"); err == nil || !strings.Contains(err.Error(), "--pin") {
		t.Fatalf("approve without pin: %v", err)
	}
	if _, err := runCLI(t, "--config", path, "approve", "a.test", "--pin", "1234"); err != nil {
		t.Fatalf("approve with pin: %v", err)
	}
	if _, err := runCLI(t, "--config", path, "pin", "clear", "--pin", "1234"); err != nil {
		t.Fatalf("pin clear: %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestDescribeAuthError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		hint bool
	}{
		{services.ErrPinRequired, true},
		{services.ErrInvalidPin, true},
		{fmt.Errorf("grant: %w", services.ErrInvalidToken), true},
		{errors.New("disk full"), false},
	}

	for _, tt := range tests {
		got := describeAuthError(tt.err)
		if !errors.Is(got, tt.err) {
			t.Errorf("%v: wrapped error lost", tt.err)
		}
		if strings.Contains(got.Error(), "--pin") != tt.hint {
			t.Errorf("describeAuthError(%v) = %q", tt.err, got)
		}
	}
}
