package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"echocheck/internal/config"
)

func TestLoadDefaultConfigUsesEnvSecretAndExpandsPaths(t *testing.T) {
	t.Setenv("ECHOCHECK_TOKEN_SECRET", "unit-test-secret-0123")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "echocheck", "uploads")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.APIBind != "127.0.0.1:8420" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Auth.TokenSecret != "unit-test-secret-0123" {
		t.Fatalf("expected token secret from env, got %q", cfg.Auth.TokenSecret)
	}
	if cfg.Analysis.MaxUploadMiB != 100 {
		t.Fatalf("unexpected upload cap: %d", cfg.Analysis.MaxUploadMiB)
	}
	if cfg.Inference.BaseURL != "" {
		t.Fatalf("expected inference base url empty by default, got %q", cfg.Inference.BaseURL)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestLoadParsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`staging_dir = "` + filepath.Join(dir, "uploads") + `"`,
		`artifacts_dir = "` + filepath.Join(dir, "artifacts") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		`api_bind = "127.0.0.1:9000"`,
		"",
		"[analysis]",
		"max_upload_mib = 10",
		`allowed_extensions = ["mp4", ".WAV"]`,
		"",
		"[auth]",
		`token_secret = "file-secret-0123456789"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q %v", resolved, exists)
	}
	if cfg.Paths.APIBind != "127.0.0.1:9000" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Analysis.MaxUploadMiB != 10 {
		t.Fatalf("unexpected upload cap: %d", cfg.Analysis.MaxUploadMiB)
	}
	// Extensions are normalized to lowercase dotted form.
	if !cfg.ExtensionAllowed(".mp4") || !cfg.ExtensionAllowed(".wav") {
		t.Fatalf("expected normalized extensions, got %v", cfg.Analysis.AllowedExtensions)
	}
	if cfg.ExtensionAllowed(".mkv") {
		t.Fatal("unexpected extension allowed")
	}
}

func TestValidateRejectsMissingSecret(t *testing.T) {
	t.Setenv("ECHOCHECK_TOKEN_SECRET", "")
	cfg := config.Default()
	cfg.Auth.TokenSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for missing token secret")
	}
}

func TestValidateRejectsShortSecret(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.TokenSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for short token secret")
	}
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.TokenSecret = "valid-secret-0123456789"
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for log format")
	}
}

func TestExtensionAllowedIsCaseInsensitive(t *testing.T) {
	cfg := config.Default()
	if !cfg.ExtensionAllowed(".MP3") {
		t.Fatal("expected .MP3 to be allowed")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error on second WriteSample")
	}
}
