package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"echocheck/internal/preflight"
	"echocheck/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("Staging directory", dir)
	if !result.Passed {
		t.Fatalf("expected writable temp dir to pass, got %+v", result)
	}

	missing := filepath.Join(dir, "does-not-exist")
	result = preflight.CheckDirectoryAccess("Staging directory", missing)
	if result.Passed {
		t.Fatalf("expected missing dir to fail, got %+v", result)
	}

	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result = preflight.CheckDirectoryAccess("Staging directory", file)
	if result.Passed {
		t.Fatalf("expected regular file to fail, got %+v", result)
	}
}

func TestCheckInferenceService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := preflight.CheckInferenceService(context.Background(), server.URL, "secret-key")
	if !result.Passed {
		t.Fatalf("expected reachable service to pass, got %+v", result)
	}

	result = preflight.CheckInferenceService(context.Background(), server.URL, "wrong-key")
	if result.Passed {
		t.Fatalf("expected invalid key to fail, got %+v", result)
	}
	if result.Detail != "auth failed (invalid api key)" {
		t.Fatalf("unexpected detail %q", result.Detail)
	}

	result = preflight.CheckInferenceService(context.Background(), "", "")
	if result.Passed {
		t.Fatal("expected missing base url to fail")
	}
}

func TestRunAllChecksDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	results := preflight.RunAll(context.Background(), cfg)
	if len(results) == 0 {
		t.Fatal("expected preflight results")
	}
	if !preflight.AllPassed(results) {
		t.Fatalf("expected all checks to pass, got %+v", results)
	}

	cfg.Paths.StagingDir = filepath.Join(cfg.Paths.StagingDir, "missing")
	results = preflight.RunAll(context.Background(), cfg)
	if preflight.AllPassed(results) {
		t.Fatal("expected missing staging dir to fail preflight")
	}
}
