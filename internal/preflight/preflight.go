package preflight

import (
	"context"

	"echocheck/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Directory checks always run; the inference service check only runs when a
// remote classifier is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Artifacts directory", cfg.Paths.ArtifactsDir),
		CheckDirectoryAccess("Spectrograms directory", cfg.SpectrogramsDir()),
		CheckDirectoryAccess("Reports directory", cfg.ReportsDir()),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if cfg.Inference.BaseURL != "" {
		results = append(results, CheckInferenceService(ctx, cfg.Inference.BaseURL, cfg.Inference.APIKey))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
