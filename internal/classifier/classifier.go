package classifier

import (
	"context"
	"log/slog"
	"strings"

	"echocheck/internal/analysis"
	"echocheck/internal/config"
)

// Classifier scores extracted media for one upload. Either method may be
// skipped by the caller when the corresponding modality is absent.
type Classifier interface {
	// ClassifyAudio scores a mono WAV file.
	ClassifyAudio(ctx context.Context, wavPath string) (*analysis.ModalityResult, error)
	// ClassifyVideo scores sampled frames in capture order.
	ClassifyVideo(ctx context.Context, framePaths []string) (*analysis.ModalityResult, error)
}

// New selects the classifier implementation for the configuration. A
// configured inference base URL selects the remote sidecar; otherwise the
// local heuristic fallback is used.
func New(cfg *config.Config, logger *slog.Logger) Classifier {
	if strings.TrimSpace(cfg.Inference.BaseURL) != "" {
		return NewRemote(cfg, logger)
	}
	if logger != nil {
		logger.Info("inference base URL not configured, using heuristic classifier")
	}
	return NewHeuristic()
}
