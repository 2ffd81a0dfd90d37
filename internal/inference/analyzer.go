// Package inference runs the per-modality classifiers against extracted
// artifacts and persists their raw results on the queue item. Score fusion
// and anomaly detection happen later in the evaluation stage.
package inference

import (
	"context"
	"strings"
	"time"

	"log/slog"

	"echocheck/internal/classifier"
	"echocheck/internal/config"
	"echocheck/internal/logging"
	"echocheck/internal/media/extract"
	"echocheck/internal/probe"
	"echocheck/internal/queue"
	"echocheck/internal/services"
	"echocheck/internal/stage"
)

// Analyzer is the analyze stage handler.
type Analyzer struct {
	store      *queue.Store
	cfg        *config.Config
	logger     *slog.Logger
	classifier classifier.Classifier
}

// NewAnalyzer constructs the analyze stage handler with the configured classifier.
func NewAnalyzer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Analyzer {
	return NewAnalyzerWithClassifier(cfg, store, logger, classifier.New(cfg, logger))
}

// NewAnalyzerWithClassifier allows injecting the classifier (used in tests).
func NewAnalyzerWithClassifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, cls classifier.Classifier) *Analyzer {
	return &Analyzer{
		store:      store,
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "inference"),
		classifier: cls,
	}
}

func (a *Analyzer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, a.logger)
	item.InitProgress("Analyzing", "Running authenticity classifiers")
	logger.Info("starting classification")
	return nil
}

func (a *Analyzer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, a.logger)

	info, err := probe.ParseInfo(item.MediaInfoJSON)
	if err != nil {
		return services.Wrap(services.ErrValidation, "analyze", "read probe summary",
			"Probe summary missing or invalid; rerun probing", err)
	}
	if a.classifier == nil {
		return services.Wrap(services.ErrConfiguration, "analyze", "classify",
			"No classifier configured", nil)
	}

	started := time.Now()

	if info.HasAudio {
		if strings.TrimSpace(item.AudioPath) == "" {
			return services.Wrap(services.ErrValidation, "analyze", "classify audio",
				"Extracted audio missing; rerun extraction", nil)
		}
		a.updateProgress(ctx, item, "Classifying audio track", 25)
		result, err := a.classifier.ClassifyAudio(ctx, item.AudioPath)
		if err != nil {
			return err
		}
		if err := item.SetAudioResult(result); err != nil {
			return services.Wrap(services.ErrTransient, "analyze", "persist audio result",
				"Failed to encode audio classification", err)
		}
		confidence := result.Confidence
		item.AudioScore = &confidence
		logger.Info("audio classification complete",
			logging.String("model", result.ModelName),
			logging.Float64("confidence", confidence),
		)
	}

	if info.HasVideo {
		if strings.TrimSpace(item.FramesDir) == "" {
			return services.Wrap(services.ErrValidation, "analyze", "classify video",
				"Sampled frames missing; rerun extraction", nil)
		}
		a.updateProgress(ctx, item, "Classifying video frames", 65)
		frames, err := extract.ListFrames(item.FramesDir)
		if err != nil {
			return services.Wrap(services.ErrValidation, "analyze", "classify video",
				"Failed to list sampled frames", err)
		}
		result, err := a.classifier.ClassifyVideo(ctx, frames)
		if err != nil {
			return err
		}
		if err := item.SetVideoResult(result); err != nil {
			return services.Wrap(services.ErrTransient, "analyze", "persist video result",
				"Failed to encode video classification", err)
		}
		confidence := result.Confidence
		item.VideoScore = &confidence
		logger.Info("video classification complete",
			logging.String("model", result.ModelName),
			logging.Float64("confidence", confidence),
			logging.Int("frames_analyzed", result.FramesAnalyzed),
		)
	}

	item.AnalysisSeconds += time.Since(started).Seconds()
	item.SetProgressComplete("Analyzing", "Classification complete")
	return nil
}

// HealthCheck reports classifier availability. The heuristic fallback is
// always ready; the remote adapter only needs its endpoint configured.
func (a *Analyzer) HealthCheck(_ context.Context) stage.Health {
	const name = "inference"
	if a.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if a.classifier == nil {
		return stage.Unhealthy(name, "classifier unavailable")
	}
	return stage.Healthy(name)
}

func (a *Analyzer) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, a.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := a.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist inference progress", logging.Error(err))
		return
	}
	*item = copy
}
