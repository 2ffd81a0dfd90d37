// Package evaluation fuses the per-modality classifier results into the
// final truth score, assigns the verdict band, and runs anomaly detection.
// The stage is pure computation over results persisted by the analyze stage.
package evaluation

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"echocheck/internal/analysis"
	"echocheck/internal/config"
	"echocheck/internal/logging"
	"echocheck/internal/queue"
	"echocheck/internal/services"
	"echocheck/internal/stage"
)

// Evaluator is the evaluate stage handler.
type Evaluator struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewEvaluator constructs the evaluate stage handler.
func NewEvaluator(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "evaluation"),
	}
}

func (e *Evaluator) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)
	item.InitProgress("Evaluating", "Fusing modality scores")
	logger.Info("starting evaluation")
	return nil
}

func (e *Evaluator) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)
	started := time.Now()

	audioResult, err := item.AudioResult()
	if err != nil {
		return services.Wrap(services.ErrValidation, "evaluate", "read audio result",
			"Persisted audio classification is invalid; rerun analysis", err)
	}
	videoResult, err := item.VideoResult()
	if err != nil {
		return services.Wrap(services.ErrValidation, "evaluate", "read video result",
			"Persisted video classification is invalid; rerun analysis", err)
	}
	if audioResult == nil && videoResult == nil {
		return services.Wrap(services.ErrValidation, "evaluate", "validate inputs",
			"No classifier results available; rerun analysis", nil)
	}

	var audioScore, videoScore *float64
	if audioResult != nil {
		audioScore = &audioResult.Confidence
	}
	if videoResult != nil {
		videoScore = &videoResult.Confidence
	}

	truthScore := analysis.FuseScores(audioScore, videoScore)
	verdict := analysis.VerdictForScore(truthScore)
	anomalies := analysis.DetectAnomalies(audioResult, videoResult)

	item.TruthScore = &truthScore
	item.Verdict = string(verdict)
	if err := item.SetAnomalies(anomalies); err != nil {
		return services.Wrap(services.ErrTransient, "evaluate", "persist anomalies",
			"Failed to encode anomaly findings", err)
	}

	item.AnalysisSeconds += time.Since(started).Seconds()
	item.SetProgressComplete("Evaluating", fmt.Sprintf("Verdict %s (score %.1f)", verdict, truthScore))

	logger.Info(
		"evaluation complete",
		logging.Float64("truth_score", truthScore),
		logging.String("verdict", string(verdict)),
		logging.Int("anomaly_count", len(anomalies)),
	)
	return nil
}

// HealthCheck always reports ready: evaluation needs no external tools.
func (e *Evaluator) HealthCheck(_ context.Context) stage.Health {
	return stage.Healthy("evaluation")
}
