package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"log/slog"

	"echocheck/internal/analysis"
	"echocheck/internal/config"
	"echocheck/internal/logging"
	"echocheck/internal/notifications"
	"echocheck/internal/queue"
	"echocheck/internal/services"
	"echocheck/internal/stage"
)

// UserDirectory resolves queue item owners to display names for the report
// header. The users store satisfies this.
type UserDirectory interface {
	DisplayName(ctx context.Context, userID int64) (string, error)
}

// Renderer is the render stage handler. It produces the spectrogram and PDF
// artifacts for an evaluated item and announces completion.
type Renderer struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	names    UserDirectory
	notifier notifications.Service
}

// NewRenderer constructs the render stage handler with a notifier built from
// configuration and no user directory.
func NewRenderer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Renderer {
	return NewRendererWithDependencies(cfg, store, logger, nil, notifications.NewService(cfg))
}

// NewRendererWithDependencies constructs the render stage handler with
// explicit collaborators.
func NewRendererWithDependencies(
	cfg *config.Config,
	store *queue.Store,
	logger *slog.Logger,
	names UserDirectory,
	notifier notifications.Service,
) *Renderer {
	return &Renderer{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "report"),
		names:    names,
		notifier: notifier,
	}
}

func (r *Renderer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)
	item.InitProgress("Rendering", "Generating report artifacts")
	logger.Info("starting report rendering")
	return nil
}

func (r *Renderer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)
	started := time.Now()

	if item.Verdict == "" || item.TruthScore == nil {
		return services.Wrap(services.ErrValidation, "render", "validate inputs",
			"Evaluation results are missing; rerun evaluation", nil)
	}
	anomalies, err := item.Anomalies()
	if err != nil {
		return services.Wrap(services.ErrValidation, "render", "read anomalies",
			"Persisted anomaly findings are invalid; rerun evaluation", err)
	}

	if item.AudioPath != "" {
		r.renderSpectrogram(ctx, item)
	}

	if err := os.MkdirAll(r.cfg.ReportsDir(), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "render", "create reports directory",
			"Failed to create the reports directory; check artifact path permissions", err)
	}

	reportPath := filepath.Join(r.cfg.ReportsDir(), fmt.Sprintf("report-%d.pdf", item.ID))
	doc := Document{
		UserName:        r.resolveUserName(ctx, item.UserID),
		FileName:        item.FileName,
		FileType:        item.FileType,
		AnalyzedAt:      item.CreatedAt,
		TruthScore:      item.TruthScore,
		Verdict:         item.Verdict,
		AudioScore:      item.AudioScore,
		VideoScore:      item.VideoScore,
		Anomalies:       anomalies,
		SpectrogramPath: item.SpectrogramPath,
	}
	if err := WritePDF(reportPath, doc); err != nil {
		return services.Wrap(services.ErrTransient, "render", "write report",
			"Failed to write the PDF report; check artifact path permissions", err)
	}
	item.ReportPath = reportPath

	item.AnalysisSeconds += time.Since(started).Seconds()
	item.SetProgressComplete("Rendering", "Report generated")

	r.notifyCompletion(ctx, item)

	logger.Info(
		"report rendering complete",
		logging.String("report_path", item.ReportPath),
		logging.Bool("spectrogram", item.SpectrogramPath != ""),
	)
	return nil
}

// renderSpectrogram is best effort: the report remains useful without the
// image, so failures only log a warning.
func (r *Renderer) renderSpectrogram(ctx context.Context, item *queue.Item) {
	logger := logging.WithContext(ctx, r.logger)
	if err := os.MkdirAll(r.cfg.SpectrogramsDir(), 0o755); err != nil {
		logger.Warn("spectrogram directory unavailable; skipping spectrogram",
			logging.Error(err),
			logging.String(logging.FieldEventType, "spectrogram_skipped"),
		)
		return
	}
	item.SetProgress("Rendering", "Rendering spectrogram", 25)

	outPath := filepath.Join(r.cfg.SpectrogramsDir(), fmt.Sprintf("spectrogram-%d.png", item.ID))
	if err := RenderSpectrogram(item.AudioPath, outPath); err != nil {
		logger.Warn("spectrogram rendering failed; report will omit it",
			logging.Error(err),
			logging.String(logging.FieldEventType, "spectrogram_skipped"),
		)
		return
	}
	item.SpectrogramPath = outPath
}

func (r *Renderer) resolveUserName(ctx context.Context, userID int64) string {
	if r.names != nil {
		if name, err := r.names.DisplayName(ctx, userID); err == nil && name != "" {
			return name
		}
	}
	return fmt.Sprintf("User #%d", userID)
}

func (r *Renderer) notifyCompletion(ctx context.Context, item *queue.Item) {
	if r.notifier == nil {
		return
	}
	logger := logging.WithContext(ctx, r.logger)
	score := 0.0
	if item.TruthScore != nil {
		score = *item.TruthScore
	}
	if err := r.notifier.Publish(ctx, notifications.EventAnalysisCompleted, notifications.Payload{
		"title":   item.DisplayTitle,
		"verdict": item.Verdict,
		"score":   score,
	}); err != nil {
		logger.Debug("completion notification failed", logging.Error(err))
	}
	if analysis.Verdict(item.Verdict) == analysis.VerdictLikelyManipulated {
		if err := r.notifier.Publish(ctx, notifications.EventManipulationDetected, notifications.Payload{
			"title": item.DisplayTitle,
			"score": score,
		}); err != nil {
			logger.Debug("manipulation notification failed", logging.Error(err))
		}
	}
}

// HealthCheck verifies the artifact directories can be created.
func (r *Renderer) HealthCheck(_ context.Context) stage.Health {
	if r.cfg == nil {
		return stage.Unhealthy("report", "configuration unavailable")
	}
	for _, dir := range []string{r.cfg.SpectrogramsDir(), r.cfg.ReportsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return stage.Unhealthy("report", fmt.Sprintf("artifact directory unavailable: %v", err))
		}
	}
	return stage.Healthy("report")
}
