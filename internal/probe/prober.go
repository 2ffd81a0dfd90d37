package probe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"log/slog"

	"echocheck/internal/config"
	"echocheck/internal/deps"
	"echocheck/internal/logging"
	"echocheck/internal/media/ffprobe"
	"echocheck/internal/queue"
	"echocheck/internal/services"
	"echocheck/internal/stage"
)

var inspect = ffprobe.Inspect

// Prober runs ffprobe against staged uploads and persists the probe summary.
type Prober struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewProber constructs the probe stage handler.
func NewProber(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Prober {
	return &Prober{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "probe"),
	}
}

func (p *Prober) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)
	item.InitProgress("Probing", "Inspecting uploaded media")
	logger.Info(
		"starting media inspection",
		logging.String("file_name", strings.TrimSpace(item.FileName)),
		logging.String("source_path", strings.TrimSpace(item.SourcePath)),
	)
	return nil
}

func (p *Prober) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)

	source := strings.TrimSpace(item.SourcePath)
	if source == "" {
		return services.Wrap(services.ErrValidation, "probe", "validate inputs",
			"Upload has no staged source file", nil)
	}
	stat, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, "probe", "validate inputs",
				fmt.Sprintf("Staged upload %s no longer exists", source), err)
		}
		return services.Wrap(services.ErrTransient, "probe", "validate inputs",
			"Failed to stat staged upload", err)
	}
	if stat.Size() == 0 {
		return services.Wrap(services.ErrValidation, "probe", "validate inputs",
			"Staged upload is empty", nil)
	}

	p.updateProgress(ctx, item, "Running ffprobe", 30)
	result, err := inspect(ctx, p.cfg.Analysis.FFprobeBinary, source)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "probe", "inspect",
			"ffprobe failed to inspect the upload", err)
	}

	info := InfoFromResult(result)
	if !info.HasAudio && !info.HasVideo {
		return services.Wrap(services.ErrValidation, "probe", "inspect",
			"Upload contains no analyzable audio or video streams", nil)
	}

	encoded, err := info.Marshal()
	if err != nil {
		return services.Wrap(services.ErrTransient, "probe", "persist summary",
			"Failed to encode probe summary", err)
	}
	item.MediaInfoJSON = encoded
	item.SetProgressComplete("Probing", fmt.Sprintf("Detected %s content", info.Modalities()))

	logger.Info(
		"media inspection complete",
		logging.String("modalities", info.Modalities()),
		logging.Float64("duration_seconds", info.DurationSeconds),
		logging.String("format", info.FormatName),
	)
	return nil
}

// HealthCheck verifies the ffprobe binary is resolvable.
func (p *Prober) HealthCheck(_ context.Context) stage.Health {
	const name = "probe"
	if p.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	status := deps.CheckBinary("FFprobe", p.cfg.Analysis.FFprobeBinary, "Media container inspection")
	if !status.Available {
		return stage.Unhealthy(name, status.Detail)
	}
	return stage.Healthy(name)
}

func (p *Prober) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, p.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := p.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist probe progress", logging.Error(err))
		return
	}
	*item = copy
}
