// Package extraction pulls the analyzable signal out of a probed upload:
// a resampled mono WAV for audio analysis and evenly sampled PNG frames for
// video analysis. Extracted artifacts live under the artifacts directory
// keyed by item ID.
package extraction

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"log/slog"

	"echocheck/internal/config"
	"echocheck/internal/deps"
	"echocheck/internal/logging"
	"echocheck/internal/media/extract"
	"echocheck/internal/probe"
	"echocheck/internal/queue"
	"echocheck/internal/services"
	"echocheck/internal/stage"
)

var (
	extractAudio  = extract.ExtractAudio
	extractFrames = extract.ExtractFrames
)

// Extractor runs ffmpeg against probed uploads.
type Extractor struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewExtractor constructs the extraction stage handler.
func NewExtractor(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Extractor {
	return &Extractor{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "extraction"),
	}
}

func (e *Extractor) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)
	item.InitProgress("Extracting", "Preparing signal extraction")
	logger.Info(
		"starting extraction",
		logging.String("source_path", strings.TrimSpace(item.SourcePath)),
	)
	return nil
}

func (e *Extractor) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)

	info, err := probe.ParseInfo(item.MediaInfoJSON)
	if err != nil {
		return services.Wrap(services.ErrValidation, "extract", "read probe summary",
			"Probe summary missing or invalid; rerun probing", err)
	}

	if info.HasAudio {
		e.updateProgress(ctx, item, "Extracting audio track", 20)
		audioPath := filepath.Join(e.cfg.AudioDir(), fmt.Sprintf("item-%d.wav", item.ID))
		if err := extractAudio(ctx, e.cfg.Analysis.FFmpegBinary, item.SourcePath, audioPath, e.cfg.Analysis.SampleRate); err != nil {
			return services.Wrap(services.ErrExternalTool, "extract", "extract audio",
				"ffmpeg failed to extract the audio track", err)
		}
		item.AudioPath = audioPath
		logger.Info("audio track extracted", logging.String("audio_path", audioPath))
	}

	if info.HasVideo {
		e.updateProgress(ctx, item, "Sampling video frames", 60)
		framesDir := filepath.Join(e.cfg.FramesDir(), fmt.Sprintf("item-%d", item.ID))
		count, err := extractFrames(ctx, e.cfg.Analysis.FFmpegBinary, item.SourcePath, framesDir, e.cfg.Analysis.MaxFrames, info.DurationSeconds)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "extract", "extract frames",
				"ffmpeg failed to sample video frames", err)
		}
		if count == 0 {
			return services.Wrap(services.ErrValidation, "extract", "extract frames",
				"Video stream produced no sampled frames", nil)
		}
		item.FramesDir = framesDir
		item.FrameCount = count
		logger.Info("video frames sampled",
			logging.String("frames_dir", framesDir),
			logging.Int("frame_count", count),
		)
	}

	item.SetProgressComplete("Extracting", "Signal extraction complete")
	return nil
}

// HealthCheck verifies the ffmpeg binary is resolvable.
func (e *Extractor) HealthCheck(_ context.Context) stage.Health {
	const name = "extraction"
	if e.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	status := deps.CheckBinary("FFmpeg", e.cfg.Analysis.FFmpegBinary, "Audio and frame extraction")
	if !status.Available {
		return stage.Unhealthy(name, status.Detail)
	}
	return stage.Healthy(name)
}

func (e *Extractor) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, e.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := e.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist extraction progress", logging.Error(err))
		return
	}
	*item = copy
}
