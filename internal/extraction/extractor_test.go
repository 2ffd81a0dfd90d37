package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"echocheck/internal/logging"
	"echocheck/internal/probe"
	"echocheck/internal/queue"
	"echocheck/internal/services"
	"echocheck/internal/testsupport"
)

func seedProbeInfo(t *testing.T, item *queue.Item, info probe.Info) {
	t.Helper()
	encoded, err := info.Marshal()
	if err != nil {
		t.Fatalf("marshal info: %v", err)
	}
	item.MediaInfoJSON = encoded
}

func TestExecuteExtractsBothModalities(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewUpload(t, store, 1, "clip.mp4")
	seedProbeInfo(t, item, probe.Info{HasAudio: true, HasVideo: true, DurationSeconds: 30})

	var gotAudioDest string
	var gotFramesDir string
	restoreAudio, restoreFrames := extractAudio, extractFrames
	extractAudio = func(ctx context.Context, ffmpeg, source, dest string, sampleRate int) error {
		gotAudioDest = dest
		if sampleRate != cfg.Analysis.SampleRate {
			t.Errorf("unexpected sample rate %d", sampleRate)
		}
		return nil
	}
	extractFrames = func(ctx context.Context, ffmpeg, source, destDir string, maxFrames int, duration float64) (int, error) {
		gotFramesDir = destDir
		if maxFrames != cfg.Analysis.MaxFrames {
			t.Errorf("unexpected max frames %d", maxFrames)
		}
		return 42, nil
	}
	t.Cleanup(func() { extractAudio, extractFrames = restoreAudio, restoreFrames })

	handler := NewExtractor(cfg, store, logging.NewNop())
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if item.AudioPath != gotAudioDest || !strings.HasSuffix(item.AudioPath, "item-1.wav") {
		t.Fatalf("unexpected audio path %q", item.AudioPath)
	}
	if item.FramesDir != gotFramesDir || item.FrameCount != 42 {
		t.Fatalf("unexpected frames result: %q %d", item.FramesDir, item.FrameCount)
	}
}

func TestExecuteSkipsAbsentModalities(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewUpload(t, store, 1, "voice.wav")
	seedProbeInfo(t, item, probe.Info{HasAudio: true, HasVideo: false, DurationSeconds: 12})

	restoreAudio, restoreFrames := extractAudio, extractFrames
	extractAudio = func(ctx context.Context, ffmpeg, source, dest string, sampleRate int) error {
		return nil
	}
	extractFrames = func(ctx context.Context, ffmpeg, source, destDir string, maxFrames int, duration float64) (int, error) {
		t.Error("frame extraction should not run for audio-only uploads")
		return 0, nil
	}
	t.Cleanup(func() { extractAudio, extractFrames = restoreAudio, restoreFrames })

	handler := NewExtractor(cfg, store, logging.NewNop())
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if item.FramesDir != "" || item.FrameCount != 0 {
		t.Fatalf("expected no frame artifacts, got %q %d", item.FramesDir, item.FrameCount)
	}
}

func TestExecuteRequiresProbeSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewUpload(t, store, 1, "clip.mp4")

	handler := NewExtractor(cfg, store, logging.NewNop())
	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestExecuteFailsWhenNoFramesProduced(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewUpload(t, store, 1, "clip.mp4")
	seedProbeInfo(t, item, probe.Info{HasVideo: true, DurationSeconds: 8})

	restoreFrames := extractFrames
	extractFrames = func(ctx context.Context, ffmpeg, source, destDir string, maxFrames int, duration float64) (int, error) {
		return 0, nil
	}
	t.Cleanup(func() { extractFrames = restoreFrames })

	handler := NewExtractor(cfg, store, logging.NewNop())
	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for zero frames, got %v", err)
	}
}
