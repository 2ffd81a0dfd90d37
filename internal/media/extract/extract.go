// Package extract shells out to ffmpeg to pull analyzable raw material out
// of uploaded containers: a mono 16kHz WAV for the audio classifier and a
// bounded set of sampled frames for the video classifier.
package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// FramePattern is the printf-style file name used for sampled frames.
const FramePattern = "frame-%05d.png"

// ExtractAudio extracts the primary audio stream from a source file.
// The output is a mono WAV resampled to sampleRate, suitable for
// waveform-level classification.
func ExtractAudio(ctx context.Context, ffmpegBinary, source, dest string, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("extract audio: invalid sample rate %d", sampleRate)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("extract audio: create dest dir: %w", err)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:a:0",
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ExtractFrames samples up to maxFrames frames evenly across the source and
// writes them as PNGs into destDir. durationSeconds is used to pick the
// sampling rate; when unknown (<= 0) one frame per second is extracted and
// the maxFrames cap is enforced by ffmpeg.
func ExtractFrames(ctx context.Context, ffmpegBinary, source, destDir string, maxFrames int, durationSeconds float64) (int, error) {
	if maxFrames <= 0 {
		return 0, fmt.Errorf("extract frames: invalid max frames %d", maxFrames)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("extract frames: create dest dir: %w", err)
	}

	fps := 1.0
	if durationSeconds > 0 {
		fps = float64(maxFrames) / durationSeconds
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:v:0",
		"-an",
		"-sn",
		"-dn",
		"-vf", fmt.Sprintf("fps=%.6f", fps),
		"-frames:v", fmt.Sprintf("%d", maxFrames),
		filepath.Join(destDir, FramePattern),
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return 0, fmt.Errorf("ffmpeg extract frames: %w: %s", err, strings.TrimSpace(string(output)))
	}

	frames, err := ListFrames(destDir)
	if err != nil {
		return 0, err
	}
	return len(frames), nil
}

// ListFrames returns the sampled frame paths in sampling order.
func ListFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	var frames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "frame-") && strings.HasSuffix(name, ".png") {
			frames = append(frames, filepath.Join(dir, name))
		}
	}
	sort.Strings(frames)
	return frames, nil
}
