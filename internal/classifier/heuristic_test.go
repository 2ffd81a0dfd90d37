package classifier

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"echocheck/internal/analysis"
)

func writeWAV(t *testing.T, dir string, samples []int16) string {
	t.Helper()

	dataSize := len(samples) * 2
	buf := make([]byte, 0, 44+dataSize)
	buf = append(buf, []byte("RIFF")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+dataSize))
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, 1) // mono
	buf = binary.LittleEndian.AppendUint32(buf, 16000)
	buf = binary.LittleEndian.AppendUint32(buf, 32000)
	buf = binary.LittleEndian.AppendUint16(buf, 2)
	buf = binary.LittleEndian.AppendUint16(buf, 16)
	buf = append(buf, []byte("data")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataSize))
	for _, sample := range samples {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(sample))
	}

	path := filepath.Join(dir, "audio.wav")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	return path
}

func writeFrame(t *testing.T, dir, name string, shade uint8, noisy bool) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := shade
			if noisy && (x+y)%2 == 0 {
				v = 255 - shade
			}
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create frame: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	return path
}

func TestClassifyAudioIsDeterministicAndBounded(t *testing.T) {
	dir := t.TempDir()
	samples := make([]int16, 1600)
	for i := range samples {
		samples[i] = int16((i % 200) * 80)
	}
	path := writeWAV(t, dir, samples)

	h := NewHeuristic()
	first, err := h.ClassifyAudio(context.Background(), path)
	if err != nil {
		t.Fatalf("ClassifyAudio failed: %v", err)
	}
	second, err := h.ClassifyAudio(context.Background(), path)
	if err != nil {
		t.Fatalf("ClassifyAudio failed: %v", err)
	}
	if first.Confidence != second.Confidence {
		t.Fatalf("expected deterministic confidence, got %v then %v", first.Confidence, second.Confidence)
	}
	if first.Confidence < 40 || first.Confidence > 100 {
		t.Fatalf("confidence out of range: %v", first.Confidence)
	}
	if first.ModelName != "wav2vec2-mock" {
		t.Fatalf("unexpected model name %q", first.ModelName)
	}

	quality, ok := first.Feature(analysis.FeatureAudioQuality)
	if !ok {
		t.Fatal("expected audio_quality feature")
	}
	if want := math.Min(first.Confidence+10, 100); quality != want {
		t.Fatalf("audio_quality = %v, want %v", quality, want)
	}
	spectral, ok := first.Feature(analysis.FeatureSpectralConsistency)
	if !ok {
		t.Fatal("expected spectral_consistency feature")
	}
	if want := math.Min(first.Confidence+5, 100); spectral != want {
		t.Fatalf("spectral_consistency = %v, want %v", spectral, want)
	}
}

func TestClassifyAudioRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(path, []byte("not a wav"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	if _, err := NewHeuristic().ClassifyAudio(context.Background(), path); err == nil {
		t.Fatal("expected error for non-WAV input")
	}
}

func TestClassifyVideoScoresFrames(t *testing.T) {
	dir := t.TempDir()
	var frames []string
	for i := 0; i < 12; i++ {
		frames = append(frames, writeFrame(t, dir, fmt.Sprintf("frame-%05d.png", i), 30, true))
	}

	result, err := NewHeuristic().ClassifyVideo(context.Background(), frames)
	if err != nil {
		t.Fatalf("ClassifyVideo failed: %v", err)
	}
	if result.Confidence < 45 || result.Confidence > 100 {
		t.Fatalf("confidence out of range: %v", result.Confidence)
	}
	if result.FramesAnalyzed != 12 {
		t.Fatalf("expected 12 frames analyzed, got %d", result.FramesAnalyzed)
	}
	if result.ModelName != "vision-transformer-mock" {
		t.Fatalf("unexpected model name %q", result.ModelName)
	}
	face, ok := result.Feature(analysis.FeatureFaceConsistency)
	if !ok || face != math.Min(result.Confidence+8, 100) {
		t.Fatalf("unexpected face_consistency %v (present=%v)", face, ok)
	}
	temporal, ok := result.Feature(analysis.FeatureTemporalCoherence)
	if !ok || temporal != math.Min(result.Confidence+12, 100) {
		t.Fatalf("unexpected temporal_coherence %v (present=%v)", temporal, ok)
	}
}

func TestClassifyVideoWithoutFramesIsNeutral(t *testing.T) {
	result, err := NewHeuristic().ClassifyVideo(context.Background(), nil)
	if err != nil {
		t.Fatalf("ClassifyVideo failed: %v", err)
	}
	if result.Confidence != 50.0 || result.FramesAnalyzed != 0 {
		t.Fatalf("expected neutral result, got %#v", result)
	}
	if face, _ := result.Feature(analysis.FeatureFaceConsistency); face != 50.0 {
		t.Fatalf("expected neutral face_consistency, got %v", face)
	}
}

func TestSampleFramesCapsAtTwenty(t *testing.T) {
	paths := make([]string, 150)
	for i := range paths {
		paths[i] = filepath.Join("frames", "frame.png")
	}
	if got := len(sampleFrames(paths)); got != 20 {
		t.Fatalf("expected 20 sampled frames, got %d", got)
	}
	if got := len(sampleFrames(paths[:12])); got != 3 {
		t.Fatalf("expected every fifth frame of 12 to yield 3, got %d", got)
	}
}
