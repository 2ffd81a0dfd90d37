package report

import (
	"encoding/binary"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeToneWAV(t *testing.T, dir string, seconds float64) string {
	t.Helper()

	const sampleRate = 16000
	count := int(seconds * sampleRate)
	samples := make([]int16, count)
	for i := range samples {
		phase := 2 * math.Pi * 440 * float64(i) / sampleRate
		samples[i] = int16(12000 * math.Sin(phase))
	}

	dataSize := len(samples) * 2
	buf := make([]byte, 0, 44+dataSize)
	buf = append(buf, []byte("RIFF")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+dataSize))
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1)
	buf = binary.LittleEndian.AppendUint16(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, sampleRate)
	buf = binary.LittleEndian.AppendUint32(buf, sampleRate*2)
	buf = binary.LittleEndian.AppendUint16(buf, 2)
	buf = binary.LittleEndian.AppendUint16(buf, 16)
	buf = append(buf, []byte("data")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataSize))
	for _, sample := range samples {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(sample))
	}

	path := filepath.Join(dir, "tone.wav")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	return path
}

func TestRenderSpectrogramProducesDecodablePNG(t *testing.T) {
	dir := t.TempDir()
	wavPath := writeToneWAV(t, dir, 1.0)
	outPath := filepath.Join(dir, "spectrogram.png")

	if err := RenderSpectrogram(wavPath, outPath); err != nil {
		t.Fatalf("RenderSpectrogram failed: %v", err)
	}

	file, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() != spectrogramWindow/2 {
		t.Fatalf("unexpected image dimensions %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderSpectrogramRejectsShortAudio(t *testing.T) {
	dir := t.TempDir()
	wavPath := writeToneWAV(t, dir, 0.01)

	err := RenderSpectrogram(wavPath, filepath.Join(dir, "out.png"))
	if err == nil {
		t.Fatal("expected error for audio shorter than analysis window")
	}
}

func TestHeatColorEndpoints(t *testing.T) {
	low := heatColor(0)
	high := heatColor(1)
	if low == high {
		t.Fatal("expected distinct colors at gradient endpoints")
	}
	if high.B > high.G {
		t.Fatalf("expected warm color at full intensity, got %+v", high)
	}
}
