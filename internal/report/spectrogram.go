package report

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"echocheck/internal/media/wavio"
)

const (
	spectrogramWindow     = 512
	spectrogramMaxColumns = 512
	spectrogramFloorDB    = -80.0
)

// RenderSpectrogram reads a mono 16-bit PCM WAV file, computes a windowed
// magnitude spectrum per column, and writes the result as a PNG image with
// low frequencies at the bottom. Long recordings are decimated to at most
// spectrogramMaxColumns columns.
func RenderSpectrogram(wavPath, outPath string) error {
	audio, err := wavio.ReadMono(wavPath)
	if err != nil {
		return err
	}
	if len(audio.Samples) < spectrogramWindow {
		return errors.New("render spectrogram: audio shorter than analysis window")
	}

	hop := (len(audio.Samples) - spectrogramWindow) / spectrogramMaxColumns
	if hop < spectrogramWindow/4 {
		hop = spectrogramWindow / 4
	}
	columns := (len(audio.Samples)-spectrogramWindow)/hop + 1
	bins := spectrogramWindow / 2

	window := hannWindow(spectrogramWindow)
	magnitudes := make([][]float64, columns)
	peak := math.Inf(-1)
	for col := 0; col < columns; col++ {
		start := col * hop
		frame := audio.Samples[start : start+spectrogramWindow]
		magnitudes[col] = spectrumDB(frame, window, bins)
		for _, db := range magnitudes[col] {
			if db > peak {
				peak = db
			}
		}
	}
	if math.IsInf(peak, -1) {
		peak = 0
	}

	img := image.NewRGBA(image.Rect(0, 0, columns, bins))
	for col := 0; col < columns; col++ {
		for bin := 0; bin < bins; bin++ {
			normalized := (magnitudes[col][bin] - peak - spectrogramFloorDB) / -spectrogramFloorDB
			if normalized < 0 {
				normalized = 0
			}
			if normalized > 1 {
				normalized = 1
			}
			// Row 0 is the top of the image, so high bins render first.
			img.SetRGBA(col, bins-1-bin, heatColor(normalized))
		}
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("render spectrogram: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("render spectrogram: encode: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("render spectrogram: %w", err)
	}
	return nil
}

func hannWindow(size int) []float64 {
	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return window
}

// spectrumDB computes per-bin magnitudes in decibels relative to full scale
// using a direct DFT. Window sizes stay small enough that an FFT is not worth
// the extra machinery here.
func spectrumDB(frame, window []float64, bins int) []float64 {
	size := len(frame)
	out := make([]float64, bins)
	for bin := 0; bin < bins; bin++ {
		var re, im float64
		angleStep := -2 * math.Pi * float64(bin) / float64(size)
		for i := 0; i < size; i++ {
			sample := frame[i] * window[i]
			angle := angleStep * float64(i)
			re += sample * math.Cos(angle)
			im += sample * math.Sin(angle)
		}
		magnitude := math.Sqrt(re*re+im*im) / float64(size)
		if magnitude < 1e-10 {
			magnitude = 1e-10
		}
		out[bin] = 20 * math.Log10(magnitude)
	}
	return out
}

// heatColor maps a normalized intensity in [0, 1] onto a dark-blue to yellow
// gradient, roughly matching the viridis colormap used by plotting tools.
func heatColor(t float64) color.RGBA {
	anchors := []struct {
		at      float64
		r, g, b float64
	}{
		{0.00, 68, 1, 84},
		{0.25, 59, 82, 139},
		{0.50, 33, 145, 140},
		{0.75, 94, 201, 98},
		{1.00, 253, 231, 37},
	}
	for i := 1; i < len(anchors); i++ {
		if t > anchors[i].at {
			continue
		}
		prev, next := anchors[i-1], anchors[i]
		f := (t - prev.at) / (next.at - prev.at)
		return color.RGBA{
			R: uint8(prev.r + (next.r-prev.r)*f),
			G: uint8(prev.g + (next.g-prev.g)*f),
			B: uint8(prev.b + (next.b-prev.b)*f),
			A: 255,
		}
	}
	last := anchors[len(anchors)-1]
	return color.RGBA{R: uint8(last.r), G: uint8(last.g), B: uint8(last.b), A: 255}
}
