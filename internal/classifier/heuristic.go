package classifier

import (
	"context"
	"fmt"
	"image/color"
	"image/png"
	"math"
	"os"

	"echocheck/internal/analysis"
	"echocheck/internal/services"
)

const (
	heuristicAudioModel = "wav2vec2-mock"
	heuristicVideoModel = "vision-transformer-mock"

	// Frame sampling mirrors the remote video model: every fifth frame,
	// twenty frames at most.
	frameSampleStride = 5
	frameSampleLimit  = 20
)

// Heuristic scores media from simple signal statistics. Scores are
// deterministic for a given input, which also makes the full pipeline
// testable without an inference service.
type Heuristic struct {
	audioModel string
	videoModel string
}

// NewHeuristic builds the local fallback classifier.
func NewHeuristic() *Heuristic {
	return &Heuristic{audioModel: heuristicAudioModel, videoModel: heuristicVideoModel}
}

// ClassifyAudio derives a confidence score from waveform amplitude statistics.
func (h *Heuristic) ClassifyAudio(_ context.Context, wavPath string) (*analysis.ModalityResult, error) {
	stats, err := readWAVStats(wavPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "analyze", "classify audio",
			"Extracted audio is not a readable 16-bit WAV", err)
	}

	confidence := math.Mod(stats.MeanAmplitude*1000+stats.StdAmplitude*100, 100)
	confidence = clampScore(confidence, 40)

	return &analysis.ModalityResult{
		Confidence: confidence,
		ModelName:  h.audioModel,
		Features: map[string]float64{
			analysis.FeatureAudioQuality:        math.Min(confidence+10, 100),
			analysis.FeatureSpectralConsistency: math.Min(confidence+5, 100),
		},
	}, nil
}

// ClassifyVideo derives a confidence score from per-frame luminance spread.
// With no frames the result is a neutral 50 with zero frames analyzed.
func (h *Heuristic) ClassifyVideo(ctx context.Context, framePaths []string) (*analysis.ModalityResult, error) {
	sampled := sampleFrames(framePaths)
	if len(sampled) == 0 {
		return &analysis.ModalityResult{
			Confidence:     50.0,
			ModelName:      h.videoModel,
			FramesAnalyzed: 0,
			Features: map[string]float64{
				analysis.FeatureFaceConsistency:   50.0,
				analysis.FeatureTemporalCoherence: 50.0,
			},
		}, nil
	}

	var varianceSum float64
	for _, path := range sampled {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		spread, err := frameLuminanceSpread(path)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "analyze", "classify video",
				fmt.Sprintf("Sampled frame %s is not a readable image", path), err)
		}
		varianceSum += spread
	}
	avgSpread := varianceSum / float64(len(sampled))

	confidence := math.Mod(avgSpread*2, 100)
	confidence = clampScore(confidence, 45)

	framesAnalyzed := len(framePaths)
	if framesAnalyzed > frameSampleLimit {
		framesAnalyzed = frameSampleLimit
	}

	return &analysis.ModalityResult{
		Confidence:     confidence,
		ModelName:      h.videoModel,
		FramesAnalyzed: framesAnalyzed,
		Features: map[string]float64{
			analysis.FeatureFaceConsistency:   math.Min(confidence+8, 100),
			analysis.FeatureTemporalCoherence: math.Min(confidence+12, 100),
		},
	}, nil
}

func clampScore(value, floor float64) float64 {
	if value > 100 {
		value = 100
	}
	if value < floor {
		value = floor
	}
	return value
}

func sampleFrames(framePaths []string) []string {
	var sampled []string
	for i := 0; i < len(framePaths) && len(sampled) < frameSampleLimit; i += frameSampleStride {
		sampled = append(sampled, framePaths[i])
	}
	return sampled
}

// frameLuminanceSpread returns the standard deviation of 8-bit grayscale
// pixel values for one frame.
func frameLuminanceSpread(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return 0, err
	}

	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0, fmt.Errorf("empty image %s", path)
	}

	var sum, sumSquares float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray := luminance(img.At(x, y))
			sum += gray
			sumSquares += gray * gray
		}
	}
	mean := sum / float64(pixels)
	variance := sumSquares/float64(pixels) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance), nil
}

func luminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	// Rec. 601 luma on 8-bit channels.
	return 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
}
