package classifier

import (
	"math"

	"echocheck/internal/media/wavio"
)

// wavStats summarizes a waveform with samples normalized to [-1, 1].
type wavStats struct {
	SampleCount   int
	MeanAmplitude float64
	StdAmplitude  float64
}

// readWAVStats accumulates amplitude statistics over a decoded waveform.
func readWAVStats(path string) (wavStats, error) {
	audio, err := wavio.ReadMono(path)
	if err != nil {
		return wavStats{}, err
	}

	var sum, sumSquares float64
	for _, sample := range audio.Samples {
		amplitude := math.Abs(sample)
		sum += amplitude
		sumSquares += amplitude * amplitude
	}

	count := float64(len(audio.Samples))
	mean := sum / count
	variance := sumSquares/count - mean*mean
	if variance < 0 {
		variance = 0
	}
	return wavStats{
		SampleCount:   len(audio.Samples),
		MeanAmplitude: mean,
		StdAmplitude:  math.Sqrt(variance),
	}, nil
}
