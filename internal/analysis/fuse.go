package analysis

// Fusion policy constants. Video evidence is weighted 1.5x audio evidence;
// the neutral score is what we report when neither modality produced a
// confidence.
const (
	AudioWeight  = 0.4
	VideoWeight  = 0.6
	NeutralScore = 50.0
)

// FuseScores combines an optional audio confidence and an optional video
// confidence into one truth score.
//
// With both modalities present the result is the weighted average
// audio*AudioWeight + video*VideoWeight. A single present modality passes
// through unchanged. With neither present the result is NeutralScore. Inputs
// are not clamped: out-of-range values flow through arithmetically.
func FuseScores(audio, video *float64) float64 {
	switch {
	case audio != nil && video != nil:
		return *audio*AudioWeight + *video*VideoWeight
	case audio != nil:
		return *audio
	case video != nil:
		return *video
	default:
		return NeutralScore
	}
}
