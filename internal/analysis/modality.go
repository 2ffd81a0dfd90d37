package analysis

// Feature keys emitted by the classifier adapters. Keys absent from a result's
// Features map are treated as absent, never as zero.
const (
	FeatureAudioQuality        = "audio_quality"
	FeatureSpectralConsistency = "spectral_consistency"
	FeatureFaceConsistency     = "face_consistency"
	FeatureTemporalCoherence   = "temporal_coherence"
)

// ModalityResult is the output contract of an upstream classifier for one
// analyzed modality (audio or video). Confidence and every feature value are
// percentages in [0, 100]; higher means more likely authentic. Values outside
// that range are a contract violation of the producer and are passed through
// unclamped.
type ModalityResult struct {
	Confidence float64            `json:"confidence"`
	ModelName  string             `json:"model"`
	Features   map[string]float64 `json:"features,omitempty"`

	// FramesAnalyzed is informational and only set for video results.
	FramesAnalyzed int `json:"frames_analyzed,omitempty"`
}

// Feature returns the named feature score and whether it is present.
func (r ModalityResult) Feature(name string) (float64, bool) {
	if r.Features == nil {
		return 0, false
	}
	value, ok := r.Features[name]
	return value, ok
}
