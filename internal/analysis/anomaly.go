package analysis

// Severity ranks how strongly a finding suggests manipulation.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// AnomalyType names which signal triggered a finding.
type AnomalyType string

const (
	AnomalyAudio         AnomalyType = "audio"
	AnomalyAudioSpectral AnomalyType = "audio_spectral"
	AnomalyVideo         AnomalyType = "video"
	AnomalyVideoTemporal AnomalyType = "video_temporal"
)

// Anomaly is a single threshold-triggered finding. Confidence carries the
// numeric score that tripped the rule.
type Anomaly struct {
	Type        AnomalyType `json:"type"`
	Severity    Severity    `json:"severity"`
	Description string      `json:"description"`
	Confidence  float64     `json:"confidence"`
}

// Detection thresholds. A primary confidence below HighConfidenceThreshold is
// strong evidence of manipulation; below MediumConfidenceThreshold it is
// merely suspicious. The two secondary features carry their own cutoffs.
const (
	HighConfidenceThreshold      = 40.0
	MediumConfidenceThreshold    = 60.0
	SpectralConsistencyThreshold = 50.0
	TemporalCoherenceThreshold   = 55.0
)

// DetectAnomalies applies the fixed per-modality threshold rules to the audio
// and video classifier results, in that order. A nil modality contributes no
// findings. Within a modality the primary confidence finding precedes the
// secondary feature finding, and all audio findings precede all video
// findings, so the output holds between zero and four anomalies.
func DetectAnomalies(audio, video *ModalityResult) []Anomaly {
	var anomalies []Anomaly

	if audio != nil {
		switch {
		case audio.Confidence < HighConfidenceThreshold:
			anomalies = append(anomalies, Anomaly{
				Type:        AnomalyAudio,
				Severity:    SeverityHigh,
				Description: "Significant audio manipulation detected",
				Confidence:  audio.Confidence,
			})
		case audio.Confidence < MediumConfidenceThreshold:
			anomalies = append(anomalies, Anomaly{
				Type:        AnomalyAudio,
				Severity:    SeverityMedium,
				Description: "Possible audio inconsistencies detected",
				Confidence:  audio.Confidence,
			})
		}
		if value, ok := audio.Feature(FeatureSpectralConsistency); ok && value < SpectralConsistencyThreshold {
			anomalies = append(anomalies, Anomaly{
				Type:        AnomalyAudioSpectral,
				Severity:    SeverityMedium,
				Description: "Unusual frequency patterns detected",
				Confidence:  value,
			})
		}
	}

	if video != nil {
		switch {
		case video.Confidence < HighConfidenceThreshold:
			anomalies = append(anomalies, Anomaly{
				Type:        AnomalyVideo,
				Severity:    SeverityHigh,
				Description: "Significant video manipulation detected",
				Confidence:  video.Confidence,
			})
		case video.Confidence < MediumConfidenceThreshold:
			anomalies = append(anomalies, Anomaly{
				Type:        AnomalyVideo,
				Severity:    SeverityMedium,
				Description: "Possible video inconsistencies detected",
				Confidence:  video.Confidence,
			})
		}
		if value, ok := video.Feature(FeatureTemporalCoherence); ok && value < TemporalCoherenceThreshold {
			anomalies = append(anomalies, Anomaly{
				Type:        AnomalyVideoTemporal,
				Severity:    SeverityMedium,
				Description: "Frame-to-frame inconsistencies detected",
				Confidence:  value,
			})
		}
	}

	return anomalies
}
