// Package report renders the deliverables for a finished analysis: a
// frequency spectrogram of the extracted audio and a PDF summarizing the
// verdict, scores, and anomaly findings. It is the final pipeline stage.
package report
