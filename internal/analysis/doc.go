// Package analysis contains the score-fusion and anomaly-detection core.
//
// It combines per-modality classifier confidences into a single truth score,
// derives a verdict band from that score, and inspects classifier output
// records against fixed thresholds to produce ordered anomaly findings. All
// functions here are pure and stateless; they hold no resources and are safe
// to call concurrently without synchronization.
package analysis
