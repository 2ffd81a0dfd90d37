// Package classifier produces per-modality authenticity scores for
// extracted audio and sampled video frames.
//
// Two implementations exist. The remote classifier calls an inference
// sidecar over HTTP and is used when inference.base_url is configured. The
// heuristic classifier is a deterministic local fallback that scores media
// from waveform and frame statistics, keeping the pipeline fully functional
// on hosts without model serving.
package classifier
