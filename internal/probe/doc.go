// Package probe inspects uploaded media with ffprobe and records which
// modalities an upload carries. Downstream stages branch on the probe
// summary: audio-only uploads skip frame extraction, video-only uploads skip
// audio analysis, and uploads with neither are routed to review.
package probe
