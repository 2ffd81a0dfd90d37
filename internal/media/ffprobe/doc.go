// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no echocheck-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods on Result report which modalities are present, which drives
// whether audio analysis, video analysis, or both run for an upload.
package ffprobe
