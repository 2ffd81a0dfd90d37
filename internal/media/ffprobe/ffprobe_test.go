package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", CodecName: "h264", AvgFrameRate: "30000/1001"},
			{CodecType: "audio", CodecName: "aac", Channels: 2},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
			BitRate:  "32000",
		},
	}
	if !result.HasAudio() || !result.HasVideo() {
		t.Fatalf("expected both modalities present")
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
	fps := result.FrameRate()
	if fps < 29.9 || fps > 30.0 {
		t.Fatalf("unexpected frame rate: %v", fps)
	}
}

func TestHasVideoIgnoresCoverArt(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", CodecName: "mp3"},
			{CodecType: "video", CodecName: "mjpeg"},
		},
	}
	if result.HasVideo() {
		t.Fatal("expected embedded cover art to be ignored")
	}
	if !result.HasAudio() {
		t.Fatal("expected audio stream to be detected")
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
	if result.FrameRate() != 0 {
		t.Fatalf("expected frame rate 0 without video stream, got %v", result.FrameRate())
	}
}
