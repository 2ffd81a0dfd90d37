package analysis_test

import (
	"math"
	"testing"

	"echocheck/internal/analysis"
)

func ptr(v float64) *float64 { return &v }

func TestFuseScoresNeutralDefault(t *testing.T) {
	if got := analysis.FuseScores(nil, nil); got != analysis.NeutralScore {
		t.Fatalf("expected neutral score %v, got %v", analysis.NeutralScore, got)
	}
}

func TestFuseScoresSingleModalityPassthrough(t *testing.T) {
	for _, v := range []float64{0, 12.5, 50, 99.9, 100} {
		if got := analysis.FuseScores(ptr(v), nil); got != v {
			t.Fatalf("audio-only fuse(%v) = %v, expected passthrough", v, got)
		}
		if got := analysis.FuseScores(nil, ptr(v)); got != v {
			t.Fatalf("video-only fuse(%v) = %v, expected passthrough", v, got)
		}
	}
}

func TestFuseScoresWeightedAverage(t *testing.T) {
	got := analysis.FuseScores(ptr(80), ptr(60))
	if got != 68.0 {
		t.Fatalf("fuse(80, 60) = %v, expected 68.0", got)
	}
}

func TestFuseScoresWeightsSumToOne(t *testing.T) {
	if sum := analysis.AudioWeight + analysis.VideoWeight; math.Abs(sum-1.0) > 1e-12 {
		t.Fatalf("fusion weights sum to %v, expected 1.0", sum)
	}
}

func TestFuseScoresBoundedByInputs(t *testing.T) {
	for a := 0.0; a <= 100; a += 7.3 {
		for v := 0.0; v <= 100; v += 9.1 {
			got := analysis.FuseScores(ptr(a), ptr(v))
			lo, hi := math.Min(a, v), math.Max(a, v)
			if got < lo-1e-9 || got > hi+1e-9 {
				t.Fatalf("fuse(%v, %v) = %v escapes [%v, %v]", a, v, got, lo, hi)
			}
		}
	}
}

// Out-of-range confidences pass through arithmetically without clamping.
// This documents current behaviour pending a product decision on whether the
// boundary should clamp instead.
func TestFuseScoresDoesNotClamp(t *testing.T) {
	if got := analysis.FuseScores(ptr(150), nil); got != 150 {
		t.Fatalf("expected unclamped passthrough of 150, got %v", got)
	}
	if got := analysis.FuseScores(nil, ptr(-20)); got != -20 {
		t.Fatalf("expected unclamped passthrough of -20, got %v", got)
	}
	got := analysis.FuseScores(ptr(200), ptr(150))
	want := 200*analysis.AudioWeight + 150*analysis.VideoWeight
	if got != want {
		t.Fatalf("fuse(200, 150) = %v, expected raw weighted average %v", got, want)
	}
}

func TestFuseScoresIdempotent(t *testing.T) {
	first := analysis.FuseScores(ptr(42.5), ptr(77.25))
	second := analysis.FuseScores(ptr(42.5), ptr(77.25))
	if first != second {
		t.Fatalf("repeated fuse calls diverged: %v vs %v", first, second)
	}
}
