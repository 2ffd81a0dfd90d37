package textutil_test

import (
	"testing"

	"echocheck/internal/textutil"
)

func TestDisplayTitle(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"interview_clip.mp4", "Interview Clip"},
		{"press-briefing.2024.mp4", "Press Briefing 2024"},
		{"/tmp/uploads/voice memo.wav", "Voice Memo"},
		{"???.mp4", "Untitled Upload"},
		{"", "Untitled Upload"},
	}
	for _, tc := range cases {
		if got := textutil.DisplayTitle(tc.input); got != tc.want {
			t.Fatalf("DisplayTitle(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := textutil.SanitizeFileName(`a/b:c*d?e"f<g>h|i`); got != "a-b-c-defghi" {
		t.Fatalf("unexpected sanitized name: %q", got)
	}
	if got := textutil.SanitizeFileName("  spaced.mp4  "); got != "spaced.mp4" {
		t.Fatalf("expected trimmed name, got %q", got)
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := textutil.SanitizeToken("My Clip (final).MP4"); got != "my_clip__final__mp4" {
		t.Fatalf("unexpected token: %q", got)
	}
	if got := textutil.SanitizeToken("  "); got != "unknown" {
		t.Fatalf("expected unknown for blank input, got %q", got)
	}
}
