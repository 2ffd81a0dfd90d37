package report

import (
	"context"
	"errors"
	"os"
	"testing"

	"echocheck/internal/analysis"
	"echocheck/internal/logging"
	"echocheck/internal/notifications"
	"echocheck/internal/queue"
	"echocheck/internal/services"
	"echocheck/internal/testsupport"
)

type stubDirectory struct {
	name string
}

func (s stubDirectory) DisplayName(context.Context, int64) (string, error) {
	return s.name, nil
}

type stubNotifier struct {
	events []notifications.Event
}

func (s *stubNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubNotifier) saw(event notifications.Event) bool {
	for _, seen := range s.events {
		if seen == event {
			return true
		}
	}
	return false
}

func seedEvaluatedItem(t *testing.T, store *queue.Store, verdict analysis.Verdict, score float64) *queue.Item {
	t.Helper()
	item := testsupport.NewUpload(t, store, 1, "clip.mp4")
	item.TruthScore = &score
	item.Verdict = string(verdict)
	audioScore := score
	item.AudioScore = &audioScore
	if err := item.SetAnomalies(nil); err != nil {
		t.Fatalf("SetAnomalies: %v", err)
	}
	return item
}

func TestRendererExecuteWritesReportAndSpectrogram(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := seedEvaluatedItem(t, store, analysis.VerdictLikelyAuthentic, 86.5)
	item.AudioPath = writeToneWAV(t, t.TempDir(), 1.0)

	notifier := &stubNotifier{}
	handler := NewRendererWithDependencies(cfg, store, logging.NewNop(), stubDirectory{name: "alice"}, notifier)

	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if item.ReportPath == "" {
		t.Fatal("expected report path to be set")
	}
	if info, err := os.Stat(item.ReportPath); err != nil || info.Size() == 0 {
		t.Fatalf("expected non-empty report file, err=%v", err)
	}
	if item.SpectrogramPath == "" {
		t.Fatal("expected spectrogram path to be set")
	}
	if _, err := os.Stat(item.SpectrogramPath); err != nil {
		t.Fatalf("expected spectrogram file: %v", err)
	}
	if !notifier.saw(notifications.EventAnalysisCompleted) {
		t.Fatal("expected completion notification")
	}
	if notifier.saw(notifications.EventManipulationDetected) {
		t.Fatal("did not expect manipulation notification for authentic verdict")
	}
	if item.ProgressPercent != 100 {
		t.Fatalf("expected completed progress, got %v", item.ProgressPercent)
	}
}

func TestRendererExecuteNotifiesManipulation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := seedEvaluatedItem(t, store, analysis.VerdictLikelyManipulated, 31.2)
	if err := item.SetAnomalies([]analysis.Anomaly{{
		Type:        analysis.AnomalyAudio,
		Severity:    analysis.SeverityHigh,
		Description: "Low confidence in audio authenticity",
		Confidence:  31.2,
	}}); err != nil {
		t.Fatalf("SetAnomalies: %v", err)
	}

	notifier := &stubNotifier{}
	handler := NewRendererWithDependencies(cfg, store, logging.NewNop(), nil, notifier)

	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !notifier.saw(notifications.EventManipulationDetected) {
		t.Fatal("expected manipulation notification")
	}
	if item.SpectrogramPath != "" {
		t.Fatal("expected no spectrogram without an audio track")
	}
}

func TestRendererExecuteSkipsUnrenderableSpectrogram(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := seedEvaluatedItem(t, store, analysis.VerdictUncertain, 55.0)
	item.AudioPath = "/nonexistent/audio.wav"

	handler := NewRendererWithDependencies(cfg, store, logging.NewNop(), nil, &stubNotifier{})

	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if item.SpectrogramPath != "" {
		t.Fatal("expected spectrogram path to stay empty when rendering fails")
	}
	if item.ReportPath == "" {
		t.Fatal("expected report even without spectrogram")
	}
}

func TestRendererExecuteRequiresEvaluation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewUpload(t, store, 1, "clip.mp4")

	handler := NewRendererWithDependencies(cfg, store, logging.NewNop(), nil, &stubNotifier{})

	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRendererHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	handler := NewRendererWithDependencies(cfg, store, logging.NewNop(), nil, nil)

	if health := handler.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy report stage, got %+v", health)
	}
}
