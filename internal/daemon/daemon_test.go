package daemon_test

import (
	"context"
	"testing"
	"time"

	"echocheck/internal/config"
	"echocheck/internal/daemon"
	"echocheck/internal/logging"
	"echocheck/internal/queue"
	"echocheck/internal/stage"
	"echocheck/internal/testsupport"
	"echocheck/internal/workflow"
)

type noopStage struct {
	name string
}

func (s *noopStage) Prepare(_ context.Context, item *queue.Item) error {
	item.InitProgress(s.name, s.name+" started")
	return nil
}

func (s *noopStage) Execute(context.Context, *queue.Item) error { return nil }

func (s *noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(s.name)
}

func newTestManager(t *testing.T, cfg *config.Config) (*workflow.Manager, *queue.Store) {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	manager := workflow.NewManager(cfg, store, logging.NewNop())
	manager.ConfigureStages(workflow.StageSet{
		Prober:    &noopStage{name: "probe"},
		Extractor: &noopStage{name: "extract"},
		Analyzer:  &noopStage{name: "analyze"},
		Evaluator: &noopStage{name: "evaluate"},
		Renderer:  &noopStage{name: "render"},
	})
	return manager, store
}

func TestDaemonStartEnforcesSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	manager, store := newTestManager(t, cfg)

	first, err := daemon.New(cfg, store, logging.NewNop(), manager, nil)
	if err != nil {
		t.Fatalf("create daemon: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("start daemon: %v", err)
	}
	defer first.Stop()

	secondManager, secondStore := newTestManager(t, cfg)
	second, err := daemon.New(cfg, secondStore, logging.NewNop(), secondManager, nil)
	if err != nil {
		t.Fatalf("create second daemon: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second daemon start to fail while lock is held")
	}

	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("expected second daemon to start after lock release: %v", err)
	}
	second.Stop()
}

func TestDaemonStatusAndQueueHelpers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	manager, store := newTestManager(t, cfg)

	d, err := daemon.New(cfg, store, logging.NewNop(), manager, nil)
	if err != nil {
		t.Fatalf("create daemon: %v", err)
	}

	status := d.Status(context.Background())
	if status.Running {
		t.Fatal("expected daemon to report stopped before Start")
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start daemon: %v", err)
	}
	defer d.Stop()

	status = d.Status(context.Background())
	if !status.Running || !status.Workflow.Running {
		t.Fatalf("expected running daemon and workflow, got %+v", status)
	}

	ctx := context.Background()
	item := testsupport.NewUpload(t, store, 1, "clip.wav")

	// Wait for the noop pipeline to finish the item so clear has work to do.
	deadline := time.Now().Add(30 * time.Second)
	for {
		current, err := store.GetByID(ctx, item.ID)
		if err != nil {
			t.Fatalf("load item: %v", err)
		}
		if current != nil && current.Status == queue.StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("item never completed, status %v", current.Status)
		}
		time.Sleep(25 * time.Millisecond)
	}

	health, err := d.QueueHealth(ctx)
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	if health.Completed != 1 {
		t.Fatalf("expected one completed item, got %+v", health)
	}

	removed, err := d.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("clear completed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one removed item, got %d", removed)
	}
}
