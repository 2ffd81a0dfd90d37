package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"echocheck/internal/config"
	"echocheck/internal/notifications"
	"echocheck/internal/queue"
	"echocheck/internal/stage"
)

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	pollInterval time.Duration
	notifier     notifications.Service

	heartbeat *HeartbeatMonitor

	stages       []pipelineStage
	stageByStart map[queue.Status]pipelineStage
	statusOrder  []queue.Status

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastItem *queue.Item

	queueActive bool
	queueStart  time.Time
}

// StageSet bundles the concrete stage handlers the manager orchestrates.
type StageSet struct {
	Prober    stage.Handler
	Extractor stage.Handler
	Analyzer  stage.Handler
	Evaluator stage.Handler
	Renderer  stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

// NewManager constructs a workflow manager with a notifier built from
// configuration.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier
// (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifier,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}
}

// ConfigureStages registers the concrete stage handlers the workflow will run.
// Handlers left nil are skipped, which collapses the pipeline around them.
func (m *Manager) ConfigureStages(set StageSet) {
	definitions := []pipelineStage{
		{name: "probe", handler: set.Prober, startStatus: queue.StatusPending, processingStatus: queue.StatusProbing, doneStatus: queue.StatusProbed},
		{name: "extract", handler: set.Extractor, startStatus: queue.StatusProbed, processingStatus: queue.StatusExtracting, doneStatus: queue.StatusExtracted},
		{name: "analyze", handler: set.Analyzer, startStatus: queue.StatusExtracted, processingStatus: queue.StatusAnalyzing, doneStatus: queue.StatusAnalyzed},
		{name: "evaluate", handler: set.Evaluator, startStatus: queue.StatusAnalyzed, processingStatus: queue.StatusEvaluating, doneStatus: queue.StatusEvaluated},
		{name: "render", handler: set.Renderer, startStatus: queue.StatusEvaluated, processingStatus: queue.StatusRendering, doneStatus: queue.StatusCompleted},
	}

	stages := make([]pipelineStage, 0, len(definitions))
	startStatus := queue.StatusPending
	for _, def := range definitions {
		if def.handler == nil {
			continue
		}
		def.startStatus = startStatus
		stages = append(stages, def)
		startStatus = def.doneStatus
	}
	// The final configured stage always finishes the item.
	if len(stages) > 0 {
		stages[len(stages)-1].doneStatus = queue.StatusCompleted
	}

	byStart := make(map[queue.Status]pipelineStage, len(stages))
	order := make([]queue.Status, 0, len(stages))
	for _, stg := range stages {
		byStart[stg.startStatus] = stg
		order = append(order, stg.startStatus)
	}

	m.mu.Lock()
	m.stages = stages
	m.stageByStart = byStart
	m.statusOrder = order
	m.mu.Unlock()
}

func (m *Manager) stageForStatus(status queue.Status) (pipelineStage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stg, ok := m.stageByStart[status]
	return stg, ok
}
