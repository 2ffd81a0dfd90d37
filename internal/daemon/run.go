package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"echocheck/internal/api"
	"echocheck/internal/config"
	"echocheck/internal/evaluation"
	"echocheck/internal/extraction"
	"echocheck/internal/inference"
	"echocheck/internal/logging"
	"echocheck/internal/notifications"
	"echocheck/internal/preflight"
	"echocheck/internal/probe"
	"echocheck/internal/queue"
	"echocheck/internal/report"
	"echocheck/internal/users"
	"echocheck/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the echocheck daemon runtime loop and blocks until the process
// receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("echocheck-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update echocheck.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "echocheck-*.log", Exclude: []string{logPath}},
	)

	pidPath := filepath.Join(cfg.Paths.LogDir, "echocheck.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	checks := preflight.RunAll(signalCtx, cfg)
	for _, check := range checks {
		if check.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", check.Name),
				logging.String("detail", check.Detail))
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail))
	}
	if !preflight.AllPassed(checks) {
		return fmt.Errorf("preflight checks failed, see log for details")
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	userStore, err := users.Open(cfg)
	if err != nil {
		logger.Error("open users store", logging.Error(err))
		return err
	}
	defer userStore.Close()

	notifier := notifications.NewService(cfg)
	manager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	registerStages(manager, cfg, store, userStore, logger, notifier)

	apiServer := api.NewServer(cfg, store, userStore, manager, notifier, logger).HTTPServer()

	d, err := New(cfg, store, logger, manager, apiServer)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return err
	}

	<-signalCtx.Done()
	logger.Info("echocheck daemon shutting down")
	return nil
}

func registerStages(mgr *workflow.Manager, cfg *config.Config, store *queue.Store, userStore *users.Store, logger *slog.Logger, notifier notifications.Service) {
	mgr.ConfigureStages(workflow.StageSet{
		Prober:    probe.NewProber(cfg, store, logger),
		Extractor: extraction.NewExtractor(cfg, store, logger),
		Analyzer:  inference.NewAnalyzer(cfg, store, logger),
		Evaluator: evaluation.NewEvaluator(cfg, store, logger),
		Renderer:  report.NewRendererWithDependencies(cfg, store, logger, userStore, notifier),
	})
}

// ensureCurrentLogPointer keeps a stable echocheck.log path pointing at the
// newest run log. Falls back to a hard link on filesystems without symlinks.
func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "echocheck.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("ffmpeg_available", binaryAvailable(cfg.Analysis.FFmpegBinary)),
		logging.String("ffmpeg_binary", cfg.Analysis.FFmpegBinary),
		logging.Bool("ffprobe_available", binaryAvailable(cfg.Analysis.FFprobeBinary)),
		logging.String("ffprobe_binary", cfg.Analysis.FFprobeBinary),
		logging.Bool("inference_service_configured", strings.TrimSpace(cfg.Inference.BaseURL) != ""),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
