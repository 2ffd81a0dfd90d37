package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"echocheck/internal/preflight"
	"echocheck/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, queue, and dependency health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(out, line)
			}
			pidPath := filepath.Join(cfg.Paths.LogDir, "echocheck.pid")
			if pid, ok := readPIDFile(pidPath); ok {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", pid), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "not running", colorize))
			}
			fmt.Fprintln(out, renderStatusLine("API bind", statusInfo, cfg.Paths.APIBind, colorize))
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, ctx.configPath, colorize))
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, status := range preflight.CheckSystemDeps(cfg) {
				kind := statusOK
				message := status.Detail
				if !status.Available {
					kind = statusError
					if status.Optional {
						kind = statusWarn
					}
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
			}
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, check := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !check.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
			}
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Queue", colorize) {
				fmt.Fprintln(out, line)
			}
			return ctx.withStore(func(store *queue.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderStatusLine("Total items", statusInfo, strconv.Itoa(health.Total), colorize))
				fmt.Fprintln(out, renderStatusLine("Pending", statusInfo, strconv.Itoa(health.Pending), colorize))
				fmt.Fprintln(out, renderStatusLine("Processing", statusInfo, strconv.Itoa(health.Processing), colorize))
				fmt.Fprintln(out, renderStatusLine("Completed", statusOK, strconv.Itoa(health.Completed), colorize))
				failedKind := statusOK
				if health.Failed > 0 {
					failedKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Failed", failedKind, strconv.Itoa(health.Failed), colorize))
				reviewKind := statusOK
				if health.Review > 0 {
					reviewKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Needs review", reviewKind, strconv.Itoa(health.Review), colorize))
				return nil
			})
		},
	}
}

// readPIDFile reports the daemon pid when the pid file exists and names a
// live process.
func readPIDFile(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	// Signal 0 probes process existence without touching it.
	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}
	if err := process.Signal(syscall.Signal(0)); err != nil {
		return pid, false
	}
	return pid, true
}
