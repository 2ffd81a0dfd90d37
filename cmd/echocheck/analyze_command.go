package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"echocheck/internal/fileutil"
	"echocheck/internal/queue"
)

// localUserID marks items queued from the CLI rather than an API account.
const localUserID = 0

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	var pollSeconds int

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Queue a media file for authenticity analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			sourcePath, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}
			info, err := os.Stat(sourcePath)
			if err != nil {
				return fmt.Errorf("stat source file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("source path %q is a directory", sourcePath)
			}

			fileName := filepath.Base(sourcePath)
			ext := strings.ToLower(filepath.Ext(fileName))
			if !cfg.ExtensionAllowed(ext) {
				return fmt.Errorf("unsupported file extension %q (allowed: %s)",
					ext, strings.Join(cfg.Analysis.AllowedExtensions, ", "))
			}
			if info.Size() > cfg.MaxUploadBytes() {
				return fmt.Errorf("file exceeds the %d MiB limit", cfg.Analysis.MaxUploadMiB)
			}

			stagedPath := filepath.Join(cfg.Paths.StagingDir, fmt.Sprintf("%d_%s", time.Now().Unix(), fileName))
			if err := fileutil.CopyFileVerified(sourcePath, stagedPath); err != nil {
				return fmt.Errorf("stage file: %w", err)
			}

			fileType := strings.ToUpper(strings.TrimPrefix(ext, "."))
			return ctx.withStore(func(store *queue.Store) error {
				item, err := store.NewUpload(cmd.Context(), localUserID, fileName, fileType, stagedPath, info.Size())
				if err != nil {
					_ = os.Remove(stagedPath)
					return fmt.Errorf("enqueue file: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued %s as item %d\n", item.DisplayTitle, item.ID)
				if !wait {
					fmt.Fprintln(out, "Run `echocheck queue list` to track progress (requires a running daemon).")
					return nil
				}
				return waitForCompletion(cmd.Context(), out, store, item.ID, time.Duration(pollSeconds)*time.Second)
			})
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Block until the analysis finishes and print the result")
	cmd.Flags().IntVar(&pollSeconds, "poll-interval", 2, "Seconds between progress checks when waiting")
	return cmd
}

func waitForCompletion(ctx context.Context, out io.Writer, store *queue.Store, id int64, interval time.Duration) error {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	lastStage := ""
	for {
		item, err := store.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item %d disappeared from the queue", id)
		}
		if item.ProgressStage != "" && item.ProgressStage != lastStage {
			fmt.Fprintf(out, "  %s...\n", item.ProgressStage)
			lastStage = item.ProgressStage
		}
		if item.IsTerminal() || item.Status == queue.StatusReview {
			printAnalysisResult(out, item)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func printAnalysisResult(out io.Writer, item *queue.Item) {
	switch item.Status {
	case queue.StatusCompleted:
		fmt.Fprintf(out, "Analysis complete for %s\n", item.DisplayTitle)
		if item.TruthScore != nil {
			fmt.Fprintf(out, "  Truth score: %.1f%%\n", *item.TruthScore)
		}
		if item.Verdict != "" {
			fmt.Fprintf(out, "  Verdict:     %s\n", strings.ReplaceAll(item.Verdict, "_", " "))
		}
		if anomalies, err := item.Anomalies(); err == nil && len(anomalies) > 0 {
			fmt.Fprintf(out, "  Anomalies:   %d detected\n", len(anomalies))
			for _, anomaly := range anomalies {
				fmt.Fprintf(out, "    - [%s] %s\n", anomaly.Severity, anomaly.Description)
			}
		}
		if item.ReportPath != "" {
			fmt.Fprintf(out, "  Report:      %s\n", item.ReportPath)
		}
	case queue.StatusFailed:
		fmt.Fprintf(out, "Analysis failed for %s: %s\n", item.DisplayTitle, item.ErrorMessage)
	case queue.StatusReview:
		fmt.Fprintf(out, "Analysis needs review for %s: %s\n", item.DisplayTitle, item.ReviewReason)
	default:
		fmt.Fprintf(out, "Item %d finished with status %s\n", item.ID, item.Status)
	}
}
