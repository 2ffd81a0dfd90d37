package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"echocheck/internal/fileutil"
	"echocheck/internal/queue"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "report <id>",
		Short: "Export the PDF report for a completed analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id < 1 {
				return fmt.Errorf("invalid item id %q", args[0])
			}

			return ctx.withStore(func(store *queue.Store) error {
				item, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("item %d not found", id)
				}
				if item.ReportPath == "" {
					return fmt.Errorf("item %d has no report (status %s)", id, item.Status)
				}
				if _, err := os.Stat(item.ReportPath); err != nil {
					return fmt.Errorf("read report: %w", err)
				}

				target := strings.TrimSpace(outputPath)
				if target == "" {
					target = fmt.Sprintf("echo_check_report_%d.pdf", id)
				}
				if err := fileutil.CopyFile(item.ReportPath, target); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote report for %s to %s\n", item.DisplayTitle, target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination path for the PDF (defaults to the working directory)")
	return cmd
}
