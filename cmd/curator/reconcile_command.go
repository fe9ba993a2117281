package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/coordinator"
	"curator/internal/logging"
	"curator/internal/preflight"
	"curator/internal/report"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var (
		batchSize      int
		maxFetches     int
		maxEntries     int
		dryRun         bool
		categoryFilter string
		jsonOutput     bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair duplicate and missing asset references",
		Long: `Scan the catalog, then repair duplicate and missing references using
overrides, spare assets already on disk, and finally the external image
source. Exits 1 when issues remain after the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			opts := coordinator.OptionsFromConfig(sess.cfg)
			flags := cmd.Flags()
			if flags.Changed("batch-size") {
				opts.BatchSize = batchSize
			}
			if flags.Changed("max-fetches") {
				opts.MaxFetches = maxFetches
			}
			if flags.Changed("max-entries") {
				opts.MaxEntries = maxEntries
			}
			opts.DryRun = dryRun
			opts.CategoryFilter = strings.TrimSpace(categoryFilter)

			if !opts.DryRun {
				if failed := preflight.Failed(preflight.RunAll(cmd.Context(), sess.cfg, sess.store)); len(failed) > 0 {
					return fmt.Errorf("preflight failed: %s: %s", failed[0].Name, failed[0].Detail)
				}
			}

			run, err := sess.coordinator.Run(cmd.Context(), opts)
			if !opts.DryRun {
				sess.notify(cmd, run, err)
			}
			if err != nil {
				return err
			}

			if jsonOutput {
				if err := writeJSON(cmd, run); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				if err := report.RenderRun(out, run, report.ShouldColorize(out)); err != nil {
					return err
				}
			}
			if run.Remaining() > 0 {
				return coordinator.ErrIssuesRemain
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Entries per batch (default from config)")
	cmd.Flags().IntVar(&maxFetches, "max-fetches", 0, "External API calls allowed this run (default from config)")
	cmd.Flags().IntVar(&maxEntries, "max-entries", 0, "Entries processed this run (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report planned repairs without writing or fetching")
	cmd.Flags().StringVar(&categoryFilter, "category-filter", "", "Only repair entries in this category")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run report as JSON")
	return cmd
}

// notify reports the run outcome. Lock contention and cancellation are not
// worth a notification.
func (s *session) notify(cmd *cobra.Command, run report.Run, runErr error) {
	var err error
	switch {
	case runErr == nil:
		err = s.notifier.NotifyRunCompleted(cmd.Context(), run)
	case errors.Is(runErr, coordinator.ErrLocked), errors.Is(runErr, context.Canceled):
		return
	default:
		err = s.notifier.NotifyRunFailed(cmd.Context(), runErr)
	}
	if err != nil {
		logging.WarnWithContext(s.logger, "failed to send notification", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run result is unaffected"),
		)
	}
}
