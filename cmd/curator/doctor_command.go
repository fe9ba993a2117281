package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"curator/internal/catalog"
	"curator/internal/checkpoint"
	"curator/internal/fetcher"
	"curator/internal/logging"
	"curator/internal/preflight"
	"curator/internal/report"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, catalog access, and the image source",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			var adapter catalog.Adapter
			store, openErr := openCatalog(cmd.Context(), cfg.Catalog)
			if openErr == nil {
				defer store.Close()
				adapter = store
			}

			results := preflight.RunAll(cmd.Context(), cfg, adapter)
			if openErr != nil {
				for i := range results {
					if results[i].Name == "Catalog" {
						results[i].Detail = openErr.Error()
					}
				}
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			quota := checkpoint.NewStore(cfg.CheckpointPath(), logger)
			record := func(at time.Time) {
				if err := quota.RecordAPICall(at, fetcher.QuotaWindow); err != nil {
					logging.WarnWithContext(logger, "failed to record doctor api call", "checkpoint_save_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "the next run may exceed the hourly quota by one call"),
					)
				}
			}
			results = append(results, preflight.CheckUnsplash(cmd.Context(), cfg.Unsplash, record))

			out := cmd.OutOrStdout()
			if err := renderDoctor(out, results, report.ShouldColorize(out)); err != nil {
				return err
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}
}

func renderDoctor(w io.Writer, results []preflight.Result, colorize bool) error {
	var b strings.Builder
	for _, line := range report.SectionHeader("Doctor", colorize) {
		b.WriteString(line + "\n")
	}
	rows := make([]report.Row, 0, len(results))
	failed := 0
	for _, r := range results {
		row := report.Row{Cells: []string{r.Name, "ok", r.Detail}}
		if !r.Passed {
			row.Cells[1], row.Kind = "fail", report.KindError
			failed++
		}
		rows = append(rows, row)
	}
	b.WriteString(report.ListTable([]string{"Check", "Status", "Detail"}, rows, colorize))
	b.WriteString("\n\n")
	if failed == 0 {
		b.WriteString(report.StatusLine("Result", report.KindOK, "all checks passed", colorize) + "\n")
	} else {
		b.WriteString(report.StatusLine("Result", report.KindError, fmt.Sprintf("%d failed", failed), colorize) + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
