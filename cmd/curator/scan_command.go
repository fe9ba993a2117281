package main

import (
	"github.com/spf13/cobra"

	"curator/internal/coordinator"
	"curator/internal/report"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Classify every catalog entry without writing",
		Long: `Classify every catalog entry as ok, duplicate, or missing and print the
result. Nothing is written. Exits 1 when any issue exists, so the command can
gate deployments.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			result, err := sess.coordinator.Scan(cmd.Context())
			if err != nil {
				return err
			}
			summary := report.NewScan(result)
			if jsonOutput {
				if err := writeJSON(cmd, summary); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				if err := report.RenderScan(out, summary, report.ShouldColorize(out)); err != nil {
					return err
				}
			}
			if summary.Counts.Issues() > 0 {
				return coordinator.ErrIssuesRemain
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the scan as JSON")
	return cmd
}
