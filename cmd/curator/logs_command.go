package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"curator/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		runID  string
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			path := filepath.Join(cfg.Paths.LogDir, "curator.log")
			match := logs.RunMatcher(runID)

			out := cmd.OutOrStdout()
			recent, offset, err := logs.Last(path, lines, match)
			if err != nil {
				return err
			}
			for _, line := range recent {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			err = logs.Follow(cmd.Context(), path, offset, logs.DefaultPoll, match, func(line string) {
				fmt.Fprintln(out, line)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().StringVar(&runID, "run", "", "Only show lines for this run id")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	return cmd
}
