package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			svc := notifications.NewService(cfg.Notify)
			if !notifications.Enabled(svc) {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications disabled: set notify.ntfy_topic")
				return nil
			}
			if err := svc.TestNotification(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
