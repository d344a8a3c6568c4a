package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNotifyCmd(opts *rootOptions) *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Manage notifications",
	}

	notifyCmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a test notification through the configured channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			notifier, channel, err := a.notifier(cmd.Context(), true)
			if err != nil {
				return err
			}

			if err := a.checker(nil, nil, notifier).TestNotification(cmd.Context()); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Test notification sent via %s\n", channel)
			return err
		},
	})

	return notifyCmd
}
