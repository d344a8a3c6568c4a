package cmd

import (
	"fmt"

	statusadapter "github.com/bnema/slotwatch/internal/adapters/render/status"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state remembered from the last run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.stateStore()
			if err != nil {
				return err
			}

			state, err := a.checker(nil, store, nil).Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, statusOutput{Path: a.cfg.State.Path, State: toStateOutput(state)})
			}

			if a.stdoutTTY {
				rendered, err := a.renderState(state, statusadapter.RenderOptions{Now: a.now(), StatePath: a.cfg.State.Path})
				if err != nil {
					return fmt.Errorf("render status: %w", err)
				}
				_, err = fmt.Fprintln(out, rendered)
				return err
			}

			_, err = fmt.Fprintln(out, statusLine(state.LastStatus, state.LastSeenEarliestDate))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the state as JSON")

	return cmd
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the last run so the next slot triggers a notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.stateStore()
			if err != nil {
				return err
			}

			if err := a.checker(nil, store, nil).Reset(cmd.Context()); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "State reset: %s\n", a.cfg.State.Path)
			return err
		},
	}
}
