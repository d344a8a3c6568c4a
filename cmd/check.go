package cmd

import (
	"context"
	"errors"
	"fmt"

	statusadapter "github.com/bnema/slotwatch/internal/adapters/render/status"
	"github.com/bnema/slotwatch/internal/application"
	"github.com/bnema/slotwatch/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var (
		dryRun   bool
		asJSON   bool
		noJitter bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Poll the endpoint once and notify when a slot appears",
		Long: "check performs one poll: it waits a short random delay, fetches the availability document, " +
			"compares it with the last run and sends a notification when a slot became available or the earliest date changed. " +
			"Upstream failures (network, expired auth, HTTP errors, non-JSON bodies) are reported and exit 0 so a scheduler keeps running.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts, application.CheckCommand{DryRun: dryRun, SkipJitter: noJitter}, asJSON)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "decide without notifying or saving state")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&noJitter, "no-jitter", false, "skip the random delay before the request")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *rootOptions, command application.CheckCommand, asJSON bool) error {
	a, err := wireApp(cmd, opts, true)
	if err != nil {
		return err
	}
	defer a.close()

	// Only a dry run may fall back to logging; a real run would record an
	// undelivered slot as reported.
	if !command.DryRun {
		if err := a.cfg.ValidateDelivery(); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	source, err := a.source(ctx)
	if err != nil {
		return err
	}
	store, err := a.stateStore()
	if err != nil {
		return err
	}
	notifier, channel, err := a.notifier(ctx, command.DryRun)
	if err != nil {
		return err
	}
	a.logger.Debug("notifier ready", zap.String("channel", channel))

	checker := a.checker(source, store, notifier)

	var result application.Result
	check := func(ctx context.Context) error {
		var checkErr error
		result, checkErr = checker.Check(ctx, command)
		return checkErr
	}

	if a.stderrTTY && !asJSON {
		err = runWithSpinner(ctx, cmd.ErrOrStderr(), "Checking availability...", check)
	} else {
		err = check(ctx)
	}

	if err != nil && application.IsBenign(err) {
		failure := describeFetchFailure(err)
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), failure)
		}
		return writeFetchFailure(cmd.OutOrStdout(), failure)
	}

	// A notifier failure still produced a decision worth showing.
	if err != nil && !errors.Is(err, domain.ErrNotifyFailed) {
		return err
	}

	if writeErr := writeCheckResult(cmd, a, result, asJSON, err); writeErr != nil {
		return errors.Join(err, writeErr)
	}

	return err
}

func writeCheckResult(cmd *cobra.Command, a *app, result application.Result, asJSON bool, runErr error) error {
	out := cmd.OutOrStdout()

	if asJSON {
		payload := toCheckOutput(result)
		if runErr != nil {
			payload.Error = runErr.Error()
		}
		return writeJSON(out, payload)
	}

	if a.stdoutTTY {
		rendered, err := a.renderResult(result, statusadapter.RenderOptions{Now: a.now(), StatePath: a.cfg.State.Path})
		if err != nil {
			return fmt.Errorf("render result: %w", err)
		}
		_, err = fmt.Fprintln(out, rendered)
		return err
	}

	if _, err := fmt.Fprintln(out, statusLine(result.State.LastStatus, result.State.LastSeenEarliestDate)); err != nil {
		return err
	}

	if result.DryRun {
		note := "Dry run: no notification needed"
		if result.WouldNotify {
			note = fmt.Sprintf("Dry run: would notify (%s)", result.Reason)
		}
		_, err := fmt.Fprintln(out, note)
		return err
	}

	return nil
}
