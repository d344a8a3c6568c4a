package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSecretCmd(opts *rootOptions) *cobra.Command {
	secretCmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage header secrets referenced as secret:<key> in the config",
	}

	secretCmd.AddCommand(newSecretSetCmd(opts), newSecretRmCmd(opts))

	return secretCmd
}

func newSecretSetCmd(opts *rootOptions) *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "set <key>",
		Short: "Store a secret (value from --value or the first line of stdin)",
		Example: `  slotwatch secret set vfs/cookie --value 'session=...'
  pbpaste | slotwatch secret set vfs/authorize`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			if !cmd.Flags().Changed("value") {
				value, err = readSecretValue(cmd)
				if err != nil {
					return err
				}
			}
			value = strings.TrimSpace(value)
			if value == "" {
				return errors.New("secret value is empty")
			}

			backend, err := a.secretStore.PutWhere(cmd.Context(), args[0], value)
			if err != nil {
				return fmt.Errorf("store secret %q: %w", args[0], err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Stored secret %q in %s backend; reference it as secret:%s\n", args[0], backend, args[0])
			return err
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "secret value")

	return cmd
}

func newSecretRmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <key>",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a secret from every backend",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.secretStore.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("remove secret %q: %w", args[0], err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed secret %q\n", args[0])
			return err
		},
	}
}

func readSecretValue(cmd *cobra.Command) (string, error) {
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no secret value: pass --value or pipe it on stdin")
	}

	return line, nil
}
