package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootOptions carries the persistent flags into the lazily wired app, so
// `--config` is parsed before any configuration is read.
type rootOptions struct {
	configPath string
	viper      *viper.Viper
}

func ExecuteContext(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{viper: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "slotwatch",
		Short: "Watch an appointment endpoint and notify when a slot opens",
		Long: "slotwatch polls an appointment-availability endpoint once per invocation, " +
			"notifies a Telegram chat when a slot appears or the earliest date moves, " +
			"and remembers the last outcome between runs. Schedule `slotwatch check` with cron or a systemd timer.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/slotwatch/config.toml)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: console or json")
	_ = opts.viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = opts.viper.BindPFlag("log.format", flags.Lookup("log-format"))

	rootCmd.AddCommand(
		newVersionCmd(),
		newCheckCmd(opts),
		newStatusCmd(opts),
		newResetCmd(opts),
		newNotifyCmd(opts),
		newSecretCmd(opts),
	)

	return rootCmd
}
