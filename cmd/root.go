package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridefair/app"
	"github.com/kilianp07/ridefair/config"
	"github.com/kilianp07/ridefair/infra/logger"
)

const defaultConfigPath = "config.yaml"

var (
	cfgPath string
	cfg     *config.Config
	flush   = func() {}
)

var rootCmd = &cobra.Command{
	Use:           "ridefair",
	Short:         "Fair ride pricing, scam detection and pickup hotspots",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		// the default path may be absent; an explicit one must exist
		if cmd.Flags().Changed("config") {
			cfg, err = config.Load(cfgPath)
		} else {
			cfg, err = config.LoadOptional(cfgPath)
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		f, err := app.InitMonitoring(cfg.Sentry)
		if err != nil {
			logger.New("main").Warnf("monitoring disabled: %v", err)
			return nil
		}
		flush = f
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) { flush() },
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath, "configuration file")
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		flush()
	}
	return err
}
