package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ms-loyalty/config"
	"ms-loyalty/logging"
)

// cliEnv is what every subcommand needs after start-up
type cliEnv struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	env := &cliEnv{}
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "loyaltyctl",
		Short:         "Apply MoySklad loyalty discounts outside the webhook server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if os.Getenv("ENV") != "production" {
				// A missing .env is fine; the environment is used as is.
				_ = godotenv.Overload(envFile)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			env.cfg = cfg
			env.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if env.logger != nil {
				_ = env.logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")

	rootCmd.AddCommand(applyCmd(env))
	rootCmd.AddCommand(demoCmd(env))
	rootCmd.AddCommand(runsCmd(env))
	return rootCmd
}
