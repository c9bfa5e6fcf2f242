package main

import (
	"log/slog"
	"os"

	"agentic_debate/pkg/app"
	"agentic_debate/pkg/core/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfg        config.Config
	configPath string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "debate",
		Short: "Run AI agent debates with audience voting",
		Long: `debate drives a timed debate between proposition agents and one
opposition agent. Observers vote the active proposition debater in or out
after every round and a moderator summarizes at the end.

Start a debate without API keys:
  debate run --topic "Remote work beats the office" --simulate`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			var err error
			cfg, err = config.Load(configPath)
			return err
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/server.toml", "settings file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(validateCmd)
}

// newLogger writes to stderr so rendered events on stdout stay clean.
func newLogger() *slog.Logger {
	return app.NewLogger(os.Stderr, "text", logLevel)
}
