package cmd

import (
	"github.com/spf13/cobra"

	"github.com/qrsp/sticker-alias/internal/config"
	"github.com/qrsp/sticker-alias/internal/storage"
	"github.com/qrsp/sticker-alias/internal/utils"
)

// cfg is loaded once per invocation before any subcommand runs.
var cfg config.Config

var dbFlag string

var rootCmd = &cobra.Command{
	Use:   "sticker-alias",
	Short: "Telegram bot that finds stickers by alias, favorite group or trend",
	Long: `sticker-alias - Telegram inline bot for personal sticker search
  - label stickers and whole sets with aliases
  - keep nine favorite groups per user
  - serve a daily recomputed trending list`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		if dbFlag != "" {
			cfg.DBFile = dbFlag
		}
		utils.SetupLogger(cmd.ErrOrStderr(), cfg.LogPretty)
		utils.SetLogLevel(cfg.LogLevel)
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "SQLite database file (overrides DB_FILE)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(trendingCmd)
	rootCmd.AddCommand(userCmd)
}

func openDB() (*storage.DB, error) {
	return storage.New(cfg.DBFile)
}
