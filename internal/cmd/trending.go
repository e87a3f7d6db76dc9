package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/qrsp/sticker-alias/internal/trending"
)

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Recompute the trending lists once and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		engine := trending.New(db, trending.WithLogger(log.With().Str("component", "trending").Logger()))
		stats, err := engine.Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d users, %d entries in %s\n",
			stats.RunID, stats.Users, stats.Entries, stats.Duration)
		return nil
	},
}
