package cli

import (
	"github.com/spf13/cobra"

	"jackpot-alerts/internal/app"
)

var (
	showFeeds []string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the last persisted amount of each feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ShowOptions{
			Feeds: showFeeds,
		}

		return getApp().Show(cmd.Context(), cmd.OutOrStdout(), opts)
	},
}

func init() {
	showCmd.Flags().StringSliceVar(&showFeeds, "feed", nil, "Feed names to display (defaults to all)")
}
