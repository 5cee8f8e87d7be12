package cmd

import (
	"fmt"
	"os"

	"github.com/beezlebub-bot/beezlebot-go/internal/bot"
	"github.com/spf13/cobra"
)

// startCmd connects to IRC and runs the bot until disconnected.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Connect to IRC and run the bot",
	Run: func(cmd *cobra.Command, args []string) {
		if err := bot.StartBot(); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting bot: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
