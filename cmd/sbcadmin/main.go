package main

import (
	"os"

	"github.com/mysbc/sbcadmin/internal/ui"
	"github.com/spf13/cobra"
)

var noColorFlag bool

var rootCmd = &cobra.Command{
	Use:   "sbcadmin <command>",
	Short: "Multi-tenant SBC administration service",
	Long: `sbcadmin manages organizations, trunks, inbound routes, call flows and
CSAT surveys, rendering them to FreeSWITCH configuration and reloading the
engine over its control socket.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColorFlag || !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(engineCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
