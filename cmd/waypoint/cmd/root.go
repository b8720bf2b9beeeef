package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "waypoint",
	Short: "Waypoint is a navigation orchestration service",
	Long: `A navigation orchestration service with session-secured access,
destination caching and back-stack management.
Complete documentation is available at https://github.com/jmcleod/waypoint`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Define flags and configuration settings here.
}
