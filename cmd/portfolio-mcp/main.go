package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "portfolio-mcp",
	Short: "Portfolio automation tool server",
	Long:  "portfolio-mcp exposes portfolio analysis, market data, reporting, and strategy tools over a framed JSON protocol.",
	// SilenceUsage prevents printing usage on every error
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to portfolio-mcp.yaml")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress all log output")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("portfolio-mcp version %s\n", version))

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newToolsCmd())
}
