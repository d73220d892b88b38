// Command dashboard serves the analysis dashboard and uploads reports to it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Global flags
var configPath string

var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Static analysis report dashboard",
	Long: `dashboard stores Checkstyle and PMD reports and charts their issues.

Examples:
  dashboard serve                                   # Start the HTTP server
  dashboard upload --tool pmd build/pmd.xml         # Upload a report
  dashboard upload --tool checkstyle --reference v2 checkstyle-result.xml`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file (overrides DASH_CONFIG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(uploadCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
