package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "studio",
		Short:   "Transfer Learning Studio",
		Long:    "Upload text, CSV, spreadsheet or image files, inspect text statistics and download mock transfer-learning reports",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAnalyzeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
