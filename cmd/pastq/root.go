package main

import (
	"github.com/spf13/cobra"

	"github.com/pastq-dev/pastq/internal/api"
	"github.com/pastq-dev/pastq/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "pastq",
	Short: "Past-question extraction pipeline with LLM-powered parsing",
	Long: `PastQ extracts multiple-choice exam questions from scanned past-paper
PDFs into a deduplicated question bank using an LLM.

The pipeline includes:
  - Page-by-page text extraction and model prompting
  - Multi-strategy recovery parsing of model output
  - Schema and vocabulary validation of every candidate
  - Similarity-based deduplication that never downgrades verified records
  - Resumable jobs: stop any time, continue from the last completed page`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.pastq/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "pastq home directory (default: ~/.pastq)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
