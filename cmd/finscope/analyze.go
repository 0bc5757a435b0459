package main

import (
	"github.com/newthinker/finscope/internal/analysis"
	"github.com/spf13/cobra"
)

var analyzeSummarize bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze SYMBOL",
	Short: "Fetch quote, overview and history in parallel and print the combined report",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVarP(&analyzeSummarize, "summarize", "s", false, "add an LLM written summary (needs llm.provider)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	a, _, log, err := newApp()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()

	report, err := a.Analyzer().Analyze(cmd.Context(), args[0], analysis.Options{Summarize: analyzeSummarize})
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), report)
}
