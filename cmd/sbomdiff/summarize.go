package main

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sbomlab/sbomdiff/internal/aggregate"
	"github.com/sbomlab/sbomdiff/internal/report"
)

var (
	summarizeInputDir   string
	summarizeOutputPath string
	summarizeByLanguage bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Re-aggregate saved project reports into a batch summary.",
	Long: `Read the per-project JSON reports a previous batch run wrote and
recompute the batch summary, optionally grouped by language. Useful for
merging the output of several runs without re-parsing any SBOMs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := filepath.Join(summarizeInputDir, "*.json")
		files, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("failed to list reports: %w", err)
		}

		opts := []aggregate.Option{}
		if summarizeByLanguage {
			opts = append(opts, aggregate.WithLanguageGrouping())
		}
		agg := aggregate.NewAggregator(opts...)

		loaded := 0
		for _, file := range files {
			if filepath.Base(file) == "summary.json" {
				continue
			}
			projectReport, err := aggregate.LoadProjectReport(file)
			if err != nil {
				log.Printf("[WARN] Skipping %s: %v", file, err)
				continue
			}
			agg.Add(projectReport)
			loaded++
		}
		if loaded == 0 {
			return fmt.Errorf("no project reports found in %s", summarizeInputDir)
		}

		summary := agg.Summarize()
		if summarizeOutputPath != "" {
			if err := report.WriteSummary(summarizeOutputPath, summary); err != nil {
				return err
			}
		}

		fmt.Println(report.RenderSummary(summary, report.Colorized()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	summarizeCmd.Flags().StringVarP(&summarizeInputDir, "input", "i", "reports", "Directory holding per-project JSON reports.")
	summarizeCmd.Flags().StringVarP(&summarizeOutputPath, "output", "o", "", "Also write the summary JSON here.")
	summarizeCmd.Flags().BoolVar(&summarizeByLanguage, "by-language", false, "Group pair summaries by project language.")
}
