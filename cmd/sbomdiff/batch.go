package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sbomlab/sbomdiff/internal/aggregate"
	"github.com/sbomlab/sbomdiff/internal/config"
	"github.com/sbomlab/sbomdiff/internal/orchestrator"
	"github.com/sbomlab/sbomdiff/internal/report"
)

var (
	batchManifestPath string
	batchOutputDir    string
	batchJobs         int
)

var batchCmd = &cobra.Command{
	Use:   "batch -m <manifest>",
	Short: "Run every comparison a batch manifest describes.",
	Long: `Run all projects in a batch manifest through a worker pool, write
one JSON report per project plus a batch summary, and print the summary
table. Relative SBOM paths in the manifest resolve against the manifest's
directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if batchJobs > 0 {
			cfg.Concurrency = batchJobs
		}

		manifest, err := config.LoadManifest(batchManifestPath)
		if err != nil {
			return err
		}

		baseDir := filepath.Dir(batchManifestPath)
		requests, warnings, err := orchestrator.Assemble(manifest, baseDir, cfg)
		if err != nil {
			return err
		}
		for _, warning := range warnings {
			log.Printf("[WARN] %s", warning)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := []aggregate.Option{}
		if cfg.GroupByLanguage {
			opts = append(opts, aggregate.WithLanguageGrouping())
		}
		agg := aggregate.NewAggregator(opts...)

		progress := func(project string, completed, total int) {
			log.Printf("[%d/%d] %s", completed, total, project)
		}

		batch := orchestrator.NewBatch(cfg.Concurrency, progress)
		reports := batch.Run(ctx, requests, agg)

		for _, projectReport := range reports {
			path, err := report.WriteProjectReport(batchOutputDir, projectReport)
			if err != nil {
				return err
			}
			log.Printf("Wrote %s", path)
		}

		summary := agg.Summarize()
		summaryPath := filepath.Join(batchOutputDir, "summary.json")
		if err := report.WriteSummary(summaryPath, summary); err != nil {
			return err
		}

		fmt.Println(report.RenderSummary(summary, report.Colorized()))

		if ctx.Err() != nil {
			return fmt.Errorf("batch interrupted after %d of %d projects", len(reports), len(requests))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVarP(&batchManifestPath, "manifest", "m", "", "Batch manifest YAML file.")
	batchCmd.Flags().StringVarP(&batchOutputDir, "output", "o", "reports", "Directory for the per-project and summary JSON reports.")
	batchCmd.Flags().IntVarP(&batchJobs, "jobs", "j", 0, "Worker pool size; overrides the configured concurrency when positive.")
	batchCmd.MarkFlagRequired("manifest")
}
