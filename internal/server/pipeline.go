package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sbomlab/sbomdiff/internal/aggregate"
	"github.com/sbomlab/sbomdiff/internal/analysis"
	"github.com/sbomlab/sbomdiff/internal/config"
	"github.com/sbomlab/sbomdiff/internal/orchestrator"
	"github.com/sbomlab/sbomdiff/pkg/models"
)

// ProgressSender interface for sending progress updates
type ProgressSender interface {
	SendMessage(msg Message)
	SendLog(message, level string)
	SendProgress(percent int, stage, message string)
	SendError(message string, err error)
}

// Pipeline wraps the CLI batch logic for WebSocket use
type Pipeline struct {
	// Engine settings
	cfg *config.Config

	// SBOM paths in manifests resolve against this directory
	manifestRoot string

	// API key for AI triage; empty disables triage
	apiKey string

	// How many of the worst-agreeing projects to triage
	triageLimit int

	// Progress sender
	sender ProgressSender

	// Temp directory for this run's triage output
	tempDir string
}

// NewPipeline creates a new pipeline instance
func NewPipeline(cfg *config.Config, manifestRoot, apiKey string, triageLimit int, sender ProgressSender) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		manifestRoot: manifestRoot,
		apiKey:       apiKey,
		triageLimit:  triageLimit,
		sender:       sender,
	}
}

// log sends a log message both to the WebSocket client and to the console
func (p *Pipeline) log(message, level string) {
	p.sender.SendLog(message, level)

	prefix := "[INFO]"
	switch level {
	case "success":
		prefix = "[SUCCESS]"
	case "warning":
		prefix = "[WARN]"
	case "error":
		prefix = "[ERROR]"
	}
	log.Printf("%s %s", prefix, message)
}

// Run executes a full batch for the given manifest YAML content
func (p *Pipeline) Run(ctx context.Context, manifestYAML string) error {
	tempDir, err := os.MkdirTemp("", "sbomdiff-run-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	p.tempDir = tempDir
	defer os.RemoveAll(tempDir)

	p.log("Starting batch run...", "info")

	// Step 1: Parse the manifest and assemble comparison requests
	p.sender.SendProgress(0, "assemble", "Parsing manifest...")
	manifest, err := config.ParseManifest([]byte(manifestYAML))
	if err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}

	requests, warnings, err := orchestrator.Assemble(manifest, p.manifestRoot, p.cfg)
	if err != nil {
		return fmt.Errorf("failed to assemble batch: %w", err)
	}
	for _, warning := range warnings {
		p.log(warning.String(), "warning")
	}
	p.sender.SendProgress(10, "assemble", fmt.Sprintf("Assembled %d projects", len(requests)))

	for _, req := range requests {
		p.sender.SendMessage(NewProjectStatusMessage(req.Project, "pending"))
	}

	// Step 2: Run the comparisons (10% - 80%)
	opts := []aggregate.Option{}
	if p.cfg.GroupByLanguage {
		opts = append(opts, aggregate.WithLanguageGrouping())
	}
	agg := aggregate.NewAggregator(opts...)

	progress := func(project string, completed, total int) {
		percent := 10 + int(float64(completed)/float64(total)*70)
		p.sender.SendProgress(percent, "compare", fmt.Sprintf("Compared %d/%d projects", completed, total))
		p.sender.SendMessage(NewProjectStatusMessage(project, "complete"))
		p.sender.SendMessage(NewSummaryMessage(agg.Summarize(), false))
	}

	batch := orchestrator.NewBatch(p.cfg.Concurrency, progress)
	reports := batch.Run(ctx, requests, agg)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	for _, report := range reports {
		p.sender.SendMessage(NewProjectReportMessage(report))
	}

	// Step 3: Final summary (80% - 90%)
	p.sender.SendProgress(80, "summarize", "Computing batch summary...")
	summary := agg.Summarize()
	p.sender.SendMessage(NewSummaryMessage(summary, true))
	p.sender.SendProgress(90, "summarize", "Summary complete")

	// Step 4: Optional AI triage (90% - 100%)
	if p.apiKey != "" {
		p.sender.SendProgress(90, "triage", "Running AI triage on low-agreement projects...")
		if err := p.runTriage(ctx, reports); err != nil {
			// Triage is advisory; its failure never invalidates the metrics.
			p.log(fmt.Sprintf("AI triage failed: %v", err), "warning")
		}
	}
	p.sender.SendProgress(100, "triage", "Batch complete")

	p.log("Batch pipeline complete", "success")
	return nil
}

// runTriage analyzes the worst-agreeing projects and streams the
// assessments back to the client.
func (p *Pipeline) runTriage(ctx context.Context, reports []*models.ProjectReport) error {
	candidates := analysis.WorstAgreeing(reports, p.triageLimit)
	if len(candidates) == 0 {
		p.log("No disagreeing projects to triage", "info")
		return nil
	}

	analyzer, err := analysis.NewAnalyzer(p.apiKey, 3)
	if err != nil {
		return err
	}

	if err := analyzer.AnalyzeReports(ctx, candidates, p.tempDir); err != nil {
		return err
	}

	for _, report := range candidates {
		assessment, err := loadAssessment(p.tempDir, report.Project)
		if err != nil {
			p.log(fmt.Sprintf("Failed to load triage for %s: %v", report.Project, err), "warning")
			continue
		}
		p.sender.SendMessage(NewProjectTriageMessage(report.Project, assessment))
	}
	return nil
}

func loadAssessment(dir, project string) (*analysis.DisagreementAssessment, error) {
	data, err := os.ReadFile(filepath.Join(dir, analysis.TriageFileName(project)))
	if err != nil {
		return nil, err
	}
	var assessment analysis.DisagreementAssessment
	if err := json.Unmarshal(data, &assessment); err != nil {
		return nil, err
	}
	return &assessment, nil
}
