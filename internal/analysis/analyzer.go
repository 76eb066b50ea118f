// Package analysis runs optional AI triage over the projects where SBOM
// tools disagree the most, suggesting a likely cause for each gap.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/openai"

	"github.com/sbomlab/sbomdiff/pkg/models"
)

const systemPrompt = `You are an analyst specializing in software composition analysis. Your task is to look at the disagreement between two SBOM generators that scanned the same project and determine the most likely cause of the gap.

CONTEXT:
You receive, for one project, the packages only one of the two tools reported, plus the agreement counts. The inventories were already normalized (lowercased names where the ecosystem allows it, light version cleanup), so trivial formatting differences are gone.

CAUSE CATEGORIES:
1. version-format-drift: both tools found the package but claim differently formatted versions (e.g. "1.0" vs "1.0.0")
2. lockfile-artifact: one tool emits the scanned lock file or the project itself as a component
3. ecosystem-inference-gap: one tool failed to tag packages with a package URL, so they were dropped
4. tool-coverage-gap: one tool genuinely does not parse this manifest or misses transitive dependencies
5. other: anything that does not fit the above

JUDGMENT CRITERIA:
- A high coarse agreement with low strict agreement points at version-format-drift
- Package names that look like file paths point at lockfile-artifact
- A one-sided gap covering most of the inventory points at tool-coverage-gap

Provide a justification explaining your reasoning.`

// Analyzer handles AI triage of low-agreement projects.
type Analyzer struct {
	model     fantasy.LanguageModel
	semaphore chan struct{} // Limits concurrent triage calls
}

// NewAnalyzer creates an analyzer with the given concurrency limit.
func NewAnalyzer(apiKey string, concurrencyLimit int) (*Analyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required for AI triage")
	}

	provider, err := openai.New(openai.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI provider: %w", err)
	}

	ctx := context.Background()
	model, err := provider.LanguageModel(ctx, "gpt-5-mini")
	if err != nil {
		return nil, fmt.Errorf("failed to create language model: %w", err)
	}

	return &Analyzer{
		model:     model,
		semaphore: make(chan struct{}, concurrencyLimit),
	}, nil
}

// AnalyzeReports triages the given project reports in parallel, writing a
// triage JSON file per project into outputDir.
func (a *Analyzer) AnalyzeReports(ctx context.Context, reports []*models.ProjectReport, outputDir string) error {
	if len(reports) == 0 {
		return nil
	}

	log.Printf("Starting AI triage for %d projects (max %d concurrent)", len(reports), cap(a.semaphore))

	var wg sync.WaitGroup
	errChan := make(chan error, len(reports))

	for _, report := range reports {
		wg.Add(1)
		go func(r *models.ProjectReport) {
			defer wg.Done()

			select {
			case a.semaphore <- struct{}{}:
			case <-ctx.Done():
				errChan <- fmt.Errorf("triage cancelled for %s", r.Project)
				return
			}

			err := a.analyzeReport(ctx, r, outputDir)
			<-a.semaphore

			if err != nil {
				errChan <- fmt.Errorf("AI triage failed for %s: %w", r.Project, err)
			}
		}(report)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		return err // Fail fast on the first error
	}

	log.Printf("Completed AI triage for %d projects", len(reports))
	return nil
}

// analyzeReport triages a single project report.
func (a *Analyzer) analyzeReport(ctx context.Context, report *models.ProjectReport, outputDir string) error {
	// Cached from a previous run?
	triagePath := filepath.Join(outputDir, TriageFileName(report.Project))
	if _, err := os.Stat(triagePath); err == nil {
		log.Printf("  [AI] Using cached triage for %s", report.Project)
		return nil
	}

	worst := worstResult(report)
	if worst == nil || worst.Jaccard == 1.0 {
		assessment := DisagreementAssessment{
			LikelyCause:   "none",
			Confidence:    1.0,
			Justification: "All tool pairs agree exactly; nothing to triage.",
		}
		return a.saveAssessment(triagePath, assessment)
	}

	prompt := formatTriagePrompt(report.Project, worst)

	triage := DisagreementAssessment{}
	submitTool := fantasy.NewAgentTool(
		"submit_assessment",
		"Submit your assessment of this SBOM disagreement", func(
			_ context.Context,
			input DisagreementAssessment,
			_ fantasy.ToolCall,
		) (fantasy.ToolResponse, error) {
			triage = input
			return fantasy.ToolResponse{
				Content: "Assessment received",
			}, nil
		})

	agent := fantasy.NewAgent(a.model, fantasy.WithSystemPrompt(systemPrompt), fantasy.WithTools(submitTool))
	result, err := agent.Generate(ctx, fantasy.AgentCall{
		Prompt: prompt,
	})
	if err != nil {
		return fmt.Errorf("agent generation failed: %w", err)
	}

	log.Printf("  [AI] Agent response for %s:\n%s", report.Project,
		result.Response.Content.Text())

	if err := a.saveAssessment(triagePath, triage); err != nil {
		return fmt.Errorf("failed to save triage: %w", err)
	}

	log.Printf("  [AI] Completed triage for %s - cause: %s (confidence: %.2f)",
		report.Project, triage.LikelyCause, triage.Confidence)

	return nil
}

// WorstAgreeing returns up to limit reports ordered from lowest to highest
// strict Jaccard, skipping projects where every pair agrees exactly.
func WorstAgreeing(reports []*models.ProjectReport, limit int) []*models.ProjectReport {
	type scored struct {
		report  *models.ProjectReport
		jaccard float64
	}

	var candidates []scored
	for _, report := range reports {
		worst := worstResult(report)
		if worst == nil || worst.Jaccard == 1.0 {
			continue
		}
		candidates = append(candidates, scored{report: report, jaccard: worst.Jaccard})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].jaccard < candidates[j].jaccard
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]*models.ProjectReport, len(candidates))
	for i, c := range candidates {
		out[i] = c.report
	}
	return out
}

// worstResult picks the pair with the lowest strict Jaccard.
func worstResult(report *models.ProjectReport) *models.ComparisonResult {
	var worst *models.ComparisonResult
	for i := range report.Results {
		result := &report.Results[i]
		if worst == nil || result.Jaccard < worst.Jaccard {
			worst = result
		}
	}
	return worst
}

const maxPromptPackages = 20

// formatTriagePrompt builds the prompt from the worst-agreeing pair.
func formatTriagePrompt(project string, result *models.ComparisonResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Analyze the SBOM disagreement for project: %s\n\n", project))
	sb.WriteString(fmt.Sprintf("Tools compared: %s vs %s\n", result.SourceA, result.SourceB))
	sb.WriteString(fmt.Sprintf("Strict agreement: %d common, %d only in %s, %d only in %s (Jaccard %.3f)\n",
		result.Intersection, result.OnlyA, result.SourceA, result.OnlyB, result.SourceB, result.Jaccard))
	sb.WriteString(fmt.Sprintf("Version-insensitive agreement: %d common of %d (Jaccard %.3f)\n\n",
		result.CoarseIntersection, result.CoarseUnion, result.CoarseJaccard))

	writePackageList(&sb, fmt.Sprintf("Packages only %s reported", result.SourceA), result.OnlyAPackages)
	writePackageList(&sb, fmt.Sprintf("Packages only %s reported", result.SourceB), result.OnlyBPackages)

	sb.WriteString("\nUse the submit_assessment tool to provide your assessment.")
	return sb.String()
}

func writePackageList(sb *strings.Builder, title string, packages []models.PackageRecord) {
	if len(packages) == 0 {
		return
	}
	sb.WriteString(title + ":\n")
	for i, pkg := range packages {
		if i == maxPromptPackages {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(packages)-maxPromptPackages))
			break
		}
		sb.WriteString(fmt.Sprintf("  - %s\n", pkg.ID()))
	}
	sb.WriteString("\n")
}

func (a *Analyzer) saveAssessment(path string, assessment DisagreementAssessment) error {
	jsonBytes, err := json.MarshalIndent(assessment, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal assessment: %w", err)
	}

	if err := os.WriteFile(path, jsonBytes, 0o644); err != nil {
		return fmt.Errorf("failed to write triage file: %w", err)
	}
	return nil
}

// TriageFileName returns the triage file name for a project, with path
// separators replaced so it stays inside the output directory.
func TriageFileName(project string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, project)
	return name + ".triage.json"
}
