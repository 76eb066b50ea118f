package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sbomlab/sbomdiff/internal/config"
	"github.com/sbomlab/sbomdiff/internal/normalize"
	"github.com/sbomlab/sbomdiff/internal/parser"
	"github.com/sbomlab/sbomdiff/pkg/models"
)

// Warning is a non-fatal problem hit while assembling a batch. An
// unreadable SBOM file drops that input (the affected pairs become
// recorded failures); it never aborts the batch.
type Warning struct {
	Project string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Project, w.Message)
}

// Assemble reads every SBOM file a manifest names, normalizes the package
// inventories, and builds one comparison request per project. Relative
// manifest paths resolve against baseDir. Configuration mistakes (unknown
// ecosystems, bad rule overrides) are errors; data problems are warnings.
func Assemble(manifest *config.Manifest, baseDir string, cfg *config.Config) ([]Request, []Warning, error) {
	var requests []Request
	var warnings []Warning

	for _, project := range manifest.Projects {
		norm, err := cfg.Normalizer(project.Ecosystem)
		if err != nil {
			return nil, warnings, fmt.Errorf("project %q: %w", project.Name, err)
		}

		req := Request{
			Project:  project.Name,
			Language: project.Language,
			Sets:     make(map[models.Source]*models.PackageSet),
		}

		var sources []models.Source
		for _, input := range project.Inputs {
			source, set, stats, err := loadInput(input, baseDir, norm)
			if err != nil {
				warnings = append(warnings, Warning{Project: project.Name, Message: err.Error()})
				// Still record the requested source so the missing pair
				// shows up as a failure instead of vanishing.
				sources = append(sources, source)
				continue
			}
			req.Sets[source] = set
			req.Sources = append(req.Sources, models.SourceStats{
				Source:           source,
				Packages:         set.Len(),
				RawEntries:       stats.Total,
				Dropped:          stats.Dropped,
				VersionConflicts: stats.VersionConflicts,
			})
			sources = append(sources, source)
		}

		truth, warning := resolveTruth(&project, baseDir, norm, cfg, &req, sources)
		if warning != "" {
			warnings = append(warnings, Warning{Project: project.Name, Message: warning})
		}

		ordered := dedupeSources(sources)
		if truth != nil && !containsSource(ordered, *truth) {
			ordered = append(ordered, *truth)
		}

		if truth != nil && cfg.Pairs == config.PairsGroundTruth {
			req.Pairs = TruthPairs(ordered, *truth)
		} else {
			req.Pairs = AllPairs(ordered, truth)
		}

		requests = append(requests, req)
	}

	return requests, warnings, nil
}

// loadInput parses and normalizes one SBOM file. The source identity is
// returned even on failure so the caller can keep the pair visible.
func loadInput(input config.ManifestInput, baseDir string, norm *normalize.Normalizer) (models.Source, *models.PackageSet, normalize.Stats, error) {
	source := models.Source{Tool: input.Tool, Standard: models.Standard(input.Standard)}

	path := input.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	var entries []models.RawEntry
	if input.Standard == "" {
		parsed, detected, err := parser.ParseFile(path)
		if err != nil {
			return source, nil, normalize.Stats{}, err
		}
		entries = parsed
		source.Standard = detected
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return source, nil, normalize.Stats{}, fmt.Errorf("failed to read SBOM file: %w", err)
		}
		entries, err = parser.ParseDocument(data, source.Standard)
		if err != nil {
			return source, nil, normalize.Stats{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	set, stats := norm.Normalize(source, entries)
	return source, set, stats, nil
}

// resolveTruth picks the ground-truth source for a project: an explicit
// reference list from the manifest wins over the configured truth tool.
func resolveTruth(project *config.ManifestProject, baseDir string, norm *normalize.Normalizer, cfg *config.Config, req *Request, sources []models.Source) (*models.Source, string) {
	if project.GroundTruth != nil {
		tool := project.GroundTruth.Tool
		if tool == "" {
			tool = "reference"
		}
		source := models.Source{Tool: tool, Standard: models.StandardReference}

		path := project.GroundTruth.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		entries, err := config.LoadReferenceList(path)
		if err != nil {
			return nil, err.Error()
		}

		set, stats := norm.Normalize(source, entries)
		req.Sets[source] = set
		req.Sources = append(req.Sources, models.SourceStats{
			Source:           source,
			Packages:         set.Len(),
			RawEntries:       stats.Total,
			Dropped:          stats.Dropped,
			VersionConflicts: stats.VersionConflicts,
		})
		return &source, ""
	}

	if cfg.GroundTruth == "" {
		return nil, ""
	}
	for _, source := range sources {
		if source.Tool == cfg.GroundTruth {
			truth := source
			return &truth, ""
		}
	}
	return nil, fmt.Sprintf("ground-truth tool %q produced no input for this project", cfg.GroundTruth)
}

func dedupeSources(sources []models.Source) []models.Source {
	seen := make(map[models.Source]bool, len(sources))
	out := make([]models.Source, 0, len(sources))
	for _, source := range sources {
		if !seen[source] {
			seen[source] = true
			out = append(out, source)
		}
	}
	return out
}

func containsSource(sources []models.Source, target models.Source) bool {
	for _, source := range sources {
		if source == target {
			return true
		}
	}
	return false
}
