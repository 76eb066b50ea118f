// Package orchestrator runs pairwise SBOM comparisons: all requested pairs
// for one project, and many projects concurrently for a batch run.
package orchestrator

import (
	"fmt"

	"github.com/sbomlab/sbomdiff/internal/compare"
	"github.com/sbomlab/sbomdiff/pkg/models"
)

// Pair is one requested comparison. When Truth designates a side, the
// result carries precision/recall/F1 against it.
type Pair struct {
	A, B  models.Source
	Truth compare.Side
}

// Request is everything needed to compare one project: the package sets
// keyed by source, their normalization counters, and the pairs to compute.
type Request struct {
	Project  string
	Language string
	Sets     map[models.Source]*models.PackageSet
	Sources  []models.SourceStats
	Pairs    []Pair
}

// AllPairs builds every unordered pair among the given sources. When truth
// is non-nil, pairs that include it get accuracy metrics with the truth
// source on the appropriate side.
func AllPairs(sources []models.Source, truth *models.Source) []Pair {
	var pairs []Pair
	for i := 0; i < len(sources); i++ {
		for j := i + 1; j < len(sources); j++ {
			pair := Pair{A: sources[i], B: sources[j]}
			if truth != nil {
				switch *truth {
				case pair.A:
					pair.Truth = compare.TruthA
				case pair.B:
					pair.Truth = compare.TruthB
				}
			}
			pairs = append(pairs, pair)
		}
	}
	return pairs
}

// TruthPairs builds one pair per non-truth source, each evaluated against
// the designated ground truth.
func TruthPairs(sources []models.Source, truth models.Source) []Pair {
	var pairs []Pair
	for _, source := range sources {
		if source == truth {
			continue
		}
		pairs = append(pairs, Pair{A: truth, B: source, Truth: compare.TruthA})
	}
	return pairs
}

// Orchestrator computes project reports. It holds no state across
// projects; the in-flight report lives only inside Run.
type Orchestrator struct{}

// New creates an Orchestrator.
func New() *Orchestrator {
	return &Orchestrator{}
}

// Run computes every requested pair for one project exactly once. A pair
// whose package set is missing becomes a recorded failure, never an abort:
// one absent tool must not block comparisons among the remaining ones.
func (o *Orchestrator) Run(req Request) *models.ProjectReport {
	report := &models.ProjectReport{
		Project:  req.Project,
		Language: req.Language,
		Sources:  req.Sources,
	}

	seen := make(map[string]bool, len(req.Pairs))
	for _, pair := range req.Pairs {
		if seen[pairKey(pair.A, pair.B)] {
			continue
		}
		seen[pairKey(pair.A, pair.B)] = true

		setA, okA := req.Sets[pair.A]
		setB, okB := req.Sets[pair.B]
		if !okA || !okB {
			report.Failures = append(report.Failures, models.PairFailure{
				SourceA: pair.A,
				SourceB: pair.B,
				Reason:  missingReason(okA, okB, pair),
			})
			continue
		}

		report.Results = append(report.Results, compare.Compare(setA, setB, pair.Truth))
	}

	return report
}

// pairKey is direction-insensitive so a pair requested both ways is still
// computed once.
func pairKey(a, b models.Source) string {
	ka, kb := a.Key(), b.Key()
	if kb < ka {
		ka, kb = kb, ka
	}
	return ka + "|" + kb
}

func missingReason(okA, okB bool, pair Pair) string {
	switch {
	case !okA && !okB:
		return fmt.Sprintf("no package set for %s or %s", pair.A, pair.B)
	case !okA:
		return fmt.Sprintf("no package set for %s", pair.A)
	default:
		return fmt.Sprintf("no package set for %s", pair.B)
	}
}
