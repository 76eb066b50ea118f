// Package aggregate folds per-project comparison reports into batch-level
// summary statistics.
package aggregate

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/sbomlab/sbomdiff/pkg/models"
)

// Aggregator accumulates project reports across a batch run. Add is safe
// to call from concurrent workers; Summarize is a non-destructive snapshot
// that may be called at any time for progress reporting.
type Aggregator struct {
	mu              sync.Mutex
	projects        int
	pairs           map[string]*pairAccumulator
	byLanguage      map[string]map[string]*pairAccumulator
	groupByLanguage bool
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLanguageGrouping additionally groups pair summaries per project
// language.
func WithLanguageGrouping() Option {
	return func(a *Aggregator) { a.groupByLanguage = true }
}

// NewAggregator creates an empty Aggregator.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		pairs:      make(map[string]*pairAccumulator),
		byLanguage: make(map[string]map[string]*pairAccumulator),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add accumulates one project report. The report is read, never retained
// or mutated.
func (a *Aggregator) Add(report *models.ProjectReport) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.projects++

	groups := []map[string]*pairAccumulator{a.pairs}
	if a.groupByLanguage && report.Language != "" {
		lang, ok := a.byLanguage[report.Language]
		if !ok {
			lang = make(map[string]*pairAccumulator)
			a.byLanguage[report.Language] = lang
		}
		groups = append(groups, lang)
	}

	for i := range report.Results {
		result := &report.Results[i]
		for _, group := range groups {
			acc := lookupPair(group, result.SourceA, result.SourceB)
			acc.projects++
			acc.jaccard.observe(&result.Jaccard)
			acc.coarseJaccard.observe(&result.CoarseJaccard)
			acc.precision.observe(result.Precision)
			acc.recall.observe(result.Recall)
			acc.f1.observe(result.F1)
		}
	}

	for _, failure := range report.Failures {
		for _, group := range groups {
			lookupPair(group, failure.SourceA, failure.SourceB).missing++
		}
	}
}

// Projects returns how many reports have been accumulated so far.
func (a *Aggregator) Projects() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.projects
}

// Summarize computes the batch summary from the accumulated state. Pure
// read; calling it repeatedly during a run is safe and yields a consistent
// snapshot each time.
func (a *Aggregator) Summarize() *models.BatchSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	summary := &models.BatchSummary{
		Projects: a.projects,
		Pairs:    summarizePairs(a.pairs),
	}
	if a.groupByLanguage && len(a.byLanguage) > 0 {
		summary.ByLanguage = make(map[string][]models.PairSummary, len(a.byLanguage))
		for language, group := range a.byLanguage {
			summary.ByLanguage[language] = summarizePairs(group)
		}
	}
	return summary
}

// LoadProjectReport reads a saved per-project report JSON file, for
// re-aggregation after the fact.
func LoadProjectReport(filename string) (*models.ProjectReport, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var report models.ProjectReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	// Stray JSON files (triage output, summaries) unmarshal into a zero
	// report; refuse them rather than inflating the project count.
	if report.Project == "" {
		return nil, fmt.Errorf("not a project report: missing project name")
	}
	return &report, nil
}

type pairAccumulator struct {
	sourceA, sourceB models.Source
	projects         int
	missing          int

	jaccard       metricAccumulator
	coarseJaccard metricAccumulator
	precision     metricAccumulator
	recall        metricAccumulator
	f1            metricAccumulator
}

// lookupPair canonicalizes the source order, so manifests listing the same
// two tools in opposite order fold into one row. Accuracy metrics are
// truth-relative, not side-relative, and are unaffected by the swap.
func lookupPair(group map[string]*pairAccumulator, a, b models.Source) *pairAccumulator {
	if b.Key() < a.Key() {
		a, b = b, a
	}
	key := a.Key() + "|" + b.Key()
	acc, ok := group[key]
	if !ok {
		acc = &pairAccumulator{sourceA: a, sourceB: b}
		group[key] = acc
	}
	return acc
}

func summarizePairs(group map[string]*pairAccumulator) []models.PairSummary {
	keys := make([]string, 0, len(group))
	for key := range group {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]models.PairSummary, 0, len(keys))
	for _, key := range keys {
		acc := group[key]
		pairs = append(pairs, models.PairSummary{
			SourceA:       acc.sourceA,
			SourceB:       acc.sourceB,
			Projects:      acc.projects,
			Missing:       acc.missing,
			Jaccard:       acc.jaccard.summarize(),
			CoarseJaccard: acc.coarseJaccard.summarize(),
			Precision:     acc.precision.summarize(),
			Recall:        acc.recall.summarize(),
			F1:            acc.f1.summarize(),
		})
	}
	return pairs
}

// metricAccumulator collects one metric's samples. Null samples (undefined
// metrics) are counted but excluded from the moments, so they never drag
// the mean toward zero.
type metricAccumulator struct {
	values []float64
	nulls  int
}

func (m *metricAccumulator) observe(value *float64) {
	if value == nil {
		m.nulls++
		return
	}
	m.values = append(m.values, *value)
}

func (m *metricAccumulator) summarize() models.MetricSummary {
	summary := models.MetricSummary{
		Count:     len(m.values),
		NullCount: m.nulls,
	}
	if len(m.values) == 0 {
		return summary
	}
	summary.Mean = ptr(mean(m.values))
	summary.Median = ptr(median(m.values))
	summary.Stdev = ptr(stdev(m.values))
	return summary
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// stdev is the population standard deviation.
func stdev(values []float64) float64 {
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func ptr(v float64) *float64 {
	return &v
}
