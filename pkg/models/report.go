package models

// ComparisonResult is the outcome of comparing two package sets for the
// same project. Immutable once created. Precision, recall and F1 are only
// present when one side was designated ground truth; a nil value means
// "not computable" (zero denominator), never "zero agreement".
type ComparisonResult struct {
	SourceA Source `json:"source_a"`
	SourceB Source `json:"source_b"`

	// Strict counts under (name, version, ecosystem) identity.
	Intersection int     `json:"intersection"`
	OnlyA        int     `json:"only_a"`
	OnlyB        int     `json:"only_b"`
	Union        int     `json:"union"`
	Jaccard      float64 `json:"jaccard"`

	// Coarse counts under (name, ecosystem) identity, ignoring versions.
	// Separates "found the same package" from "agreed on its version".
	CoarseIntersection int     `json:"coarse_intersection"`
	CoarseOnlyA        int     `json:"coarse_only_a"`
	CoarseOnlyB        int     `json:"coarse_only_b"`
	CoarseUnion        int     `json:"coarse_union"`
	CoarseJaccard      float64 `json:"coarse_jaccard"`

	// GroundTruth is "a" or "b" when accuracy was computed, empty otherwise.
	GroundTruth string   `json:"ground_truth,omitempty"`
	Precision   *float64 `json:"precision"`
	Recall      *float64 `json:"recall"`
	F1          *float64 `json:"f1"`

	// Disagreeing packages, kept so a report is inspectable without
	// re-running the tools.
	OnlyAPackages []PackageRecord `json:"only_a_packages,omitempty"`
	OnlyBPackages []PackageRecord `json:"only_b_packages,omitempty"`
}

// PairFailure records a requested comparison that could not run, typically
// because one side's package set was missing. Never fatal to the project.
type PairFailure struct {
	SourceA Source `json:"source_a"`
	SourceB Source `json:"source_b"`
	Reason  string `json:"reason"`
}

// SourceStats carries the normalization counters for one input set, so
// dropped and conflicting entries stay visible in the report.
type SourceStats struct {
	Source           Source `json:"source"`
	Packages         int    `json:"packages"`
	RawEntries       int    `json:"raw_entries"`
	Dropped          int    `json:"dropped"`
	VersionConflicts int    `json:"version_conflicts"`
}

// ProjectReport aggregates every comparison computed for one project.
type ProjectReport struct {
	Project  string             `json:"project"`
	Language string             `json:"language,omitempty"`
	Sources  []SourceStats      `json:"sources"`
	Results  []ComparisonResult `json:"results"`
	Failures []PairFailure      `json:"failures,omitempty"`
}

// MetricSummary is the distribution of one metric across a batch. Null
// metric values are excluded from the moments and counted separately, so a
// small sample is visible rather than silently lowering the mean.
type MetricSummary struct {
	Count     int      `json:"count"`
	NullCount int      `json:"null_count"`
	Mean      *float64 `json:"mean"`
	Median    *float64 `json:"median"`
	Stdev     *float64 `json:"stdev"`
}

// PairSummary is the aggregated view of one (source, source) pair across
// all projects in a batch.
type PairSummary struct {
	SourceA       Source        `json:"source_a"`
	SourceB       Source        `json:"source_b"`
	Projects      int           `json:"projects"`
	Missing       int           `json:"missing"`
	Jaccard       MetricSummary `json:"jaccard"`
	CoarseJaccard MetricSummary `json:"coarse_jaccard"`
	Precision     MetricSummary `json:"precision"`
	Recall        MetricSummary `json:"recall"`
	F1            MetricSummary `json:"f1"`
}

// BatchSummary is the final fold over all project reports in a run.
type BatchSummary struct {
	Projects   int                      `json:"projects"`
	Pairs      []PairSummary            `json:"pairs"`
	ByLanguage map[string][]PairSummary `json:"by_language,omitempty"`
}
