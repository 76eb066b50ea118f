package analysis

// DisagreementAssessment is the AI triage result for one project whose
// SBOM tools disagree. Advisory only; it never feeds back into metrics.
type DisagreementAssessment struct {
	LikelyCause   string   `json:"likely_cause"`
	Confidence    float64  `json:"confidence"`
	Justification string   `json:"justification"`
	Indicators    []string `json:"indicators,omitempty"`
}
