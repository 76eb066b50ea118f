package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbomlab/sbomdiff/pkg/models"
)

func reportWithJaccard(project string, jaccards ...float64) *models.ProjectReport {
	report := &models.ProjectReport{Project: project}
	for _, j := range jaccards {
		report.Results = append(report.Results, models.ComparisonResult{
			SourceA: models.Source{Tool: "trivy", Standard: models.StandardCycloneDX},
			SourceB: models.Source{Tool: "syft", Standard: models.StandardCycloneDX},
			Jaccard: j,
		})
	}
	return report
}

func TestWorstAgreeing(t *testing.T) {
	reports := []*models.ProjectReport{
		reportWithJaccard("perfect", 1.0),
		reportWithJaccard("bad", 0.2),
		reportWithJaccard("worse", 0.1),
		reportWithJaccard("fine", 0.9),
		reportWithJaccard("empty"),
	}

	worst := WorstAgreeing(reports, 2)
	require.Len(t, worst, 2)
	assert.Equal(t, "worse", worst[0].Project)
	assert.Equal(t, "bad", worst[1].Project)
}

func TestWorstAgreeingUsesLowestPairPerProject(t *testing.T) {
	reports := []*models.ProjectReport{
		reportWithJaccard("mixed", 1.0, 0.1),
		reportWithJaccard("uniform", 0.5),
	}

	worst := WorstAgreeing(reports, 0)
	require.Len(t, worst, 2)
	assert.Equal(t, "mixed", worst[0].Project)
}

func TestWorstAgreeingSkipsPerfectProjects(t *testing.T) {
	reports := []*models.ProjectReport{
		reportWithJaccard("perfect", 1.0),
	}
	assert.Empty(t, WorstAgreeing(reports, 10))
}

func TestNewAnalyzerRequiresKey(t *testing.T) {
	_, err := NewAnalyzer("", 3)
	assert.Error(t, err)
}

func TestFormatTriagePrompt(t *testing.T) {
	result := &models.ComparisonResult{
		SourceA:      models.Source{Tool: "trivy", Standard: models.StandardCycloneDX},
		SourceB:      models.Source{Tool: "syft", Standard: models.StandardCycloneDX},
		Intersection: 5,
		OnlyA:        1,
		OnlyB:        2,
		Jaccard:      0.625,
		OnlyAPackages: []models.PackageRecord{
			{Name: "urllib3", Version: "2.1.0", Ecosystem: models.EcosystemPyPI},
		},
	}

	prompt := formatTriagePrompt("demo", result)
	assert.Contains(t, prompt, "demo")
	assert.Contains(t, prompt, "trivy/cyclonedx vs syft/cyclonedx")
	assert.Contains(t, prompt, "urllib3@2.1.0 (pypi)")
	assert.Contains(t, prompt, "submit_assessment")
}

func TestFormatTriagePromptTruncatesLongLists(t *testing.T) {
	result := &models.ComparisonResult{
		SourceA: models.Source{Tool: "trivy", Standard: models.StandardCycloneDX},
		SourceB: models.Source{Tool: "syft", Standard: models.StandardCycloneDX},
	}
	for i := 0; i < maxPromptPackages+7; i++ {
		result.OnlyAPackages = append(result.OnlyAPackages, models.PackageRecord{
			Name:      strings.Repeat("x", i+1),
			Ecosystem: models.EcosystemNPM,
		})
	}

	prompt := formatTriagePrompt("demo", result)
	assert.Contains(t, prompt, "and 7 more")
}

func TestTriageFileName(t *testing.T) {
	tests := []struct {
		project  string
		expected string
	}{
		{"demo", "demo.triage.json"},
		{"my app/v2", "my_app_v2.triage.json"},
		{"a\\b:c", "a_b_c.triage.json"},
	}

	for _, tt := range tests {
		t.Run(tt.project, func(t *testing.T) {
			assert.Equal(t, tt.expected, TriageFileName(tt.project))
		})
	}
}
