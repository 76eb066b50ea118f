package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbomlab/sbomdiff/internal/aggregate"
	"github.com/sbomlab/sbomdiff/pkg/models"
)

func fptr(v float64) *float64 { return &v }

func TestFormatMetric(t *testing.T) {
	tests := []struct {
		name     string
		metric   models.MetricSummary
		expected string
	}{
		{
			name:     "empty",
			metric:   models.MetricSummary{},
			expected: "-",
		},
		{
			name:     "only nulls",
			metric:   models.MetricSummary{NullCount: 3},
			expected: "- (3 null)",
		},
		{
			name: "values",
			metric: models.MetricSummary{
				Count: 4,
				Mean:  fptr(0.75),
				Stdev: fptr(0.125),
			},
			expected: "0.750 ± 0.125 (4)",
		},
		{
			name: "values with nulls",
			metric: models.MetricSummary{
				Count:     2,
				NullCount: 1,
				Mean:      fptr(0.5),
				Stdev:     fptr(0.0),
			},
			expected: "0.500 ± 0.000 (2) [1 null]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatMetric(tt.metric))
		})
	}
}

func TestRenderSummary(t *testing.T) {
	summary := &models.BatchSummary{
		Projects: 2,
		Pairs: []models.PairSummary{
			{
				SourceA:  models.Source{Tool: "trivy", Standard: models.StandardCycloneDX},
				SourceB:  models.Source{Tool: "syft", Standard: models.StandardCycloneDX},
				Projects: 2,
				Jaccard:  models.MetricSummary{Count: 2, Mean: fptr(0.9), Stdev: fptr(0.1)},
			},
		},
		ByLanguage: map[string][]models.PairSummary{
			"python": {
				{
					SourceA:  models.Source{Tool: "trivy", Standard: models.StandardCycloneDX},
					SourceB:  models.Source{Tool: "syft", Standard: models.StandardCycloneDX},
					Projects: 1,
				},
			},
		},
	}

	out := RenderSummary(summary, false)
	assert.Contains(t, out, "Batch summary (2 projects)")
	assert.Contains(t, out, "trivy/cyclonedx vs syft/cyclonedx")
	assert.Contains(t, out, "0.900 ± 0.100 (2)")
	assert.Contains(t, out, "python")
}

func TestWriteAndReloadProjectReport(t *testing.T) {
	dir := t.TempDir()
	report := &models.ProjectReport{
		Project: "my app/v2",
		Results: []models.ComparisonResult{
			{
				SourceA: models.Source{Tool: "trivy", Standard: models.StandardCycloneDX},
				SourceB: models.Source{Tool: "syft", Standard: models.StandardSPDX},
				Jaccard: 0.5,
			},
		},
	}

	path, err := WriteProjectReport(dir, report)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "my_app_v2.json"), path)

	loaded, err := aggregate.LoadProjectReport(path)
	require.NoError(t, err)
	assert.Equal(t, report.Project, loaded.Project)
	require.Len(t, loaded.Results, 1)
	assert.Equal(t, 0.5, loaded.Results[0].Jaccard)
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	require.NoError(t, WriteSummary(path, &models.BatchSummary{Projects: 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"projects": 1`)
}
