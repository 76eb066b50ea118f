package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbomlab/sbomdiff/pkg/models"
)

var testSource = models.Source{Tool: "trivy", Standard: models.StandardCycloneDX}

func TestNormalizeNameRules(t *testing.T) {
	norm, err := New()
	require.NoError(t, err)

	tests := []struct {
		name      string
		ecosystem string
		expected  string
	}{
		// PyPI folds case and collapses separators
		{"Django", "pypi", "django"},
		{"zope.interface", "pypi", "zope-interface"},
		{"typing_extensions", "pypi", "typing-extensions"},
		{"Flask_RESTful", "pypi", "flask-restful"},

		// npm is case-sensitive and keeps separators
		{"Left-Pad", "npm", "Left-Pad"},
		{"lodash.merge", "npm", "lodash.merge"},

		// cargo folds case but keeps separators
		{"Serde_JSON", "cargo", "serde_json"},

		// composer folds case
		{"Monolog/Monolog", "composer", "monolog/monolog"},

		// gem keeps names as-is
		{"Nokogiri", "gem", "Nokogiri"},
	}

	for _, tt := range tests {
		t.Run(tt.ecosystem+"/"+tt.name, func(t *testing.T) {
			set, stats := norm.Normalize(testSource, []models.RawEntry{
				{Name: tt.name, Version: "1.0.0", Ecosystem: tt.ecosystem},
			})
			require.Equal(t, 1, stats.Kept)
			records := set.Records()
			require.Len(t, records, 1)
			assert.Equal(t, tt.expected, records[0].Name)
		})
	}
}

func TestNormalizeVersion(t *testing.T) {
	norm, err := New()
	require.NoError(t, err)

	tests := []struct {
		version   string
		ecosystem string
		expected  string
	}{
		{"v1.2.3", "npm", "1.2.3"},
		{"V2.0.0", "npm", "2.0.0"},
		{" 1.0.0 ", "npm", "1.0.0"},
		// A leading "v" not followed by a digit is part of the version
		{"very-beta", "npm", "very-beta"},
		// Versions are not semantically parsed
		{"1.0", "npm", "1.0"},
		// gem drops platform suffixes
		{"1.15.0-x86_64-linux", "gem", "1.15.0"},
		{"1.15.0", "gem", "1.15.0"},
		// other ecosystems keep pre-release parts
		{"1.0.0-beta.1", "npm", "1.0.0-beta.1"},
	}

	for _, tt := range tests {
		t.Run(tt.ecosystem+"/"+tt.version, func(t *testing.T) {
			set, _ := norm.Normalize(testSource, []models.RawEntry{
				{Name: "pkg", Version: tt.version, Ecosystem: tt.ecosystem},
			})
			records := set.Records()
			require.Len(t, records, 1)
			assert.Equal(t, tt.expected, records[0].Version)
		})
	}
}

func TestNormalizeCollapsesDuplicates(t *testing.T) {
	norm, err := New()
	require.NoError(t, err)

	set, stats := norm.Normalize(testSource, []models.RawEntry{
		{Name: "Requests", Version: "2.31.0", Ecosystem: "pypi"},
		{Name: "requests", Version: "2.31.0", Ecosystem: "pypi"},
	})

	assert.Equal(t, 1, set.Len())
	assert.Equal(t, 1, stats.Kept)
	assert.Equal(t, 0, stats.Dropped)
	assert.Equal(t, 0, stats.VersionConflicts)
}

func TestNormalizeVersionConflictKeepsFirst(t *testing.T) {
	norm, err := New()
	require.NoError(t, err)

	set, stats := norm.Normalize(testSource, []models.RawEntry{
		{Name: "requests", Version: "2.31.0", Ecosystem: "pypi"},
		{Name: "requests", Version: "2.30.0", Ecosystem: "pypi"},
	})

	require.Equal(t, 1, set.Len())
	assert.Equal(t, 1, stats.VersionConflicts)
	records := set.Records()
	assert.Equal(t, "2.31.0", records[0].Version)
}

func TestNormalizeEcosystemIsolation(t *testing.T) {
	norm, err := New()
	require.NoError(t, err)

	// Same name and version in two ecosystems are two distinct packages.
	set, stats := norm.Normalize(testSource, []models.RawEntry{
		{Name: "left-pad", Version: "1.3.0", Ecosystem: "npm"},
		{Name: "left-pad", Version: "1.3.0", Ecosystem: "composer"},
	})

	assert.Equal(t, 2, set.Len())
	assert.Equal(t, 2, stats.Kept)
	assert.Equal(t, 0, stats.VersionConflicts)
}

func TestNormalizeDropsUntaggedEntries(t *testing.T) {
	norm, err := New()
	require.NoError(t, err)

	set, stats := norm.Normalize(testSource, []models.RawEntry{
		{Name: "mystery", Version: "1.0.0"},
		{Name: "", Version: "1.0.0", Ecosystem: "npm"},
		{Name: "lodash", Version: "4.17.21", Ecosystem: "npm"},
	})

	assert.Equal(t, 1, set.Len())
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Kept)
	assert.Equal(t, 2, stats.Dropped)
}

func TestNormalizeDefaultEcosystem(t *testing.T) {
	norm, err := New(WithDefaultEcosystem("pypi"))
	require.NoError(t, err)

	set, stats := norm.Normalize(testSource, []models.RawEntry{
		{Name: "Django", Version: "5.0"},
	})

	require.Equal(t, 1, stats.Kept)
	records := set.Records()
	require.Len(t, records, 1)
	assert.Equal(t, models.EcosystemPyPI, records[0].Ecosystem)
	assert.Equal(t, "django", records[0].Name)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	norm, err := New()
	require.NoError(t, err)

	entries := []models.RawEntry{
		{Name: "Zope.Interface", Version: "v6.1", Ecosystem: "pypi"},
		{Name: "Serde_JSON", Version: "1.0.111", Ecosystem: "cargo"},
		{Name: "nokogiri", Version: "1.15.0-arm64-darwin", Ecosystem: "gem"},
	}

	first, _ := norm.Normalize(testSource, entries)

	// Feed the normalized records back through.
	var roundTrip []models.RawEntry
	for _, r := range first.Records() {
		roundTrip = append(roundTrip, models.RawEntry{
			Name:      r.Name,
			Version:   r.Version,
			Ecosystem: string(r.Ecosystem),
		})
	}
	second, stats := norm.Normalize(testSource, roundTrip)

	assert.Equal(t, first.Records(), second.Records())
	assert.Equal(t, 0, stats.Dropped)
	assert.Equal(t, 0, stats.VersionConflicts)
}

func TestNewRejectsUnknownRuleTags(t *testing.T) {
	_, err := New(WithRuleOverrides(map[string]Rule{
		"homebrew": {FoldCase: true},
	}))
	require.Error(t, err)

	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, "homebrew", confErr.Tag)
}

func TestNewRejectsUnknownDefaultEcosystem(t *testing.T) {
	_, err := New(WithDefaultEcosystem("conda"))
	require.Error(t, err)

	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, "conda", confErr.Tag)
}

func TestRuleOverridesReplaceDefaults(t *testing.T) {
	norm, err := New(WithRuleOverrides(map[string]Rule{
		"npm": {FoldCase: true},
	}))
	require.NoError(t, err)

	set, _ := norm.Normalize(testSource, []models.RawEntry{
		{Name: "Left-Pad", Version: "1.3.0", Ecosystem: "npm"},
	})
	records := set.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "left-pad", records[0].Name)
}
