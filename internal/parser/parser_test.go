package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbomlab/sbomdiff/pkg/models"
)

const cycloneDXSample = `{
  "bomFormat": "CycloneDX",
  "specVersion": "1.5",
  "components": [
    {"type": "library", "name": "requests", "version": "2.31.0", "purl": "pkg:pypi/requests@2.31.0"},
    {"type": "library", "name": "flask", "version": "3.0.0", "purl": "pkg:pypi/flask@3.0.0"},
    {"type": "library", "name": "untyped", "version": "1.0.0"},
    {"type": "file", "name": "poetry.lock"}
  ]
}`

const spdxSample = `{
  "spdxVersion": "SPDX-2.3",
  "name": "demo",
  "packages": [
    {
      "SPDXID": "SPDXRef-Package-nokogiri",
      "name": "nokogiri",
      "versionInfo": "1.15.0",
      "externalRefs": [
        {"referenceCategory": "PACKAGE-MANAGER", "referenceType": "purl", "referenceLocator": "pkg:gem/nokogiri@1.15.0"}
      ]
    },
    {"SPDXID": "SPDXRef-Package-Gemfile.lock", "name": "Gemfile.lock"},
    {"SPDXID": "SPDXRef-Package-snapshot", "name": "app/Gemfile.70-0.lock"}
  ]
}`

func TestDetectStandard(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected models.Standard
		wantErr  bool
	}{
		{"cyclonedx", cycloneDXSample, models.StandardCycloneDX, false},
		{"spdx", spdxSample, models.StandardSPDX, false},
		{"unknown", `{"foo": "bar"}`, "", true},
		{"not json", `hello`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			standard, err := DetectStandard([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, standard)
		})
	}
}

func TestParseCycloneDX(t *testing.T) {
	entries, err := ParseDocument([]byte(cycloneDXSample), models.StandardCycloneDX)
	require.NoError(t, err)

	// The lock-file artifact is skipped, the untyped component kept.
	require.Len(t, entries, 3)
	assert.Equal(t, models.RawEntry{Name: "requests", Version: "2.31.0", Ecosystem: "pypi"}, entries[0])
	assert.Equal(t, "", entries[2].Ecosystem)
}

func TestParseSPDX(t *testing.T) {
	entries, err := ParseDocument([]byte(spdxSample), models.StandardSPDX)
	require.NoError(t, err)

	// Both the plain and the rotated Gemfile lock entries are skipped.
	require.Len(t, entries, 1)
	assert.Equal(t, models.RawEntry{Name: "nokogiri", Version: "1.15.0", Ecosystem: "gem"}, entries[0])
}

func TestParseFileAutodetects(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bom.json")
	require.NoError(t, os.WriteFile(path, []byte(spdxSample), 0o644))

	entries, standard, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, models.StandardSPDX, standard)
	assert.Len(t, entries, 1)
}

func TestEcosystemFromPURL(t *testing.T) {
	tests := []struct {
		purl     string
		expected string
	}{
		{"pkg:pypi/requests@2.31.0", "pypi"},
		{"pkg:npm/%40types/node@20.0.0", "npm"},
		{"pkg:cargo/serde@1.0.193", "cargo"},
		{"pkg:gem/nokogiri@1.15.0", "gem"},
		{"pkg:composer/monolog/monolog@3.5.0", "composer"},
		{"pkg:golang/github.com/spf13/cobra@v1.8.0", "golang"},
		// Out-of-scope purl types map to no ecosystem
		{"pkg:deb/debian/curl@7.88.1", ""},
		{"pkg:oci/alpine@sha256:abc", ""},
		{"not-a-purl", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.purl, func(t *testing.T) {
			assert.Equal(t, tt.expected, ecosystemFromPURL(tt.purl))
		})
	}
}

func TestIsLockfileArtifact(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"poetry.lock", true},
		{"backend/poetry.lock", true},
		{"Cargo.lock", true},
		{"Gemfile.lock", true},
		{"app/Gemfile.70-0.lock", true},
		{"composer.lock", true},
		{"package-lock.json", true},
		{"requests", false},
		{"lockfile-lint", false},
		{"Gemfile", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isLockfileArtifact(tt.name))
		})
	}
}
