// Package parser turns SBOM documents into raw package entries. Each
// supported standard has its own typed schema and adapter; adding a new
// standard means adding one adapter, the downstream normalizer never
// changes.
package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sbomlab/sbomdiff/pkg/models"
)

// DetectStandard inspects the top-level schema markers of an SBOM document
// and reports which standard family it belongs to.
func DetectStandard(data []byte) (models.Standard, error) {
	var probe struct {
		BomFormat   string `json:"bomFormat"`
		SPDXVersion string `json:"spdxVersion"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", fmt.Errorf("failed to parse SBOM document: %w", err)
	}

	switch {
	case probe.BomFormat == "CycloneDX":
		return models.StandardCycloneDX, nil
	case probe.SPDXVersion != "":
		return models.StandardSPDX, nil
	default:
		return "", fmt.Errorf("unrecognized SBOM document: no bomFormat or spdxVersion marker")
	}
}

// ParseDocument adapts a document of the given standard into raw entries.
func ParseDocument(data []byte, standard models.Standard) ([]models.RawEntry, error) {
	switch standard {
	case models.StandardCycloneDX:
		return parseCycloneDX(data)
	case models.StandardSPDX:
		return parseSPDX(data)
	default:
		return nil, fmt.Errorf("unsupported SBOM standard: %q", standard)
	}
}

// ParseFile reads an SBOM file, detects its standard and adapts it.
func ParseFile(path string) ([]models.RawEntry, models.Standard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read SBOM file: %w", err)
	}

	standard, err := DetectStandard(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}

	entries, err := ParseDocument(data, standard)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return entries, standard, nil
}

// purlType extracts the type segment of a package URL, e.g.
// "pkg:pypi/requests@2.31.0" -> "pypi".
func purlType(purl string) string {
	rest, ok := strings.CutPrefix(purl, "pkg:")
	if !ok {
		return ""
	}
	if idx := strings.IndexByte(rest, '/'); idx != -1 {
		return rest[:idx]
	}
	return ""
}

// ecosystemFromPURL maps a purl type onto a supported ecosystem tag.
// Returns "" for types outside the comparison scope (deb, apk, oci, ...).
func ecosystemFromPURL(purl string) string {
	switch purlType(purl) {
	case "pypi":
		return string(models.EcosystemPyPI)
	case "npm":
		return string(models.EcosystemNPM)
	case "cargo":
		return string(models.EcosystemCargo)
	case "gem":
		return string(models.EcosystemGem)
	case "composer":
		return string(models.EcosystemComposer)
	case "golang":
		return string(models.EcosystemGo)
	default:
		return ""
	}
}

// isLockfileArtifact reports whether a package entry is really the lock
// file the scanner read, not a package. Some generators emit the input
// file itself as a component; those entries would poison every comparison.
func isLockfileArtifact(name string) bool {
	for _, suffix := range []string{
		"poetry.lock",
		"Cargo.lock",
		"Gemfile.lock",
		"composer.lock",
		"package-lock.json",
	} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return gemfileSnapshotPattern.MatchString(name)
}
