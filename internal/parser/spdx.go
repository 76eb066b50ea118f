package parser

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/sbomlab/sbomdiff/pkg/models"
)

// Matches rotated Gemfile snapshot entries like "Gemfile.70-0.lock" that
// some scanners list as packages.
var gemfileSnapshotPattern = regexp.MustCompile(`.*Gemfile\.\d+-\d+\.lock$`)

// spdxDocument is the subset of an SPDX JSON document the comparison
// engine needs.
type spdxDocument struct {
	SPDXVersion string        `json:"spdxVersion"`
	Name        string        `json:"name"`
	Packages    []spdxPackage `json:"packages"`
}

type spdxPackage struct {
	SPDXID       string            `json:"SPDXID"`
	Name         string            `json:"name"`
	VersionInfo  string            `json:"versionInfo"`
	ExternalRefs []spdxExternalRef `json:"externalRefs"`
}

type spdxExternalRef struct {
	ReferenceCategory string `json:"referenceCategory"`
	ReferenceType     string `json:"referenceType"`
	ReferenceLocator  string `json:"referenceLocator"`
}

// purl returns the package-url external reference, if any.
func (p spdxPackage) purl() string {
	for _, ref := range p.ExternalRefs {
		if ref.ReferenceType == "purl" {
			return ref.ReferenceLocator
		}
	}
	return ""
}

// parseSPDX adapts an SPDX JSON document into raw entries. SPDX generators
// commonly emit the scanned lock file itself as a package; those artifact
// entries are skipped.
func parseSPDX(data []byte) ([]models.RawEntry, error) {
	var doc spdxDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse SPDX document: %w", err)
	}

	entries := make([]models.RawEntry, 0, len(doc.Packages))
	for _, pkg := range doc.Packages {
		if pkg.Name == "" {
			continue
		}
		if isLockfileArtifact(pkg.Name) {
			continue
		}
		entries = append(entries, models.RawEntry{
			Name:      pkg.Name,
			Version:   pkg.VersionInfo,
			Ecosystem: ecosystemFromPURL(pkg.purl()),
		})
	}
	return entries, nil
}
