package models

import (
	"fmt"
	"sort"
)

// Ecosystem identifies the package-manager domain a package belongs to.
// Package names are only assumed unique within one ecosystem.
type Ecosystem string

const (
	EcosystemPyPI     Ecosystem = "pypi"
	EcosystemNPM      Ecosystem = "npm"
	EcosystemCargo    Ecosystem = "cargo"
	EcosystemGem      Ecosystem = "gem"
	EcosystemComposer Ecosystem = "composer"
	EcosystemGo       Ecosystem = "golang"
)

// KnownEcosystems returns all supported ecosystems in stable order.
func KnownEcosystems() []Ecosystem {
	return []Ecosystem{
		EcosystemPyPI,
		EcosystemNPM,
		EcosystemCargo,
		EcosystemGem,
		EcosystemComposer,
		EcosystemGo,
	}
}

// ParseEcosystem maps a raw tag to a supported ecosystem.
func ParseEcosystem(tag string) (Ecosystem, bool) {
	switch Ecosystem(tag) {
	case EcosystemPyPI, EcosystemNPM, EcosystemCargo, EcosystemGem, EcosystemComposer, EcosystemGo:
		return Ecosystem(tag), true
	}
	return "", false
}

// Standard is the SBOM output standard a document was emitted in.
type Standard string

const (
	StandardCycloneDX Standard = "cyclonedx"
	StandardSPDX      Standard = "spdx"
	// StandardReference marks a ground-truth list that came from an
	// external reference file rather than an SBOM generator.
	StandardReference Standard = "reference"
)

// Source identifies where a package set came from: the generating tool and
// the SBOM standard it emitted. The two axes are orthogonal; the same tool
// can be run in both standards.
type Source struct {
	Tool     string   `json:"tool"`
	Standard Standard `json:"standard"`
}

// Key returns a stable identifier like "trivy/cyclonedx".
func (s Source) Key() string {
	return s.Tool + "/" + string(s.Standard)
}

func (s Source) String() string {
	return s.Key()
}

// RawEntry is one package entry as produced by a tool-specific SBOM parser,
// before normalization. Version and Ecosystem may be empty.
type RawEntry struct {
	Name      string `json:"name" yaml:"name"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
	Ecosystem string `json:"ecosystem,omitempty" yaml:"ecosystem,omitempty"`
}

// PackageRecord is the normalized representation of one detected package.
// Identity for set membership is the full (name, version, ecosystem) triple.
// An empty version means "version unknown", which is a valid state distinct
// from every concrete version.
type PackageRecord struct {
	Name      string    `json:"name"`
	Version   string    `json:"version,omitempty"`
	Ecosystem Ecosystem `json:"ecosystem"`
}

// ID returns "name@version (ecosystem)", with "?" standing in for an
// unknown version.
func (r PackageRecord) ID() string {
	version := r.Version
	if version == "" {
		version = "?"
	}
	return fmt.Sprintf("%s@%s (%s)", r.Name, version, r.Ecosystem)
}

// CoarseKey identifies the package ignoring its version. Used for the
// version-insensitive secondary metric.
func (r PackageRecord) CoarseKey() string {
	return r.Name + "\x00" + string(r.Ecosystem)
}

// PackageSet is the deduplicated set of packages from exactly one SBOM
// document. Immutable once normalization finishes; safe for concurrent
// reads.
type PackageSet struct {
	source  Source
	records map[PackageRecord]struct{}
}

// NewPackageSet creates an empty set tagged with its source.
func NewPackageSet(source Source) *PackageSet {
	return &PackageSet{
		source:  source,
		records: make(map[PackageRecord]struct{}),
	}
}

// Source returns the (tool, standard) pair this set was produced from.
func (s *PackageSet) Source() Source {
	return s.source
}

// Add inserts a record. Returns false when the exact triple was already
// present.
func (s *PackageSet) Add(r PackageRecord) bool {
	if _, exists := s.records[r]; exists {
		return false
	}
	s.records[r] = struct{}{}
	return true
}

// Contains reports whether the exact triple is in the set.
func (s *PackageSet) Contains(r PackageRecord) bool {
	_, exists := s.records[r]
	return exists
}

// Len returns the number of distinct triples.
func (s *PackageSet) Len() int {
	return len(s.records)
}

// Records returns the members sorted by ecosystem, name, version.
func (s *PackageSet) Records() []PackageRecord {
	out := make([]PackageRecord, 0, len(s.records))
	for r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ecosystem != out[j].Ecosystem {
			return out[i].Ecosystem < out[j].Ecosystem
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version < out[j].Version
	})
	return out
}

// CoarseKeys returns the set of version-insensitive keys.
func (s *PackageSet) CoarseKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(s.records))
	for r := range s.records {
		keys[r.CoarseKey()] = struct{}{}
	}
	return keys
}
