// Package normalize converts raw SBOM package entries into canonical
// package sets. Normalization is deterministic and idempotent: feeding a
// set's own records back through the normalizer yields the same set.
package normalize

import (
	"strings"

	"github.com/sbomlab/sbomdiff/pkg/models"
)

// Stats counts what happened to the raw entries of one document. Dropped
// and conflicting entries are reported, never silently discarded.
type Stats struct {
	Total            int `json:"total"`
	Kept             int `json:"kept"`
	Dropped          int `json:"dropped"`
	VersionConflicts int `json:"version_conflicts"`
}

// Normalizer applies the per-ecosystem rule table. Safe for concurrent use
// once constructed.
type Normalizer struct {
	rules            map[models.Ecosystem]Rule
	defaultEcosystem models.Ecosystem // empty when entries must carry their own tag
}

// Option configures a Normalizer.
type Option func(*options)

type options struct {
	overrides        map[string]Rule
	defaultEcosystem string
}

// WithRuleOverrides replaces the built-in rules for the given ecosystem
// tags. Unknown tags make New fail with a ConfigurationError.
func WithRuleOverrides(overrides map[string]Rule) Option {
	return func(o *options) { o.overrides = overrides }
}

// WithDefaultEcosystem assigns entries that carry no ecosystem tag to the
// given ecosystem instead of dropping them.
func WithDefaultEcosystem(tag string) Option {
	return func(o *options) { o.defaultEcosystem = tag }
}

// New builds a Normalizer, validating any configured ecosystem tags.
func New(opts ...Option) (*Normalizer, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	rules, err := mergeRules(o.overrides)
	if err != nil {
		return nil, err
	}

	n := &Normalizer{rules: rules}
	if o.defaultEcosystem != "" {
		eco, ok := models.ParseEcosystem(o.defaultEcosystem)
		if !ok {
			return nil, &ConfigurationError{Tag: o.defaultEcosystem}
		}
		n.defaultEcosystem = eco
	}
	return n, nil
}

// Normalize converts raw entries into a canonical PackageSet tagged with
// its source. Entries without a resolvable ecosystem are dropped and
// counted. Duplicate packages collapse to one record: an exact duplicate
// triple is deduplicated silently, while a same-name entry carrying a
// different version keeps the first-seen version and increments the
// conflict counter.
func (n *Normalizer) Normalize(source models.Source, entries []models.RawEntry) (*models.PackageSet, Stats) {
	set := models.NewPackageSet(source)
	stats := Stats{Total: len(entries)}

	// First-seen version per (name, ecosystem), for conflict detection.
	seenVersions := make(map[string]string)

	for _, entry := range entries {
		record, ok := n.normalizeEntry(entry)
		if !ok {
			stats.Dropped++
			continue
		}

		coarse := record.CoarseKey()
		if prev, seen := seenVersions[coarse]; seen {
			if prev == record.Version {
				// Exact duplicate triple, collapse without complaint.
				continue
			}
			stats.VersionConflicts++
			continue
		}

		seenVersions[coarse] = record.Version
		set.Add(record)
		stats.Kept++
	}

	return set, stats
}

// normalizeEntry applies name, version and ecosystem normalization to one
// raw entry. Returns false when the entry is malformed beyond recovery.
func (n *Normalizer) normalizeEntry(entry models.RawEntry) (models.PackageRecord, bool) {
	eco, ok := n.resolveEcosystem(entry.Ecosystem)
	if !ok {
		return models.PackageRecord{}, false
	}
	rule := n.rules[eco]

	name := normalizeName(entry.Name, rule)
	if name == "" {
		return models.PackageRecord{}, false
	}

	return models.PackageRecord{
		Name:      name,
		Version:   normalizeVersion(entry.Version, rule),
		Ecosystem: eco,
	}, true
}

func (n *Normalizer) resolveEcosystem(tag string) (models.Ecosystem, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		if n.defaultEcosystem == "" {
			return "", false
		}
		return n.defaultEcosystem, true
	}
	return models.ParseEcosystem(tag)
}

func normalizeName(name string, rule Rule) string {
	name = strings.TrimSpace(name)
	if rule.FoldCase {
		name = strings.ToLower(name)
	}
	if rule.SeparatorEquivalence {
		name = collapseSeparators(name)
	}
	return name
}

// collapseSeparators rewrites '_' and '.' to '-', so that names an index
// treats as equivalent map to one canonical spelling.
func collapseSeparators(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '_' || c == '.' {
			c = '-'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// normalizeVersion strips surrounding whitespace and a leading "v" before a
// digit. Versions are never semantically parsed: "1.0" and "1.0.0" stay
// distinct on purpose, the coarse metric exists to absorb that.
func normalizeVersion(version string, rule Rule) string {
	version = strings.TrimSpace(version)
	if len(version) > 1 && (version[0] == 'v' || version[0] == 'V') && version[1] >= '0' && version[1] <= '9' {
		version = version[1:]
	}
	if rule.TrimPlatformSuffix {
		if idx := strings.IndexByte(version, '-'); idx != -1 {
			version = version[:idx]
		}
	}
	return version
}
