package normalize

import (
	"fmt"
	"sort"

	"github.com/sbomlab/sbomdiff/pkg/models"
)

// Rule is the normalization behavior for one ecosystem. Extending support
// to a new ecosystem is a table entry, not a code branch.
type Rule struct {
	// FoldCase lowercases package names. Only set for ecosystems whose
	// index is case-insensitive.
	FoldCase bool `json:"fold_case" mapstructure:"fold_case"`
	// SeparatorEquivalence collapses '-', '_' and '.' inside names to a
	// single canonical separator, for indexes (PyPI) that treat them as
	// the same name.
	SeparatorEquivalence bool `json:"separator_equivalence" mapstructure:"separator_equivalence"`
	// TrimPlatformSuffix cuts a version at the first '-', dropping platform
	// suffixes like "1.2.3-x86_64-linux" that some gem SBOMs carry.
	TrimPlatformSuffix bool `json:"trim_platform_suffix" mapstructure:"trim_platform_suffix"`
}

// DefaultRules returns the built-in rule table.
func DefaultRules() map[models.Ecosystem]Rule {
	return map[models.Ecosystem]Rule{
		models.EcosystemPyPI:     {FoldCase: true, SeparatorEquivalence: true},
		models.EcosystemNPM:      {},
		models.EcosystemCargo:    {FoldCase: true},
		models.EcosystemGem:      {TrimPlatformSuffix: true},
		models.EcosystemComposer: {FoldCase: true},
		models.EcosystemGo:       {},
	}
}

// ConfigurationError reports an unsupported ecosystem tag in caller-supplied
// rule overrides. This is a startup-time mistake, not a data-quality issue,
// so it is surfaced as a hard error rather than a counted skip.
type ConfigurationError struct {
	Tag string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unsupported ecosystem %q in normalization rules", e.Tag)
}

// mergeRules applies overrides keyed by raw ecosystem tags on top of the
// defaults, rejecting unknown tags.
func mergeRules(overrides map[string]Rule) (map[models.Ecosystem]Rule, error) {
	rules := DefaultRules()
	// Deterministic error for tests when several tags are bad.
	tags := make([]string, 0, len(overrides))
	for tag := range overrides {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		eco, ok := models.ParseEcosystem(tag)
		if !ok {
			return nil, &ConfigurationError{Tag: tag}
		}
		rules[eco] = overrides[tag]
	}
	return rules, nil
}
