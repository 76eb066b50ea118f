// Package config loads the engine configuration and batch manifests.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/sbomlab/sbomdiff/internal/normalize"
)

// Pair selection modes for a batch run.
const (
	PairsAll         = "all"
	PairsGroundTruth = "ground-truth"
)

// Config is the engine configuration. All fields have working defaults;
// a config file and SBOMDIFF_* environment variables override them.
type Config struct {
	// Concurrency bounds the batch worker pool.
	Concurrency int `mapstructure:"concurrency"`
	// GroundTruth names the tool whose sets are the reference for
	// precision/recall. Empty disables accuracy metrics unless a project
	// manifest supplies its own reference list.
	GroundTruth string `mapstructure:"ground_truth"`
	// Pairs selects which comparisons run: "all" or "ground-truth".
	Pairs string `mapstructure:"pairs"`
	// GroupByLanguage adds per-language pair summaries to the batch
	// summary.
	GroupByLanguage bool `mapstructure:"group_by_language"`
	// Rules overrides the built-in per-ecosystem normalization table,
	// keyed by ecosystem tag. Unknown tags fail at startup.
	Rules map[string]normalize.Rule `mapstructure:"rules"`
}

// Load reads the configuration. path may be empty, in which case only
// defaults and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("concurrency", 4)
	v.SetDefault("pairs", PairsAll)
	v.SetEnvPrefix("sbomdiff")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees env values for keys that are bound or have a
	// default; AutomaticEnv alone is not enough.
	for _, key := range []string{"concurrency", "ground_truth", "pairs", "group_by_language"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Pairs != PairsAll && cfg.Pairs != PairsGroundTruth {
		return nil, fmt.Errorf("invalid pairs mode %q (supported: %s, %s)", cfg.Pairs, PairsAll, PairsGroundTruth)
	}
	if cfg.Pairs == PairsGroundTruth && cfg.GroundTruth == "" {
		return nil, fmt.Errorf("pairs mode %q requires ground_truth to name a tool", PairsGroundTruth)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &cfg, nil
}

// Normalizer builds the normalizer described by the configuration.
// Unknown ecosystem tags in the rule overrides surface here as a
// normalize.ConfigurationError.
func (c *Config) Normalizer(defaultEcosystem string) (*normalize.Normalizer, error) {
	opts := []normalize.Option{}
	if len(c.Rules) > 0 {
		opts = append(opts, normalize.WithRuleOverrides(c.Rules))
	}
	if defaultEcosystem != "" {
		opts = append(opts, normalize.WithDefaultEcosystem(defaultEcosystem))
	}
	return normalize.New(opts...)
}
