package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sbomlab/sbomdiff/internal/compare"
	"github.com/sbomlab/sbomdiff/internal/config"
	"github.com/sbomlab/sbomdiff/internal/normalize"
	"github.com/sbomlab/sbomdiff/internal/parser"
	"github.com/sbomlab/sbomdiff/pkg/models"
)

var (
	compareFileA      string
	compareFileB      string
	compareToolA      string
	compareToolB      string
	compareStandardA  string
	compareStandardB  string
	compareEcosystem  string
	compareTruthSide  string
	compareOutputPath string
)

var compareCmd = &cobra.Command{
	Use:   "compare -a <sbom> -b <sbom>",
	Short: "Compare two SBOM documents and print the agreement metrics.",
	Long: `Compare two SBOM documents for the same project. Both files are
parsed, normalized and diffed; the result is a JSON report with strict and
version-insensitive agreement, plus accuracy metrics when one side is
designated as ground truth.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		norm, err := cfg.Normalizer(compareEcosystem)
		if err != nil {
			return err
		}

		setA, statsA, err := loadComparisonSide(compareFileA, compareToolA, compareStandardA, norm)
		if err != nil {
			return err
		}
		setB, statsB, err := loadComparisonSide(compareFileB, compareToolB, compareStandardB, norm)
		if err != nil {
			return err
		}

		truth := compare.TruthNone
		switch compareTruthSide {
		case "":
		case "a":
			truth = compare.TruthA
		case "b":
			truth = compare.TruthB
		default:
			return fmt.Errorf("invalid --ground-truth %q (supported: a, b)", compareTruthSide)
		}

		report := &models.ProjectReport{
			Project: "ad-hoc",
			Sources: []models.SourceStats{statsA, statsB},
			Results: []models.ComparisonResult{compare.Compare(setA, setB, truth)},
		}

		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		if compareOutputPath == "" {
			fmt.Println(string(data))
			return nil
		}
		return os.WriteFile(compareOutputPath, data, 0o644)
	},
}

// loadComparisonSide parses and normalizes one SBOM file for the compare
// command. An empty standard means autodetect.
func loadComparisonSide(path, tool, standard string, norm *normalize.Normalizer) (*models.PackageSet, models.SourceStats, error) {
	source := models.Source{Tool: tool, Standard: models.Standard(standard)}

	var entries []models.RawEntry
	if standard == "" {
		parsed, detected, err := parser.ParseFile(path)
		if err != nil {
			return nil, models.SourceStats{}, err
		}
		entries = parsed
		source.Standard = detected
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, models.SourceStats{}, fmt.Errorf("failed to read SBOM file: %w", err)
		}
		entries, err = parser.ParseDocument(data, source.Standard)
		if err != nil {
			return nil, models.SourceStats{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	set, stats := norm.Normalize(source, entries)
	return set, models.SourceStats{
		Source:           source,
		Packages:         set.Len(),
		RawEntries:       stats.Total,
		Dropped:          stats.Dropped,
		VersionConflicts: stats.VersionConflicts,
	}, nil
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringVarP(&compareFileA, "file-a", "a", "", "First SBOM document.")
	compareCmd.Flags().StringVarP(&compareFileB, "file-b", "b", "", "Second SBOM document.")
	compareCmd.Flags().StringVar(&compareToolA, "tool-a", "tool-a", "Name of the tool that produced the first document.")
	compareCmd.Flags().StringVar(&compareToolB, "tool-b", "tool-b", "Name of the tool that produced the second document.")
	compareCmd.Flags().StringVar(&compareStandardA, "standard-a", "", "Standard of the first document (cyclonedx, spdx); autodetected when empty.")
	compareCmd.Flags().StringVar(&compareStandardB, "standard-b", "", "Standard of the second document (cyclonedx, spdx); autodetected when empty.")
	compareCmd.Flags().StringVarP(&compareEcosystem, "ecosystem", "e", "", "Fallback ecosystem for entries without a package URL.")
	compareCmd.Flags().StringVarP(&compareTruthSide, "ground-truth", "g", "", "Treat one side as ground truth (a or b) and compute accuracy metrics.")
	compareCmd.Flags().StringVarP(&compareOutputPath, "output", "o", "", "Write the JSON report here instead of stdout.")
	compareCmd.MarkFlagRequired("file-a")
	compareCmd.MarkFlagRequired("file-b")
}
