// Package report renders batch summaries for terminals and writes the
// JSON records downstream tooling consumes.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/sbomlab/sbomdiff/pkg/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	cellStyle   = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

// Colorized reports whether stdout is a terminal; piped output gets plain
// tables.
func Colorized() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// RenderSummary renders a batch summary as a bordered table, one row per
// tool pair. Metric cells show "mean ± stdev (n)" and flag null samples so
// a thin sample never hides behind a clean-looking mean.
func RenderSummary(summary *models.BatchSummary, color bool) string {
	var b strings.Builder

	b.WriteString(renderTitle(fmt.Sprintf("Batch summary (%d projects)", summary.Projects), color))
	b.WriteString("\n")
	b.WriteString(renderPairTable(summary.Pairs, color))

	if len(summary.ByLanguage) > 0 {
		for _, language := range sortedKeys(summary.ByLanguage) {
			b.WriteString("\n")
			b.WriteString(renderTitle(language, color))
			b.WriteString("\n")
			b.WriteString(renderPairTable(summary.ByLanguage[language], color))
		}
	}
	return b.String()
}

func renderTitle(text string, color bool) string {
	if !color {
		return text
	}
	return titleStyle.Render(text)
}

func renderPairTable(pairs []models.PairSummary, color bool) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Pair", "Projects", "Missing", "Jaccard", "Coarse", "Precision", "Recall", "F1").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if color && row == table.HeaderRow {
				return headerStyle.PaddingLeft(1).PaddingRight(1)
			}
			return cellStyle
		})

	for _, pair := range pairs {
		t.Row(
			fmt.Sprintf("%s vs %s", pair.SourceA, pair.SourceB),
			fmt.Sprintf("%d", pair.Projects),
			fmt.Sprintf("%d", pair.Missing),
			formatMetric(pair.Jaccard),
			formatMetric(pair.CoarseJaccard),
			formatMetric(pair.Precision),
			formatMetric(pair.Recall),
			formatMetric(pair.F1),
		)
	}
	return t.Render()
}

// formatMetric shows "mean ± stdev (n)" plus the null-sample count when
// non-zero, or "-" when no sample was computable.
func formatMetric(m models.MetricSummary) string {
	if m.Count == 0 {
		if m.NullCount > 0 {
			return fmt.Sprintf("- (%d null)", m.NullCount)
		}
		return "-"
	}
	out := fmt.Sprintf("%.3f ± %.3f (%d)", *m.Mean, *m.Stdev, m.Count)
	if m.NullCount > 0 {
		out += fmt.Sprintf(" [%d null]", m.NullCount)
	}
	return out
}

// WriteSummary writes the batch summary JSON record.
func WriteSummary(path string, summary *models.BatchSummary) error {
	return writeJSON(path, summary)
}

// WriteProjectReport writes one project report into dir, named after the
// project.
func WriteProjectReport(dir string, report *models.ProjectReport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, sanitizeName(report.Project)+".json")
	if err := writeJSON(path, report); err != nil {
		return "", err
	}
	return path, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// sanitizeName makes a project name usable as a file name.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, name)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
