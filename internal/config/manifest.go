package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sbomlab/sbomdiff/pkg/models"
)

// Manifest describes one batch run: which SBOM files exist for which
// project, and from which tool/standard combination each came.
type Manifest struct {
	Projects []ManifestProject `yaml:"projects"`
}

// ManifestProject is one project's inputs.
type ManifestProject struct {
	Name string `yaml:"name"`
	// Language groups projects in the batch summary (e.g. "python").
	Language string `yaml:"language,omitempty"`
	// Ecosystem is the default tag for entries whose SBOM carries none.
	Ecosystem string          `yaml:"ecosystem,omitempty"`
	Inputs    []ManifestInput `yaml:"inputs"`
	// GroundTruth optionally points at an external reference list that
	// outranks any configured ground-truth tool for this project.
	GroundTruth *GroundTruthRef `yaml:"ground_truth,omitempty"`
}

// ManifestInput locates one SBOM document.
type ManifestInput struct {
	Tool     string `yaml:"tool"`
	Standard string `yaml:"standard"`
	Path     string `yaml:"path"`
}

// GroundTruthRef points at a YAML reference list of raw entries.
type GroundTruthRef struct {
	Tool string `yaml:"tool"`
	Path string `yaml:"path"`
}

// LoadManifest reads and validates a batch manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest parses manifest YAML content.
func ParseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if len(manifest.Projects) == 0 {
		return nil, fmt.Errorf("manifest lists no projects")
	}
	for i, project := range manifest.Projects {
		if project.Name == "" {
			return nil, fmt.Errorf("project %d has no name", i)
		}
		if len(project.Inputs) == 0 {
			return nil, fmt.Errorf("project %q lists no inputs", project.Name)
		}
		for _, input := range project.Inputs {
			if input.Tool == "" || input.Path == "" {
				return nil, fmt.Errorf("project %q has an input missing tool or path", project.Name)
			}
		}
	}
	return &manifest, nil
}

// LoadReferenceList reads a YAML ground-truth reference list: a sequence
// of {name, version, ecosystem} entries.
func LoadReferenceList(path string) ([]models.RawEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference list: %w", err)
	}

	var entries []models.RawEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse reference list: %w", err)
	}
	return entries, nil
}
