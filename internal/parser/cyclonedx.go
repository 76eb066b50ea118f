package parser

import (
	"encoding/json"
	"fmt"

	"github.com/sbomlab/sbomdiff/pkg/models"
)

// cycloneDXDocument is the subset of a CycloneDX JSON BOM the comparison
// engine needs.
type cycloneDXDocument struct {
	BomFormat   string               `json:"bomFormat"`
	SpecVersion string               `json:"specVersion"`
	Components  []cycloneDXComponent `json:"components"`
}

type cycloneDXComponent struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Version string `json:"version"`
	PURL    string `json:"purl"`
}

// parseCycloneDX adapts a CycloneDX JSON document into raw entries. The
// ecosystem comes from the component purl when present; components without
// one are passed through untagged and left to the normalizer's default
// ecosystem or dropped-entry accounting.
func parseCycloneDX(data []byte) ([]models.RawEntry, error) {
	var doc cycloneDXDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse CycloneDX document: %w", err)
	}

	entries := make([]models.RawEntry, 0, len(doc.Components))
	for _, component := range doc.Components {
		if component.Name == "" {
			continue
		}
		if isLockfileArtifact(component.Name) {
			continue
		}
		entries = append(entries, models.RawEntry{
			Name:      component.Name,
			Version:   component.Version,
			Ecosystem: ecosystemFromPURL(component.PURL),
		})
	}
	return entries, nil
}
