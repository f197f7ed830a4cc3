package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lehigh-university-libraries/bookmerge/internal/models"
	"github.com/lehigh-university-libraries/bookmerge/internal/quality"
	"gopkg.in/yaml.v3"
)

// SaveToJSON saves the quality report to a JSON file
func SaveToJSON(path string, report *quality.Report) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report to JSON: %w", err)
	}

	return file.Close()
}

// SaveToYAML saves the quality report to a YAML file
func SaveToYAML(path string, report *quality.Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// SaveSchema writes the dim_book schema report in markdown.
func SaveSchema(path string, catalog []models.CanonicalRecord) error {
	md := quality.SchemaMarkdown(quality.Schema(catalog))
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return fmt.Errorf("failed to write schema report: %w", err)
	}
	return nil
}

// LoadReport reads a quality report previously written by SaveToJSON.
func LoadReport(path string) (*quality.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var report quality.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}
