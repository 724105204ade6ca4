package candidate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a reference data override.
type File struct {
	Candidates []Profile `yaml:"candidates"`
	Founders   []Founder `yaml:"founders"`
}

// LoadFile reads candidates and founders from a YAML file. Empty sections
// fall back to the built-in tables.
func LoadFile(path string) (*Registry, *FounderTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read registry file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML registry document.
func Parse(data []byte) (*Registry, *FounderTable, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse registry file: %w", err)
	}

	profiles := f.Candidates
	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}
	founders := f.Founders
	if len(founders) == 0 {
		founders = DefaultFounderProfiles()
	}

	registry, err := NewRegistry(profiles)
	if err != nil {
		return nil, nil, err
	}
	table, err := NewFounderTable(founders)
	if err != nil {
		return nil, nil, err
	}
	return registry, table, nil
}
