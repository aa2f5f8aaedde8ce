package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gravitas-games/stockpile/pkg/models"
)

// fileFormat is the on-disk catalog layout.
type fileFormat struct {
	Items []models.ItemDefinition `yaml:"items"`
}

// Load reads a YAML catalog file into a new registry.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document. Unlike NewRegistry, any invalid or
// duplicated entry fails the whole document.
func Parse(data []byte) (*Registry, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	reg := NewRegistry()
	seen := make(map[key]bool, len(f.Items))
	for i, def := range f.Items {
		k := key{def.ID, def.Version}
		if seen[k] {
			return nil, fmt.Errorf("catalog entry %d: duplicate %s@%d", i, def.ID, def.Version)
		}
		seen[k] = true
		if err := reg.Register(def); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
	}
	return reg, nil
}
