package providerstate

import (
	"fmt"
	"os"

	"github.com/mrops-br/products-contract-api/internal/domain"
	"gopkg.in/yaml.v3"
)

// FixtureFile is the on-disk layout of extra provider states
type FixtureFile struct {
	States map[string][]FixtureProduct `yaml:"states"`
}

// FixtureProduct is one product entry in a fixture file
type FixtureProduct struct {
	ID      string `yaml:"id"`
	Type    string `yaml:"type"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// ParseFixtures decodes a YAML fixture document
func ParseFixtures(data []byte) (map[string][]domain.Product, error) {
	var file FixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}

	states := make(map[string][]domain.Product, len(file.States))
	for name, entries := range file.States {
		products := make([]domain.Product, 0, len(entries))
		for i, e := range entries {
			p := domain.Product{ID: e.ID, Type: e.Type, Name: e.Name, Version: e.Version}
			if err := p.Validate(); err != nil {
				return nil, fmt.Errorf("state %q entry %d: %w", name, i, err)
			}
			products = append(products, p)
		}
		states[name] = products
	}
	return states, nil
}

// LoadFixtures reads a fixture file and registers every state it declares
func (r *Registry) LoadFixtures(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixtures file: %w", err)
	}

	states, err := ParseFixtures(data)
	if err != nil {
		return err
	}

	for name, products := range states {
		r.Register(name, products)
	}
	return nil
}
