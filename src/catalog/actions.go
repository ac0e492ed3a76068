package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed actions.yaml
var defaultActions []byte

// ActionCatalog classifies action kinds of the audit trail into display categories
type ActionCatalog struct {
	Default    string              `yaml:"default"`
	Categories map[string][]string `yaml:"categories"`

	index map[string]string
}

// Default returns the built-in catalog
func Default() *ActionCatalog {
	c, err := Parse(defaultActions)
	if err != nil {
		panic("embedded action catalog is invalid: " + err.Error())
	}
	return c
}

// Load reads a catalog from path, or returns the built-in one when path is empty
func Load(path string) (*ActionCatalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read action catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog
func Parse(data []byte) (*ActionCatalog, error) {
	var c ActionCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse action catalog: %w", err)
	}
	if c.Default == "" {
		c.Default = "other"
	}

	c.index = make(map[string]string)
	for category, aliases := range c.Categories {
		for _, alias := range aliases {
			key := strings.ToLower(strings.TrimSpace(alias))
			if prev, dup := c.index[key]; dup && prev != category {
				return nil, fmt.Errorf("action %q listed under both %q and %q", alias, prev, category)
			}
			c.index[key] = category
		}
	}
	return &c, nil
}

// Classify returns the category of an action kind
func (c *ActionCatalog) Classify(action string) string {
	if category, ok := c.index[strings.ToLower(strings.TrimSpace(action))]; ok {
		return category
	}
	return c.Default
}
