// Package skills detects canonical skills in ticket text and matches them against
// the free-text skills moderators declare.
package skills

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// ErrInvalidCatalog is returned when catalog data fails validation.
var ErrInvalidCatalog = errors.New("invalid skill catalog")

// Entry maps one canonical skill to the surface forms that indicate it.
type Entry struct {
	Name     string   `yaml:"name" json:"name"`
	Variants []string `yaml:"variants" json:"variants"`
}

type catalogFile struct {
	Skills []Entry `yaml:"skills"`
}

// Catalog is an immutable, ordered set of canonical skills.
type Catalog struct {
	entries []Entry
}

// NewCatalog validates entries and returns a catalog holding its own copy of them.
// Variants are trimmed and lower-cased; blank variants are dropped.
func NewCatalog(entries []Entry) (*Catalog, error) {
	seen := make(map[string]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))
	for i, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", ErrInvalidCatalog, i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate skill %q", ErrInvalidCatalog, name)
		}
		seen[name] = struct{}{}

		variants := make([]string, 0, len(entry.Variants))
		for _, v := range entry.Variants {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "" {
				variants = append(variants, v)
			}
		}
		if len(variants) == 0 {
			return nil, fmt.Errorf("%w: skill %q has no variants", ErrInvalidCatalog, name)
		}
		out = append(out, Entry{Name: name, Variants: variants})
	}
	return &Catalog{entries: out}, nil
}

// ParseCatalog decodes catalog YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse skill catalog yaml: %w", err)
	}
	return NewCatalog(file.Skills)
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skill catalog: %w", err)
	}
	return ParseCatalog(data)
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// LoadCatalogOrDefault loads path when set and falls back to the built-in catalog otherwise.
func LoadCatalogOrDefault(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog()
	}
	return LoadCatalog(path)
}

// Entries returns a copy of the catalog entries in declaration order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = Entry{Name: e.Name, Variants: append([]string(nil), e.Variants...)}
	}
	return out
}

// Names returns the canonical skill names in declaration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

// Len returns the number of canonical skills.
func (c *Catalog) Len() int {
	return len(c.entries)
}
