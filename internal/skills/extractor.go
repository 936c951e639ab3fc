package skills

import (
	"regexp"
	"strings"
)

type compiledSkill struct {
	name     string
	patterns []*regexp.Regexp
}

// Extractor maps ticket text to canonical skills using a catalog.
// It is safe for concurrent use.
type Extractor struct {
	skills []compiledSkill
}

// NewExtractor compiles one whole-word, case-insensitive pattern per catalog variant.
func NewExtractor(catalog *Catalog) *Extractor {
	compiled := make([]compiledSkill, 0, len(catalog.entries))
	for _, entry := range catalog.entries {
		cs := compiledSkill{name: entry.Name, patterns: make([]*regexp.Regexp, 0, len(entry.Variants))}
		for _, variant := range entry.Variants {
			cs.patterns = append(cs.patterns, variantPattern(variant))
		}
		compiled = append(compiled, cs)
	}
	return &Extractor{skills: compiled}
}

// variantPattern anchors a variant on word boundaries. QuoteMeta keeps "node.js" literal.
func variantPattern(variant string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(variant) + `\b`)
}

// Extract returns the canonical skills found in title and description, deduplicated and
// in catalog order. Empty text yields an empty slice.
func (e *Extractor) Extract(title, description string) []string {
	text := strings.ToLower(title + " " + description)
	found := make([]string, 0)
	if strings.TrimSpace(text) == "" {
		return found
	}

	seen := make(map[string]struct{})
	for _, skill := range e.skills {
		if _, dup := seen[skill.name]; dup {
			continue
		}
		for _, pattern := range skill.patterns {
			if pattern.MatchString(text) {
				seen[skill.name] = struct{}{}
				found = append(found, skill.name)
				break
			}
		}
	}
	return found
}
