package relevance

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultKeywords is the English and Portuguese art, architecture and literature
// vocabulary articles are scored against. Repeated terms weigh twice in the mean.
var DefaultKeywords = []string{
	"art", "painting", "sculpture", "museum", "gallery", "exhibition",
	"installation", "drawing", "photography", "architecture", "design", "pritzker",
	"arte", "pintura", "escultura", "museu", "galeria", "exposição",
	"instalação", "desenho", "fotografia", "arquitetura", "design", "prémio pritzker",
	"poesia", "poetry", "literatura", "literature", "arquitetura", "arquiteto",
}

type keywordFile struct {
	Keywords []string `yaml:"keywords"`
}

// LoadKeywords reads a YAML file with a top-level "keywords" list. Blank entries
// are dropped; order and repeats are kept.
func LoadKeywords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keywords file: %w", err)
	}
	var f keywordFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse keywords file: %w", err)
	}
	out := make([]string, 0, len(f.Keywords))
	for _, k := range f.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyCorpus)
	}
	return out, nil
}
