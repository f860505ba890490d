package rss

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deusflow/linea/internal/news"
)

// Source is one registered feed.
type Source struct {
	ID  string `yaml:"id"`
	URL string `yaml:"url"`
}

// Registry lists feeds by origin, each in fetch order.
//
//	international:
//	  - id: the_archpaper
//	    url: https://archpaper.com/feed/
//	national:
//	  - id: observador
//	    url: https://observador.pt/seccao/cultura/arte/feed
type Registry struct {
	International []Source `yaml:"international"`
	National      []Source `yaml:"national"`
}

// DefaultRegistry returns the built-in feed list.
func DefaultRegistry() Registry {
	return Registry{
		International: []Source{
			{ID: "the_archpaper", URL: "https://archpaper.com/feed/"},
			{ID: "the_art_newspaper", URL: "https://www.theartnewspaper.com/rss.xml"},
			{ID: "globalvoices", URL: "https://globalvoices.org/feeds/"},
		},
		National: []Source{
			{ID: "rtp_noticias_cultura", URL: "https://www.rtp.pt/noticias/rss/feeds/Cultura"},
			{ID: "observador", URL: "https://observador.pt/seccao/cultura/arte/feed"},
			{ID: "cnn", URL: "https://cnnportugal.iol.pt/rss/arte"},
		},
	}
}

// LoadRegistry reads a registry from a YAML file.
func LoadRegistry(path string) (Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Registry{}, err
	}
	defer f.Close()

	var reg Registry
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&reg); err != nil {
		return Registry{}, fmt.Errorf("failed to parse sources %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return Registry{}, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

func (r Registry) Validate() error {
	seen := map[string]bool{}
	for _, s := range r.International {
		if err := checkSource(s, seen); err != nil {
			return err
		}
	}
	for _, s := range r.National {
		if err := checkSource(s, seen); err != nil {
			return err
		}
	}
	return nil
}

func checkSource(s Source, seen map[string]bool) error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("source with url %q has no id", s.URL)
	}
	if !strings.HasPrefix(s.URL, "http://") && !strings.HasPrefix(s.URL, "https://") {
		return fmt.Errorf("source %s: url %q is not http(s)", s.ID, s.URL)
	}
	if seen[s.ID] {
		return fmt.Errorf("duplicate source id %s", s.ID)
	}
	seen[s.ID] = true
	return nil
}

// Len returns the number of sources.
func (r Registry) Len() int { return len(r.International) + len(r.National) }

type entry struct {
	Source
	origin news.Origin
}

// ordered lists international sources first, then national.
func (r Registry) ordered() []entry {
	out := make([]entry, 0, r.Len())
	for _, s := range r.International {
		out = append(out, entry{Source: s, origin: news.International})
	}
	for _, s := range r.National {
		out = append(out, entry{Source: s, origin: news.National})
	}
	return out
}
