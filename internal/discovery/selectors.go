package discovery

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed selectors.yaml
var defaultSelectorsYAML []byte

// Selectors holds the selector tiers and crawl hints discovery works from.
type Selectors struct {
	StrictSelectors     []string `yaml:"strict_selectors"`
	AggressiveSelectors []string `yaml:"aggressive_selectors"`
	LinkKeywords        []string `yaml:"link_keywords"`
	CommonPaths         []string `yaml:"common_paths"`
}

// LoadSelectors parses the embedded defaults, optionally overridden by a
// file on disk.
func LoadSelectors(path string) (Selectors, error) {
	raw := defaultSelectorsYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Selectors{}, eris.Wrapf(err, "discovery: read selectors file %s", path)
		}
		raw = b
	}
	var s Selectors
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Selectors{}, eris.Wrap(err, "discovery: parse selectors")
	}
	if len(s.StrictSelectors) == 0 {
		return Selectors{}, eris.New("discovery: selectors config has no strict tier")
	}
	return s, nil
}
