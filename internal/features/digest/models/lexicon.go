package models

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Lexicon holds the static lookup data used to filter, canonicalize and rank articles
type Lexicon struct {
	Keywords         []string           `yaml:"keywords"`
	AuthorityWeights map[string]float64 `yaml:"authority_weights"`
	DefaultAuthority float64            `yaml:"default_authority"`
	TrackingPrefixes []string           `yaml:"tracking_prefixes"`
	HostAliases      map[string]string  `yaml:"host_aliases"`
}

// DefaultLexicon returns the built-in lexicon
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Keywords: []string{
			"ai", "artificial intelligence", "machine learning", "deep learning",
			"llm", "gpt", "rag", "agent", "multimodal", "transformer", "diffusion",
			"anthropic", "openai", "deepmind", "meta ai", "google ai", "microsoft",
		},
		AuthorityWeights: map[string]float64{
			"OpenAI Blog":        1.0,
			"Google AI Blog":     1.0,
			"DeepMind":           1.0,
			"Anthropic":          0.95,
			"Meta AI":            0.9,
			"Microsoft Research": 0.9,
			"MIT News - AI":      0.85,
			"Stanford HAI":       0.85,
			"IEEE Spectrum AI":   0.8,
			"TechCrunch AI":      0.75,
			"VentureBeat AI":     0.7,
			"Wired AI":           0.7,
		},
		DefaultAuthority: 0.6,
		TrackingPrefixes: []string{"utm_"},
		HostAliases: map[string]string{
			"export.arxiv.org": "arxiv.org",
		},
	}
}

// LoadLexicon overlays the YAML file at path onto the defaults.
// Lists in the file replace the defaults; maps are merged key by key.
func LoadLexicon(path string) (*Lexicon, error) {
	lex := DefaultLexicon()
	if path == "" {
		return lex, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return lex, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	if err := yaml.Unmarshal(data, lex); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}

	if err := lex.Validate(); err != nil {
		return nil, err
	}
	return lex, nil
}

// Validate checks that every weight lies in [0,1]
func (l *Lexicon) Validate() error {
	if l.DefaultAuthority < 0 || l.DefaultAuthority > 1 {
		return fmt.Errorf("default authority must be within [0,1], got %v", l.DefaultAuthority)
	}
	for source, w := range l.AuthorityWeights {
		if w < 0 || w > 1 {
			return fmt.Errorf("authority weight for %q must be within [0,1], got %v", source, w)
		}
	}
	if len(l.Keywords) == 0 {
		return fmt.Errorf("lexicon needs at least one keyword")
	}
	return nil
}

// Authority returns the weight of a source, or the default for unknown sources
func (l *Lexicon) Authority(source string) float64 {
	if w, ok := l.AuthorityWeights[source]; ok {
		return w
	}
	return l.DefaultAuthority
}
