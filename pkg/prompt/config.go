package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
)

//go:embed default.yaml
var defaultYAML []byte

type Tone struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Style string `yaml:"style" json:"style"`
}

// Persona describes one outline variant and how much it leans on retrieval.
type Persona struct {
	ID          string  `yaml:"id" json:"id"`
	Label       string  `yaml:"label" json:"label"`
	Description string  `yaml:"description" json:"description"`
	RAGWeight   float64 `yaml:"ragWeight" json:"ragWeight"`
}

// TweakFactors are the multipliers applied when a quick tweak is on.
type TweakFactors struct {
	DataEmphasis      float64 `yaml:"dataEmphasis"`
	FasterPace        float64 `yaml:"fasterPace"`
	RetrievalPriority float64 `yaml:"retrievalPriority"`
}

type Template struct {
	ID       string         `yaml:"id" json:"id"`
	Name     string         `yaml:"name" json:"name"`
	Sections []outline.Kind `yaml:"sections" json:"sections"`
}

type Config struct {
	DefaultTone string       `yaml:"defaultTone"`
	Tones       []Tone       `yaml:"tones"`
	Personas    []Persona    `yaml:"personas"`
	Tweaks      TweakFactors `yaml:"tweaks"`
	Templates   []Template   `yaml:"templates"`
}

const (
	MinPersonas = 2
	MaxPersonas = 4
)

func DefaultConfig() (*Config, error) { return Parse(defaultYAML) }

// LoadConfig reads the YAML file at path, or the embedded default when path
// is empty.
func LoadConfig(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultConfig()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona config: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse persona config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if n := len(c.Personas); n < MinPersonas || n > MaxPersonas {
		return fmt.Errorf("persona config: need %d to %d personas, got %d", MinPersonas, MaxPersonas, n)
	}
	ids := map[string]bool{}
	for i, p := range c.Personas {
		if p.ID == "" || ids[p.ID] {
			return fmt.Errorf("persona config: personas[%d] id %q missing or repeated", i, p.ID)
		}
		ids[p.ID] = true
		if p.RAGWeight < 0 || p.RAGWeight > 1 {
			return fmt.Errorf("persona config: personas[%d] ragWeight %.2f outside 0..1", i, p.RAGWeight)
		}
	}
	for i, t := range c.Templates {
		if len(t.Sections) == 0 {
			return fmt.Errorf("persona config: templates[%d] has no sections", i)
		}
		for j, k := range t.Sections {
			if _, ok := outline.Lookup(k); !ok {
				return fmt.Errorf("persona config: templates[%d].sections[%d] unknown kind %q", i, j, k)
			}
		}
	}
	if c.Tweaks.DataEmphasis <= 0 {
		c.Tweaks.DataEmphasis = 1
	}
	if c.Tweaks.FasterPace <= 0 {
		c.Tweaks.FasterPace = 1
	}
	if c.Tweaks.RetrievalPriority <= 0 {
		c.Tweaks.RetrievalPriority = 1
	}
	if c.DefaultTone == "" && len(c.Tones) > 0 {
		c.DefaultTone = c.Tones[0].ID
	}
	return nil
}

// Tone resolves id, falling back to the default tone.
func (c *Config) Tone(id string) Tone {
	for _, want := range []string{id, c.DefaultTone} {
		for _, t := range c.Tones {
			if want != "" && strings.EqualFold(t.ID, want) {
				return t
			}
		}
	}
	return Tone{ID: "neutral", Name: "Neutral"}
}

func (c *Config) Template(id string) (Template, bool) {
	for _, t := range c.Templates {
		if strings.EqualFold(t.ID, id) {
			return t, true
		}
	}
	return Template{}, false
}
