package label

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config is the on-disk description of a label space. JSON files are
// accepted as well since they parse as YAML.
//
//	scheme: bios
//	labels: [O, B-name, I-name, S-name]
//	types: [name]
type Config struct {
	Scheme string   `yaml:"scheme" json:"scheme"`
	Labels []string `yaml:"labels" json:"labels"`
	// Types lists entity type names by id for span prediction heads.
	Types []string `yaml:"types,omitempty" json:"types,omitempty"`
}

// LoadConfig reads and validates a label config file. A missing scheme
// defaults to bios.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read label config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates label config content.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if cfg.Scheme == "" {
		cfg.Scheme = BIOS.String()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the scheme is known and the label lists are usable.
// Individual labels are not parsed here: CRF label lists carry entries such
// as "[START]" or "X" that only ever occupy trimmed positions.
func (c Config) Validate() error {
	if _, err := ParseScheme(c.Scheme); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if len(c.Labels) == 0 && len(c.Types) == 0 {
		return fmt.Errorf("%w: no labels or types", ErrInvalidConfig)
	}
	if _, err := NewMap(c.Labels); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := NewMap(c.Types); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ParsedScheme returns the config's scheme. Call after Validate.
func (c Config) ParsedScheme() Scheme {
	s, _ := ParseScheme(c.Scheme)
	return s
}

// Map builds the tag label map.
func (c Config) Map() (*Map, error) {
	return NewMap(c.Labels)
}

// TypeMap builds the entity type map used by span heads.
func (c Config) TypeMap() (*Map, error) {
	return NewMap(c.Types)
}
