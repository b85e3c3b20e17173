// Package config holds the cache tuning knobs and the latebind.yaml
// loader. Eviction-policy tuning is an implementation choice, so the
// inline cache capacity and the polymorphic promotion threshold are
// configurable constants rather than fixed contracts.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults applied when a knob is omitted.
const (
	DefaultInlineCapacity     = 4
	DefaultPromotionThreshold = 8
	MaxInlineCapacity         = 64
)

// Config is the top-level latebind.yaml configuration.
type Config struct {
	Cache CacheConfig `yaml:"cache"`
}

// CacheConfig tunes one engine's call site caches.
type CacheConfig struct {
	// InlineCapacity is the bounded inline cache size per call site.
	InlineCapacity int `yaml:"inline_capacity,omitempty"`

	// PromotionThreshold is the number of misses observed while the
	// inline cache is full before a site promotes its entries to the
	// unbounded polymorphic table, avoiding thrashing on truly
	// polymorphic sites.
	PromotionThreshold int `yaml:"promotion_threshold,omitempty"`

	// Polymorphic enables promotion. Defaults to true when omitted.
	Polymorphic *bool `yaml:"polymorphic,omitempty"`
}

// Default returns the built-in tuning.
func Default() Config {
	var cfg Config
	cfg.setDefaults()
	return cfg
}

// Load reads and parses a latebind.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses latebind.yaml content from bytes. The path argument is
// used only for error messages.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for latebind.yaml starting from dir and walking
// up to parent directories. Returns an empty path and nil error when no
// config exists.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range []string{"latebind.yaml", "latebind.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *Config) validate(path string) error {
	if c.Cache.InlineCapacity < 0 || c.Cache.InlineCapacity > MaxInlineCapacity {
		return fmt.Errorf("%s: cache.inline_capacity must be between 1 and %d", path, MaxInlineCapacity)
	}
	if c.Cache.PromotionThreshold < 0 {
		return fmt.Errorf("%s: cache.promotion_threshold must be positive", path)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Cache.InlineCapacity == 0 {
		c.Cache.InlineCapacity = DefaultInlineCapacity
	}
	if c.Cache.PromotionThreshold == 0 {
		c.Cache.PromotionThreshold = DefaultPromotionThreshold
	}
	if c.Cache.Polymorphic == nil {
		t := true
		c.Cache.Polymorphic = &t
	}
}

// PolymorphicEnabled resolves the promotion toggle.
func (c CacheConfig) PolymorphicEnabled() bool {
	return c.Polymorphic == nil || *c.Polymorphic
}
