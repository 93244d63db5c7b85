// Package config loads project-level settings from anchor.yml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/anchor/internal/lang"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Store backends.
const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
	StoreKuzu   = "kuzu"
)

// Defaults applied by Defaults.
const (
	DefaultParseTimeout = 10 * time.Second
	DefaultMaxFileSize  = 1 << 20
	DefaultStorePath    = ".anchor"
)

// DefaultExcludes are always skipped during discovery.
var DefaultExcludes = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/target/**",
	"**/dist/**",
	"**/__pycache__/**",
	"**/.anchor/**",
}

// ProjectConfig holds project-level settings loaded from anchor.yml.
type ProjectConfig struct {
	// Languages restricts extraction to a subset; empty means all.
	Languages []string `yaml:"languages,omitempty"`
	// Exclude lists doublestar globs matched against slash-separated
	// paths relative to the project root.
	Exclude      []string `yaml:"exclude,omitempty"`
	ParseTimeout Duration `yaml:"parseTimeout,omitempty"`
	Workers      int      `yaml:"workers,omitempty"`
	MaxFileSize  int64    `yaml:"maxFileSize,omitempty"`
	Store        string   `yaml:"store,omitempty"`
	StorePath    string   `yaml:"storePath,omitempty"`
}

// Duration is a time.Duration that reads YAML strings like "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: parseTimeout %q: %v", ErrInvalid, s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Load attempts to read anchor.yml or anchor.yaml from the given directory.
// Returns a zero-value config (not an error) if no config file exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"anchor.yml", "anchor.yaml"} {
		cfg, err := LoadFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return &ProjectConfig{}, nil
}

// LoadFile reads a config from an explicit path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Defaults fills unset fields.
func (c *ProjectConfig) Defaults() {
	if c.ParseTimeout == 0 {
		c.ParseTimeout = Duration(DefaultParseTimeout)
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.Store == "" {
		c.Store = StoreMemory
	}
	if c.StorePath == "" {
		c.StorePath = DefaultStorePath
	}
}

// Validate rejects unknown languages, malformed globs and unknown stores.
func (c *ProjectConfig) Validate() error {
	for _, name := range c.Languages {
		if _, ok := lang.Parse(name); !ok {
			return fmt.Errorf("%w: unknown language %q", ErrInvalid, name)
		}
	}
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: bad exclude pattern %q", ErrInvalid, pattern)
		}
	}
	switch c.Store {
	case "", StoreMemory, StoreBolt, StoreKuzu:
	default:
		return fmt.Errorf("%w: unknown store %q (want %s)", ErrInvalid, c.Store,
			strings.Join([]string{StoreMemory, StoreBolt, StoreKuzu}, ", "))
	}
	if c.ParseTimeout < 0 {
		return fmt.Errorf("%w: negative parseTimeout", ErrInvalid)
	}
	return nil
}

// EnabledLanguages returns the configured subset, or nil for all languages.
// Validate must have succeeded.
func (c *ProjectConfig) EnabledLanguages() []lang.Language {
	if len(c.Languages) == 0 {
		return nil
	}
	out := make([]lang.Language, 0, len(c.Languages))
	for _, name := range c.Languages {
		if l, ok := lang.Parse(name); ok {
			out = append(out, l)
		}
	}
	return out
}

// Excludes returns DefaultExcludes followed by the configured patterns.
func (c *ProjectConfig) Excludes() []string {
	out := make([]string, 0, len(DefaultExcludes)+len(c.Exclude))
	out = append(out, DefaultExcludes...)
	return append(out, c.Exclude...)
}
