// Package config loads accent's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jmylchreest/accent/internal/colour"
	"github.com/jmylchreest/accent/internal/store"
	"github.com/jmylchreest/accent/internal/style"
)

// ErrNotFound is returned by Load when no config file exists. The returned
// config holds the defaults.
var ErrNotFound = errors.New("no config file found; using defaults")

// Config is the complete accent configuration.
type Config struct {
	Image         string `toml:"image"`
	AllowInsecure bool   `toml:"allow_insecure"`
	CacheRemote   bool   `toml:"cache_remote"`

	Stylesheet StylesheetConfig `toml:"stylesheet"`
	Variables  style.Variables  `toml:"variables"`
	Store      StoreConfig      `toml:"store"`
	Bootstrap  BootstrapConfig  `toml:"bootstrap"`
	Extractor  colour.Config    `toml:"extractor"`

	path string
}

// StylesheetConfig controls the generated CSS file.
type StylesheetConfig struct {
	Path     string `toml:"path"`
	Selector string `toml:"selector"`
}

// StoreConfig selects the palette cache backend.
type StoreConfig struct {
	Backend string `toml:"backend"` // file or sqlite
	Path    string `toml:"path"`    // empty selects the backend default
	Key     string `toml:"key"`
}

// BootstrapConfig holds the delays before each extraction pass.
type BootstrapConfig struct {
	StructureDelay time.Duration `toml:"structure_delay"`
	ResourcesDelay time.Duration `toml:"resources_delay"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Image: "profile.jpg",
		Stylesheet: StylesheetConfig{
			Path:     "accent.css",
			Selector: style.DefaultSelector,
		},
		Variables: style.DefaultVariables(),
		Store: StoreConfig{
			Backend: store.BackendFile,
			Key:     store.PaletteKey,
		},
		Bootstrap: BootstrapConfig{
			StructureDelay: 300 * time.Millisecond,
			ResourcesDelay: 100 * time.Millisecond,
		},
		Extractor: colour.DefaultConfig(),
	}
}

// Load reads configuration from path, or from the first existing search
// path when path is empty. Values in the file overlay the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	chosen := path
	if chosen == "" {
		for _, p := range searchPaths() {
			if _, err := os.Stat(p); err == nil {
				chosen = p
				break
			}
		}
	}
	if chosen == "" {
		return cfg, ErrNotFound
	}

	data, err := os.ReadFile(chosen) // #nosec G304 - User-specified config path
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return Defaults(), fmt.Errorf("failed to parse config %s: %w", chosen, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Defaults(), fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), chosen)
	}

	cfg.path = chosen
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Defaults(), fmt.Errorf("invalid config %s: %w", chosen, err)
	}
	return cfg, nil
}

// Path returns the file the config was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// DefaultPath returns the primary config file location.
func DefaultPath() string {
	paths := searchPaths()
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}

func searchPaths() []string {
	var out []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		out = append(out, filepath.Join(xdg, "accent", "config.toml"))
	}
	if home, _ := os.UserHomeDir(); home != "" {
		out = append(out, filepath.Join(home, ".config", "accent", "config.toml"))
	}
	return out
}

// normalize fills values left empty by the file.
func (c *Config) normalize() {
	defaults := Defaults()
	if c.Image == "" {
		c.Image = defaults.Image
	}
	if c.Stylesheet.Path == "" {
		c.Stylesheet.Path = defaults.Stylesheet.Path
	}
	if c.Stylesheet.Selector == "" {
		c.Stylesheet.Selector = defaults.Stylesheet.Selector
	}
	if c.Store.Backend == "" {
		c.Store.Backend = defaults.Store.Backend
	}
	if c.Store.Key == "" {
		c.Store.Key = defaults.Store.Key
	}
	if c.Variables.Primary == "" {
		c.Variables.Primary = defaults.Variables.Primary
	}
	if c.Variables.Secondary == "" {
		c.Variables.Secondary = defaults.Variables.Secondary
	}
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case store.BackendFile, store.BackendSQLite:
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", store.BackendFile, store.BackendSQLite, c.Store.Backend)
	}
	if c.Bootstrap.StructureDelay < 0 || c.Bootstrap.ResourcesDelay < 0 {
		return fmt.Errorf("bootstrap delays must not be negative")
	}
	if err := c.Variables.Validate(); err != nil {
		return fmt.Errorf("variables: %w", err)
	}
	if err := c.Extractor.Validate(); err != nil {
		return fmt.Errorf("extractor: %w", err)
	}
	return nil
}
