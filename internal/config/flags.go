package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Flag names shared by commands that accept config overrides.
const (
	FlagStore         = "store"
	FlagStorePath     = "store-path"
	FlagStylesheet    = "stylesheet"
	FlagAllowInsecure = "allow-insecure"
	FlagCacheRemote   = "cache-remote"
)

// AddFlags registers the override flags on fs with the default values.
func AddFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String(FlagStore, d.Store.Backend, "Palette cache backend (file, sqlite)")
	fs.String(FlagStorePath, "", "Palette cache location (default: user cache directory)")
	fs.String(FlagStylesheet, d.Stylesheet.Path, "Stylesheet to write custom properties to")
	fs.Bool(FlagAllowInsecure, false, "Allow plain HTTP and private hosts for remote images")
	fs.Bool(FlagCacheRemote, false, "Cache downloaded images on disk")
}

// ApplyFlags overrides config values with flags the user set explicitly.
// Flags missing from fs are ignored.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	stringFlags := map[string]*string{
		FlagStore:      &c.Store.Backend,
		FlagStorePath:  &c.Store.Path,
		FlagStylesheet: &c.Stylesheet.Path,
	}
	for name, dst := range stringFlags {
		if !changed(fs, name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return fmt.Errorf("failed to read --%s: %w", name, err)
		}
		*dst = v
	}

	boolFlags := map[string]*bool{
		FlagAllowInsecure: &c.AllowInsecure,
		FlagCacheRemote:   &c.CacheRemote,
	}
	for name, dst := range boolFlags {
		if !changed(fs, name) {
			continue
		}
		v, err := fs.GetBool(name)
		if err != nil {
			return fmt.Errorf("failed to read --%s: %w", name, err)
		}
		*dst = v
	}

	return c.Validate()
}

func changed(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}
