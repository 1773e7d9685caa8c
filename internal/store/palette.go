package store

import (
	"context"
	"fmt"

	"github.com/jmylchreest/accent/internal/colour"
)

// PaletteKey is the entry the palette is cached under.
const PaletteKey = "adaptiveColors"

// PaletteCache persists a single palette in a Store.
type PaletteCache struct {
	Store Store
	Key   string
}

// NewPaletteCache returns a cache using the default key.
func NewPaletteCache(s Store) *PaletteCache {
	return &PaletteCache{Store: s, Key: PaletteKey}
}

func (c *PaletteCache) key() string {
	if c.Key == "" {
		return PaletteKey
	}
	return c.Key
}

// Load returns the cached palette. A missing entry reports false with no
// error; a malformed entry is an error.
func (c *PaletteCache) Load(ctx context.Context) (colour.Palette, bool, error) {
	raw, ok, err := c.Store.Get(ctx, c.key())
	if err != nil {
		return colour.Palette{}, false, err
	}
	if !ok {
		return colour.Palette{}, false, nil
	}

	p, err := colour.ParsePalette([]byte(raw))
	if err != nil {
		return colour.Palette{}, false, fmt.Errorf("cached palette %q is malformed: %w", c.key(), err)
	}
	return p, true, nil
}

// Save replaces the cached palette.
func (c *PaletteCache) Save(ctx context.Context, p colour.Palette) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("refusing to cache palette: %w", err)
	}

	data, err := p.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to encode palette: %w", err)
	}
	return c.Store.Set(ctx, c.key(), string(data))
}

// Clear removes the cached palette.
func (c *PaletteCache) Clear(ctx context.Context) error {
	return c.Store.Delete(ctx, c.key())
}

// Raw returns the stored entry exactly as persisted.
func (c *PaletteCache) Raw(ctx context.Context) (string, bool, error) {
	return c.Store.Get(ctx, c.key())
}
