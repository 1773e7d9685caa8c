package colour

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RGB represents a color in RGB format.
type RGB struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

// String returns the RGB color as a string in the format "rgb(r, g, b)".
// This is the literal form written to style variables and the cache.
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB color as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// ParseRGB parses a CSS "rgb(r, g, b)" string. Whitespace around the
// components is optional.
func ParseRGB(s string) (RGB, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "rgb(") || !strings.HasSuffix(trimmed, ")") {
		return RGB{}, fmt.Errorf("invalid rgb colour: %q", s)
	}

	parts := strings.Split(trimmed[len("rgb("):len(trimmed)-1], ",")
	if len(parts) != 3 {
		return RGB{}, fmt.Errorf("invalid rgb colour: %q (expected 3 components)", s)
	}

	var channels [3]uint8
	for i, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
		if err != nil {
			return RGB{}, fmt.Errorf("invalid rgb component %q: %w", part, err)
		}
		channels[i] = uint8(v)
	}

	return RGB{R: channels[0], G: channels[1], B: channels[2]}, nil
}

// Palette is the derived accent palette: the only extraction output that
// outlives a single pass.
type Palette struct {
	Primary   string `json:"primary" yaml:"primary"`
	Secondary string `json:"secondary" yaml:"secondary"`
}

// NewPalette creates a palette from two colours.
func NewPalette(primary, secondary RGB) Palette {
	return Palette{
		Primary:   primary.String(),
		Secondary: secondary.String(),
	}
}

// IsZero reports whether either colour is missing.
func (p Palette) IsZero() bool {
	return p.Primary == "" || p.Secondary == ""
}

// Validate checks that both colours are well-formed rgb() strings.
func (p Palette) Validate() error {
	if p.IsZero() {
		return fmt.Errorf("palette is incomplete")
	}
	if _, err := ParseRGB(p.Primary); err != nil {
		return fmt.Errorf("invalid primary: %w", err)
	}
	if _, err := ParseRGB(p.Secondary); err != nil {
		return fmt.Errorf("invalid secondary: %w", err)
	}
	return nil
}

// ToJSON encodes the palette in its persisted form.
func (p Palette) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

// ParsePalette decodes and validates a persisted palette.
func ParsePalette(data []byte) (Palette, error) {
	var p Palette
	if err := json.Unmarshal(data, &p); err != nil {
		return Palette{}, fmt.Errorf("failed to decode palette: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Palette{}, err
	}
	return p, nil
}

// Candidate is a ranked histogram bucket.
type Candidate struct {
	Bucket     RGB     `json:"bucket" yaml:"bucket"`
	Count      int     `json:"count" yaml:"count"`
	Saturation float64 `json:"saturation" yaml:"saturation"`
}

// Score is the ranking key: frequency weighted by vibrancy.
func (c Candidate) Score() float64 {
	return float64(c.Count) * c.Saturation
}

// Result carries the palette together with the data it was derived from.
type Result struct {
	Palette    Palette     `json:"palette" yaml:"palette"`
	Primary    RGB         `json:"primary_rgb" yaml:"primary_rgb"`
	Secondary  RGB         `json:"secondary_rgb" yaml:"secondary_rgb"`
	Candidates []Candidate `json:"candidates" yaml:"candidates"`
	Pixels     int         `json:"pixels" yaml:"pixels"`
	Kept       int         `json:"kept" yaml:"kept"`

	// PrimaryFallback is set when no candidate passed the primary gate.
	PrimaryFallback bool `json:"primary_fallback" yaml:"primary_fallback"`
	// SecondaryFallback is set when no candidate passed the secondary gate.
	SecondaryFallback bool `json:"secondary_fallback" yaml:"secondary_fallback"`
}
