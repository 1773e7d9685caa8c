// Package colour provides accent palette extraction from image pixel data.
package colour

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// ErrNoCandidates is returned when no pixel survives filtering.
var ErrNoCandidates = errors.New("no vibrant colours found in image")

// Config holds the thresholds and factors used during extraction.
type Config struct {
	AlphaThreshold int     `toml:"alpha_threshold"`
	DarkThreshold  int     `toml:"dark_threshold"`
	LightThreshold int     `toml:"light_threshold"`
	MinSaturation  float64 `toml:"min_saturation"`
	BucketWidth    int     `toml:"bucket_width"`
	CandidateLimit int     `toml:"candidate_limit"`

	PrimaryMinSaturation    float64 `toml:"primary_min_saturation"`
	PrimaryMinLightness     float64 `toml:"primary_min_lightness"`
	PrimaryMaxLightness     float64 `toml:"primary_max_lightness"`
	PrimarySaturationBoost  float64 `toml:"primary_saturation_boost"`
	PrimaryBrightnessBoost  float64 `toml:"primary_brightness_boost"`
	FallbackSaturationBoost float64 `toml:"fallback_saturation_boost"`
	FallbackBrightnessBoost float64 `toml:"fallback_brightness_boost"`

	SecondaryMinSaturation  float64 `toml:"secondary_min_saturation"`
	SecondaryMinDistance    int     `toml:"secondary_min_distance"`
	SecondaryDarken         float64 `toml:"secondary_darken"`
	FallbackSecondaryDarken float64 `toml:"fallback_secondary_darken"`
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() Config {
	return Config{
		AlphaThreshold: 125,
		DarkThreshold:  20,
		LightThreshold: 235,
		MinSaturation:  0.2,
		BucketWidth:    15,
		CandidateLimit: 15,

		PrimaryMinSaturation:    0.35,
		PrimaryMinLightness:     0.35,
		PrimaryMaxLightness:     0.85,
		PrimarySaturationBoost:  1.4,
		PrimaryBrightnessBoost:  1.2,
		FallbackSaturationBoost: 1.8,
		FallbackBrightnessBoost: 1.3,

		SecondaryMinSaturation:  0.25,
		SecondaryMinDistance:    50,
		SecondaryDarken:         0.8,
		FallbackSecondaryDarken: 0.6,
	}
}

// Validate validates the extractor configuration.
func (c Config) Validate() error {
	for name, v := range map[string]int{
		"alpha_threshold": c.AlphaThreshold,
		"dark_threshold":  c.DarkThreshold,
		"light_threshold": c.LightThreshold,
	} {
		if v < 0 || v > 255 {
			return fmt.Errorf("%s must be in [0, 255], got %d", name, v)
		}
	}
	if c.BucketWidth < 1 || c.BucketWidth > 255 {
		return fmt.Errorf("bucket_width must be in [1, 255], got %d", c.BucketWidth)
	}
	if c.CandidateLimit < 1 {
		return fmt.Errorf("candidate_limit must be at least 1, got %d", c.CandidateLimit)
	}
	if c.PrimaryMinLightness >= c.PrimaryMaxLightness {
		return fmt.Errorf("primary lightness window is empty (%.2f >= %.2f)", c.PrimaryMinLightness, c.PrimaryMaxLightness)
	}
	if c.SecondaryDarken < 0 || c.SecondaryDarken > 1 || c.FallbackSecondaryDarken < 0 || c.FallbackSecondaryDarken > 1 {
		return fmt.Errorf("darken factors must be in [0, 1]")
	}
	if c.PrimarySaturationBoost <= 0 || c.PrimaryBrightnessBoost <= 0 ||
		c.FallbackSaturationBoost <= 0 || c.FallbackBrightnessBoost <= 0 {
		return fmt.Errorf("boost factors must be positive")
	}
	return nil
}

// Extractor derives accent palettes from pixel buffers.
// The zero value is not usable; use NewExtractor.
type Extractor struct {
	config Config
}

// NewExtractor creates an Extractor after validating its configuration.
func NewExtractor(config Config) (*Extractor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Extractor{config: config}, nil
}

// Config returns the extractor configuration.
func (e *Extractor) Config() Config {
	return e.config
}

// Extract derives a palette from an RGBA pixel buffer using the default configuration.
func Extract(pix []uint8) (Palette, error) {
	e := &Extractor{config: DefaultConfig()}
	return e.Extract(pix)
}

// ExtractImage rasterises img and derives a palette using the default configuration.
func ExtractImage(img image.Image) (Palette, error) {
	e := &Extractor{config: DefaultConfig()}
	return e.ExtractImage(img)
}

// Extract derives a palette from a row-major, non-premultiplied RGBA buffer
// (4 bytes per pixel).
func (e *Extractor) Extract(pix []uint8) (Palette, error) {
	res, err := e.ExtractWithDetails(pix)
	if err != nil {
		return Palette{}, err
	}
	return res.Palette, nil
}

// ExtractImage rasterises img at its natural resolution and extracts a palette.
func (e *Extractor) ExtractImage(img image.Image) (Palette, error) {
	res, err := e.ExtractImageWithDetails(img)
	if err != nil {
		return Palette{}, err
	}
	return res.Palette, nil
}

// ExtractImageWithDetails is ExtractImage returning the full Result.
func (e *Extractor) ExtractImageWithDetails(img image.Image) (Result, error) {
	buf, err := Rasterise(img)
	if err != nil {
		return Result{}, err
	}
	return e.ExtractWithDetails(buf.Pix)
}

// Rasterise draws img into a tightly packed NRGBA buffer at its natural size.
func Rasterise(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("image has no pixels")
	}

	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst, nil
}

// ExtractWithDetails derives a palette and returns the ranked candidates
// and pixel statistics alongside it.
func (e *Extractor) ExtractWithDetails(pix []uint8) (Result, error) {
	if len(pix)%4 != 0 {
		return Result{}, fmt.Errorf("pixel buffer length %d is not a multiple of 4", len(pix))
	}

	hist, kept := e.BuildHistogram(pix)
	candidates := hist.Rank(e.config.CandidateLimit)
	if len(candidates) == 0 {
		return Result{}, ErrNoCandidates
	}

	res := e.selectPalette(candidates)
	res.Pixels = len(pix) / 4
	res.Kept = kept
	return res, nil
}

// BuildHistogram scans the buffer and buckets every pixel that passes the
// opacity, extremity and saturation filters. It returns the histogram and
// the number of pixels kept.
func (e *Extractor) BuildHistogram(pix []uint8) (*Histogram, int) {
	cfg := e.config
	hist := NewHistogram(cfg.BucketWidth)
	kept := 0

	for i := 0; i+3 < len(pix); i += 4 {
		r, g, b, a := int(pix[i]), int(pix[i+1]), int(pix[i+2]), int(pix[i+3])

		if a < cfg.AlphaThreshold {
			continue
		}
		if r < cfg.DarkThreshold && g < cfg.DarkThreshold && b < cfg.DarkThreshold {
			continue
		}
		if r > cfg.LightThreshold && g > cfg.LightThreshold && b > cfg.LightThreshold {
			continue
		}

		c := RGB{R: uint8(r), G: uint8(g), B: uint8(b)}
		s := Saturation(c)
		if s <= cfg.MinSaturation {
			continue
		}

		hist.Observe(c, s)
		kept++
	}

	return hist, kept
}

// selectPalette walks the ranked candidates once, picking the first bucket
// that passes the primary gate and, from that point on, the first bucket
// that is different enough from the top-ranked one to serve as secondary.
// Gates use the HSL values of the bucket itself.
func (e *Extractor) selectPalette(candidates []Candidate) Result {
	cfg := e.config
	top := candidates[0].Bucket

	var res Result
	havePrimary, haveSecondary := false, false

	for _, c := range candidates {
		s := Saturation(c.Bucket)
		l := Lightness(c.Bucket)

		if !havePrimary && s > cfg.PrimaryMinSaturation && l > cfg.PrimaryMinLightness && l < cfg.PrimaryMaxLightness {
			boosted := BoostSaturation(c.Bucket, cfg.PrimarySaturationBoost)
			res.Primary = BoostBrightness(boosted, cfg.PrimaryBrightnessBoost)
			havePrimary = true
		}

		if havePrimary && !haveSecondary && s > cfg.SecondaryMinSaturation {
			if ChannelDistance(c.Bucket, top) > cfg.SecondaryMinDistance {
				res.Secondary = Darken(c.Bucket, cfg.SecondaryDarken)
				haveSecondary = true
			}
		}

		if havePrimary && haveSecondary {
			break
		}
	}

	if !havePrimary {
		boosted := BoostSaturation(top, cfg.FallbackSaturationBoost)
		res.Primary = BoostBrightness(boosted, cfg.FallbackBrightnessBoost)
		res.PrimaryFallback = true
	}

	if !haveSecondary {
		res.Secondary = Darken(top, cfg.FallbackSecondaryDarken)
		res.SecondaryFallback = true
	}

	res.Palette = NewPalette(res.Primary, res.Secondary)
	res.Candidates = candidates
	return res
}
