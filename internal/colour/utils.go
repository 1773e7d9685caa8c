package colour

import (
	"math"
)

// Saturation returns the HSL saturation of a colour in the range [0, 1].
func Saturation(c RGB) float64 {
	_, s, _ := rgbToHSL(c)
	return s
}

// Lightness returns the HSL lightness of a colour in the range [0, 1].
func Lightness(c RGB) float64 {
	maxVal, minVal := channelBounds(c)
	return (maxVal + minVal) / 2.0
}

// BoostSaturation multiplies the HSL saturation of a colour by factor,
// capped at 1.0, keeping hue and lightness. Channels are rounded to the
// nearest integer on the way back to RGB.
func BoostSaturation(c RGB, factor float64) RGB {
	h, s, l := rgbToHSL(c)
	s = math.Min(1.0, s*factor)
	return HSLToRGB(h, s, l)
}

// BoostBrightness multiplies every channel by factor, capped at 255.
func BoostBrightness(c RGB, factor float64) RGB {
	return RGB{
		R: scaleChannel(c.R, factor),
		G: scaleChannel(c.G, factor),
		B: scaleChannel(c.B, factor),
	}
}

// Darken multiplies every channel by factor and floors the result.
// factor is expected to be in [0, 1].
func Darken(c RGB, factor float64) RGB {
	return RGB{
		R: uint8(math.Floor(float64(c.R) * factor)),
		G: uint8(math.Floor(float64(c.G) * factor)),
		B: uint8(math.Floor(float64(c.B) * factor)),
	}
}

// ChannelDistance is the sum of absolute per-channel differences.
func ChannelDistance(a, b RGB) int {
	return absInt(int(a.R)-int(b.R)) + absInt(int(a.G)-int(b.G)) + absInt(int(a.B)-int(b.B))
}

func scaleChannel(v uint8, factor float64) uint8 {
	return uint8(math.Round(math.Min(255, float64(v)*factor)))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func channelBounds(c RGB) (maxVal, minVal float64) {
	r := float64(c.R) / 255.0
	g := float64(c.G) / 255.0
	b := float64(c.B) / 255.0
	return math.Max(r, math.Max(g, b)), math.Min(r, math.Min(g, b))
}

// rgbToHSL converts RGB to HSL colour space. All three components are
// fractions in [0, 1]; hue is a fraction of a full turn.
func rgbToHSL(rgb RGB) (h, s, l float64) {
	r := float64(rgb.R) / 255.0
	g := float64(rgb.G) / 255.0
	b := float64(rgb.B) / 255.0

	maxVal, minVal := channelBounds(rgb)
	l = (maxVal + minVal) / 2.0

	if maxVal == minVal {
		return 0, 0, l
	}

	d := maxVal - minVal
	if l > 0.5 {
		s = d / (2.0 - maxVal - minVal)
	} else {
		s = d / (maxVal + minVal)
	}

	switch maxVal {
	case r:
		offset := 0.0
		if g < b {
			offset = 6
		}
		h = ((g-b)/d + offset) / 6
	case g:
		h = ((b-r)/d + 2) / 6
	case b:
		h = ((r-g)/d + 4) / 6
	}
	return h, s, l
}

// HSLToRGB converts HSL to RGB colour space, rounding each channel.
// h, s and l are fractions in [0, 1].
func HSLToRGB(h, s, l float64) RGB {
	if s == 0 {
		v := roundChannel(l)
		return RGB{R: v, G: v, B: v}
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	return RGB{
		R: roundChannel(hueToRGB(p, q, h+1.0/3)),
		G: roundChannel(hueToRGB(p, q, h)),
		B: roundChannel(hueToRGB(p, q, h-1.0/3)),
	}
}

// roundChannel scales a [0, 1] component to 0-255, rounding half up.
func roundChannel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// hueToRGB evaluates one channel of the HSL piecewise function. t is
// wrapped once into [0, 1].
func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}

	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}
