package render

import (
	"image/color"
	"math"
)

// ColorTheme selects a power-to-color scheme for waterfall rendering.
type ColorTheme string

const (
	ClassicTheme   ColorTheme = "classic"   // blue to red transition
	GrayscaleTheme ColorTheme = "grayscale" // black to white transition
	ThermalTheme   ColorTheme = "thermal"   // black, red, yellow, white

	defaultColorMapSize = 256
)

var validThemes = map[ColorTheme]struct{}{
	ClassicTheme:   {},
	GrayscaleTheme: {},
	ThermalTheme:   {},
}

// ValidTheme reports whether theme names a known color scheme.
func ValidTheme(theme ColorTheme) bool {
	_, ok := validThemes[theme]
	return ok
}

// ColorMapper maps power values onto a pre-computed color gradient over a
// fixed power range. Renderers are single-threaded, so no locking.
type ColorMapper struct {
	colorMap      []color.Color
	theme         func(float64) color.Color
	size          int
	boundsMin     float64
	powerPerIndex float64
}

// NewColorMapper pre-computes a gradient for the given theme and power
// bounds.
func NewColorMapper(theme ColorTheme, lo, hi float64) *ColorMapper {
	cm := &ColorMapper{
		colorMap: make([]color.Color, defaultColorMapSize),
		theme:    themeFunc(theme),
		size:     defaultColorMapSize,
	}
	cm.UpdateBounds(lo, hi)
	return cm
}

// UpdateBounds changes the mapped power range and rebuilds the gradient.
func (cm *ColorMapper) UpdateBounds(lo, hi float64) {
	cm.boundsMin = lo
	cm.powerPerIndex = (hi - lo) / float64(cm.size-1)

	for i := 0; i < cm.size; i++ {
		cm.colorMap[i] = cm.theme(float64(i) / float64(cm.size-1))
	}
}

// GetColor returns the gradient color for a power value, clamped to the
// configured bounds.
func (cm *ColorMapper) GetColor(power float64) color.Color {
	index := int((power - cm.boundsMin) / cm.powerPerIndex)
	if index < 0 {
		return cm.colorMap[0]
	}
	if index >= cm.size {
		return cm.colorMap[cm.size-1]
	}
	return cm.colorMap[index]
}

// HSV represents a color in HSV color space.
type HSV struct {
	H float64 // hue angle in degrees [0-360)
	S float64 // saturation [0-1]
	V float64 // value [0-1]
}

// RGB converts HSV to RGB color space.
func (hsv HSV) RGB() color.Color {
	if hsv.S <= 0 {
		v := uint8(hsv.V * 255)
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}

	h := math.Mod(hsv.H, 360) / 60
	i := int(h)
	f := h - float64(i)

	v := uint8(hsv.V * 255)
	p := uint8((hsv.V * (1 - hsv.S)) * 255)
	q := uint8((hsv.V * (1 - hsv.S*f)) * 255)
	t := uint8((hsv.V * (1 - hsv.S*(1-f))) * 255)

	switch i {
	case 0:
		return color.RGBA{R: v, G: t, B: p, A: 255}
	case 1:
		return color.RGBA{R: q, G: v, B: p, A: 255}
	case 2:
		return color.RGBA{R: p, G: v, B: t, A: 255}
	case 3:
		return color.RGBA{R: p, G: q, B: v, A: 255}
	case 4:
		return color.RGBA{R: t, G: p, B: v, A: 255}
	default:
		return color.RGBA{R: v, G: p, B: q, A: 255}
	}
}

func themeFunc(theme ColorTheme) func(float64) color.Color {
	switch theme {
	case GrayscaleTheme:
		return func(power float64) color.Color {
			v := uint8(math.Pow(power, 0.7) * 255)
			return color.RGBA{R: v, G: v, B: v, A: 255}
		}

	case ThermalTheme:
		return func(power float64) color.Color {
			switch {
			case power < 0.33:
				return HSV{H: 0, S: 1, V: power * 3}.RGB()
			case power < 0.66:
				return HSV{H: (power - 0.33) * 180, S: 1, V: 1}.RGB()
			default:
				return HSV{H: 60, S: 1 - (power-0.66)*3, V: 1}.RGB()
			}
		}

	default: // ClassicTheme
		return func(power float64) color.Color {
			return HSV{
				H: 240 - (power * 240),
				S: 0.9 + (power * 0.1),
				V: math.Pow(power, 0.7),
			}.RGB()
		}
	}
}

// seriesPalette colors overlaid chart series.
var seriesPalette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 255}, // blue
	{R: 0xd6, G: 0x27, B: 0x28, A: 255}, // red
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 255}, // green
	{R: 0xff, G: 0x7f, B: 0x0e, A: 255}, // orange
	{R: 0x94, G: 0x67, B: 0xbd, A: 255}, // purple
	{R: 0x8c, G: 0x56, B: 0x4b, A: 255}, // brown
}
