// Package color defines LED colours, the named colour sets a command can refer to,
// and the hue wheel used by the rainbow patterns.
package color

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is a single 24-bit LED colour.
type RGB struct {
	R, G, B uint8
}

// Scale returns the colour dimmed to level/256 per channel.
func (c RGB) Scale(level uint8) RGB {
	return RGB{
		R: uint8((uint16(c.R) * uint16(level)) >> 8),
		G: uint8((uint16(c.G) * uint16(level)) >> 8),
		B: uint8((uint16(c.B) * uint16(level)) >> 8),
	}
}

// Add blends two colours by saturating addition, so overlapping light bands brighten
// instead of overwriting each other.
func (c RGB) Add(o RGB) RGB {
	return RGB{R: satAdd(c.R, o.R), G: satAdd(c.G, o.G), B: satAdd(c.B, o.B)}
}

// IsOff reports whether every channel is zero.
func (c RGB) IsOff() bool {
	return c.R == 0 && c.G == 0 && c.B == 0
}

// Hex renders the colour as #RRGGBB.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func satAdd(a, b uint8) uint8 {
	s := uint16(a) + uint16(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}

// FromColorful converts a go-colorful colour into an LED colour, clamping out-of-gamut values.
func FromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

// WheelSize is the number of positions on the hue wheel.
const WheelSize = 256

// Wheel returns the fully saturated colour at pos on a WheelSize-step hue wheel.
// Positions wrap in both directions.
func Wheel(pos int) RGB {
	pos %= WheelSize
	if pos < 0 {
		pos += WheelSize
	}
	return FromColorful(colorful.Hsv(float64(pos)*360.0/WheelSize, 1, 1))
}

// Palette is an ordered, cyclic list of colours.
type Palette []RGB

// At returns the colour at index i, wrapping around the palette length.
func (p Palette) At(i int) RGB {
	if len(p) == 0 {
		return RGB{}
	}
	i %= len(p)
	if i < 0 {
		i += len(p)
	}
	return p[i]
}

// Len returns the number of entries.
func (p Palette) Len() int {
	return len(p)
}

var rainbow = func() Palette {
	p := make(Palette, WheelSize)
	for i := range p {
		p[i] = Wheel(i)
	}
	return p
}()

// RainbowPalette returns the full hue wheel as a palette.
func RainbowPalette() Palette {
	return rainbow
}
