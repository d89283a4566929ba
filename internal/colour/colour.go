// Package colour maps types to block colours and paints terminal text.
package colour

import (
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/typesystem"
	"github.com/mattn/go-isatty"
)

// RGB is a colour with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Reserved colours
var (
	NoType  = RGB{187, 187, 187}
	Unknown = RGB{102, 102, 102}
	Passing = RGB{0, 255, 0}
	Failing = RGB{255, 0, 0}
)

// Palette assigns hues to the atomic base types in registration order.
type Palette struct {
	saturation  float64
	value       float64
	listLighten float64
	hues        map[string]float64
}

func NewPalette(s config.ColourSettings) *Palette {
	p := &Palette{
		saturation:  s.Saturation,
		value:       s.Value,
		listLighten: s.ListLighten,
		hues:        make(map[string]float64),
	}
	base := typesystem.BaseTypes()
	step := config.HueSpan / float64(len(base))
	for i, t := range base {
		p.hues[t.Key()] = float64(i) * step
	}
	return p
}

// DefaultPalette uses the built-in saturation, value and lightening.
func DefaultPalette() *Palette {
	return NewPalette(config.ColourSettings{
		Saturation:  config.HSVSaturation,
		Value:       config.HSVValue,
		ListLighten: config.ListLightenRatio,
	})
}

// Hue returns the hue of an atomic base type.
func (p *Palette) Hue(key string) (float64, bool) {
	h, ok := p.hues[key]
	return h, ok
}

// Colour returns the display colour of t; nil is "no type".
func (p *Palette) Colour(t typesystem.Type) RGB {
	if t == nil {
		return NoType
	}
	if hue, ok := p.hues[t.Key()]; ok {
		return hsvToRGB(hue, p.saturation, p.value*256)
	}
	switch t := t.(type) {
	case typesystem.List:
		return lighten(p.Colour(t.Element), p.listLighten)
	case typesystem.Unknown:
		return Unknown
	}
	return NoType
}

// hsvToRGB converts a hue in degrees, a saturation in [0,1] and a
// brightness in [0,256).
func hsvToRGB(hue, sat, brightness float64) RGB {
	if sat == 0 {
		v := channel(brightness)
		return RGB{v, v, v}
	}
	sextant := math.Floor(hue / 60)
	rem := hue/60 - sextant
	v1 := brightness * (1 - sat)
	v2 := brightness * (1 - sat*rem)
	v3 := brightness * (1 - sat*(1-rem))

	var r, g, b float64
	switch int(sextant) {
	case 1:
		r, g, b = v2, brightness, v1
	case 2:
		r, g, b = v1, brightness, v3
	case 3:
		r, g, b = v1, v2, brightness
	case 4:
		r, g, b = v3, v1, brightness
	case 5:
		r, g, b = brightness, v1, v2
	default:
		r, g, b = brightness, v3, v1
	}
	return RGB{channel(r), channel(g), channel(b)}
}

func channel(v float64) uint8 {
	return uint8(math.Min(255, math.Max(0, math.Floor(v))))
}

// lighten blends c towards white by factor.
func lighten(c RGB, factor float64) RGB {
	mix := func(x uint8) uint8 {
		return uint8(math.Round(float64(x) + (255-float64(x))*factor))
	}
	return RGB{mix(c.R), mix(c.G), mix(c.B)}
}

var (
	truecolorOnce sync.Once
	truecolor     bool
)

// Enabled reports whether stdout accepts colour escapes.
func Enabled() bool {
	truecolorOnce.Do(func() {
		truecolor = detect()
	})
	return truecolor
}

func detect() bool {
	// https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// Paint wraps text in a 24-bit foreground escape when colour is enabled.
func Paint(text string, c RGB) string {
	if !Enabled() {
		return text
	}
	return Sprint(text, c)
}

// Sprint always emits the escape sequence.
func Sprint(text string, c RGB) string {
	return fmt.Sprintf("\033[38;2;%d;%d;%dm%s\033[39m", c.R, c.G, c.B, text)
}
