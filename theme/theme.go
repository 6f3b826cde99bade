package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"delugedisplay/deluge"
)

// Colors used to draw one of the Deluge's displays
type Colors struct {
	FG     lipgloss.Color // lit OLED pixel
	BG     lipgloss.Color // unlit OLED pixel and panel background
	SegOn  lipgloss.Color // lit 7-segment segment
	SegOff lipgloss.Color // unlit segment ghost
}

type Theme struct {
	// Palette optionally overrides the OLED colours of the default mode
	Palette *Palette
}

func New(palette *Palette) *Theme {
	return &Theme{Palette: palette}
}

// base colours per mode: pixel fg, pixel bg, segment on, segment bg
var modeColors = map[deluge.ColorMode][4]string{
	deluge.ColorNormal:   {"#ffffff", "#000000", "#ff0000", "#000000"},
	deluge.ColorInverted: {"#000000", "#ffffff", "#330000", "#ff0000"},
	deluge.ColorMatrix:   {"#00ff00", "#000000", "#00ff00", "#000000"},
}

// segment ghosts sit this far from the lit colour towards the background
const ghostBlend = 0.8

// For returns the colours for a colour mode
func (t *Theme) For(mode deluge.ColorMode) Colors {
	c, ok := modeColors[mode]
	if !ok {
		c = modeColors[deluge.ColorNormal]
	}

	colors := Colors{
		FG:     lipgloss.Color(c[0]),
		BG:     lipgloss.Color(c[1]),
		SegOn:  lipgloss.Color(c[2]),
		SegOff: blend(c[2], c[3], ghostBlend),
	}
	if mode == deluge.ColorInverted {
		// inverted segments are dark on a lit field
		colors.SegOff = lipgloss.Color(c[3])
	}

	if t.Palette != nil && mode == deluge.ColorNormal {
		colors.FG = rgbToLipgloss(t.Palette.Index(len(t.Palette.Colors) - 1))
		colors.BG = rgbToLipgloss(t.Palette.Index(0))
	}
	return colors
}

// Accent is used for the header line
func (t *Theme) Accent() lipgloss.Color {
	if t.Palette != nil {
		return rgbToLipgloss(t.Palette.Lookup(0.5))
	}
	return lipgloss.Color("#ff5f5f")
}

// Muted is used for help and status text
func (t *Theme) Muted() lipgloss.Color {
	if t.Palette != nil {
		return rgbToLipgloss(t.Palette.Lookup(0.2))
	}
	return lipgloss.Color("#808080")
}

func blend(from, to string, amount float64) lipgloss.Color {
	a, err := colorful.Hex(from)
	if err != nil {
		return lipgloss.Color(from)
	}
	b, err := colorful.Hex(to)
	if err != nil {
		return lipgloss.Color(from)
	}
	return lipgloss.Color(a.BlendRgb(b, amount).Clamped().Hex())
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
