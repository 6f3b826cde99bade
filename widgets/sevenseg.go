package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"delugedisplay/theme"
)

// Segment bits as sent by the Deluge
const (
	SegA byte = 0x40 // top
	SegB byte = 0x20 // top right
	SegC byte = 0x10 // bottom right
	SegD byte = 0x08 // bottom
	SegE byte = 0x04 // bottom left
	SegF byte = 0x02 // top left
	SegG byte = 0x01 // middle
)

// SevenSegmentOptions control how the digits are drawn
type SevenSegmentOptions struct {
	Colors theme.Colors
	Ghost  bool // draw unlit segments in the dim colour
}

type segCell struct {
	glyph rune
	mask  byte // 0 for cells that are always blank
}

// each digit is a 3x3 cell layout plus a dot column
var digitLayout = [3][3]segCell{
	{{' ', 0}, {'_', SegA}, {' ', 0}},
	{{'|', SegF}, {'_', SegG}, {'|', SegB}},
	{{'|', SegE}, {'_', SegD}, {'|', SegC}},
}

// RenderSevenSegment draws four digits. Dot bit i lights the point after
// digit i, digit 0 being leftmost.
func RenderSevenSegment(digits [4]byte, dots byte, opts SevenSegmentOptions) string {
	on := lipgloss.NewStyle().Foreground(opts.Colors.SegOn).Background(opts.Colors.BG)
	off := lipgloss.NewStyle().Foreground(opts.Colors.SegOff).Background(opts.Colors.BG)
	blank := lipgloss.NewStyle().Background(opts.Colors.BG)

	cell := func(glyph rune, lit, ghost bool) string {
		switch {
		case lit:
			return on.Render(string(glyph))
		case ghost:
			return off.Render(string(glyph))
		}
		return blank.Render(" ")
	}

	lines := make([]string, len(digitLayout))
	for row := range digitLayout {
		var b strings.Builder
		for d, pattern := range digits {
			for _, c := range digitLayout[row] {
				lit := c.mask != 0 && pattern&c.mask != 0
				b.WriteString(cell(c.glyph, lit, opts.Ghost && c.mask != 0))
			}
			dot := row == len(digitLayout)-1
			b.WriteString(cell('.', dot && dots&(1<<d) != 0, dot && opts.Ghost))
			if d < len(digits)-1 {
				b.WriteString(blank.Render(" "))
			}
		}
		lines[row] = b.String()
	}
	return strings.Join(lines, "\n")
}
