package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"delugedisplay/deluge"
	"delugedisplay/theme"
)

// OLEDOptions control how the OLED frame is drawn
type OLEDOptions struct {
	Colors    theme.Colors
	PixelGrid bool // one cell per pixel instead of half blocks
}

// RenderOLED draws the frame. Half-block mode packs two pixel rows into
// each terminal line; pixel-grid mode draws every pixel as its own cell.
func RenderOLED(f *deluge.Frame, opts OLEDOptions) string {
	style := lipgloss.NewStyle().
		Foreground(opts.Colors.FG).
		Background(opts.Colors.BG)

	lines := oledLines(f, opts.PixelGrid)
	for i, line := range lines {
		lines[i] = style.Render(line)
	}
	return strings.Join(lines, "\n")
}

func oledLines(f *deluge.Frame, grid bool) []string {
	if grid {
		lines := make([]string, 0, deluge.Height)
		for y := 0; y < deluge.Height; y++ {
			var b strings.Builder
			for x := 0; x < deluge.Width; x++ {
				if f.Pixel(x, y) {
					b.WriteRune('▪')
				} else {
					b.WriteRune('·')
				}
			}
			lines = append(lines, b.String())
		}
		return lines
	}

	lines := make([]string, 0, deluge.Height/2)
	for y := 0; y < deluge.Height; y += 2 {
		var b strings.Builder
		for x := 0; x < deluge.Width; x++ {
			b.WriteRune(halfBlock(f.Pixel(x, y), f.Pixel(x, y+1)))
		}
		lines = append(lines, b.String())
	}
	return lines
}

func halfBlock(top, bottom bool) rune {
	switch {
	case top && bottom:
		return '█'
	case top:
		return '▀'
	case bottom:
		return '▄'
	}
	return ' '
}
