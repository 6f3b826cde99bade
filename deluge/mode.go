package deluge

import (
	"fmt"
	"strings"
)

// DisplayMode selects which Deluge display is mirrored
type DisplayMode int

const (
	ModeOLED DisplayMode = iota
	ModeSevenSegment
)

func (m DisplayMode) String() string {
	switch m {
	case ModeOLED:
		return "OLED"
	case ModeSevenSegment:
		return "7-Segment"
	}
	return fmt.Sprintf("DisplayMode(%d)", int(m))
}

// ParseMode accepts "oled", "7seg", "7-segment" and "seven-segment"
func ParseMode(s string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oled", "":
		return ModeOLED, nil
	case "7seg", "7-seg", "7-segment", "seven-segment", "sevensegment":
		return ModeSevenSegment, nil
	}
	return ModeOLED, fmt.Errorf("unknown display mode %q", s)
}

// ColorMode is the colour scheme of the mirror
type ColorMode int

const (
	ColorNormal ColorMode = iota
	ColorInverted
	ColorMatrix
	numColorModes
)

func (c ColorMode) String() string {
	switch c {
	case ColorNormal:
		return "Default"
	case ColorInverted:
		return "Black on White"
	case ColorMatrix:
		return "Green on Black"
	}
	return fmt.Sprintf("ColorMode(%d)", int(c))
}

// Next cycles through the colour modes
func (c ColorMode) Next() ColorMode {
	return (c + 1) % numColorModes
}

// ParseColorMode accepts a mode's display name or a short alias
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "default", "normal", "":
		return ColorNormal, nil
	case "black on white", "inverted", "invert":
		return ColorInverted, nil
	case "green on black", "matrix":
		return ColorMatrix, nil
	}
	return ColorNormal, fmt.Errorf("unknown color mode %q", s)
}
