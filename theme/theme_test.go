package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delugedisplay/deluge"
)

const amberGPL = `GIMP Palette
Name: amber
Columns: 2
# dark to light
 20  10   0	Dark
255 176   0	Amber
bad line here
`

func TestParseGPL(t *testing.T) {
	p, err := ParseGPL(strings.NewReader(amberGPL))
	require.NoError(t, err)
	assert.Equal(t, "amber", p.Name)
	assert.Equal(t, []RGB{{20, 10, 0}, {255, 176, 0}}, p.Colors)

	_, err = ParseGPL(strings.NewReader("GIMP Palette\n"))
	assert.ErrorIs(t, err, ErrEmptyPalette)
}

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amber.gpl")
	require.NoError(t, os.WriteFile(path, []byte(amberGPL), 0644))

	p, err := LoadGPL(path)
	require.NoError(t, err)
	assert.Len(t, p.Colors, 2)

	_, err = LoadGPL(filepath.Join(t.TempDir(), "missing.gpl"))
	assert.Error(t, err)
}

func TestPaletteLookup(t *testing.T) {
	p := &Palette{Colors: []RGB{{0, 0, 0}, {200, 100, 50}}}
	assert.Equal(t, RGB{0, 0, 0}, p.Lookup(-1))
	assert.Equal(t, RGB{200, 100, 50}, p.Lookup(2))
	assert.Equal(t, RGB{100, 50, 25}, p.Lookup(0.5))
	assert.Equal(t, RGB{200, 100, 50}, p.Index(9))
}

func TestColorModes(t *testing.T) {
	th := New(nil)

	normal := th.For(deluge.ColorNormal)
	assert.Equal(t, lipgloss.Color("#ffffff"), normal.FG)
	assert.Equal(t, lipgloss.Color("#000000"), normal.BG)
	assert.Equal(t, lipgloss.Color("#ff0000"), normal.SegOn)
	assert.Equal(t, lipgloss.Color("#330000"), normal.SegOff)

	inverted := th.For(deluge.ColorInverted)
	assert.Equal(t, lipgloss.Color("#000000"), inverted.FG)
	assert.Equal(t, lipgloss.Color("#ffffff"), inverted.BG)
	assert.Equal(t, lipgloss.Color("#ff0000"), inverted.SegOff)

	matrix := th.For(deluge.ColorMatrix)
	assert.Equal(t, lipgloss.Color("#00ff00"), matrix.FG)
	assert.Equal(t, lipgloss.Color("#003300"), matrix.SegOff)
}

func TestPaletteOverridesDefaultMode(t *testing.T) {
	p, err := ParseGPL(strings.NewReader(amberGPL))
	require.NoError(t, err)

	th := New(p)
	c := th.For(deluge.ColorNormal)
	assert.Equal(t, lipgloss.Color("#ffb000"), c.FG)
	assert.Equal(t, lipgloss.Color("#140a00"), c.BG)

	// other modes keep their fixed colours
	assert.Equal(t, lipgloss.Color("#00ff00"), th.For(deluge.ColorMatrix).FG)
}
