package deluge

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemblerSplitsMessages(t *testing.T) {
	var a Assembler

	got := a.Feed([]byte{0x90, 0x3C, 0x40, 0xF0, 0x7D, 0x02})
	assert.Empty(t, got)

	got = a.Feed([]byte{0xF8, 0x41, 0x00, 0xF7, 0xF0, 0x01, 0xF7})
	require.Len(t, got, 2)
	assert.Equal(t, []byte{0xF0, 0x7D, 0x02, 0x41, 0x00, 0xF7}, got[0])
	assert.Equal(t, []byte{0xF0, 0x01, 0xF7}, got[1])
}

func TestAssemblerAbortsOnStatus(t *testing.T) {
	var a Assembler
	got := a.Feed([]byte{0xF0, 0x01, 0x90, 0x02, 0xF7})
	assert.Empty(t, got)
}

func TestAssemblerOverflow(t *testing.T) {
	var a Assembler
	data := append([]byte{0xF0}, bytes.Repeat([]byte{0x01}, MaxSysExSize+10)...)
	data = append(data, 0xF7, 0xF0, 0x05, 0xF7)

	got := a.Feed(data)
	assert.Equal(t, 1, a.Overflows())
	require.Len(t, got, 1)
	assert.Equal(t, []byte{0xF0, 0x05, 0xF7}, got[0])
}

func TestModes(t *testing.T) {
	m, err := ParseMode("7seg")
	require.NoError(t, err)
	assert.Equal(t, ModeSevenSegment, m)
	assert.Equal(t, "7-Segment", m.String())

	_, err = ParseMode("lcd")
	assert.Error(t, err)

	c, err := ParseColorMode("Black on White")
	require.NoError(t, err)
	assert.Equal(t, ColorInverted, c)
	assert.Equal(t, ColorMatrix, c.Next())
	assert.Equal(t, ColorNormal, ColorMatrix.Next())

	_, err = ParseColorMode("purple")
	assert.Error(t, err)
}
