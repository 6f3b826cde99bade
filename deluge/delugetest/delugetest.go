// Package delugetest builds Deluge display messages the way the device
// sends them, for tests.
package delugetest

import (
	"delugedisplay/deluge"
	"delugedisplay/rle"
)

// OLEDFrame encodes a full frame payload (without F0/F7)
func OLEDFrame(f *deluge.Frame) []byte {
	out := []byte{deluge.Manufacturer, deluge.DeviceID, 0x40, 0x01, 0x00}
	return append(out, rle.Pack(f[:])...)
}

// OLEDDelta encodes a delta payload replacing blocks starting at first.
// data must be a whole number of 8-byte blocks.
func OLEDDelta(first int, data []byte) []byte {
	out := []byte{deluge.Manufacturer, deluge.DeviceID, 0x40, 0x02, byte(first), byte(len(data) / 8)}
	return append(out, rle.Pack(data)...)
}

// SevenSegment encodes a 7-segment payload
func SevenSegment(digits [4]byte, dots byte) []byte {
	out := []byte{deluge.Manufacturer, deluge.DeviceID, 0x41, 0x00, 0x00, dots}
	return append(out, digits[:]...)
}

// Wrap adds the SysEx framing bytes
func Wrap(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+2)
	out = append(out, 0xF0)
	out = append(out, payload...)
	return append(out, 0xF7)
}

// Checkerboard returns a frame with alternating pixels lit
func Checkerboard() deluge.Frame {
	var f deluge.Frame
	for y := 0; y < deluge.Height; y++ {
		for x := 0; x < deluge.Width; x++ {
			f.Set(x, y, (x+y)%2 == 0)
		}
	}
	return f
}
