// Package deluge models the Deluge's displays and the SysEx protocol used
// to mirror them.
package deluge

// OLED geometry. The frame is stored the way the panel is addressed:
// 6 pages of 128 column bytes, bit 0 of each byte is the page's top row.
const (
	Width     = 128
	Height    = 48
	Pages     = Height / 8
	FrameSize = Width * Pages
)

// Frame is one full OLED image
type Frame [FrameSize]byte

// Pixel reports whether the pixel at x, y is lit
func (f *Frame) Pixel(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return f[(y/8)*Width+x]&(1<<(y%8)) != 0
}

// Set lights or clears the pixel at x, y
func (f *Frame) Set(x, y int, on bool) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	i := (y/8)*Width + x
	mask := byte(1 << (y % 8))
	if on {
		f[i] |= mask
	} else {
		f[i] &^= mask
	}
}

// Lit counts lit pixels
func (f *Frame) Lit() int {
	n := 0
	for _, b := range f {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}
	return n
}
