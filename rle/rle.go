// Package rle implements the Deluge's 7-bit safe run-length packing used
// to carry 8-bit display data inside SysEx.
//
// Each group starts with a header byte. Headers below 64 introduce a dense
// group of 2 to 5 bytes whose high bits are stored in the header; headers
// from 64 up introduce a run of a single repeated byte.
package rle

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGroup = errors.New("rle: invalid group header")
	ErrTruncated    = errors.New("rle: truncated input")
)

const (
	runBase    = 64
	longRun    = 31
	maxRun     = longRun + 0x7F
	maxDense   = 5
	denseLimit = 60
)

// dense group sizes and their header offsets, indexed by size
var denseOffset = [...]byte{2: 0, 3: 4, 4: 12, 5: 28}

// Unpack decodes src, reading at most maxBytes group headers' worth of
// input. It returns the decoded bytes and how many input bytes were used.
func Unpack(src []byte, maxBytes int) ([]byte, int, error) {
	var dst []byte
	end := min(len(src), maxBytes)
	s := 0

	for s < end {
		first := src[s]
		s++

		if first < runBase {
			size, off := denseSize(first)
			if size == 0 {
				return dst, s, fmt.Errorf("%w: %#02x at %d", ErrInvalidGroup, first, s-1)
			}
			if s+size > len(src) {
				return dst, s, fmt.Errorf("%w: dense group of %d at %d", ErrTruncated, size, s-1)
			}
			highBits := first - off
			for j := 0; j < size; j++ {
				b := src[s+j] & 0x7F
				if highBits&(1<<j) != 0 {
					b |= 0x80
				}
				dst = append(dst, b)
			}
			s += size
			continue
		}

		marker := first - runBase
		high := marker&1 != 0
		runLen := int(marker >> 1)
		if runLen == longRun {
			if s >= len(src) {
				return dst, s, fmt.Errorf("%w: missing long run length", ErrTruncated)
			}
			runLen = longRun + int(src[s])
			s++
		}
		if s >= len(src) {
			return dst, s, fmt.Errorf("%w: missing run value", ErrTruncated)
		}
		b := src[s] & 0x7F
		if high {
			b |= 0x80
		}
		s++
		for range runLen {
			dst = append(dst, b)
		}
	}
	return dst, s, nil
}

func denseSize(first byte) (size int, off byte) {
	switch {
	case first < 4:
		return 2, 0
	case first < 12:
		return 3, 4
	case first < 28:
		return 4, 12
	case first < denseLimit:
		return 5, 28
	}
	return 0, 0
}

// Pack encodes src so that every output byte is below 0x80.
func Pack(src []byte) []byte {
	var out []byte
	i := 0
	for i < len(src) {
		run := 1
		for i+run < len(src) && src[i+run] == src[i] && run < maxRun {
			run++
		}
		if run >= 2 {
			out = appendRun(out, src[i], run)
			i += run
			continue
		}

		// dense bytes stop where the next run starts
		n := 1
		for n < maxDense && i+n < len(src) && !(i+n+1 < len(src) && src[i+n] == src[i+n+1]) {
			n++
		}
		if n == 1 {
			out = appendRun(out, src[i], 1)
			i++
			continue
		}

		var highBits byte
		for j := 0; j < n; j++ {
			if src[i+j]&0x80 != 0 {
				highBits |= 1 << j
			}
		}
		out = append(out, denseOffset[n]+highBits)
		for j := 0; j < n; j++ {
			out = append(out, src[i+j]&0x7F)
		}
		i += n
	}
	return out
}

func appendRun(out []byte, b byte, n int) []byte {
	var high byte
	if b&0x80 != 0 {
		high = 1
	}
	if n < longRun {
		return append(out, runBase+byte(n<<1)+high, b&0x7F)
	}
	return append(out, runBase+byte(longRun<<1)+high, byte(n-longRun), b&0x7F)
}
