package deluge

import (
	"sync"
	"time"
)

// MaxDeltaFails is how many consecutive bad deltas are tolerated before a
// full frame is needed again.
const MaxDeltaFails = 3

// Display is the mirrored state of the Deluge's screens. It is safe for
// concurrent use: MIDI input writes while the UI reads.
type Display struct {
	mu         sync.RWMutex
	frame      Frame
	hasFrame   bool
	seg        SevenSegment
	hasSeg     bool
	updated    time.Time
	deltaFails int
	now        func() time.Time
}

// NewDisplay creates an empty display
func NewDisplay() *Display {
	return &Display{now: time.Now}
}

// Apply updates the mirror from a decoded message
func (d *Display) Apply(msg Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch m := msg.(type) {
	case OLEDFrame:
		d.frame = m.Frame
		d.hasFrame = true
		d.deltaFails = 0
	case OLEDDelta:
		if !d.hasFrame {
			d.deltaFails++
			return ErrNoBaseFrame
		}
		off := m.First * blockSize
		if off < 0 || off+len(m.Data) > FrameSize {
			d.deltaFails++
			return ErrDeltaRange
		}
		copy(d.frame[off:], m.Data)
		d.deltaFails = 0
	case SevenSegment:
		d.seg = m
		d.hasSeg = true
	default:
		return ErrUnknownMessage
	}
	d.updated = d.now()
	return nil
}

// Fail records an OLED message that could not be decoded
func (d *Display) Fail() {
	d.mu.Lock()
	d.deltaFails++
	d.mu.Unlock()
}

// NeedsFullFrame reports whether incremental updates can't be trusted
func (d *Display) NeedsFullFrame() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.hasFrame || d.deltaFails >= MaxDeltaFails
}

// Frame returns a copy of the current OLED image
func (d *Display) Frame() Frame {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frame
}

// HasFrame reports whether a full frame has been received
func (d *Display) HasFrame() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.hasFrame
}

// SevenSegment returns the current digits and dot mask
func (d *Display) SevenSegment() (digits [4]byte, dots byte) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.seg.Digits, d.seg.Dots
}

// HasSevenSegment reports whether 7-segment data has been received
func (d *Display) HasSevenSegment() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.hasSeg
}

// Updated returns when the last message was applied
func (d *Display) Updated() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.updated
}

// Reset forgets everything, used when the device goes away
func (d *Display) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frame = Frame{}
	d.hasFrame = false
	d.seg = SevenSegment{}
	d.hasSeg = false
	d.deltaFails = 0
	d.updated = time.Time{}
}
