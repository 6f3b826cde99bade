package deluge

import (
	"errors"
	"fmt"

	"delugedisplay/rle"
)

// SysEx identity of the Deluge
const (
	Manufacturer byte = 0x7D
	DeviceID     byte = 0x02
)

const (
	kindDisplayRequest byte = 0x00
	kindSegRequest     byte = 0x01
	kindOLED           byte = 0x40
	kindSevenSeg       byte = 0x41

	typeOLEDFrame byte = 0x01
	typeOLEDDelta byte = 0x02
	typeSevenSeg  byte = 0x00

	blockSize = 8
)

var (
	ErrNotDeluge      = errors.New("not a deluge message")
	ErrShortMessage   = errors.New("message too short")
	ErrUnknownMessage = errors.New("unknown deluge message")
	ErrFrameSize      = errors.New("unexpected frame size")
	ErrDeltaRange     = errors.New("delta outside frame")
	ErrNoBaseFrame    = errors.New("delta before first full frame")
)

// Request payloads (SysEx data without F0/F7)
var (
	RequestOLED         = []byte{Manufacturer, DeviceID, kindDisplayRequest, 0x01}
	RequestSevenSegment = []byte{Manufacturer, DeviceID, kindSegRequest, 0x00}
	RequestFlip         = []byte{Manufacturer, DeviceID, kindDisplayRequest, 0x04}
)

// RequestDisplay asks the Deluge to push display changes. Forcing makes it
// resend the whole screen.
func RequestDisplay(force bool) []byte {
	t := byte(0x02)
	if force {
		t = 0x03
	}
	return []byte{Manufacturer, DeviceID, kindDisplayRequest, t}
}

// Message is a decoded display message
type Message interface {
	isMessage()
}

// OLEDFrame carries a complete OLED image
type OLEDFrame struct {
	Frame Frame
}

// OLEDDelta replaces Len 8-byte blocks starting at block First
type OLEDDelta struct {
	First int
	Len   int
	Data  []byte
}

// SevenSegment carries the four digit segment patterns and the dot mask.
// Dot bit i belongs to digit i, digit 0 being leftmost.
type SevenSegment struct {
	Digits [4]byte
	Dots   byte
}

func (OLEDFrame) isMessage()    {}
func (OLEDDelta) isMessage()    {}
func (SevenSegment) isMessage() {}

// Parse decodes a SysEx payload. A leading F0 and trailing F7 are
// tolerated.
func Parse(payload []byte) (Message, error) {
	if len(payload) > 0 && payload[0] == 0xF0 {
		payload = payload[1:]
	}
	if len(payload) > 0 && payload[len(payload)-1] == 0xF7 {
		payload = payload[:len(payload)-1]
	}
	if len(payload) < 2 || payload[0] != Manufacturer || payload[1] != DeviceID {
		return nil, ErrNotDeluge
	}
	if len(payload) < 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortMessage, len(payload))
	}

	kind, typ := payload[2], payload[3]
	switch {
	case kind == kindOLED && typ == typeOLEDFrame:
		return parseFrame(payload)
	case kind == kindOLED && typ == typeOLEDDelta:
		return parseDelta(payload)
	case kind == kindSevenSeg && typ == typeSevenSeg:
		return parseSevenSegment(payload)
	}
	return nil, fmt.Errorf("%w: %#02x %#02x", ErrUnknownMessage, kind, typ)
}

func parseFrame(payload []byte) (Message, error) {
	if len(payload) < 5 {
		return nil, fmt.Errorf("oled frame: %w", ErrShortMessage)
	}
	body := payload[5:]
	data, _, err := rle.Unpack(body, len(body))
	if err != nil {
		return nil, fmt.Errorf("oled frame: %w", err)
	}
	if len(data) != FrameSize {
		return nil, fmt.Errorf("oled frame: %w: %d bytes", ErrFrameSize, len(data))
	}
	var msg OLEDFrame
	copy(msg.Frame[:], data)
	return msg, nil
}

func parseDelta(payload []byte) (Message, error) {
	if len(payload) < 6 {
		return nil, fmt.Errorf("oled delta: %w", ErrShortMessage)
	}
	first, n := int(payload[4]), int(payload[5])
	if (first+n)*blockSize > FrameSize {
		return nil, fmt.Errorf("oled delta: %w: blocks %d+%d", ErrDeltaRange, first, n)
	}
	body := payload[6:]
	data, _, err := rle.Unpack(body, len(body))
	if err != nil {
		return nil, fmt.Errorf("oled delta: %w", err)
	}
	if len(data) != n*blockSize {
		return nil, fmt.Errorf("oled delta: %w: %d bytes for %d blocks", ErrFrameSize, len(data), n)
	}
	return OLEDDelta{First: first, Len: n, Data: data}, nil
}

func parseSevenSegment(payload []byte) (Message, error) {
	if len(payload) < 10 {
		return nil, fmt.Errorf("7-segment: %w", ErrShortMessage)
	}
	msg := SevenSegment{Dots: payload[5]}
	copy(msg.Digits[:], payload[6:10])
	return msg, nil
}
