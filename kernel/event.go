package kernel

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"

	"delugedisplay/params"
)

// EventKind tells parameter changes from MIDI passthrough
type EventKind int

const (
	EventParameter EventKind = iota
	EventMIDI
)

// RenderEvent is an event stamped with the sample time it takes effect
type RenderEvent struct {
	SampleTime int64
	Kind       EventKind
	Address    params.Address
	Value      float64 // plain value
	MIDI       gomidi.Message
}

// ParameterEvent changes the parameter at addr to a plain value
func ParameterEvent(at int64, addr params.Address, value float64) RenderEvent {
	return RenderEvent{SampleTime: at, Kind: EventParameter, Address: addr, Value: value}
}

// MIDIEvent passes a MIDI message through to the output
func MIDIEvent(at int64, msg gomidi.Message) RenderEvent {
	return RenderEvent{SampleTime: at, Kind: EventMIDI, MIDI: msg}
}

func (e RenderEvent) String() string {
	if e.Kind == EventMIDI {
		return fmt.Sprintf("MIDI{%s @%d}", e.MIDI, e.SampleTime)
	}
	return fmt.Sprintf("Param{%s=%g @%d}", e.Address, e.Value, e.SampleTime)
}
