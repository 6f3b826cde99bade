package midi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ScanTimeout bounds port enumeration; CoreMIDI can hang
const ScanTimeout = 3 * time.Second

// DefaultPortFilter matches the Deluge's third USB port
const DefaultPortFilter = "Port 3"

var (
	ErrPortNotFound = errors.New("no matching MIDI port")
	ErrMIDIHung     = errors.New("MIDI port enumeration timed out")
)

// PortSet is one enumeration of the system's MIDI ports
type PortSet struct {
	Ins  []drivers.In
	Outs []drivers.Out
}

// InNames returns the input port names
func (ps PortSet) InNames() []string {
	names := make([]string, len(ps.Ins))
	for i, p := range ps.Ins {
		names[i] = p.String()
	}
	return names
}

// OutNames returns the output port names
func (ps PortSet) OutNames() []string {
	names := make([]string, len(ps.Outs))
	for i, p := range ps.Outs {
		names[i] = p.String()
	}
	return names
}

// ListPorts enumerates MIDI ports, giving up after timeout
func ListPorts(timeout time.Duration) (PortSet, error) {
	ch := make(chan PortSet, 1)
	go func() {
		ch <- PortSet{Ins: gomidi.GetInPorts(), Outs: gomidi.GetOutPorts()}
	}()

	select {
	case ps := <-ch:
		return ps, nil
	case <-time.After(timeout):
		// sudo killall coreaudiod midiserver usually clears it
		return PortSet{}, ErrMIDIHung
	}
}

// FindDeluge picks the in/out pair whose names contain filter
func FindDeluge(ps PortSet, filter string) (drivers.In, drivers.Out, error) {
	in, out, ok := matchPorts(ps.InNames(), ps.OutNames(), filter)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrPortNotFound, filter)
	}
	return ps.Ins[in], ps.Outs[out], nil
}

// matchPorts finds the first input matching filter and the output with the
// same name, falling back to the first output matching filter.
func matchPorts(inNames, outNames []string, filter string) (in, out int, ok bool) {
	if filter == "" {
		filter = DefaultPortFilter
	}
	filter = strings.ToLower(filter)

	in = -1
	for i, name := range inNames {
		if strings.Contains(strings.ToLower(name), filter) {
			in = i
			break
		}
	}
	if in < 0 {
		return 0, 0, false
	}

	out = -1
	for j, name := range outNames {
		if strings.EqualFold(name, inNames[in]) {
			return in, j, true
		}
		if out < 0 && strings.Contains(strings.ToLower(name), filter) {
			out = j
		}
	}
	if out < 0 {
		return 0, 0, false
	}
	return in, out, true
}
