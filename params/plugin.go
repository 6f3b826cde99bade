package params

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultNote is middle C
const DefaultNote = 60

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NewPluginTree builds the note sender's parameters
func NewPluginTree() *Tree {
	t := NewTree()
	err := t.Add(
		New(SendNote, "Send Note").
			Momentary().
			Build(),
		New(MIDINoteNumber, "MIDI Note Number").
			Range(0, 127).
			Steps(127).
			Default(DefaultNote).
			Unit("note").
			Formatter(func(v float64) string { return NoteName(int(v + 0.5)) }, ParseNote).
			Build(),
	)
	if err != nil {
		// the table above is static
		panic(err)
	}
	return t
}

// NoteName formats a MIDI note number, 60 -> C4
func NoteName(note int) string {
	if note < 0 || note > 127 {
		return strconv.Itoa(note)
	}
	return fmt.Sprintf("%s%d", noteNames[note%12], note/12-1)
}

// ParseNote accepts a number ("60") or a note name ("C4", "f#2", "A-1")
func ParseNote(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return float64(n), nil
	}

	upper := strings.ToUpper(s)
	for i := len(noteNames) - 1; i >= 0; i-- {
		name := noteNames[i]
		if !strings.HasPrefix(upper, name) {
			continue
		}
		octave, err := strconv.Atoi(upper[len(name):])
		if err != nil {
			return 0, fmt.Errorf("bad octave in %q", s)
		}
		return float64((octave+1)*12 + i), nil
	}
	return 0, fmt.Errorf("unknown note %q", s)
}
