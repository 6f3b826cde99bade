// Package kernel is the note sender's render kernel: it turns changes of
// the sendNote and midiNoteNumber parameters into MIDI notes, applying
// each change at its sample time within a render cycle.
package kernel

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"

	"delugedisplay/params"
)

var (
	ErrTooManyFrames    = errors.New("too many frames to render")
	ErrUnknownAddress   = errors.New("unknown parameter address")
	ErrMissingParameter = errors.New("parameter tree lacks a required parameter")
)

// DefaultMaxFrames is the largest render cycle accepted
const DefaultMaxFrames = 1024

const noNote = -1

// Kernel drives MIDI output from parameter changes. Render and the
// Trigger/SetNote helpers may be called from different goroutines.
type Kernel struct {
	mu sync.Mutex

	tree     *params.Tree
	sendNote *params.Parameter
	noteNum  *params.Parameter
	out      func(gomidi.Message) error
	log      *zap.Logger

	channel   uint8
	velocity  uint8
	maxFrames uint32

	now      int64 // sample clock
	sounding int   // note currently on, or noNote
	pending  []RenderEvent
}

// Option configures a Kernel
type Option func(*Kernel)

// WithChannel sets the zero-based MIDI channel
func WithChannel(ch uint8) Option {
	return func(k *Kernel) { k.channel = ch & 0x0F }
}

// WithVelocity sets the note-on velocity
func WithVelocity(v uint8) Option {
	return func(k *Kernel) { k.velocity = min(max(v, 1), 127) }
}

// WithMaxFrames sets the largest accepted render cycle
func WithMaxFrames(n uint32) Option {
	return func(k *Kernel) { k.maxFrames = n }
}

// WithLogger sets the logger for skipped events
func WithLogger(l *zap.Logger) Option {
	return func(k *Kernel) { k.log = l }
}

// New creates a kernel over tree, sending MIDI to out
func New(tree *params.Tree, out func(gomidi.Message) error, opts ...Option) (*Kernel, error) {
	k := &Kernel{
		tree:      tree,
		sendNote:  tree.Get(params.SendNote),
		noteNum:   tree.Get(params.MIDINoteNumber),
		out:       out,
		log:       zap.NewNop(),
		velocity:  100,
		maxFrames: DefaultMaxFrames,
		sounding:  noNote,
	}
	if k.sendNote == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingParameter, params.SendNote)
	}
	if k.noteNum == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingParameter, params.MIDINoteNumber)
	}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// MaxFrames returns the largest accepted render cycle
func (k *Kernel) MaxFrames() uint32 {
	return k.maxFrames
}

// Clock returns the sample time the kernel has rendered up to
func (k *Kernel) Clock() int64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.now
}

// Note returns the current note number parameter
func (k *Kernel) Note() int {
	return int(math.Round(k.noteNum.PlainValue()))
}

// Sounding returns the note being held, or -1
func (k *Kernel) Sounding() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.sounding
}

// Render processes one cycle of frameCount frames starting at timestamp.
// Events are applied at their sample times; late events are applied at
// the start of the cycle, events past its end are held for the next one.
// A zero-frame cycle holds all of its events.
func (k *Kernel) Render(timestamp int64, frameCount uint32, events []RenderEvent) error {
	if frameCount > k.maxFrames {
		return fmt.Errorf("%w: %d > %d", ErrTooManyFrames, frameCount, k.maxFrames)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	end := timestamp + int64(frameCount)
	queue := make([]RenderEvent, 0, len(k.pending)+len(events))
	var later []RenderEvent
	for _, ev := range append(k.pending, events...) {
		if ev.SampleTime >= end {
			later = append(later, ev)
			continue
		}
		queue = append(queue, ev)
	}
	k.pending = later
	sort.SliceStable(queue, func(i, j int) bool { return queue[i].SampleTime < queue[j].SampleTime })

	now := timestamp
	remaining := frameCount
	next := 0
	for remaining > 0 {
		if next >= len(queue) {
			k.process(now, remaining)
			return nil
		}

		if ahead := queue[next].SampleTime - now; ahead > 0 {
			segment := uint32(ahead)
			k.process(now, segment)
			remaining -= segment
			now += int64(segment)
		}

		next = k.performSimultaneous(now, queue, next)
	}

	// an empty cycle applies nothing; keep its events for the next one
	if next < len(queue) {
		k.pending = append(append([]RenderEvent(nil), queue[next:]...), k.pending...)
	}
	return nil
}

// performSimultaneous applies the event at queue[i] and every following
// event that is due at or before now.
func (k *Kernel) performSimultaneous(now int64, queue []RenderEvent, i int) int {
	for {
		if err := k.handle(now, queue[i]); err != nil {
			k.log.Warn("skipped render event", zap.Stringer("event", queue[i]), zap.Error(err))
		}
		i++
		if i >= len(queue) || queue[i].SampleTime > now {
			return i
		}
	}
}

// Process advances the clock over frames with no events. The kernel makes
// no audio.
func (k *Kernel) Process(now int64, frames uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.process(now, frames)
}

func (k *Kernel) process(now int64, frames uint32) {
	k.now = now + int64(frames)
}

// HandleEvent applies a single event at sample time now
func (k *Kernel) HandleEvent(now int64, ev RenderEvent) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.handle(now, ev)
}

func (k *Kernel) handle(now int64, ev RenderEvent) error {
	if ev.Kind == EventMIDI {
		return k.send(ev.MIDI)
	}

	switch ev.Address {
	case params.SendNote:
		k.sendNote.SetPlainValue(ev.Value)
		on := k.sendNote.PlainValue() >= 0.5
		switch {
		case on && k.sounding == noNote:
			note := uint8(k.Note())
			k.sounding = int(note)
			return k.send(gomidi.NoteOn(k.channel, note, k.velocity))
		case !on && k.sounding != noNote:
			note := uint8(k.sounding)
			k.sounding = noNote
			return k.send(gomidi.NoteOff(k.channel, note))
		}
		return nil

	case params.MIDINoteNumber:
		k.noteNum.SetPlainValue(math.Round(ev.Value))
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownAddress, ev.Address)
}

func (k *Kernel) send(msg gomidi.Message) error {
	if k.out == nil {
		return nil
	}
	if err := k.out(msg); err != nil {
		return fmt.Errorf("send %s: %w", msg, err)
	}
	return nil
}

// Trigger sets sendNote outside a render cycle, as a UI button does
func (k *Kernel) Trigger(on bool) error {
	v := 0.0
	if on {
		v = 1
	}
	return k.HandleEvent(k.Clock(), ParameterEvent(k.Clock(), params.SendNote, v))
}

// SetNote sets midiNoteNumber outside a render cycle
func (k *Kernel) SetNote(note int) error {
	return k.HandleEvent(k.Clock(), ParameterEvent(k.Clock(), params.MIDINoteNumber, float64(note)))
}
