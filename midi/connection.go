// Package midi talks to a Deluge over MIDI: it finds the device's ports,
// keeps the display mirror fed with SysEx polls and forwards notes.
package midi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"delugedisplay/debug"
	"delugedisplay/deluge"
)

// Polling defaults
const (
	DefaultPollInterval = 50 * time.Millisecond
	DefaultFrameTimeout = time.Second
)

var ErrClosed = errors.New("connection closed")

// UpdateKind says what changed on the mirror
type UpdateKind int

const (
	UpdateOLED UpdateKind = iota
	UpdateSevenSegment
	UpdateError
)

// Update is emitted whenever an incoming message was handled
type Update struct {
	Kind UpdateKind
	Err  error
}

// Options tune a connection's polling
type Options struct {
	PollInterval time.Duration
	FrameTimeout time.Duration
	Mode         deluge.DisplayMode
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.FrameTimeout <= 0 {
		o.FrameTimeout = DefaultFrameTimeout
	}
	return o
}

// Connection is an open in/out pair to one Deluge
type Connection struct {
	id      string
	display *deluge.Display
	opts    Options
	send    func(gomidi.Message) error
	stop    func()
	updates chan Update

	mu     sync.Mutex
	mode   deluge.DisplayMode
	closed bool
}

// Open starts listening on in and sending on out. Decoded display
// messages are applied to display.
func Open(id string, in drivers.In, out drivers.Out, display *deluge.Display, opts Options) (*Connection, error) {
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}

	c := newConnection(id, display, send, opts)
	stop, err := gomidi.ListenTo(in, c.handle,
		gomidi.UseSysEx(),
		gomidi.HandleError(func(err error) {
			c.emit(Update{Kind: UpdateError, Err: err})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	c.stop = stop

	debug.Log("midi", "opened %s (poll %v, timeout %v)", id, c.opts.PollInterval, c.opts.FrameTimeout)
	return c, nil
}

func newConnection(id string, display *deluge.Display, send func(gomidi.Message) error, opts Options) *Connection {
	opts = opts.withDefaults()
	return &Connection{
		id:      id,
		display: display,
		opts:    opts,
		send:    send,
		updates: make(chan Update, 64),
		mode:    opts.Mode,
	}
}

// ID returns the input port name the connection was opened on
func (c *Connection) ID() string {
	return c.id
}

// Updates delivers mirror changes. Updates are dropped if nobody reads.
func (c *Connection) Updates() <-chan Update {
	return c.updates
}

func (c *Connection) emit(u Update) {
	select {
	case c.updates <- u:
	default:
	}
}

func (c *Connection) handle(msg gomidi.Message, _ int32) {
	var data []byte
	if !msg.GetSysEx(&data) {
		return
	}

	m, err := deluge.Parse(data)
	if errors.Is(err, deluge.ErrNotDeluge) {
		return
	}
	if err != nil {
		// a frame we could not decode leaves deltas untrustworthy
		if len(data) > 2 && data[2] == 0x40 {
			c.display.Fail()
		}
		debug.Log("midi", "parse: %v", err)
		c.emit(Update{Kind: UpdateError, Err: err})
		return
	}

	if err := c.display.Apply(m); err != nil {
		debug.Log("midi", "apply: %v", err)
		c.emit(Update{Kind: UpdateError, Err: err})
		return
	}

	if _, ok := m.(deluge.SevenSegment); ok {
		c.emit(Update{Kind: UpdateSevenSegment})
		return
	}
	c.emit(Update{Kind: UpdateOLED})
}

// Run polls the Deluge until ctx is done (blocking - run in goroutine)
func (c *Connection) Run(ctx context.Context) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	if err := c.poll(time.Now()); err != nil {
		debug.Log("midi", "poll: %v", err)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := c.poll(now); errors.Is(err, ErrClosed) {
				return
			} else if err != nil {
				debug.LogEvery(20, "midi", "poll: %v", err)
			}
		}
	}
}

// poll sends the request the current mode needs
func (c *Connection) poll(now time.Time) error {
	if c.Mode() == deluge.ModeSevenSegment {
		return c.SendSysEx(deluge.RequestSevenSegment)
	}

	switch {
	case c.display.NeedsFullFrame():
		return c.SendSysEx(deluge.RequestOLED)
	case now.Sub(c.display.Updated()) > c.opts.FrameTimeout:
		return c.SendSysEx(deluge.RequestDisplay(true))
	default:
		return c.SendSysEx(deluge.RequestDisplay(false))
	}
}

// Mode returns the display being mirrored
func (c *Connection) Mode() deluge.DisplayMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode switches which display is polled
func (c *Connection) SetMode(mode deluge.DisplayMode) {
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()
}

// Flip toggles the Deluge between its OLED and 7-segment screens
func (c *Connection) Flip() error {
	return c.SendSysEx(deluge.RequestFlip)
}

// SendSysEx wraps payload in F0/F7 and sends it
func (c *Connection) SendSysEx(payload []byte) error {
	return c.Send(gomidi.SysEx(payload))
}

// Send forwards a MIDI message to the Deluge
func (c *Connection) Send(msg gomidi.Message) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return c.send(msg)
}

// Close stops listening. It is safe to call more than once.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.stop != nil {
		c.stop()
	}
}
