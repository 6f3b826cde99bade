package midi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"delugedisplay/debug"
	"delugedisplay/deluge"
)

var ErrNotConnected = errors.New("no Deluge connected")

// DeviceEvent is emitted when the Deluge connects/disconnects
type DeviceEvent struct {
	Type DeviceEventType
	ID   string
	Err  error
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
	DeviceFailed
)

// DeviceManager handles hot-plug detection of the Deluge and keeps one
// connection to it open
type DeviceManager struct {
	mu       sync.RWMutex
	conn     *Connection
	cancel   context.CancelFunc
	filter   string
	mode     deluge.DisplayMode
	ins      []string
	outs     []string
	stopped  bool
	opts     Options
	display  *deluge.Display
	events   chan DeviceEvent
	updates  chan Update
	rescan   chan struct{}
	pollRate time.Duration

	list func() (ins, outs []string, err error)
	open func(in, out string) (*Connection, error)
}

// NewDeviceManager creates a manager that mirrors into display the first
// device whose port name contains filter
func NewDeviceManager(display *deluge.Display, filter string, opts Options) *DeviceManager {
	dm := &DeviceManager{
		filter:   filter,
		mode:     opts.Mode,
		opts:     opts,
		display:  display,
		events:   make(chan DeviceEvent, 16),
		updates:  make(chan Update, 64),
		rescan:   make(chan struct{}, 1),
		pollRate: time.Second,
	}
	dm.list = listPortNames
	dm.open = dm.openPorts
	return dm
}

func listPortNames() (ins, outs []string, err error) {
	ps, err := ListPorts(ScanTimeout)
	if err != nil {
		return nil, nil, err
	}
	return ps.InNames(), ps.OutNames(), nil
}

func (dm *DeviceManager) openPorts(inName, outName string) (*Connection, error) {
	in, err := gomidi.FindInPort(inName)
	if err != nil {
		return nil, fmt.Errorf("find input %q: %w", inName, err)
	}
	out, err := gomidi.FindOutPort(outName)
	if err != nil {
		return nil, fmt.Errorf("find output %q: %w", outName, err)
	}
	return Open(inName, in, out, dm.display, dm.connOptions())
}

func (dm *DeviceManager) connOptions() Options {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	opts := dm.opts
	opts.Mode = dm.mode
	return opts
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Updates returns mirror updates from whichever connection is open
func (dm *DeviceManager) Updates() <-chan Update {
	return dm.updates
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			dm.mu.Lock()
			dm.stopped = true
			dm.mu.Unlock()
			dm.disconnect()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan(ctx)
		case <-dm.rescan:
			dm.scan(ctx)
		}
	}
}

// Rescan asks the loop to look at the ports now
func (dm *DeviceManager) Rescan() {
	select {
	case dm.rescan <- struct{}{}:
	default:
	}
}

// Select changes the port filter and reconnects
func (dm *DeviceManager) Select(filter string) {
	dm.mu.Lock()
	dm.filter = filter
	dm.mu.Unlock()
	dm.disconnect()
	dm.Rescan()
}

// Filter returns the port name filter in use
func (dm *DeviceManager) Filter() string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.filter
}

// Ports returns the port names seen by the last scan
func (dm *DeviceManager) Ports() (ins, outs []string) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return append([]string(nil), dm.ins...), append([]string(nil), dm.outs...)
}

// Connected returns the port of the open connection, if any
func (dm *DeviceManager) Connected() (string, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	if dm.conn == nil {
		return "", false
	}
	return dm.conn.ID(), true
}

// SetMode changes which display is polled, now and after reconnects
func (dm *DeviceManager) SetMode(mode deluge.DisplayMode) {
	dm.mu.Lock()
	dm.mode = mode
	conn := dm.conn
	dm.mu.Unlock()
	if conn != nil {
		conn.SetMode(mode)
	}
}

// Send forwards a MIDI message to the connected Deluge
func (dm *DeviceManager) Send(msg gomidi.Message) error {
	dm.mu.RLock()
	conn := dm.conn
	dm.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.Send(msg)
}

// Flip toggles the device between its screens
func (dm *DeviceManager) Flip() error {
	return dm.Send(gomidi.SysEx(deluge.RequestFlip))
}

func (dm *DeviceManager) scan(ctx context.Context) {
	ins, outs, err := dm.list()
	if err != nil {
		// CoreMIDI is hung - skip this scan
		debug.Log("midi", "scan: %v", err)
		return
	}

	dm.mu.Lock()
	dm.ins, dm.outs = ins, outs
	conn, filter := dm.conn, dm.filter
	dm.mu.Unlock()

	in, out, ok := matchPorts(ins, outs, filter)
	if conn != nil {
		if ok && ins[in] == conn.ID() {
			return
		}
		dm.disconnect()
	}
	if !ok {
		return
	}

	c, err := dm.open(ins[in], outs[out])
	if err != nil {
		debug.Log("midi", "connect %s: %v", ins[in], err)
		dm.emit(DeviceEvent{Type: DeviceFailed, ID: ins[in], Err: err})
		return
	}

	cctx, cancel := context.WithCancel(ctx)
	dm.mu.Lock()
	if dm.stopped {
		dm.mu.Unlock()
		cancel()
		c.Close()
		return
	}
	dm.conn, dm.cancel = c, cancel
	dm.mu.Unlock()

	go c.Run(cctx)
	go dm.forward(cctx, c)
	debug.Log("midi", "connected %s -> %s", ins[in], outs[out])
	dm.emit(DeviceEvent{Type: DeviceConnected, ID: c.ID()})
}

func (dm *DeviceManager) forward(ctx context.Context, c *Connection) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-c.Updates():
			select {
			case dm.updates <- u:
			default:
			}
		}
	}
}

func (dm *DeviceManager) disconnect() {
	dm.mu.Lock()
	c, cancel := dm.conn, dm.cancel
	dm.conn, dm.cancel = nil, nil
	dm.mu.Unlock()
	if c == nil {
		return
	}

	cancel()
	c.Close()
	dm.display.Reset()
	debug.Log("midi", "disconnected %s", c.ID())
	dm.emit(DeviceEvent{Type: DeviceDisconnected, ID: c.ID()})
}

func (dm *DeviceManager) emit(ev DeviceEvent) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	if dm.stopped {
		return
	}
	select {
	case dm.events <- ev:
	default:
	}
}
