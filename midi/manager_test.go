package midi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"delugedisplay/deluge"
	"delugedisplay/deluge/delugetest"
)

type fakePorts struct {
	ins, outs []string
	err       error
	openErr   error
	opened    []string
	sink      *sink
}

func newTestManager(ports *fakePorts) *DeviceManager {
	dm := NewDeviceManager(deluge.NewDisplay(), "Port 3", Options{})
	dm.list = func() ([]string, []string, error) {
		return ports.ins, ports.outs, ports.err
	}
	dm.open = func(in, out string) (*Connection, error) {
		if ports.openErr != nil {
			return nil, ports.openErr
		}
		ports.opened = append(ports.opened, in)
		return newConnection(in, dm.display, ports.sink.send, dm.connOptions()), nil
	}
	return dm
}

func TestManagerConnectsAndDisconnects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ports := &fakePorts{
		ins:  []string{"IAC Bus 1", "Deluge Port 3"},
		outs: []string{"IAC Bus 1", "Deluge Port 3"},
		sink: &sink{},
	}
	dm := newTestManager(ports)

	dm.scan(ctx)
	ev := <-dm.Events()
	assert.Equal(t, DeviceConnected, ev.Type)
	assert.Equal(t, "Deluge Port 3", ev.ID)
	id, ok := dm.Connected()
	assert.True(t, ok)
	assert.Equal(t, "Deluge Port 3", id)

	ins, outs := dm.Ports()
	assert.Equal(t, ports.ins, ins)
	assert.Equal(t, ports.outs, outs)

	// a second scan with the same ports keeps the connection
	dm.scan(ctx)
	assert.Len(t, ports.opened, 1)
	assert.Empty(t, dm.Events())

	ports.ins, ports.outs = []string{"IAC Bus 1"}, []string{"IAC Bus 1"}
	dm.scan(ctx)
	ev = <-dm.Events()
	assert.Equal(t, DeviceDisconnected, ev.Type)
	_, ok = dm.Connected()
	assert.False(t, ok)
}

func TestManagerDisconnectResetsDisplay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ports := &fakePorts{ins: []string{"Deluge Port 3"}, outs: []string{"Deluge Port 3"}, sink: &sink{}}
	dm := newTestManager(ports)
	dm.scan(ctx)
	<-dm.Events()

	frame := delugetest.Checkerboard()
	require.NoError(t, dm.display.Apply(deluge.OLEDFrame{Frame: frame}))

	dm.Select("Port 1")
	ev := <-dm.Events()
	assert.Equal(t, DeviceDisconnected, ev.Type)
	assert.False(t, dm.display.HasFrame())
	assert.Equal(t, "Port 1", dm.Filter())
}

func TestManagerSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ports := &fakePorts{sink: &sink{}}
	dm := newTestManager(ports)

	assert.ErrorIs(t, dm.Send(gomidi.NoteOn(0, 60, 100)), ErrNotConnected)
	assert.ErrorIs(t, dm.Flip(), ErrNotConnected)

	ports.ins, ports.outs = []string{"Deluge Port 3"}, []string{"Deluge Port 3"}
	dm.scan(ctx)
	require.NoError(t, dm.Send(gomidi.NoteOn(0, 60, 100)))
	assert.True(t, ports.sink.sent(gomidi.NoteOn(0, 60, 100)))
	require.NoError(t, dm.Flip())
	assert.True(t, ports.sink.sent(gomidi.SysEx(deluge.RequestFlip)))
}

func TestManagerModeAppliesToNewConnections(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ports := &fakePorts{ins: []string{"Deluge Port 3"}, outs: []string{"Deluge Port 3"}, sink: &sink{}}
	dm := newTestManager(ports)
	dm.SetMode(deluge.ModeSevenSegment)
	dm.scan(ctx)

	dm.mu.RLock()
	conn := dm.conn
	dm.mu.RUnlock()
	require.NotNil(t, conn)
	assert.Equal(t, deluge.ModeSevenSegment, conn.Mode())
}

func TestManagerScanErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ports := &fakePorts{err: ErrMIDIHung, sink: &sink{}}
	dm := newTestManager(ports)
	dm.scan(ctx)
	assert.Empty(t, dm.Events())

	boom := errors.New("device busy")
	ports.err = nil
	ports.ins, ports.outs = []string{"Deluge Port 3"}, []string{"Deluge Port 3"}
	ports.openErr = boom
	dm.scan(ctx)
	ev := <-dm.Events()
	assert.Equal(t, DeviceFailed, ev.Type)
	assert.ErrorIs(t, ev.Err, boom)
}

func TestManagerRunStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ports := &fakePorts{ins: []string{"Deluge Port 3"}, outs: []string{"Deluge Port 3"}, sink: &sink{}}
	dm := newTestManager(ports)

	done := make(chan struct{})
	go func() {
		dm.Run(ctx)
		close(done)
	}()

	assert.Equal(t, DeviceConnected, (<-dm.Events()).Type)
	cancel()
	<-done

	_, ok := <-dm.Events()
	assert.False(t, ok, "events closed after Run returns")
	_, connected := dm.Connected()
	assert.False(t, connected)
}
