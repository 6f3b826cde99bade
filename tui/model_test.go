package tui

import (
	"errors"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"delugedisplay/deluge"
	"delugedisplay/deluge/delugetest"
	"delugedisplay/kernel"
	"delugedisplay/midi"
	"delugedisplay/params"
	"delugedisplay/theme"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

type fakeDevice struct {
	events  chan midi.DeviceEvent
	updates chan midi.Update
	mode    deluge.DisplayMode
	flips   int
	rescans int
	flipErr error
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		events:  make(chan midi.DeviceEvent, 4),
		updates: make(chan midi.Update, 4),
	}
}

func (d *fakeDevice) Events() <-chan midi.DeviceEvent { return d.events }
func (d *fakeDevice) Updates() <-chan midi.Update { return d.updates }
func (d *fakeDevice) SetMode(mode deluge.DisplayMode) { d.mode = mode }
func (d *fakeDevice) Flip() error { d.flips++; return d.flipErr }
func (d *fakeDevice) Rescan() { d.rescans++ }
func (d *fakeDevice) Filter() string { return "Port 3" }

type harness struct {
	model   Model
	device  *fakeDevice
	display *deluge.Display
	sent    []gomidi.Message
	saved   []Settings
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{device: newFakeDevice(), display: deluge.NewDisplay()}
	k, err := kernel.New(params.NewPluginTree(), func(msg gomidi.Message) error {
		h.sent = append(h.sent, msg)
		return nil
	})
	require.NoError(t, err)

	h.model = NewModel(h.device, h.display, k, theme.New(nil), Settings{Ghost: true})
	h.model.Persist = func(s Settings) { h.saved = append(h.saved, s) }
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *harness) key(s string) tea.Cmd {
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestWaitsForConnection(t *testing.T) {
	h := newHarness(t)

	view := ansi.Strip(h.model.View())
	assert.Contains(t, view, "Waiting for Deluge connection...")
	assert.Contains(t, view, `"Port 3"`)

	h.send(DeviceEventMsg{Type: midi.DeviceConnected, ID: "Deluge Port 3"})
	view = ansi.Strip(h.model.View())
	assert.NotContains(t, view, "Waiting for Deluge connection")
	assert.Contains(t, view, "Deluge Port 3")
	assert.Contains(t, view, "Waiting for OLED frame...")

	h.send(DeviceEventMsg{Type: midi.DeviceDisconnected, ID: "Deluge Port 3"})
	assert.Contains(t, ansi.Strip(h.model.View()), "Waiting for Deluge connection...")
}

func TestRendersFrame(t *testing.T) {
	h := newHarness(t)
	h.send(DeviceEventMsg{Type: midi.DeviceConnected, ID: "Deluge Port 3"})

	frame := delugetest.Checkerboard()
	require.NoError(t, h.display.Apply(deluge.OLEDFrame{Frame: frame}))
	view := ansi.Strip(h.model.View())
	assert.Contains(t, view, "▀▄")

	h.key("g")
	assert.True(t, h.model.Settings().PixelGrid)
	assert.Contains(t, ansi.Strip(h.model.View()), "▪·")
}

func TestModeKeys(t *testing.T) {
	h := newHarness(t)
	h.send(DeviceEventMsg{Type: midi.DeviceConnected, ID: "Deluge Port 3"})

	h.key("2")
	assert.Equal(t, deluge.ModeSevenSegment, h.device.mode)
	assert.Equal(t, deluge.ModeSevenSegment, h.model.Settings().Mode)
	assert.Contains(t, ansi.Strip(h.model.View()), "Waiting for 7-segment data...")

	h.key("1")
	assert.Equal(t, deluge.ModeOLED, h.device.mode)
	require.Len(t, h.saved, 2)

	h.key("1")
	assert.Len(t, h.saved, 2, "unchanged mode is not saved again")

	h.key("c")
	assert.Equal(t, deluge.ColorInverted, h.model.Settings().ColorMode)
	assert.Equal(t, deluge.ColorInverted, h.saved[len(h.saved)-1].ColorMode)
}

func TestNoteKeys(t *testing.T) {
	h := newHarness(t)

	h.send(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 61, h.model.Settings().Note)
	h.key("K")
	assert.Equal(t, 73, h.model.Settings().Note)
	h.key("J")
	h.key("j")
	assert.Equal(t, 60, h.model.Settings().Note)
	assert.Contains(t, ansi.Strip(h.model.View()), "note:C4 (60)")
}

func TestSpaceSendsMomentaryNote(t *testing.T) {
	h := newHarness(t)

	cmd := h.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.NotNil(t, cmd, "release is scheduled")
	require.Len(t, h.sent, 1)
	assert.Equal(t, gomidi.NoteOn(0, 60, 100), h.sent[0])

	// key repeat while held does nothing
	h.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Len(t, h.sent, 1)

	h.send(noteReleaseMsg{})
	require.Len(t, h.sent, 2)
	assert.Equal(t, gomidi.NoteOff(0, 60), h.sent[1])
}

func TestFlipAndRescan(t *testing.T) {
	h := newHarness(t)

	h.device.flipErr = midi.ErrNotConnected
	h.key("f")
	assert.Equal(t, 1, h.device.flips)
	assert.Contains(t, ansi.Strip(h.model.View()), midi.ErrNotConnected.Error())

	h.key("r")
	assert.Equal(t, 1, h.device.rescans)
}

func TestUpdateErrorsShowInStatus(t *testing.T) {
	h := newHarness(t)

	cmd := h.send(DisplayUpdateMsg{Kind: midi.UpdateError, Err: errors.New("oled delta: unexpected frame size")})
	assert.NotNil(t, cmd)
	assert.Contains(t, ansi.Strip(h.model.View()), "unexpected frame size")

	h.send(DisplayUpdateMsg{Kind: midi.UpdateOLED})
	assert.NotContains(t, ansi.Strip(h.model.View()), "unexpected frame size")
}

func TestHelpAndQuit(t *testing.T) {
	h := newHarness(t)

	h.key("?")
	assert.Contains(t, ansi.Strip(h.model.View()), "octave up / down")

	cmd := h.key("q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, h.model.View())
}

func TestPresetKeys(t *testing.T) {
	h := newHarness(t)

	h.key("s")
	assert.Empty(t, h.saved, "no preset hooks")

	var saves int
	h.model.SavePreset = func() (string, error) {
		saves++
		return "2026-01-01_00-00-00.json", nil
	}
	h.model.LoadPreset = func() (string, error) {
		return "", errors.New("no presets saved")
	}
	h.key("s")
	assert.Equal(t, 1, saves)
	assert.Contains(t, ansi.Strip(h.model.View()), "saved 2026-01-01_00-00-00.json")

	h.key("l")
	assert.Contains(t, ansi.Strip(h.model.View()), "no presets saved")
}
