package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"delugedisplay/deluge"
	"delugedisplay/midi"
	"delugedisplay/params"
	"delugedisplay/theme"
	"delugedisplay/widgets"
)

// NoteHold is how long space holds the note; terminals report no key-up
const NoteHold = 150 * time.Millisecond

// Device is the MIDI side as the UI sees it
type Device interface {
	Events() <-chan midi.DeviceEvent
	Updates() <-chan midi.Update
	SetMode(deluge.DisplayMode)
	Flip() error
	Rescan()
	Filter() string
}

// NoteSender plays the plugin's note
type NoteSender interface {
	Trigger(on bool) error
	SetNote(note int) error
	Note() int
}

// Settings are the preferences the UI can change
type Settings struct {
	Mode      deluge.DisplayMode
	ColorMode deluge.ColorMode
	PixelGrid bool
	Ghost     bool
	Note      int
}

type Model struct {
	Device  Device
	Display *deluge.Display
	Notes   NoteSender
	Theme   *theme.Theme
	Persist func(Settings) // called after every settings change, may be nil

	// preset hooks return a description of what was saved or loaded
	SavePreset func() (string, error)
	LoadPreset func() (string, error)

	settings  Settings
	connected string
	status    string
	holding   bool
	showHelp  bool
	quitting  bool
}

type DeviceEventMsg midi.DeviceEvent

type DisplayUpdateMsg midi.Update

type noteReleaseMsg struct{}

func NewModel(device Device, display *deluge.Display, notes NoteSender, th *theme.Theme, settings Settings) Model {
	settings.Note = notes.Note()
	return Model{
		Device:   device,
		Display:  display,
		Notes:    notes,
		Theme:    th,
		settings: settings,
	}
}

// Settings returns the current preferences
func (m Model) Settings() Settings {
	return m.settings
}

func ListenForDevices(device Device) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-device.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func ListenForUpdates(device Device) tea.Cmd {
	return func() tea.Msg {
		return DisplayUpdateMsg(<-device.Updates())
	}
}

func (m Model) Init() tea.Cmd {
	m.Device.SetMode(m.settings.Mode)
	return tea.Batch(
		ListenForDevices(m.Device),
		ListenForUpdates(m.Device),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case noteReleaseMsg:
		if m.holding {
			m.holding = false
			m.report(m.Notes.Trigger(false))
		}

	case DisplayUpdateMsg:
		if msg.Kind == midi.UpdateError {
			m.status = msg.Err.Error()
		} else {
			m.status = ""
		}
		return m, ListenForUpdates(m.Device)

	case DeviceEventMsg:
		switch msg.Type {
		case midi.DeviceConnected:
			m.connected = msg.ID
			m.status = ""
		case midi.DeviceDisconnected:
			if m.connected == msg.ID {
				m.connected = ""
			}
		case midi.DeviceFailed:
			m.status = fmt.Sprintf("%s: %v", msg.ID, msg.Err)
		}
		return m, ListenForDevices(m.Device)
	}

	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		if m.holding {
			m.report(m.Notes.Trigger(false))
		}
		return m, tea.Quit

	case "1":
		m.setMode(deluge.ModeOLED)
	case "2":
		m.setMode(deluge.ModeSevenSegment)

	case "c":
		m.settings.ColorMode = m.settings.ColorMode.Next()
		m.persist()
	case "g":
		m.settings.PixelGrid = !m.settings.PixelGrid
		m.persist()

	case "f":
		m.report(m.Device.Flip())
	case "r":
		m.Device.Rescan()
		m.status = "rescanning ports..."

	case " ", "space":
		if m.holding {
			return m, nil
		}
		if err := m.Notes.Trigger(true); err != nil {
			m.report(err)
			return m, nil
		}
		m.holding = true
		return m, tea.Tick(NoteHold, func(time.Time) tea.Msg { return noteReleaseMsg{} })

	case "up", "k":
		m.moveNote(1)
	case "down", "j":
		m.moveNote(-1)
	case "shift+up", "K":
		m.moveNote(12)
	case "shift+down", "J":
		m.moveNote(-12)

	case "s":
		if m.SavePreset != nil {
			name, err := m.SavePreset()
			m.status = "saved " + name
			m.report(err)
		}
	case "l":
		if m.LoadPreset != nil {
			name, err := m.LoadPreset()
			if err != nil {
				m.report(err)
				return m, nil
			}
			m.status = "loaded " + name
			m.settings.Note = m.Notes.Note()
			m.persist()
		}

	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) setMode(mode deluge.DisplayMode) {
	if m.settings.Mode == mode {
		return
	}
	m.settings.Mode = mode
	m.Device.SetMode(mode)
	m.persist()
}

func (m *Model) moveNote(delta int) {
	if err := m.Notes.SetNote(m.Notes.Note() + delta); err != nil {
		m.report(err)
		return
	}
	m.settings.Note = m.Notes.Note()
	m.persist()
}

func (m *Model) persist() {
	if m.Persist != nil {
		m.Persist(m.settings)
	}
}

func (m *Model) report(err error) {
	if err != nil {
		m.status = err.Error()
	}
}

var keySections = []widgets.KeySection{
	{Title: "Display", Keys: []widgets.KeyBinding{
		{Key: "1 / 2", Desc: "OLED / 7-segment"},
		{Key: "c", Desc: "cycle colours"},
		{Key: "g", Desc: "pixel grid"},
		{Key: "f", Desc: "flip Deluge screen"},
		{Key: "r", Desc: "rescan MIDI ports"},
	}},
	{Title: "Note", Keys: []widgets.KeyBinding{
		{Key: "space", Desc: "send note"},
		{Key: "up / down", Desc: "note +1 / -1"},
		{Key: "K / J", Desc: "octave up / down"},
		{Key: "s / l", Desc: "save / load preset"},
	}},
	{Keys: []widgets.KeyBinding{
		{Key: "?", Desc: "toggle help"},
		{Key: "q", Desc: "quit"},
	}},
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	port := m.connected
	if port == "" {
		port = "no device"
	}
	note := m.Notes.Note()
	header := headerStyle.Render(fmt.Sprintf("delugedisplay  %s  %s  %s  note:%s (%d)",
		port, m.settings.Mode, m.settings.ColorMode, params.NoteName(note), note))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(m.screen())
	out.WriteString("\n\n")

	if m.showHelp {
		out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(keySections)))
	} else {
		out.WriteString(dimStyle.Render("1/2:mode  c:colours  g:grid  f:flip  space:note  up/down:pitch  ?:help  q:quit"))
	}

	if m.status != "" {
		out.WriteString("\n")
		out.WriteString(dimStyle.Render(m.status))
	}
	return out.String()
}

func (m Model) screen() string {
	if m.connected == "" {
		return fmt.Sprintf("Waiting for Deluge connection...\n(looking for a port matching %q)", m.Device.Filter())
	}

	colors := m.Theme.For(m.settings.ColorMode)
	if m.settings.Mode == deluge.ModeSevenSegment {
		if !m.Display.HasSevenSegment() {
			return "Waiting for 7-segment data..."
		}
		digits, dots := m.Display.SevenSegment()
		return widgets.RenderSevenSegment(digits, dots, widgets.SevenSegmentOptions{
			Colors: colors,
			Ghost:  m.settings.Ghost,
		})
	}

	if !m.Display.HasFrame() {
		return "Waiting for OLED frame..."
	}
	frame := m.Display.Frame()
	return widgets.RenderOLED(&frame, widgets.OLEDOptions{
		Colors:    colors,
		PixelGrid: m.settings.PixelGrid,
	})
}
