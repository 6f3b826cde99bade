package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
	"go.uber.org/zap"

	"delugedisplay/config"
	"delugedisplay/debug"
	"delugedisplay/deluge"
	"delugedisplay/kernel"
	"delugedisplay/midi"
	"delugedisplay/params"
	"delugedisplay/preset"
	"delugedisplay/theme"
	"delugedisplay/tui"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (default ~/.config/delugedisplay/config.json)")
		port       = flag.String("port", "", "MIDI port name to match, e.g. \"Port 3\"")
		mode       = flag.String("mode", "", "display to mirror: oled or 7seg")
		colors     = flag.String("colors", "", "colour mode: default, inverted or matrix")
		debugLog   = flag.Bool("debug", false, "write a debug log next to the config")
	)
	flag.Parse()

	if err := run(*configPath, *port, *mode, *colors, *debugLog); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, port, mode, colors string, debugLog bool) error {
	if debugLog {
		if err := debug.Enable(); err != nil {
			return fmt.Errorf("enable debug log: %w", err)
		}
		defer debug.Disable()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Port.Name = port
	}
	if mode != "" {
		cfg.Display.Mode = mode
	}
	if colors != "" {
		cfg.Display.ColorMode = colors
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Load theme
	var palette *theme.Palette
	if cfg.Display.Palette != "" {
		if palette, err = theme.LoadGPL(cfg.Display.Palette); err != nil {
			return err
		}
	}
	th := theme.New(palette)

	display := deluge.NewDisplay()

	// Create MIDI device manager (handles hot-plug)
	deviceMgr := midi.NewDeviceManager(display, cfg.Port.Name, midi.Options{
		PollInterval: cfg.PollInterval(),
		FrameTimeout: cfg.FrameTimeout(),
		Mode:         cfg.DisplayMode(),
	})

	// The note sender plays through whatever Deluge is connected
	tree := params.NewPluginTree()
	k, err := kernel.New(tree, deviceMgr.Send,
		kernel.WithChannel(uint8(cfg.Note.Channel-1)),
		kernel.WithVelocity(uint8(cfg.Note.Velocity)),
		kernel.WithLogger(debug.Logger()),
	)
	if err != nil {
		return err
	}
	if err := k.SetNote(cfg.Note.Note); err != nil {
		return err
	}

	// Start device manager in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deviceMgr.Run(ctx)

	m := tui.NewModel(deviceMgr, display, k, th, tui.Settings{
		Mode:      cfg.DisplayMode(),
		ColorMode: cfg.ColorMode(),
		PixelGrid: cfg.Display.PixelGrid,
		Ghost:     cfg.Display.Ghost,
	})
	m.Persist = func(s tui.Settings) {
		cfg.Display.Mode = s.Mode.String()
		cfg.Display.ColorMode = s.ColorMode.String()
		cfg.Display.PixelGrid = s.PixelGrid
		cfg.Note.Note = s.Note
		if err := saveConfig(cfg, configPath); err != nil {
			debug.Logger().Warn("save config", zap.Error(err))
		}
	}

	if dir, err := preset.Dir(); err == nil {
		m.SavePreset = func() (string, error) {
			info, err := preset.Save(dir, "", tree, time.Now())
			return info.Filename, err
		}
		m.LoadPreset = func() (string, error) {
			info, err := preset.Load(dir, "", tree)
			return info.Filename, err
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func saveConfig(cfg *config.Config, path string) error {
	if path != "" {
		return cfg.SaveTo(path)
	}
	return cfg.Save()
}
