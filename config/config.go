package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"delugedisplay/deluge"
)

const appName = "delugedisplay"

var ErrInvalidConfig = errors.New("invalid config")

// PortConfig selects the Deluge's MIDI port
type PortConfig struct {
	// Name is matched case-insensitively as a substring of port names
	Name string `json:"name"`
}

// DisplayConfig stores display preferences
type DisplayConfig struct {
	Mode      string `json:"mode"`
	ColorMode string `json:"colorMode"`
	PixelGrid bool   `json:"pixelGrid,omitempty"`
	Ghost     bool   `json:"ghostSegments,omitempty"`
	Palette   string `json:"palette,omitempty"` // optional .gpl file
}

// PollingConfig controls how often the Deluge is asked for its screen
type PollingConfig struct {
	IntervalMs     int `json:"intervalMs"`
	FrameTimeoutMs int `json:"frameTimeoutMs"`
}

// NoteConfig configures the note sender
type NoteConfig struct {
	Channel  int `json:"channel"` // 1-16
	Velocity int `json:"velocity"`
	Note     int `json:"note"`
}

// Config is the main configuration structure
type Config struct {
	Port    PortConfig    `json:"port"`
	Display DisplayConfig `json:"display"`
	Polling PollingConfig `json:"polling"`
	Note    NoteConfig    `json:"note"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Port: PortConfig{Name: "Port 3"},
		Display: DisplayConfig{
			Mode:      "oled",
			ColorMode: "default",
			Ghost:     true,
		},
		Polling: PollingConfig{
			IntervalMs:     50,
			FrameTimeoutMs: 1000,
		},
		Note: NoteConfig{
			Channel:  1,
			Velocity: 100,
			Note:     60,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default location
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file, or returns defaults if it doesn't exist.
// Fields missing from the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to the default location
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks ranges and enum values
func (c *Config) Validate() error {
	if c.Port.Name == "" {
		return fmt.Errorf("%w: port name is empty", ErrInvalidConfig)
	}
	if _, err := deluge.ParseMode(c.Display.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := deluge.ParseColorMode(c.Display.ColorMode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Polling.IntervalMs <= 0 {
		return fmt.Errorf("%w: polling interval must be positive", ErrInvalidConfig)
	}
	if c.Polling.FrameTimeoutMs < c.Polling.IntervalMs {
		return fmt.Errorf("%w: frame timeout shorter than polling interval", ErrInvalidConfig)
	}
	if c.Note.Channel < 1 || c.Note.Channel > 16 {
		return fmt.Errorf("%w: note channel %d not in 1-16", ErrInvalidConfig, c.Note.Channel)
	}
	if c.Note.Velocity < 1 || c.Note.Velocity > 127 {
		return fmt.Errorf("%w: velocity %d not in 1-127", ErrInvalidConfig, c.Note.Velocity)
	}
	if c.Note.Note < 0 || c.Note.Note > 127 {
		return fmt.Errorf("%w: note %d not in 0-127", ErrInvalidConfig, c.Note.Note)
	}
	return nil
}

// DisplayMode returns the parsed display mode, OLED if invalid
func (c *Config) DisplayMode() deluge.DisplayMode {
	m, _ := deluge.ParseMode(c.Display.Mode)
	return m
}

// ColorMode returns the parsed colour mode, the default if invalid
func (c *Config) ColorMode() deluge.ColorMode {
	m, _ := deluge.ParseColorMode(c.Display.ColorMode)
	return m
}

// PollInterval is how often the Deluge is polled
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Polling.IntervalMs) * time.Millisecond
}

// FrameTimeout is how long the mirror may go without updates before a
// full frame is forced
func (c *Config) FrameTimeout() time.Duration {
	return time.Duration(c.Polling.FrameTimeoutMs) * time.Millisecond
}
