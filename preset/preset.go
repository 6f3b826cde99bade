// Package preset saves and restores the note sender's parameter state as
// timestamped JSON files.
package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"delugedisplay/params"
)

// Version of the preset file format
const Version = 1

const stampLayout = "2006-01-02_15-04-05"

var (
	ErrNoPresets   = errors.New("no presets saved")
	ErrBadFilename = errors.New("invalid preset filename")
	ErrVersion     = errors.New("unsupported preset version")
)

// State is the on-disk form of a preset
type State struct {
	Version int                `json:"version"`
	Name    string             `json:"name,omitempty"`
	Params  map[string]float64 `json:"params"`
}

// Info describes a saved preset (for listing)
type Info struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// Dir returns the presets directory path
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "delugedisplay", "presets"), nil
}

// List returns the presets in dir, newest first
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, err
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, ok := parseFilename(entry.Name())
		if !ok {
			continue
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Timestamp.After(infos[j].Timestamp)
	})
	return infos, nil
}

// parseFilename splits 2024-01-15_14-30-00.json or
// 2024-01-15_14-30-00_name.json
func parseFilename(filename string) (Info, bool) {
	if filepath.Base(filename) != filename || strings.ContainsAny(filename, `/\`) {
		return Info{}, false
	}
	base, ok := strings.CutSuffix(filename, ".json")
	if !ok || len(base) < len(stampLayout) {
		return Info{}, false
	}
	ts, err := time.Parse(stampLayout, base[:len(stampLayout)])
	if err != nil {
		return Info{}, false
	}

	info := Info{Filename: filename, Timestamp: ts}
	if rest := base[len(stampLayout):]; len(rest) > 1 && rest[0] == '_' {
		info.Name = rest[1:]
	}
	return info, true
}

// Save writes the tree's state to dir, stamped with now
func Save(dir, name string, tree *params.Tree, now time.Time) (Info, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Info{}, err
	}

	data, err := json.MarshalIndent(State{
		Version: Version,
		Name:    name,
		Params:  tree.Snapshot(),
	}, "", "  ")
	if err != nil {
		return Info{}, err
	}

	filename := now.Format(stampLayout)
	if safe := sanitizeFilename(name); safe != "" {
		filename += "_" + safe
	}
	filename += ".json"

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return Info{}, err
	}
	info, _ := parseFilename(filename)
	return info, nil
}

// Load restores a preset into tree. An empty filename loads the newest.
func Load(dir, filename string, tree *params.Tree) (Info, error) {
	if filename == "" {
		infos, err := List(dir)
		if err != nil {
			return Info{}, err
		}
		if len(infos) == 0 {
			return Info{}, fmt.Errorf("%w in %s", ErrNoPresets, dir)
		}
		filename = infos[0].Filename
	}

	info, ok := parseFilename(filename)
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrBadFilename, filename)
	}

	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return Info{}, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return Info{}, fmt.Errorf("parse %s: %w", filename, err)
	}
	if state.Version != Version {
		return Info{}, fmt.Errorf("%w: %d", ErrVersion, state.Version)
	}

	tree.Restore(state.Params)
	return info, nil
}

// Delete removes a preset file
func Delete(dir, filename string) error {
	if _, ok := parseFilename(filename); !ok {
		return fmt.Errorf("%w: %s", ErrBadFilename, filename)
	}
	return os.Remove(filepath.Join(dir, filename))
}

var unsafeChars = strings.NewReplacer(
	" ", "-", "/", "-", "\\", "-", ":", "-",
	"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
)

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	return unsafeChars.Replace(strings.TrimSpace(name))
}
