package preset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delugedisplay/params"
)

func TestSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "presets")
	tree := params.NewPluginTree()
	tree.Get(params.MIDINoteNumber).SetPlainValue(72)

	stamp := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
	info, err := Save(dir, "kick drum", tree, stamp)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01_14-30-00_kick-drum.json", info.Filename)
	assert.Equal(t, "kick-drum", info.Name)
	assert.True(t, stamp.Equal(info.Timestamp))

	fresh := params.NewPluginTree()
	_, err = Load(dir, info.Filename, fresh)
	require.NoError(t, err)
	assert.Equal(t, 72.0, fresh.Get(params.MIDINoteNumber).PlainValue())
}

func TestSaveSkipsMomentaryParameters(t *testing.T) {
	dir := t.TempDir()
	tree := params.NewPluginTree()
	tree.Get(params.SendNote).SetPlainValue(1)

	info, err := Save(dir, "", tree, time.Now())
	require.NoError(t, err)
	assert.Empty(t, info.Name)

	data, err := os.ReadFile(filepath.Join(dir, info.Filename))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sendNote")
	assert.Contains(t, string(data), `"midiNoteNumber": 60`)
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	tree := params.NewPluginTree()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"a", "b", "c"} {
		_, err := Save(dir, name, tree, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "random.json"), nil, 0644))

	infos, err := List(dir)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "c", infos[0].Name)
	assert.Equal(t, "a", infos[2].Name)
}

func TestListMissingDir(t *testing.T) {
	infos, err := List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestLoadLatest(t *testing.T) {
	dir := t.TempDir()
	tree := params.NewPluginTree()

	_, err := Load(dir, "", tree)
	assert.ErrorIs(t, err, ErrNoPresets)

	note := tree.Get(params.MIDINoteNumber)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	note.SetPlainValue(40)
	_, err = Save(dir, "old", tree, base)
	require.NoError(t, err)
	note.SetPlainValue(50)
	_, err = Save(dir, "new", tree, base.Add(time.Minute))
	require.NoError(t, err)

	note.SetPlainValue(0)
	info, err := Load(dir, "", tree)
	require.NoError(t, err)
	assert.Equal(t, "new", info.Name)
	assert.Equal(t, 50.0, note.PlainValue())
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	tree := params.NewPluginTree()

	_, err := Load(dir, "preset.json", tree)
	assert.ErrorIs(t, err, ErrBadFilename)

	name := "2026-01-01_00-00-00.json"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(`{"version": 9, "params": {}}`), 0644))
	_, err = Load(dir, name, tree)
	assert.ErrorIs(t, err, ErrVersion)

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(`{`), 0644))
	_, err = Load(dir, name, tree)
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	info, err := Save(dir, "", params.NewPluginTree(), time.Now())
	require.NoError(t, err)

	require.NoError(t, Delete(dir, info.Filename))
	infos, err := List(dir)
	require.NoError(t, err)
	assert.Empty(t, infos)

	assert.ErrorIs(t, Delete(dir, "../config.json"), ErrBadFilename)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "lead-C4", sanitizeFilename(" lead C4 "))
	assert.Equal(t, "a-b-c", sanitizeFilename("a/b:c"))
	assert.Equal(t, "what", sanitizeFilename(`what?*"`))
}

func TestFilenamesStayInsideDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "presets")
	tree := params.NewPluginTree()

	outside, err := Save(root, "x", tree, time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	escape := "2024-01-15_14-30-00_/../../" + outside.Filename

	assert.ErrorIs(t, Delete(dir, escape), ErrBadFilename)
	_, err = Load(dir, escape, tree)
	assert.ErrorIs(t, err, ErrBadFilename)
	assert.FileExists(t, filepath.Join(root, outside.Filename))

	_, ok := parseFilename(`2024-01-15_14-30-00_a\b.json`)
	assert.False(t, ok)
}
