package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	base := t.TempDir()
	ws, err := NewWorkspace(
		filepath.Join(base, "screenshots"),
		filepath.Join(base, "pictures"),
		filepath.Join(base, "debug"),
	)
	require.NoError(t, err)
	return ws
}

func TestNewWorkspaceCreatesDirectories(t *testing.T) {
	ws := newTestWorkspace(t)

	for _, dir := range []string{ws.ScreenshotDir(), ws.MediaDir(), ws.DebugDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSaveMedia(t *testing.T) {
	ws := newTestWorkspace(t)

	path, err := ws.SaveMedia(strings.NewReader("image bytes"), "photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws.MediaDir(), "photo.jpg"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "image bytes", string(data))

	// No temporary file left behind
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSaveMediaOverwrites(t *testing.T) {
	ws := newTestWorkspace(t)

	_, err := ws.SaveMedia(strings.NewReader("first"), "photo.jpg")
	require.NoError(t, err)
	path, err := ws.SaveMedia(strings.NewReader("second"), "photo.jpg")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestSaveDebugHTML(t *testing.T) {
	ws := newTestWorkspace(t)

	path, err := ws.SaveDebugHTML("instagram_sunset_20250101_000000.html", "<html></html>")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "sunset", Sanitize("#sunset"))
	assert.Equal(t, "natgeo", Sanitize("@nat.geo"))
	assert.Equal(t, "httpsexamplecompage", Sanitize("https://example.com/page"))
	assert.Equal(t, "", Sanitize("!@#$%"))
}

func TestCleanQuery(t *testing.T) {
	assert.Equal(t, "golang", CleanQuery("#golang"))
	assert.Equal(t, "open_source_go", CleanQuery("open source go"))
	assert.Equal(t, "alice", CleanQuery("@alice"))
	assert.Equal(t, "go-lang", CleanQuery("go-lang!"))
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	assert.Equal(t, "20250314_150926", Timestamp(ts))
}
