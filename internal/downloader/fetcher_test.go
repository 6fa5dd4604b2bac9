package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialscraper/pkg/config"
	"socialscraper/pkg/storage"
)

func testWorkspace(t *testing.T) *storage.Workspace {
	t.Helper()
	dir := t.TempDir()
	ws, err := storage.NewWorkspace(dir+"/screenshots", dir+"/pictures", dir+"/debug")
	require.NoError(t, err)
	return ws
}

func testFetcher(t *testing.T, ws *storage.Workspace) *Fetcher {
	t.Helper()
	return New(&config.DownloadConfig{
		Timeout:    5 * time.Second,
		UserAgent:  "test-agent",
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}, ws, nil, nil)
}

func TestInferExtension(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://pbs.twimg.com/media/abc?format=png&name=large", "png"},
		{"https://pbs.twimg.com/media/abc?format=webp", "webp"},
		{"https://example.com/anim.gif", "gif"},
		{"https://example.com/photo.png", "png"},
		{"https://pbs.twimg.com/media/abc?format=jpg&name=small", "jpg"},
		{"https://example.com/unknown", "jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferExtension(tt.url), tt.url)
	}
}

func TestDownloadWritesMediaFile(t *testing.T) {
	body := []byte("fake image bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write(body)
	}))
	defer server.Close()

	ws := testWorkspace(t)
	f := testFetcher(t, ws)

	ref, err := f.Download(context.Background(), server.URL+"/photo.png", "x_image_20250101_000000_001")
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/photo.png", ref.OriginalURL)
	assert.Equal(t, "x_image_20250101_000000_001.png", ref.Filename)
	require.NotEmpty(t, ref.LocalPath)

	data, err := os.ReadFile(ref.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, body, data)
}

func TestDownloadNotFoundDoesNotRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := testFetcher(t, testWorkspace(t))

	ref, err := f.Download(context.Background(), server.URL+"/gone.jpg", "media")
	require.Error(t, err)
	assert.Empty(t, ref.LocalPath)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "a 404 is permanent and must not be retried")
}

func TestDownloadRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := testFetcher(t, testWorkspace(t))

	ref, err := f.Download(context.Background(), server.URL+"/flaky.jpg", "media")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.NotEmpty(t, ref.LocalPath)
}

func TestDownloadFailureLeavesNoPartialFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	ws := testWorkspace(t)
	f := testFetcher(t, ws)

	_, err := f.Download(context.Background(), server.URL+"/denied.jpg", "media")
	require.Error(t, err)

	entries, err := os.ReadDir(ws.MediaDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
