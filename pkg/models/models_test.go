package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeItemsNilIsEmptyArray(t *testing.T) {
	data, err := EncodeItems(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestEncodeItemsRoundTrip(t *testing.T) {
	items := []ScrapedItem{
		{
			URL:        "https://x.com/alice/status/1",
			Author:     "@alice",
			Content:    "hello",
			Media:      []MediaRef{{OriginalURL: "https://pbs.twimg.com/media/a.jpg", LocalPath: "/tmp/a.jpg", Filename: "a.jpg"}},
			Platform:   PlatformX,
			CapturedAt: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	data, err := EncodeItems(items)
	require.NoError(t, err)

	var decoded []ScrapedItem
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, items[0].URL, decoded[0].URL)
	assert.Equal(t, items[0].Media, decoded[0].Media)
}

func TestEncodeErrorSingleElement(t *testing.T) {
	data := EncodeError(errors.New("no posts found"))

	var decoded []RunError
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "no posts found", decoded[0].Error)
}

func TestMediaRefDownloaded(t *testing.T) {
	assert.True(t, MediaRef{LocalPath: "/tmp/a.jpg"}.Downloaded())
	assert.False(t, MediaRef{OriginalURL: "https://x/a.jpg"}.Downloaded())
}

func TestMediaRefOmitsEmptyLocalPath(t *testing.T) {
	data, err := json.Marshal(MediaRef{OriginalURL: "https://x/a.jpg", Filename: "a.jpg"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "local_path")
}
