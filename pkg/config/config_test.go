package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "https://www.instagram.com", cfg.Instagram.BaseURL)
	assert.Equal(t, 5, cfg.Instagram.DefaultMaxResults)
	assert.Equal(t, 90*time.Second, cfg.Instagram.NavigationTimeout)
	assert.Equal(t, "https://x.com", cfg.X.BaseURL)
	assert.Equal(t, 10, cfg.X.DefaultMaxResults)
	assert.Equal(t, 48, cfg.X.MinImageSize)
	assert.Contains(t, cfg.X.MediaDomains, "pbs.twimg.com")
	assert.Equal(t, "./output", cfg.Output.BaseDirectory)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "socialscraper.yaml")
	content := `
output:
  base_directory: /data/scrapes
instagram:
  default_max_results: 3
x:
  scroll_attempts: 4
rate_limit:
  requests_per_minute: 30
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "/data/scrapes", cfg.Output.BaseDirectory)
	assert.Equal(t, 3, cfg.Instagram.DefaultMaxResults)
	assert.Equal(t, 4, cfg.X.ScrollAttempts)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	// Untouched values keep their defaults
	assert.Equal(t, 10, cfg.X.DefaultMaxResults)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestEnvironmentOverlay(t *testing.T) {
	t.Setenv("SOCIALSCRAPER_OUTPUT_DIR", "/env/output")
	t.Setenv("SOCIALSCRAPER_HEADLESS", "false")
	t.Setenv("SOCIALSCRAPER_RATE_LIMIT", "15")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "/env/output", cfg.Output.BaseDirectory)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 15, cfg.RateLimit.RequestsPerMinute)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("SOCIALSCRAPER_OUTPUT_DIR", "/env/output")

	cfg, err := Load("", map[string]interface{}{
		"output":           "/flag/output",
		"rate-limit":       20,
		"download-timeout": 10,
		"log-level":        "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, "/flag/output", cfg.Output.BaseDirectory)
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 10*time.Second, cfg.Download.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero instagram max results", func(c *Config) { c.Instagram.DefaultMaxResults = 0 }},
		{"zero x max results", func(c *Config) { c.X.DefaultMaxResults = 0 }},
		{"zero scroll attempts", func(c *Config) { c.X.ScrollAttempts = 0 }},
		{"zero rate limit", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }},
		{"zero download timeout", func(c *Config) { c.Download.Timeout = 0 }},
		{"no media domains", func(c *Config) { c.X.MediaDomains = nil }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Output.BaseDirectory = "/somewhere/else"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/somewhere/else", loaded.Output.BaseDirectory)
	assert.Equal(t, cfg.Instagram.DefaultMaxResults, loaded.Instagram.DefaultMaxResults)
}

func TestOutputPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.BaseDirectory = "/data"

	assert.Equal(t, "/data/screenshots", cfg.ScreenshotPath())
	assert.Equal(t, "/data/pictures", cfg.MediaPath())
	assert.Equal(t, "/data/debug", cfg.DebugPath())
}
