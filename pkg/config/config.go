package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the social scraper
type Config struct {
	// Browser settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Authentication state storage
	Auth AuthConfig `yaml:"auth" json:"auth"`

	// Instagram extractor settings
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// X extractor settings
	X XConfig `yaml:"x" json:"x"`

	// Generic page extractor settings
	Page PageConfig `yaml:"page" json:"page"`

	// Output directories
	Output OutputConfig `yaml:"output" json:"output"`

	// Media download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BrowserConfig holds headless browser configuration
type BrowserConfig struct {
	Headless     bool          `yaml:"headless" json:"headless"`
	ExecPath     string        `yaml:"exec_path" json:"exec_path"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	WindowWidth  int           `yaml:"window_width" json:"window_width"`
	WindowHeight int           `yaml:"window_height" json:"window_height"`
	SettleDelay  time.Duration `yaml:"settle_delay" json:"settle_delay"`
}

// AuthConfig holds authentication state storage configuration
type AuthConfig struct {
	StateDir string `yaml:"state_dir" json:"state_dir"`
	Encrypt  bool   `yaml:"encrypt" json:"encrypt"`
}

// InstagramConfig holds Instagram-specific configuration
type InstagramConfig struct {
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	DefaultMaxResults int           `yaml:"default_max_results" json:"default_max_results"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	ContentTimeout    time.Duration `yaml:"content_timeout" json:"content_timeout"`
	DialogTimeout     time.Duration `yaml:"dialog_timeout" json:"dialog_timeout"`
	ScrollAttempts    int           `yaml:"scroll_attempts" json:"scroll_attempts"`
	ScrollDelta       int           `yaml:"scroll_delta" json:"scroll_delta"`
	ScrollWait        time.Duration `yaml:"scroll_wait" json:"scroll_wait"`
}

// XConfig holds X-specific configuration
type XConfig struct {
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	MediaDomains      []string      `yaml:"media_domains" json:"media_domains"`
	DefaultMaxResults int           `yaml:"default_max_results" json:"default_max_results"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	ContentTimeout    time.Duration `yaml:"content_timeout" json:"content_timeout"`
	ScrollAttempts    int           `yaml:"scroll_attempts" json:"scroll_attempts"`
	ScrollDelta       int           `yaml:"scroll_delta" json:"scroll_delta"`
	ScrollWait        time.Duration `yaml:"scroll_wait" json:"scroll_wait"`
	MinImageSize      int           `yaml:"min_image_size" json:"min_image_size"`
}

// PageConfig holds generic page extractor configuration
type PageConfig struct {
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	ScreenshotDir string `yaml:"screenshot_dir" json:"screenshot_dir"`
	MediaDir      string `yaml:"media_dir" json:"media_dir"`
	DebugDir      string `yaml:"debug_dir" json:"debug_dir"`
}

// DownloadConfig holds media download configuration
type DownloadConfig struct {
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent  string        `yaml:"user_agent" json:"user_agent"`
	MaxRetries int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:     true,
			UserAgent:    "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			WindowWidth:  1280,
			WindowHeight: 1024,
			SettleDelay:  2 * time.Second,
		},
		Auth: AuthConfig{
			StateDir: "./auth",
			Encrypt:  false,
		},
		Instagram: InstagramConfig{
			BaseURL:           "https://www.instagram.com",
			DefaultMaxResults: 5,
			NavigationTimeout: 90 * time.Second,
			ContentTimeout:    30 * time.Second,
			DialogTimeout:     30 * time.Second,
			ScrollAttempts:    8,
			ScrollDelta:       2000,
			ScrollWait:        3 * time.Second,
		},
		X: XConfig{
			BaseURL:           "https://x.com",
			MediaDomains:      []string{"pbs.twimg.com", "abs.twimg.com", "twimg.com"},
			DefaultMaxResults: 10,
			NavigationTimeout: 45 * time.Second,
			ContentTimeout:    45 * time.Second,
			ScrollAttempts:    8,
			ScrollDelta:       1500,
			ScrollWait:        2 * time.Second,
			MinImageSize:      48,
		},
		Page: PageConfig{
			NavigationTimeout: 45 * time.Second,
		},
		Output: OutputConfig{
			BaseDirectory: "./output",
			ScreenshotDir: "screenshots",
			MediaDir:      "pictures",
			DebugDir:      "debug",
		},
		Download: DownloadConfig{
			Timeout:    30 * time.Second,
			UserAgent:  "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			MaxRetries: 3,
			RetryDelay: 2 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
	}
}

// Load loads configuration from file, environment, and command-line flags.
// Precedence, lowest to highest: defaults, YAML file, environment, flags.
func Load(configFile string, flags map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()

	// Load .env file if present; missing files are fine
	_ = godotenv.Load()

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := cfg.loadFromFile(configFile); err != nil {
			return nil, err
		}
	}

	cfg.loadFromEnv()
	cfg.applyFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for a config file in standard locations
func findConfigFile() string {
	candidates := []string{
		"socialscraper.yaml",
		".socialscraper.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".socialscraper.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadFromFile loads configuration from a YAML file
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// loadFromEnv overlays configuration from environment variables
func (c *Config) loadFromEnv() {
	if v := os.Getenv("SOCIALSCRAPER_AUTH_DIR"); v != "" {
		c.Auth.StateDir = v
	}
	if v := os.Getenv("SOCIALSCRAPER_AUTH_ENCRYPT"); v != "" {
		c.Auth.Encrypt = parseBool(v)
	}
	if v := os.Getenv("SOCIALSCRAPER_OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv("SOCIALSCRAPER_HEADLESS"); v != "" {
		c.Browser.Headless = parseBool(v)
	}
	if v := os.Getenv("SOCIALSCRAPER_BROWSER_PATH"); v != "" {
		c.Browser.ExecPath = v
	}
	if v := os.Getenv("SOCIALSCRAPER_USER_AGENT"); v != "" {
		c.Browser.UserAgent = v
		c.Download.UserAgent = v
	}
	if v := os.Getenv("SOCIALSCRAPER_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimit.RequestsPerMinute = n
		}
	}
	if v := os.Getenv("SOCIALSCRAPER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SOCIALSCRAPER_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

// applyFlags overlays command-line flag values onto the configuration
func (c *Config) applyFlags(flags map[string]interface{}) {
	for key, value := range flags {
		switch key {
		case "output":
			if v, ok := value.(string); ok && v != "" {
				c.Output.BaseDirectory = v
			}
		case "auth-dir":
			if v, ok := value.(string); ok && v != "" {
				c.Auth.StateDir = v
			}
		case "headless":
			if v, ok := value.(bool); ok {
				c.Browser.Headless = v
			}
		case "rate-limit":
			if v, ok := value.(int); ok && v > 0 {
				c.RateLimit.RequestsPerMinute = v
			}
		case "download-timeout":
			if v, ok := value.(int); ok && v > 0 {
				c.Download.Timeout = time.Duration(v) * time.Second
			}
		case "log-level":
			if v, ok := value.(string); ok && v != "" {
				c.Logging.Level = v
			}
		}
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Instagram.DefaultMaxResults < 1 {
		return errors.New("instagram default_max_results must be at least 1")
	}
	if c.X.DefaultMaxResults < 1 {
		return errors.New("x default_max_results must be at least 1")
	}
	if c.Instagram.ScrollAttempts < 1 || c.X.ScrollAttempts < 1 {
		return errors.New("scroll_attempts must be at least 1")
	}
	if c.RateLimit.RequestsPerMinute < 1 {
		return errors.New("requests_per_minute must be at least 1")
	}
	if c.Download.Timeout <= 0 {
		return errors.New("download timeout must be positive")
	}
	if len(c.X.MediaDomains) == 0 {
		return errors.New("x media_domains must not be empty")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	return nil
}

// ScreenshotPath returns the absolute screenshot directory
func (c *Config) ScreenshotPath() string {
	return filepath.Join(c.Output.BaseDirectory, c.Output.ScreenshotDir)
}

// MediaPath returns the absolute media directory
func (c *Config) MediaPath() string {
	return filepath.Join(c.Output.BaseDirectory, c.Output.MediaDir)
}

// DebugPath returns the absolute debug directory
func (c *Config) DebugPath() string {
	return filepath.Join(c.Output.BaseDirectory, c.Output.DebugDir)
}

// Save writes the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}
