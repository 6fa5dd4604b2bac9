package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"socialscraper/pkg/config"
	"socialscraper/pkg/logger"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile      string
	logLevel        string
	outputDir       string
	authDir         string
	headless        bool
	rateLimit       int
	downloadTimeout int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "socialscraper",
	Short: "Browser-driven content acquisition for Instagram, X, and the open web",
	Long: `socialscraper drives a real headless browser to search social platforms
and capture posts, media, and screenshots.

Platform commands reuse a stored authenticated browser state; run the
auth command once per platform to create it. Results are printed to
stdout as a JSON array, so output can be piped straight into other
tools. All logs go to stderr.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.socialscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "base output directory")
	rootCmd.PersistentFlags().StringVar(&authDir, "auth-dir", "", "directory holding stored authentication state")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", true, "run the browser headless")
	rootCmd.PersistentFlags().IntVar(&rateLimit, "rate-limit", 0, "download requests per minute")
	rootCmd.PersistentFlags().IntVar(&downloadTimeout, "download-timeout", 0, "media download timeout in seconds")

	rootCmd.SetVersionTemplate(`socialscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig builds the effective configuration from the config file,
// environment, and command-line flags, and initializes logging
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if authDir != "" {
		flags["auth-dir"] = authDir
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if rateLimit > 0 {
		flags["rate-limit"] = rateLimit
	}
	if downloadTimeout > 0 {
		flags["download-timeout"] = downloadTimeout
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return cfg, nil
}

// emit writes a JSON result payload to stdout. Stdout carries nothing
// but the result array.
func emit(payload []byte) {
	os.Stdout.Write(payload)
	os.Stdout.Write([]byte("\n"))
}
