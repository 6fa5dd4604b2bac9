package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"socialscraper/pkg/auth"
	"socialscraper/pkg/browser"
	"socialscraper/pkg/logger"
	"socialscraper/pkg/models"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Create and manage stored browser authentication state",
	Long: `Create stored authentication state for a platform.

A visible browser window opens on the platform's login page. Log in
manually, then press Enter in this terminal; the session cookies and
local storage are captured and saved for later headless runs.

State files can be encrypted at rest (see the auth.encrypt config
option). Never share your auth state files!`,
}

var authInstagramCmd = &cobra.Command{
	Use:     "instagram",
	Short:   "Log in to Instagram and save the session",
	Example: `  socialscraper auth instagram`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthLogin(cmd, string(models.PlatformInstagram), "https://www.instagram.com/accounts/login/")
	},
}

var authXCmd = &cobra.Command{
	Use:     "x",
	Short:   "Log in to X and save the session",
	Example: `  socialscraper auth x`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthLogin(cmd, string(models.PlatformX), "https://x.com/login")
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which platforms have stored authentication state",
	RunE:  runAuthStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authInstagramCmd)
	authCmd.AddCommand(authXCmd)
	authCmd.AddCommand(authStatusCmd)
}

func runAuthLogin(cmd *cobra.Command, platform, loginURL string) error {
	// Interactive login needs a human at a terminal
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("auth %s must run in an interactive terminal", platform)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := auth.NewStore(cfg.Auth.StateDir, cfg.Auth.Encrypt)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "A browser window will open on the %s login page.\n", platform)
	fmt.Fprintln(os.Stderr, "Log in there, then come back here and press Enter.")

	waitForEnter := func() error {
		fmt.Fprint(os.Stderr, "Press Enter once you are logged in... ")
		_, err := bufio.NewReader(os.Stdin).ReadString('\n')
		return err
	}

	state, err := browser.InteractiveLogin(&cfg.Browser, platform, loginURL, waitForEnter, logger.GetLogger())
	if err != nil {
		return fmt.Errorf("login capture failed: %w", err)
	}
	if err := store.Save(state); err != nil {
		return fmt.Errorf("failed to save authentication state: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Saved %s authentication state to %s\n", platform, store.Path(platform))
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := auth.NewStore(cfg.Auth.StateDir, cfg.Auth.Encrypt)
	if err != nil {
		return err
	}
	for _, platform := range []models.Platform{models.PlatformInstagram, models.PlatformX} {
		status := "missing"
		if store.Exists(string(platform)) {
			status = "present"
		}
		fmt.Fprintf(os.Stderr, "%-10s %s (%s)\n", platform, status, store.Path(string(platform)))
	}
	return nil
}
