package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"socialscraper/pkg/scraper"
)

var pageCmd = &cobra.Command{
	Use:   "page <url>",
	Short: "Capture the rendered text and a screenshot of any web page",
	Long: `Load an arbitrary URL in the browser without authentication and
capture its fully rendered text content plus a screenshot.

Useful for pages that render their content with JavaScript, where a
plain HTTP fetch returns an empty shell.`,
	Example: `  socialscraper page https://example.com/article`,
	Args:    cobra.ExactArgs(1),
	RunE:    runPage,
}

func init() {
	rootCmd.AddCommand(pageCmd)
}

func runPage(cmd *cobra.Command, args []string) error {
	target := strings.TrimSpace(args[0])
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid URL %q: an absolute http(s) URL is required", target)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := scraper.New(cfg)
	if err != nil {
		return err
	}
	emit(s.ScrapePage(cmd.Context(), target))
	return nil
}
