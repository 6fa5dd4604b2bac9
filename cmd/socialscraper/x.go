package main

import (
	"strings"

	"github.com/spf13/cobra"

	"socialscraper/pkg/scraper"
)

var xMaxResults int

var xCmd = &cobra.Command{
	Use:   "x <query>",
	Short: "Search X and extract tweets with their media",
	Long: `Run a search on X and extract tweets: text, author handle,
permalink, and downloaded media images.

Avatars and interface imagery are filtered out; only tweet media is
downloaded, each URL at most once per run. Requires stored
authentication state (see "socialscraper auth x").`,
	Example: `  socialscraper x "golang" --max-results 10
  socialscraper x "#opensource"`,
	Args: cobra.ExactArgs(1),
	RunE: runX,
}

func init() {
	rootCmd.AddCommand(xCmd)
	xCmd.Flags().IntVarP(&xMaxResults, "max-results", "n", 0, "maximum number of tweets to extract")
}

func runX(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := scraper.New(cfg)
	if err != nil {
		return err
	}
	query := strings.TrimSpace(args[0])
	emit(s.ScrapeX(cmd.Context(), query, xMaxResults))
	return nil
}
