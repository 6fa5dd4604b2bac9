package main

import (
	"strings"

	"github.com/spf13/cobra"

	"socialscraper/pkg/scraper"
)

var instagramMaxResults int

var instagramCmd = &cobra.Command{
	Use:   "instagram <query>",
	Short: "Search Instagram for a hashtag or profile and extract posts",
	Long: `Search Instagram and extract posts with captions, authors, media,
and per-post screenshots.

A query starting with '#' searches the hashtag explore page; anything
else is treated as a profile handle. Requires stored authentication
state (see "socialscraper auth instagram").`,
	Example: `  # Recent posts for a hashtag
  socialscraper instagram "#sunset" --max-results 5

  # Posts from a profile
  socialscraper instagram natgeo`,
	Args: cobra.ExactArgs(1),
	RunE: runInstagram,
}

func init() {
	rootCmd.AddCommand(instagramCmd)
	instagramCmd.Flags().IntVarP(&instagramMaxResults, "max-results", "n", 0, "maximum number of posts to extract")
}

func runInstagram(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := scraper.New(cfg)
	if err != nil {
		return err
	}
	query := strings.TrimSpace(args[0])
	emit(s.ScrapeInstagram(cmd.Context(), query, instagramMaxResults))
	return nil
}
