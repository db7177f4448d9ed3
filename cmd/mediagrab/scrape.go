package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mediagrab/pkg/config"
	"mediagrab/pkg/grabber"
)

var (
	scrapeMax      int
	scrapeNoVideos bool
	scrapeNoPhotos bool
	scrapeTop      int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Extract downloadable items behind a URL without downloading",
	Long: `Extract metadata for every downloadable item behind a URL.

Single-item URLs return one entry. Index pages (profiles, boards,
playlists, search results, episode listings) are scraped with the
headless browser, following infinite scroll and pagination until the
requested limits are reached.`,
	Example: `  # List videos in a playlist
  mediagrab scrape https://www.youtube.com/playlist?list=PL123

  # Top 20 pins from a board, photos only
  mediagrab scrape --top 20 --no-videos https://www.pinterest.com/user/board/`,
	Args: cobra.ExactArgs(1),
	Run:  runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().IntVar(&scrapeMax, "max", 0, "overall entry cap (0 uses the configured default)")
	scrapeCmd.Flags().IntVar(&scrapeTop, "top", 0, "per-kind item cap")
	scrapeCmd.Flags().BoolVar(&scrapeNoVideos, "no-videos", false, "skip video items")
	scrapeCmd.Flags().BoolVar(&scrapeNoPhotos, "no-photos", false, "skip photo items")
}

func runScrape(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	applyScrapeFlags(cfg)

	sink := newConsoleSink(quiet)
	g := grabber.New(cfg, sink, nil)
	defer g.Close()

	outcome := g.Scrape(context.Background(), args[0])
	if outcome.Unsupported {
		fmt.Fprintln(os.Stderr, "unsupported platform:", args[0])
		os.Exit(1)
	}

	failed := 0
	for _, item := range outcome.Items {
		if item.Err != nil {
			failed++
		}
	}
	fmt.Printf("%d item(s) found", len(outcome.Items)-failed)
	if failed > 0 {
		fmt.Printf(", %d failed", failed)
	}
	fmt.Println()
}

func applyScrapeFlags(cfg *config.Config) {
	if scrapeMax > 0 {
		cfg.Scrape.MaxEntries = scrapeMax
	}
	if scrapeTop > 0 {
		cfg.Video.Top = true
		cfg.Video.Count = scrapeTop
		cfg.Video.All = false
		cfg.Photo.Top = true
		cfg.Photo.Count = scrapeTop
		cfg.Photo.All = false
	}
	if scrapeNoVideos {
		cfg.Video.Enabled = false
	}
	if scrapeNoPhotos {
		cfg.Photo.Enabled = false
	}
}
