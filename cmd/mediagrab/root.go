package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"mediagrab/pkg/config"
	"mediagrab/pkg/logger"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "mediagrab",
	Short: "Download videos and photos from media hosting platforms",
	Long: `mediagrab extracts and downloads media from URL batches.

Supported platforms: YouTube, TikTok, Facebook, Instagram, Pinterest,
ReelShort, DramaBox and X. Index pages (profiles, boards, playlists,
series) are scraped with a headless browser that follows infinite
scroll and pagination; single items go through the fast structured
extractor.

Downloads run through a reorderable queue with a configurable worker
pool, cookie-based authentication per platform, and automatic fallback
strategies when the primary downloader cannot handle a page.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.mediagrab.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`mediagrab {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads configuration and initializes logging from it plus the
// global flags.
func loadConfig() (*config.Config, error) {
	path := configFile
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := home + "/.mediagrab.yaml"
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	if quiet {
		level = "error"
	}
	log, err := logger.New(logger.Options{
		Level:   level,
		File:    cfg.Logging.File,
		NoColor: noColor,
	})
	if err != nil {
		return nil, err
	}
	logger.SetLogger(log)

	return cfg, nil
}
