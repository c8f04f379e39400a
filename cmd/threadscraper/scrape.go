package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"threadscraper/pkg/config"
	"threadscraper/pkg/export"
	"threadscraper/pkg/logger"
	"threadscraper/pkg/scraper"
	"threadscraper/pkg/ui"
)

var (
	// Scrape command flags
	outputDir   string
	accountName string
	waitTime    int
	maxRetries  int
	maxScrolls  int
	maxPosts    int
	headless    bool
	skipDedup   bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <username>",
	Short: "Harvest a profile's reposts tab",
	Long: `Harvest every repost from a Threads profile and export them to a
markdown file in the output directory.

Posts already present in earlier exports of the same profile are skipped
unless --skip-dedup is given.`,
	Example: `  # Scrape with default settings
  threadscraper scrape johndoe

  # Custom output directory and slower scrolling
  threadscraper scrape johndoe --output ./exports --wait-time 4

  # Re-export everything, ignoring previous runs
  threadscraper scrape johndoe --skip-dedup

  # Watch the browser work
  threadscraper scrape johndoe --headless=false`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runScrape(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for exports")
	scrapeCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored session")
	scrapeCmd.Flags().IntVar(&waitTime, "wait-time", 0, "seconds to wait after each scroll")
	scrapeCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "consecutive no-growth scrolls before stopping")
	scrapeCmd.Flags().IntVar(&maxScrolls, "max-scrolls", 0, "hard scroll ceiling")
	scrapeCmd.Flags().IntVar(&maxPosts, "max-posts", 0, "cap on new posts to export (0 = unlimited)")
	scrapeCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	scrapeCmd.Flags().BoolVar(&skipDedup, "skip-dedup", false, "export duplicates of previous runs too")
}

func runScrape(cmd *cobra.Command, args []string) {
	username, err := config.ValidateUsername(strings.TrimSpace(args[0]))
	if err != nil {
		ui.PrintError("Invalid username", err.Error())
		os.Exit(1)
	}

	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if accountName != "" {
		flags["account"] = accountName
	}
	if waitTime > 0 {
		flags["wait-time"] = waitTime
	}
	if maxRetries > 0 {
		flags["max-retries"] = maxRetries
	}
	if maxScrolls > 0 {
		flags["max-scrolls"] = maxScrolls
	}
	if maxPosts > 0 {
		flags["max-posts"] = maxPosts
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if skipDedup {
		flags["skip-dedup"] = true
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	logger.Initialize(&cfg.Logging)
	logger.GetLogger().WithField("username", username).Info("Starting scrape")

	ui.PrintInfo("Target profile", "@"+username)

	s, err := scraper.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize scraper", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := s.Run(ctx, username)
	if err != nil {
		ui.PrintError("Scrape failed", err.Error())
		os.Exit(1)
	}

	var exportPath string
	if result.TotalCount > 0 {
		exportPath, err = export.NewWriter(cfg.Output.Directory).Write(result)
		if err != nil {
			ui.PrintError("Export failed", err.Error())
			os.Exit(1)
		}
	} else {
		ui.PrintWarning("Nothing new to export")
	}

	ui.PrintSummary(result, exportPath)
}
