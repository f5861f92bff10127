package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"webscrape/internal/config"
	"webscrape/internal/formatter"
	"webscrape/internal/observability"
	"webscrape/internal/scraper"
	_ "webscrape/internal/sites/listing"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

var (
	cfgFile      string
	outputFormat string
	outputFile   string
	site         string
	timeout      time.Duration
	waitCeiling  time.Duration
	maxPages     int
	showUI       bool
	stealthMode  bool
	proxyURL     string
	logLevel     string
	logFormat    string
	logFile      string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:     "webscrape [URL]",
		Short:   "Scrape paginated, JavaScript-rendered listings with a headless browser",
		Version: version,
		Long: `webscrape drives a headless Chromium through a paginated listing: it
accepts the consent banner, logs in, opens the detail view of every row and
extracts header tags, label/value fields, tables and attributes as described
by a job file. Credentials are read from WEBSCRAPE_USERNAME and
WEBSCRAPE_PASSWORD (a .env file in the working directory is loaded first).`,
		Example: `  # Run a job file and print the records as JSON
  webscrape -c members.yaml -f json

  # Same job against another start page, two pages only, CSV to a file
  webscrape -c members.yaml --max-pages 2 -o members.csv https://directory.example.com/members?region=eu

  # Watch the browser work, with stealth evasions and debug logs
  webscrape -c members.yaml --showui --stealth --log-level debug`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "Job file (yaml, json or toml)")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format (html, text, markdown, json, csv)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (format inferred from extension if -f not specified)")
	rootCmd.Flags().StringVar(&site, "site", "listing", "Scraper to run")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "Overall run timeout (0 for none)")
	rootCmd.Flags().DurationVar(&waitCeiling, "wait-ceiling", 60*time.Second, "Upper bound for every element wait")
	rootCmd.Flags().IntVar(&maxPages, "max-pages", -1, "Max pages to paginate (-1 for no limit)")
	rootCmd.Flags().BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	rootCmd.Flags().BoolVar(&stealthMode, "stealth", false, "Open pages with stealth evasions")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "Proxy URL (e.g. http://127.0.0.1:7890), defaults to WEBSCRAPE_BROWSER_PROXY env var")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "console", "Log format (console, json)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file, rotated")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	// If output file is specified but format is not, infer format from file extension
	if outputFile != "" && !cmd.Flags().Changed("format") {
		if inferred := formatter.InferFromExtension(outputFile); inferred != "" {
			outputFormat = inferred
		}
	}
	if !formatter.Valid(outputFormat) {
		return fmt.Errorf("invalid output format: %s", outputFormat)
	}

	v, err := config.NewViper(cfgFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, v)
	if len(args) == 1 {
		v.Set("url", normalizeURL(args[0]))
	}
	job, err := config.NewConfigFromViper(v)
	if err != nil {
		return err
	}

	observability.InitializeLogger(job.Logger)
	defer observability.Sync()
	logger := observability.GetLogger()

	s, ok := scraper.Get(site)
	if !ok {
		return fmt.Errorf("unknown site: %s (available: %s)", site, strings.Join(scraper.Names(), ", "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	content, err := s.Scrape(ctx, "", scraper.Options{Job: job, Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to scrape: %w", err)
	}

	// Format output
	outputContent, err := formatter.Format(content, outputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	// Output result
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(outputContent), 0644); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Output written to: %s\n", outputFile)
	} else {
		fmt.Println(outputContent)
	}
	return nil
}

// applyFlags lets explicitly set flags win over the job file and the
// environment.
func applyFlags(cmd *cobra.Command, v *viper.Viper) {
	set := func(flag, key string, value any) {
		if cmd.Flags().Changed(flag) {
			v.Set(key, value)
		}
	}
	set("max-pages", "max_pages", maxPages)
	set("wait-ceiling", "wait_ceiling", waitCeiling)
	set("showui", "browser.headless", !showUI)
	set("stealth", "browser.stealth", stealthMode)
	set("proxy", "browser.proxy", proxyURL)
	set("log-level", "logger.level", logLevel)
	set("log-format", "logger.format", logFormat)
	set("log-file", "logger.log_file", logFile)
}

// normalizeURL normalizes URL, adds http:// if no protocol prefix
func normalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return rawURL
	}
	if !strings.HasPrefix(strings.ToLower(rawURL), "http://") && !strings.HasPrefix(strings.ToLower(rawURL), "https://") {
		return "http://" + rawURL
	}
	return rawURL
}
