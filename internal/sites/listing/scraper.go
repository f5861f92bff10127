package listing

import (
	"context"
	"fmt"

	"webscrape/internal/browser"
	"webscrape/internal/scraper"
	"webscrape/internal/session"
	"webscrape/internal/timing"

	"go.uber.org/zap"
)

func init() {
	scraper.Register(&ListingScraper{})
}

// ListingScraper walks a paginated list described by a job file and opens
// the detail view of every row.
type ListingScraper struct{}

func (s *ListingScraper) Name() string { return "listing" }

func (s *ListingScraper) Scrape(ctx context.Context, target string, opts scraper.Options) (scraper.Content, error) {
	if opts.Job == nil {
		return nil, fmt.Errorf("a job config is required for the listing scraper")
	}
	job := *opts.Job
	if target != "" {
		job.URL = target
	}
	if job.URL == "" {
		return nil, fmt.Errorf("target URL is required")
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	drv := opts.Driver
	if drv == nil {
		b, err := browser.New(browser.Config{
			Headless:   job.Browser.Headless,
			ProxyURL:   job.Browser.Proxy,
			Stealth:    job.Browser.Stealth,
			ControlURL: job.Browser.ControlURL,
			WindowSize: job.Browser.WindowSize,
			NoSandbox:  job.Browser.NoSandbox,
			Logger:     log,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create browser: %w", err)
		}
		defer b.Close()

		rd, err := b.Driver(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to open page: %w", err)
		}
		drv = rd
	}

	pacer := opts.Pacer
	if pacer == nil {
		var popts []timing.Option
		if job.Seed != 0 {
			popts = append(popts, timing.WithSeed(job.Seed))
		}
		pacer = timing.New(popts...)
	}

	sess := session.New(drv,
		session.WithPacer(pacer),
		session.WithLogger(log),
		session.WithWaitCeiling(job.WaitCeiling))
	defer func() {
		if err := sess.Quit(); err != nil {
			log.Warn("failed to quit session", zap.Error(err))
		}
	}()

	content, err := NewClient(sess, &job).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape listing: %w", err)
	}
	return content, nil
}
