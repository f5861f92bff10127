package scraper

import (
	"context"

	"webscrape/internal/config"
	"webscrape/internal/driver"
	"webscrape/internal/timing"

	"go.uber.org/zap"
)

type Scraper interface {
	Name() string
	Scrape(ctx context.Context, target string, opts Options) (Content, error)
}

type Content interface {
	ToHTML() (string, error)
	ToText() (string, error)
	ToMarkdown() (string, error)
	ToJSON() ([]byte, error)
	ToCSV() (string, error)
}

type Options struct {
	Job    *config.Config // target, when non-empty, overrides Job.URL
	Logger *zap.Logger
	// Driver replaces the launched browser when set.
	Driver driver.Driver
	Pacer  *timing.Pacer
}
