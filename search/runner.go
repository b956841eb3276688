package search

import (
	"context"

	"github.com/use-agent/producerecipe/browser"
	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/models"
)

// Runner dispatches a query to the extractor of the requested engine.
// It holds no per-scrape state and is safe for concurrent use.
type Runner struct {
	open Opener
	loc  *Locators
	cfg  config.ScraperConfig
}

// NewRunner returns a Runner that opens pages with open.
func NewRunner(open Opener, loc *Locators, cfg config.ScraperConfig) *Runner {
	return &Runner{open: open, loc: loc, cfg: cfg}
}

// BrowserOpener launches one headless browser per extraction.
func BrowserOpener(bcfg config.BrowserConfig, scfg config.ScraperConfig) Opener {
	return func(ctx context.Context) (browser.Page, error) {
		s, err := browser.Launch(ctx, bcfg, scfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Search runs q on engine and returns the raw cards in page order.
func (r *Runner) Search(ctx context.Context, engine models.Engine, q Query) ([]models.RawSearchResult, error) {
	ex, err := New(engine, r.open, r.loc, r.cfg)
	if err != nil {
		return nil, err
	}
	return ex.Extract(ctx, q)
}
