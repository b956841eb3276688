// Package search scrapes recipe result cards from a search engine's result
// page. Each variant drives a browser.Page: it navigates, expands the result
// list with a bounded pagination loop and reads every card's fields
// independently, so one missing element never drops the rest of a card.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/use-agent/producerecipe/browser"
	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/models"
)

// Opener opens a fresh page for one extraction. The extractor closes it.
type Opener func(ctx context.Context) (browser.Page, error)

// Extractor returns result cards in page order.
type Extractor interface {
	Extract(ctx context.Context, q Query) ([]models.RawSearchResult, error)
}

// New returns the variant for engine.
func New(engine models.Engine, open Opener, loc *Locators, cfg config.ScraperConfig) (Extractor, error) {
	if open == nil || loc == nil {
		return nil, errors.New("search: opener and locators are required")
	}
	switch engine {
	case models.EngineGoogle:
		return &Google{open: open, loc: loc.Google, cfg: cfg}, nil
	case models.EngineBing:
		return &Bing{open: open, loc: loc.Bing, cfg: cfg}, nil
	}
	return nil, models.NewScrapeError(models.ErrCodeInvalidInput, fmt.Sprintf("unknown engine %q", engine), nil)
}

// textOf returns the rendered text of the first match, or nil if absent.
func textOf(root browser.Element, sel string) *string {
	el, ok := root.Find(sel)
	if !ok {
		return nil
	}
	text, err := el.Text()
	if err != nil {
		return nil
	}
	text = strings.TrimSpace(text)
	return &text
}

// attrOf returns an attribute of the first match, or nil if absent.
func attrOf(root browser.Element, sel, attr string) *string {
	el, ok := root.Find(sel)
	if !ok {
		return nil
	}
	v, ok := el.Attr(attr)
	if !ok {
		return nil
	}
	return &v
}

// loopError maps a pagination loop's context failure to a coded error.
func loopError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.NewScrapeError(models.ErrCodeTimeout, "search pagination interrupted", err)
	}
	return models.NewScrapeError(models.ErrCodeNavigation, "search pagination failed", err)
}
