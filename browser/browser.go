// Package browser drives the headless browser used to read search result
// pages. Extractors see only the Page and Element interfaces, so the same
// extraction code runs against a live Chrome tab or a saved HTML fixture.
package browser

import (
	"context"
	"errors"
	"time"

	"github.com/use-agent/producerecipe/models"
)

// ErrNotClickable means an element did not become interactable in time.
// Pagination loops treat it as "no more results", never as a failure.
var ErrNotClickable = errors.New("browser: element not clickable")

// Element is one node of a rendered page.
type Element interface {
	// Text returns the rendered text, one line per block-level child.
	Text() (string, error)
	// Attr returns the attribute value and whether the attribute exists.
	Attr(name string) (string, bool)
	// Find returns the first descendant matching sel.
	Find(sel string) (Element, bool)
	// FindAll returns every descendant matching sel in document order.
	FindAll(sel string) []Element
	Click() error
}

// Page is one browser tab. Find and FindAll report absence with false or an
// empty slice, never with an error.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Find(sel string) (Element, bool)
	FindAll(sel string) []Element
	WaitUntilClickable(el Element, timeout time.Duration) error
	ScrollBy(px int) error
	Close() error
}

func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
