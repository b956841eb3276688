package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/use-agent/producerecipe/browser"
	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/models"
	"github.com/use-agent/producerecipe/retry"
)

// Google reads the recipe carousel of a Google result page.
type Google struct {
	open Opener
	loc  GoogleLocators
	cfg  config.ScraperConfig
}

// Extract ignores q.Limit; Google returns whatever the expanded carousel holds.
func (g *Google) Extract(ctx context.Context, q Query) ([]models.RawSearchResult, error) {
	page, err := g.open(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	target := SearchURL(g.loc.SearchURL, q)
	slog.Debug("google search", "url", target)
	if err := page.Navigate(ctx, target); err != nil {
		return nil, err
	}

	if err := g.expand(ctx, page); err != nil {
		return nil, err
	}

	results := g.extract(page)
	slog.Info("google results extracted", "count", len(results))
	return results, nil
}

// expand clicks "Show more" until the control is gone, stops being
// clickable, or the iteration cap is hit. The control is located afresh on
// every iteration because each click re-renders it.
func (g *Google) expand(ctx context.Context, page browser.Page) error {
	clicks := 0
	err := retry.Loop(ctx, g.cfg.MaxShowMore, func(int) (bool, error) {
		if err := retry.Sleep(ctx, g.cfg.ShowMorePause); err != nil {
			return false, err
		}
		btn, ok := page.Find(g.loc.ShowMore)
		if !ok {
			slog.Debug("show more control absent, list fully expanded", "clicks", clicks)
			return true, nil
		}
		if err := page.WaitUntilClickable(btn, g.cfg.ClickTimeout); err != nil {
			slog.Debug("show more control not clickable, list fully expanded", "clicks", clicks, "error", err)
			return true, nil
		}
		if err := btn.Click(); err != nil {
			slog.Debug("show more click failed, stopping expansion", "clicks", clicks, "error", err)
			return true, nil
		}
		clicks++
		return false, nil
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, retry.ErrExhausted):
		slog.Warn("show more loop hit its cap, extracting what is loaded",
			"max", g.cfg.MaxShowMore, "error", err)
		return nil
	default:
		return loopError(err)
	}
}

func (g *Google) extract(page browser.Page) []models.RawSearchResult {
	cards := page.FindAll(g.loc.Card)
	results := make([]models.RawSearchResult, 0, len(cards))
	for _, card := range cards {
		r := models.RawSearchResult{
			Title:     textOf(card, g.loc.Title),
			Link:      attrOf(card, g.loc.Link, "href"),
			Image:     attrOf(card, g.loc.Image, "src"),
			Source:    textOf(card, g.loc.Source),
			TotalTime: textOf(card, g.loc.TotalTime),
			Ratings:   textOf(card, g.loc.Ratings),
		}
		if ing := textOf(card, g.loc.Ingredients); ing != nil {
			r.Ingredients = splitIngredients(*ing)
		}
		if rev := textOf(card, g.loc.Reviews); rev != nil {
			r.Reviews = models.StringPtr(strings.NewReplacer("(", "", ")", "").Replace(*rev))
		}
		results = append(results, r)
	}
	return results
}

// splitIngredients splits the comma-separated ingredient preview.
func splitIngredients(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
