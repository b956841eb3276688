package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/use-agent/producerecipe/browser"
	"github.com/use-agent/producerecipe/cleaner"
	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/models"
	"github.com/use-agent/producerecipe/retry"
)

// tagSeparator splits the time, calorie and serving tags of a Bing card.
const tagSeparator = "·"

const defaultLimit = 15

// Bing reads the lazily loaded recipe grid of a Bing result page.
type Bing struct {
	open Opener
	loc  BingLocators
	cfg  config.ScraperConfig
}

// Extract returns at most q.Limit cards.
func (b *Bing) Extract(ctx context.Context, q Query) ([]models.RawSearchResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = b.cfg.DefaultLimit
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	page, err := b.open(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	target := SearchURL(b.loc.SearchURL, q)
	slog.Debug("bing search", "url", target, "limit", limit)
	if err := page.Navigate(ctx, target); err != nil {
		return nil, err
	}

	b.clickIfPresent(page, b.loc.Banner, "banner")
	b.clickIfPresent(page, b.loc.SeeMore, "see more")

	if err := b.scroll(ctx, page, limit); err != nil {
		return nil, err
	}

	results := b.extract(page, limit)
	slog.Info("bing results extracted", "count", len(results), "limit", limit)
	return results, nil
}

// clickIfPresent is best-effort: absence or a failed click is not an error.
func (b *Bing) clickIfPresent(page browser.Page, sel, name string) {
	el, ok := page.Find(sel)
	if !ok {
		slog.Debug("optional control absent", "control", name)
		return
	}
	if err := page.WaitUntilClickable(el, b.cfg.ClickTimeout); err != nil {
		slog.Debug("optional control not clickable", "control", name, "error", err)
		return
	}
	if err := el.Click(); err != nil {
		slog.Debug("optional control click failed", "control", name, "error", err)
	}
}

// scroll loads more cards until there are more than limit, or the count has
// not changed for MaxStableScrolls consecutive scrolls, or MaxScrolls is hit.
func (b *Bing) scroll(ctx context.Context, page browser.Page, limit int) error {
	count := len(page.FindAll(b.loc.Count))
	stable := 0

	err := retry.Loop(ctx, b.cfg.MaxScrolls, func(int) (bool, error) {
		if err := page.ScrollBy(b.cfg.ScrollStep); err != nil {
			slog.Debug("scroll failed, stopping", "error", err)
			return true, nil
		}
		if err := retry.Sleep(ctx, b.cfg.ScrollPause); err != nil {
			return false, err
		}

		n := len(page.FindAll(b.loc.Count))
		if n > limit {
			return true, nil
		}
		if n == count {
			stable++
			return stable >= b.cfg.MaxStableScrolls, nil
		}
		count, stable = n, 0
		return false, nil
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, retry.ErrExhausted):
		slog.Warn("scroll loop hit its cap, extracting what is loaded",
			"max", b.cfg.MaxScrolls, "count", count, "error", err)
		return nil
	default:
		return loopError(err)
	}
}

func (b *Bing) extract(page browser.Page, limit int) []models.RawSearchResult {
	cards := page.FindAll(b.loc.Card)
	results := make([]models.RawSearchResult, 0, min(len(cards), limit))
	for _, card := range cards {
		r := models.RawSearchResult{
			Title: textOf(card, b.loc.Title),
			Link:  attrOf(card, b.loc.Link, b.loc.LinkAttr),
			Image: attrOf(card, b.loc.Image, "src"),
		}
		if tags := textOf(card, b.loc.Tags); tags != nil {
			applyTags(&r, splitTags(*tags))
		}
		if label := attrOf(card, b.loc.Rating, "aria-label"); label != nil {
			r.Ratings = ratingFromLabel(*label)
		}

		results = append(results, r)
		if len(results) == limit {
			break
		}
	}
	return results
}

// splitTags normalises the tag block and returns its non-empty lines.
func splitTags(text string) []string {
	lines := strings.Split(cleaner.NormalizeText(text), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// applyTags reads source from the first line, reviews from the second line
// when it mentions reviews, and time, calories and servings from the
// dot-separated last line.
func applyTags(r *models.RawSearchResult, tags []string) {
	if len(tags) > 0 {
		r.Source = models.StringPtr(tags[0])
	}
	if len(tags) > 1 && strings.Contains(tags[1], "reviews") {
		r.Reviews = models.StringPtr(tags[1])
	}
	if len(tags) < 2 {
		return
	}
	for _, part := range strings.Split(tags[len(tags)-1], tagSeparator) {
		part = strings.TrimSpace(part)
		switch {
		case strings.Contains(part, "min") || strings.Contains(part, "hr"):
			r.TotalTime = models.StringPtr(part)
		case strings.Contains(part, "cals"):
			r.Calories = models.StringPtr(part)
		case strings.Contains(part, "servs"):
			r.Servings = models.StringPtr(part)
		}
	}
}

// ratingFromLabel reads "Star Rating: 4.5 out of 5" as "4.5".
func ratingFromLabel(label string) *string {
	fields := strings.Fields(label)
	if len(fields) < 3 {
		return nil
	}
	return &fields[2]
}
