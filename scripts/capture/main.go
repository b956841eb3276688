// Command capture saves a live search result page as an HTML fixture and
// checks that the current locators still read every card field from it.
//
//	go run ./scripts/capture -engine Bing -labels eggplant,capsicum -out search/testdata/bing_live.html
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/producerecipe/browser"
	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/models"
	"github.com/use-agent/producerecipe/search"
)

// CLI flags
var (
	engineFlag  = flag.String("engine", "Google", "Search engine: Google or Bing")
	labelsFlag  = flag.String("labels", "eggplant", "Comma-separated produce labels")
	cuisineFlag = flag.String("cuisine", "Any", "Cuisine: Any, Indian, Mexican, Chinese, Italian")
	outFlag     = flag.String("out", "", "Output HTML path (default: <engine>_results.html)")
	locFlag     = flag.String("locators", "", "Optional locator override file")
	timeout     = flag.Duration("timeout", 60*time.Second, "Overall capture timeout")
)

func main() {
	flag.Parse()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))

	engine, ok := models.ParseEngine(*engineFlag)
	if !ok {
		fatal("unknown engine %q", *engineFlag)
	}
	cuisine, ok := models.ParseCuisine(*cuisineFlag)
	if !ok {
		fatal("unknown cuisine %q", *cuisineFlag)
	}
	out := *outFlag
	if out == "" {
		out = strings.ToLower(string(engine)) + "_results.html"
	}

	loc, err := search.LoadLocators(*locFlag)
	if err != nil {
		fatal("load locators: %v", err)
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	q := search.Query{Terms: strings.Split(*labelsFlag, ","), Cuisine: cuisine}
	html, err := capture(ctx, cfg, engine, loc, q)
	if err != nil {
		fatal("capture: %v", err)
	}
	if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
		fatal("write %s: %v", out, err)
	}
	fmt.Printf("Saved %s (%d bytes)\n\n", out, len(html))

	if err := check(ctx, engine, loc, out); err != nil {
		fatal("check: %v", err)
	}
}

// capture loads the result page in a real browser and returns its DOM.
// Pagination is not run, so the fixture holds the first result batch.
func capture(ctx context.Context, cfg *config.Config, engine models.Engine, loc *search.Locators, q search.Query) (string, error) {
	s, err := browser.Launch(ctx, cfg.Browser, cfg.Scraper)
	if err != nil {
		return "", err
	}
	defer s.Close()

	base := loc.Google.SearchURL
	if engine == models.EngineBing {
		base = loc.Bing.SearchURL
	}
	target := search.SearchURL(base, q)
	fmt.Printf("Capturing %s\n", target)
	if err := s.Navigate(ctx, target); err != nil {
		return "", err
	}
	return s.HTML()
}

// check runs the extractor over the saved fixture and prints how many cards
// carry each field.
func check(ctx context.Context, engine models.Engine, loc *search.Locators, path string) error {
	page, err := browser.LoadStatic(path)
	if err != nil {
		return err
	}
	open := func(context.Context) (browser.Page, error) { return page, nil }
	cfg := config.ScraperConfig{MaxShowMore: 1, MaxStableScrolls: 1, MaxScrolls: 1, DefaultLimit: 1000}
	results, err := search.NewRunner(open, loc, cfg).Search(ctx, engine, search.Query{Limit: 1000})
	if err != nil {
		return err
	}

	fields := []struct {
		name string
		get  func(models.RawSearchResult) bool
	}{
		{"title", func(r models.RawSearchResult) bool { return r.Title != nil }},
		{"link", func(r models.RawSearchResult) bool { return r.Link != nil }},
		{"image", func(r models.RawSearchResult) bool { return r.Image != nil }},
		{"source", func(r models.RawSearchResult) bool { return r.Source != nil }},
		{"total_time", func(r models.RawSearchResult) bool { return r.TotalTime != nil }},
		{"ratings", func(r models.RawSearchResult) bool { return r.Ratings != nil }},
		{"reviews", func(r models.RawSearchResult) bool { return r.Reviews != nil }},
		{"ingredients", func(r models.RawSearchResult) bool { return r.Ingredients != nil }},
		{"calories", func(r models.RawSearchResult) bool { return r.Calories != nil }},
		{"servings", func(r models.RawSearchResult) bool { return r.Servings != nil }},
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Field\tCards\n")
	fmt.Fprintf(w, "-----\t-----\n")
	for _, f := range fields {
		n := 0
		for _, r := range results {
			if f.get(r) {
				n++
			}
		}
		fmt.Fprintf(w, "%s\t%d/%d\n", f.name, n, len(results))
	}
	return w.Flush()
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
