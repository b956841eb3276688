package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/producerecipe/cache"
	"github.com/use-agent/producerecipe/classify"
	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/models"
	"github.com/use-agent/producerecipe/normalize"
	"github.com/use-agent/producerecipe/search"
)

// sampleSize is the number of raw results in the preview grid.
const sampleSize = 6

// Searcher scrapes raw result cards for a query.
type Searcher interface {
	Search(ctx context.Context, engine models.Engine, q search.Query) ([]models.RawSearchResult, error)
}

// SearchRecipes returns a handler for POST /api/v1/recipes/search.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults, resolve labels.
//  2. Cache lookup keyed by engine, cuisine, limit and labels.
//  3. Searcher.Search on a miss          (records scrape_ms)
//  4. normalize.Normalize with the sort key.
//  5. Build the preview sample, return 200.
func SearchRecipes(s Searcher, cc *cache.Cache, scfg config.ScraperConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		req.Defaults()

		engine, _ := models.ParseEngine(req.Engine)
		cuisine, _ := models.ParseCuisine(req.Cuisine)
		sortKey, _ := models.ParseSortKey(req.Sort)

		labels := resolveLabels(req)
		if len(labels) == 0 {
			badRequest(c, "no labels to search for: pass labels or predictions with Medium or High confidence")
			return
		}

		limit := 0
		if engine == models.EngineBing {
			limit = req.Limit
			if limit <= 0 {
				limit = scfg.DefaultLimit
			}
		}
		q := search.Query{Terms: labels, Cuisine: cuisine, Limit: limit}

		// ── 2. Cache lookup ─────────────────────────────────────────
		key := cache.Key(engine, cuisine, limit, labels)
		var raw []models.RawSearchResult
		cacheStatus := ""
		if cc != nil && !req.NoCache {
			if cached, hit := cc.Get(key); hit {
				raw, cacheStatus = cached, "hit"
			}
		}

		// ── 3. Scrape ───────────────────────────────────────────────
		var scrapeMs int64
		if cacheStatus != "hit" {
			scrapeStart := time.Now()
			results, err := s.Search(c.Request.Context(), engine, q)
			scrapeMs = time.Since(scrapeStart).Milliseconds()
			if err != nil {
				slog.Warn("recipe search failed", "engine", engine, "labels", labels, "error", err)
				respondError(c, err, models.TimingInfo{
					TotalMs:  time.Since(totalStart).Milliseconds(),
					ScrapeMs: scrapeMs,
				})
				return
			}
			raw = results
			if cc != nil {
				cc.Set(key, raw)
				cacheStatus = "miss"
			}
		}

		// ── 4. Normalise ────────────────────────────────────────────
		table := normalize.Normalize(raw, sortKey)

		// ── 5. Respond ──────────────────────────────────────────────
		c.JSON(http.StatusOK, models.SearchResponse{
			Success:     true,
			Query:       search.BuildQuery(labels, cuisine),
			Rows:        table.Rows,
			Columns:     models.VisibleColumns,
			Issues:      table.Issues,
			Sample:      sample(raw),
			CacheStatus: cacheStatus,
			Timing: models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				ScrapeMs: scrapeMs,
			},
		})
	}
}

// resolveLabels prefers explicit labels and falls back to the prediction
// labels, optionally without Low-confidence ones. Blank labels are dropped.
func resolveLabels(req models.SearchRequest) []string {
	src := req.Labels
	if len(src) == 0 {
		preds := req.Predictions
		if req.IgnoreLow != nil && *req.IgnoreLow {
			preds = classify.FilterLow(preds)
		}
		src = classify.Labels(preds)
	}
	labels := make([]string, 0, len(src))
	for _, l := range src {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

func sample(raw []models.RawSearchResult) []models.SampleItem {
	n := min(len(raw), sampleSize)
	items := make([]models.SampleItem, n)
	for i := range n {
		items[i] = models.SampleItem{
			Title: models.Deref(raw[i].Title),
			Image: models.Deref(raw[i].Image),
		}
	}
	return items
}
