package handler

import (
	"context"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/producerecipe/cleaner"
	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/models"
	"github.com/use-agent/producerecipe/recipe"
)

// PageFetcher downloads a recipe page with its structured data.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (*recipe.Page, error)
	FetchStructuredData(ctx context.Context, url string) (any, error)
}

// RecipeContent returns a handler for POST /api/v1/recipes/content.
//
// A page without structured data is not an error: the response has
// found=false and a readability preview when one can be built. A page whose
// structured data does not fully parse has found=true, success=false and
// whatever fields were read.
func RecipeContent(f PageFetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.ContentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		page, err := f.FetchPage(c.Request.Context(), req.URL)
		fetchMs := time.Since(start).Milliseconds()
		if err != nil {
			respondError(c, err, models.TimingInfo{TotalMs: fetchMs, FetchMs: fetchMs})
			return
		}

		resp := models.RecipeResponse{Success: true}
		if page.StructuredData == nil {
			if p, ok := cleaner.BuildPreview(page.HTML, page.URL); ok {
				resp.Preview = &models.PagePreview{
					Title:    p.Title,
					Excerpt:  p.Excerpt,
					SiteName: p.SiteName,
					Byline:   p.Byline,
				}
			}
		} else {
			rc, ok := recipe.Parse(page.StructuredData)
			rc.URL = req.URL
			resp.Found = true
			resp.Success = ok
			resp.Recipe = &rc
			resp.Markdown = recipe.Markdown(rc)
		}

		resp.Timing = models.TimingInfo{TotalMs: time.Since(start).Milliseconds(), FetchMs: fetchMs}
		c.JSON(http.StatusOK, resp)
	}
}

// RandomRecipe returns a handler for POST /api/v1/recipes/random.
//
// Samples the posted table until a candidate page parses, up to the
// configured attempt bound. Exhaustion is RECIPE_EXHAUSTED.
func RandomRecipe(f recipe.StructuredDataFetcher, rcfg config.RecipeConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.RandomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		var r *rand.Rand
		if req.Seed != nil {
			r = rand.New(rand.NewPCG(*req.Seed, *req.Seed))
		}
		rc, err := recipe.NewPicker(f, rcfg, r).Pick(c.Request.Context(), req.Rows)
		elapsed := time.Since(start).Milliseconds()
		if err != nil {
			respondError(c, err, models.TimingInfo{TotalMs: elapsed, FetchMs: elapsed})
			return
		}

		c.JSON(http.StatusOK, models.RecipeResponse{
			Success:  true,
			Found:    true,
			Recipe:   &rc,
			Markdown: recipe.Markdown(rc),
			Timing:   models.TimingInfo{TotalMs: elapsed, FetchMs: elapsed},
		})
	}
}
