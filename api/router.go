package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/producerecipe/api/handler"
	"github.com/use-agent/producerecipe/api/middleware"
	"github.com/use-agent/producerecipe/cache"
	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/models"
)

// Deps are the services behind the routes.
type Deps struct {
	Classifier handler.Classifier
	Classes    int
	Searcher   handler.Searcher
	Fetcher    handler.PageFetcher
	Cache      *cache.Cache
}

// NewRouter wires the three-step recipe flow behind auth and rate limiting.
//
//	Global:  Recovery → Logger
//	Steps:   Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work. Unknown paths
// answer with the same JSON error body as every other failure.
func NewRouter(d Deps, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: "no such endpoint: " + c.Request.URL.Path},
		})
	})

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(d.Classes, d.Cache, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Step 1: classify uploaded produce images.
	protected.POST("/classify", handler.Classify(d.Classifier))

	// Step 2: scrape and tabulate recipes for the labels.
	protected.POST("/recipes/search", handler.SearchRecipes(d.Searcher, d.Cache, cfg.Scraper))

	// Step 3: show one recipe, chosen or random.
	protected.POST("/recipes/content", handler.RecipeContent(d.Fetcher))
	protected.POST("/recipes/random", handler.RandomRecipe(d.Fetcher, cfg.Recipe))

	return r
}
