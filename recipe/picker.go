package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/models"
	"github.com/use-agent/producerecipe/retry"
)

// ErrExhausted means no sampled candidate produced a parsable recipe.
// Callers show it as "try another recipe".
var ErrExhausted = fmt.Errorf("%w: no parsable recipe found, try another recipe", retry.ErrExhausted)

var (
	errNoLink       = errors.New("recipe: candidate has no link")
	errNoData       = errors.New("recipe: candidate page has no structured data")
	errNotParsable  = errors.New("recipe: candidate structured data did not parse")
	errMissingTitle = errors.New("recipe: candidate recipe has no name")
)

// StructuredDataFetcher is the part of Fetcher the picker needs.
type StructuredDataFetcher interface {
	FetchStructuredData(ctx context.Context, url string) (any, error)
}

// Picker samples recipes from the top of a result table until one parses.
type Picker struct {
	Fetcher StructuredDataFetcher

	// Rand drives candidate selection. Nil uses the global source.
	Rand *rand.Rand

	// MaxAttempts bounds the number of sampled candidates.
	MaxAttempts int

	// PoolSize is the number of leading rows sampled from.
	PoolSize int
}

// NewPicker builds a Picker from config. r may be nil.
func NewPicker(f StructuredDataFetcher, cfg config.RecipeConfig, r *rand.Rand) *Picker {
	return &Picker{Fetcher: f, Rand: r, MaxAttempts: cfg.MaxAttempts, PoolSize: cfg.PoolSize}
}

// Pick draws rows uniformly (with replacement) from the first PoolSize rows
// and returns the first candidate whose page parses to a named recipe. A
// failed fetch only discards that candidate. After MaxAttempts candidates,
// or immediately for an empty table, it returns ErrExhausted.
func (p *Picker) Pick(ctx context.Context, rows []models.NormalizedRecipeRow) (models.RecipeContent, error) {
	pool := rows
	if p.PoolSize > 0 && len(pool) > p.PoolSize {
		pool = pool[:p.PoolSize]
	}
	if len(pool) == 0 {
		return models.RecipeContent{}, ErrExhausted
	}

	rc, err := retry.Attempt(ctx, p.MaxAttempts, func(ctx context.Context, attempt int) (models.RecipeContent, error) {
		row := pool[p.intN(len(pool))]
		rc, err := p.try(ctx, row)
		if err != nil {
			slog.Debug("recipe candidate rejected", "attempt", attempt+1, "title", row.Title, "link", row.Link, "error", err)
		}
		return rc, err
	})
	switch {
	case err == nil:
		return rc, nil
	case errors.Is(err, retry.ErrExhausted):
		slog.Warn("no parsable recipe among sampled candidates", "attempts", p.MaxAttempts, "error", err)
		return models.RecipeContent{}, ErrExhausted
	default:
		return models.RecipeContent{}, err
	}
}

func (p *Picker) try(ctx context.Context, row models.NormalizedRecipeRow) (models.RecipeContent, error) {
	if row.Link == "" {
		return models.RecipeContent{}, errNoLink
	}
	data, err := p.Fetcher.FetchStructuredData(ctx, row.Link)
	if err != nil {
		return models.RecipeContent{}, err
	}
	if data == nil {
		return models.RecipeContent{}, errNoData
	}
	rc, ok := Parse(data)
	if !ok {
		return models.RecipeContent{}, errNotParsable
	}
	if rc.Name == "" {
		return models.RecipeContent{}, errMissingTitle
	}
	rc.URL = row.Link
	return rc, nil
}

func (p *Picker) intN(n int) int {
	if p.Rand != nil {
		return p.Rand.IntN(n)
	}
	return rand.IntN(n)
}
