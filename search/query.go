package search

import (
	"net/url"
	"strings"

	"github.com/use-agent/producerecipe/models"
)

// querySuffix is appended to every search.
const querySuffix = "vegetarian recipe"

// Query is one search request.
type Query struct {
	Terms   []string
	Cuisine models.Cuisine

	// Limit caps the number of results. Only the Bing variant honours it;
	// a non-positive value means the configured default.
	Limit int
}

// BuildQuery joins the terms, injects the cuisine token unless it is Any and
// appends the fixed suffix. Blank terms are skipped.
func BuildQuery(terms []string, cuisine models.Cuisine) string {
	parts := make([]string, 0, len(terms)+2)
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	if cuisine != "" && cuisine != models.CuisineAny {
		parts = append(parts, string(cuisine))
	}
	parts = append(parts, querySuffix)
	return strings.Join(parts, " ")
}

// SearchURL builds the result page URL with the language forced to English.
// Spaces are encoded as "+".
func SearchURL(base string, q Query) string {
	return base + "?q=" + url.QueryEscape(BuildQuery(q.Terms, q.Cuisine)) + "&hl=en-US"
}
