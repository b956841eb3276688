package models

import (
	"fmt"
	"strings"
)

// Engine selects the search engine variant used for scraping.
type Engine string

const (
	EngineGoogle Engine = "Google"
	EngineBing   Engine = "Bing"
)

// ParseEngine accepts engine names case-insensitively. Empty means Google.
func ParseEngine(s string) (Engine, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "google":
		return EngineGoogle, true
	case "bing":
		return EngineBing, true
	}
	return "", false
}

// Cuisine narrows the search query. CuisineAny injects no token.
type Cuisine string

const (
	CuisineAny     Cuisine = "Any"
	CuisineIndian  Cuisine = "Indian"
	CuisineMexican Cuisine = "Mexican"
	CuisineChinese Cuisine = "Chinese"
	CuisineItalian Cuisine = "Italian"
)

// Cuisines lists the supported cuisine filters in display order.
var Cuisines = []Cuisine{CuisineAny, CuisineIndian, CuisineMexican, CuisineChinese, CuisineItalian}

// ParseCuisine matches one of Cuisines case-insensitively. Empty means Any.
func ParseCuisine(s string) (Cuisine, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CuisineAny, true
	}
	for _, c := range Cuisines {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// SortKey orders the normalized recipe table.
type SortKey string

const (
	SortNone       SortKey = "None"
	SortPopularity SortKey = "Popularity"
	SortCalories   SortKey = "Calories"
	SortTime       SortKey = "Time"
)

// ParseSortKey matches a sort key case-insensitively. Empty means None.
func ParseSortKey(s string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, true
	case "popularity":
		return SortPopularity, true
	case "calories":
		return SortCalories, true
	case "time":
		return SortTime, true
	}
	return "", false
}

// RawSearchResult is one result card as scraped. Every field is optional;
// nil means the element was missing on the page.
type RawSearchResult struct {
	Title     *string `json:"title"`
	Link      *string `json:"link"`
	Image     *string `json:"image"`
	Source    *string `json:"source"`
	TotalTime *string `json:"total_time"`
	Ratings   *string `json:"ratings"`
	Reviews   *string `json:"reviews"`

	// Ingredients is only produced by the Google variant.
	Ingredients []string `json:"ingredients,omitempty"`

	// Calories and Servings are only produced by the Bing variant.
	Calories *string `json:"calories,omitempty"`
	Servings *string `json:"servings,omitempty"`
}

// NormalizedRecipeRow is one typed row of the recipe table.
type NormalizedRecipeRow struct {
	Title            string   `json:"title"`
	Link             string   `json:"link"`
	Image            string   `json:"image"`
	Source           string   `json:"source"`
	TotalTimeMinutes *int     `json:"total_time"`
	Calories         *int     `json:"calories"`
	Reviews          *int     `json:"reviews"`
	Ratings          *float64 `json:"ratings"`
}

// VisibleColumns are the grid columns shown to users. Link and image stay in
// the row for linking but are hidden from the grid.
var VisibleColumns = []string{"title", "source", "total_time", "calories", "reviews", "ratings"}

// RecipeContent is the uniform record parsed from a recipe page's JSON-LD.
// Every field may be empty; partial fills are valid.
type RecipeContent struct {
	URL          string            `json:"url,omitempty"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Author       string            `json:"author,omitempty"`
	Image        string            `json:"image,omitempty"`
	Servings     string            `json:"servings,omitempty"`
	Ingredients  []string          `json:"ingredients,omitempty"`
	Instructions string            `json:"instructions,omitempty"`
	Nutrition    map[string]string `json:"nutrition,omitempty"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CoercionError records a scraped value that could not be coerced to its
// column type.
type CoercionError struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
	Value string `json:"value"`
}

func (e CoercionError) Error() string {
	return fmt.Sprintf("row %d: cannot coerce %s %q", e.Row, e.Field, e.Value)
}
