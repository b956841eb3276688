package models

// ClassifyResponse is the response for POST /api/v1/classify.
type ClassifyResponse struct {
	Success bool `json:"success"`

	// Predictions holds one record per uploaded image, in upload order.
	Predictions []PredictionRecord `json:"predictions"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// SearchResponse is the response for POST /api/v1/recipes/search.
type SearchResponse struct {
	Success bool `json:"success"`

	// Query is the search text sent to the engine.
	Query string `json:"query,omitempty"`

	// Rows is the normalised, sorted table.
	Rows []NormalizedRecipeRow `json:"rows"`

	// Columns lists the table columns meant for display.
	Columns []string `json:"columns,omitempty"`

	// Issues lists values that could not be coerced. Their fields are null.
	Issues []CoercionError `json:"issues,omitempty"`

	// Sample is the preview grid: the first raw results' title and image.
	Sample []SampleItem `json:"sample,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the scrape was served from cache.
	// Values: "hit", "miss", or empty (caching bypassed).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// SampleItem is one preview grid cell.
type SampleItem struct {
	Title string `json:"title,omitempty"`
	Image string `json:"image,omitempty"`
}

// RecipeResponse is the response for POST /api/v1/recipes/content and
// POST /api/v1/recipes/random.
type RecipeResponse struct {
	Success bool `json:"success"`

	// Found reports whether the page carried structured recipe data.
	Found bool `json:"found"`

	// Recipe holds whatever fields could be read, even on a partial parse.
	Recipe *RecipeContent `json:"recipe,omitempty"`

	// Markdown is Recipe rendered for display.
	Markdown string `json:"markdown,omitempty"`

	// Preview summarises a page that has no structured data.
	Preview *PagePreview `json:"preview,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// PagePreview is the readable summary of a page without structured data.
type PagePreview struct {
	Title    string `json:"title,omitempty"`
	Excerpt  string `json:"excerpt,omitempty"`
	SiteName string `json:"site_name,omitempty"`
	Byline   string `json:"byline,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// ScrapeMs is the time spent driving the browser or the model server.
	ScrapeMs int64 `json:"scrape_ms,omitempty"`

	// FetchMs is the time spent downloading recipe pages.
	FetchMs int64 `json:"fetch_ms,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string `json:"status"` // "healthy" or "degraded"
	Uptime       string `json:"uptime"`
	Classes      int    `json:"classes"`
	CacheEntries int    `json:"cache_entries"`
	Version      string `json:"version"`
}

// ErrorResponse is the body of middleware rejections.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
