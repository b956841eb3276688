package models

// SearchRequest is the payload for POST /api/v1/recipes/search.
type SearchRequest struct {
	// Labels are the produce names to search for. When empty, the labels of
	// Predictions are used instead.
	Labels []string `json:"labels,omitempty"`

	// Predictions are classifier outputs, typically from /classify.
	Predictions []PredictionRecord `json:"predictions,omitempty"`

	// IgnoreLow drops Low-confidence predictions before searching.
	// Default: true. Has no effect on Labels.
	IgnoreLow *bool `json:"ignore_low,omitempty"`

	// Cuisine is injected into the query unless "Any".
	// Allowed: "Any" (default), "Indian", "Mexican", "Chinese", "Italian".
	Cuisine string `json:"cuisine,omitempty" binding:"omitempty,oneof=Any Indian Mexican Chinese Italian"`

	// Engine selects the search engine. Allowed: "Google" (default), "Bing".
	Engine string `json:"engine,omitempty" binding:"omitempty,oneof=Google Bing"`

	// Limit caps the number of Bing results. Ignored for Google.
	// Default: the configured limit (15). Max: 500.
	Limit int `json:"limit,omitempty" binding:"omitempty,min=1,max=500"`

	// Sort orders the table. Allowed: "None" (default), "Popularity",
	// "Calories", "Time".
	Sort string `json:"sort,omitempty" binding:"omitempty,oneof=None Popularity Calories Time"`

	// NoCache forces a fresh scrape even when a cached result exists.
	NoCache bool `json:"no_cache,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *SearchRequest) Defaults() {
	if r.IgnoreLow == nil {
		t := true
		r.IgnoreLow = &t
	}
	if r.Cuisine == "" {
		r.Cuisine = string(CuisineAny)
	}
	if r.Engine == "" {
		r.Engine = string(EngineGoogle)
	}
	if r.Sort == "" {
		r.Sort = string(SortNone)
	}
}

// ContentRequest is the payload for POST /api/v1/recipes/content.
type ContentRequest struct {
	// URL is the recipe page to read. Required.
	URL string `json:"url" binding:"required,url"`
}

// RandomRequest is the payload for POST /api/v1/recipes/random.
type RandomRequest struct {
	// Rows is the normalised table to sample from, usually the rows of a
	// previous search response.
	Rows []NormalizedRecipeRow `json:"rows"`

	// Seed makes the candidate sequence reproducible when set.
	Seed *uint64 `json:"seed,omitempty"`
}
