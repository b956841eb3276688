package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/producerecipe/cache"
	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/models"
	"github.com/use-agent/producerecipe/recipe"
	"github.com/use-agent/producerecipe/search"
)

func init() { gin.SetMode(gin.TestMode) }

// --- fakes ---

type fakeClassifier struct{}

func (fakeClassifier) Classify(_ context.Context, filename string, image []byte) (models.PredictionRecord, error) {
	if string(image) == "not an image" {
		return models.PredictionRecord{}, models.NewScrapeError(models.ErrCodeUnsupportedImage, filename+" is not an image", nil)
	}
	return models.PredictionRecord{Filename: filename, Label: string(image), Probability: 0.9, Confidence: models.ConfidenceHigh}, nil
}

type fakeSearcher struct {
	results []models.RawSearchResult
	err     error
	calls   int
	last    search.Query
	engine  models.Engine
}

func (s *fakeSearcher) Search(_ context.Context, engine models.Engine, q search.Query) ([]models.RawSearchResult, error) {
	s.calls++
	s.engine, s.last = engine, q
	return s.results, s.err
}

type fakeFetcher struct {
	pages map[string]*recipe.Page
}

func (f *fakeFetcher) FetchPage(_ context.Context, url string) (*recipe.Page, error) {
	if p, ok := f.pages[url]; ok {
		return p, nil
	}
	return nil, models.NewScrapeError(models.ErrCodeFetchFailed, "recipe page returned HTTP 404", nil)
}

func (f *fakeFetcher) FetchStructuredData(ctx context.Context, url string) (any, error) {
	p, err := f.FetchPage(ctx, url)
	if err != nil {
		return nil, err
	}
	return p.StructuredData, nil
}

// --- helpers ---

func serve(h gin.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(req.Method, req.URL.Path, h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(t *testing.T, h gin.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return serve(h, req)
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body, err)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	decodeInto(t, w, &body)
	if body.Success || body.Error == nil {
		t.Fatalf("expected error body, got %s", w.Body)
	}
	return body.Error.Code
}

func raw(title, link, reviews string) models.RawSearchResult {
	r := models.RawSearchResult{Title: models.StringPtr(title), Link: models.StringPtr(link), Image: models.StringPtr(title + ".jpg")}
	if reviews != "" {
		r.Reviews = models.StringPtr(reviews)
	}
	return r
}

func testScraperConfig() config.ScraperConfig {
	return config.ScraperConfig{DefaultLimit: 15}
}

// --- classify ---

func multipartRequest(t *testing.T, field string, files map[string]string, order []string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range order {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = fw.Write([]byte(files[name]))
	}
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/classify", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestClassify(t *testing.T) {
	files := map[string]string{"b.jpg": "banana", "a.jpg": "apple"}
	w := serve(Classify(fakeClassifier{}), multipartRequest(t, "images[]", files, []string{"b.jpg", "a.jpg"}))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var resp models.ClassifyResponse
	decodeInto(t, w, &resp)
	if len(resp.Predictions) != 2 || resp.Predictions[0].Label != "banana" || resp.Predictions[1].Filename != "a.jpg" {
		t.Errorf("predictions = %+v", resp.Predictions)
	}
}

func TestClassify_Errors(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		wantCode int
		wantErr  string
	}{
		{"no files", func(t *testing.T) *http.Request {
			return multipartRequest(t, "other", map[string]string{"x": "y"}, []string{"x"})
		}, http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"not multipart", func(t *testing.T) *http.Request {
			return httptest.NewRequest(http.MethodPost, "/classify", bytes.NewBufferString("{}"))
		}, http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"bad image", func(t *testing.T) *http.Request {
			return multipartRequest(t, "images", map[string]string{"x.txt": "not an image"}, []string{"x.txt"})
		}, http.StatusUnsupportedMediaType, models.ErrCodeUnsupportedImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(Classify(fakeClassifier{}), tt.req(t))
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body)
			}
			if code := errorCode(t, w); code != tt.wantErr {
				t.Errorf("code = %s, want %s", code, tt.wantErr)
			}
		})
	}
}

// --- search ---

func TestSearchRecipes_SortsAndCaches(t *testing.T) {
	s := &fakeSearcher{results: []models.RawSearchResult{
		raw("a", "https://x/a", "50 reviews"),
		raw("b", "https://x/b", ""),
		raw("c", "https://x/c", "(200)"),
		raw("d", "https://x/d", "10"),
		raw("e", "https://x/e", "1"),
		raw("f", "https://x/f", "2"),
		raw("g", "https://x/g", "3"),
	}}
	cc := cache.New(8, time.Hour)
	defer cc.Close()
	h := SearchRecipes(s, cc, testScraperConfig())
	body := map[string]any{"labels": []string{"eggplant", " ", "capsicum"}, "cuisine": "Indian", "sort": "Popularity"}

	w := postJSON(t, h, body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var resp models.SearchResponse
	decodeInto(t, w, &resp)

	var titles []string
	for _, r := range resp.Rows {
		titles = append(titles, r.Title)
	}
	if want := []string{"c", "a", "d", "g", "f", "e"}; !reflect.DeepEqual(titles, want) {
		t.Errorf("titles = %v, want %v", titles, want)
	}
	if len(resp.Sample) != sampleSize || resp.Sample[0] != (models.SampleItem{Title: "a", Image: "a.jpg"}) {
		t.Errorf("sample = %+v", resp.Sample)
	}
	if resp.CacheStatus != "miss" || resp.Query != "eggplant capsicum Indian vegetarian recipe" {
		t.Errorf("cache = %q, query = %q", resp.CacheStatus, resp.Query)
	}
	if s.engine != models.EngineGoogle || s.last.Limit != 0 {
		t.Errorf("engine = %s, limit = %d", s.engine, s.last.Limit)
	}

	w = postJSON(t, h, body)
	decodeInto(t, w, &resp)
	if resp.CacheStatus != "hit" || s.calls != 1 {
		t.Errorf("second call: cache = %q, searcher calls = %d", resp.CacheStatus, s.calls)
	}

	body["no_cache"] = true
	_ = postJSON(t, h, body)
	if s.calls != 2 {
		t.Errorf("no_cache did not rescrape: calls = %d", s.calls)
	}
}

func TestSearchRecipes_LabelsFromPredictions(t *testing.T) {
	preds := []models.PredictionRecord{
		{Filename: "1.jpg", Label: "eggplant", Probability: 0.9},
		{Filename: "2.jpg", Label: "banana", Probability: 0.1},
	}

	tests := []struct {
		name      string
		ignoreLow *bool
		want      []string
	}{
		{"default drops low", nil, []string{"eggplant"}},
		{"keep low", new(bool), []string{"eggplant", "banana"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSearcher{}
			body := map[string]any{"predictions": preds, "engine": "Bing"}
			if tt.ignoreLow != nil {
				body["ignore_low"] = *tt.ignoreLow
			}
			w := postJSON(t, SearchRecipes(s, nil, testScraperConfig()), body)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", w.Code, w.Body)
			}
			if !reflect.DeepEqual(s.last.Terms, tt.want) {
				t.Errorf("terms = %v, want %v", s.last.Terms, tt.want)
			}
			if s.engine != models.EngineBing || s.last.Limit != 15 {
				t.Errorf("engine = %s, limit = %d", s.engine, s.last.Limit)
			}
		})
	}
}

func TestSearchRecipes_Errors(t *testing.T) {
	timeout := models.NewScrapeError(models.ErrCodeTimeout, "search pagination interrupted", context.DeadlineExceeded)

	tests := []struct {
		name     string
		body     map[string]any
		err      error
		wantCode int
		wantErr  string
	}{
		{"no labels", map[string]any{}, nil, http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"only low predictions", map[string]any{"predictions": []models.PredictionRecord{{Label: "x", Probability: 0.2}}}, nil, http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"unknown engine", map[string]any{"labels": []string{"x"}, "engine": "Yahoo"}, nil, http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"limit too large", map[string]any{"labels": []string{"x"}, "engine": "Bing", "limit": 505}, nil, http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"scrape timeout", map[string]any{"labels": []string{"x"}}, timeout, http.StatusGatewayTimeout, models.ErrCodeTimeout},
		{"plain error", map[string]any{"labels": []string{"x"}}, errors.New("boom"), http.StatusInternalServerError, models.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, SearchRecipes(&fakeSearcher{err: tt.err}, nil, testScraperConfig()), tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body)
			}
			if code := errorCode(t, w); code != tt.wantErr {
				t.Errorf("code = %s, want %s", code, tt.wantErr)
			}
		})
	}
}

// --- recipe content ---

var bhartaData = map[string]any{
	"@type": "Recipe", "name": "Baingan Bharta", "description": "Smoky.",
	"author": map[string]any{"name": "Swasthi"}, "image": "https://img/b.jpg",
	"recipeIngredient":   []any{"1 eggplant"},
	"recipeInstructions": []any{map[string]any{"@type": "HowToStep", "text": "Roast."}},
}

func testFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]*recipe.Page{
		"https://example.com/bharta":  {URL: "https://example.com/bharta", StructuredData: bhartaData},
		"https://example.com/partial": {URL: "https://example.com/partial", StructuredData: map[string]any{"name": "Partial"}},
		"https://example.com/plain":   {URL: "https://example.com/plain", HTML: "<html><body><p>Nothing here.</p></body></html>"},
	}}
}

func TestRecipeContent(t *testing.T) {
	tests := []struct {
		url         string
		wantFound   bool
		wantSuccess bool
		wantName    string
	}{
		{"https://example.com/bharta", true, true, "Baingan Bharta"},
		{"https://example.com/partial", true, false, "Partial"},
		{"https://example.com/plain", false, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			w := postJSON(t, RecipeContent(testFetcher()), map[string]any{"url": tt.url})
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", w.Code, w.Body)
			}
			var resp models.RecipeResponse
			decodeInto(t, w, &resp)
			if resp.Found != tt.wantFound || resp.Success != tt.wantSuccess {
				t.Errorf("found = %v, success = %v", resp.Found, resp.Success)
			}
			if tt.wantName == "" {
				if resp.Recipe != nil {
					t.Errorf("recipe = %+v, want none", resp.Recipe)
				}
				return
			}
			if resp.Recipe == nil || resp.Recipe.Name != tt.wantName || resp.Recipe.URL != tt.url {
				t.Errorf("recipe = %+v", resp.Recipe)
			}
		})
	}
}

func TestRecipeContent_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]any
		wantCode int
	}{
		{"missing url", map[string]any{}, http.StatusBadRequest},
		{"not a url", map[string]any{"url": "eggplant"}, http.StatusBadRequest},
		{"fetch failure", map[string]any{"url": "https://example.com/gone"}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := postJSON(t, RecipeContent(testFetcher()), tt.body); w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body)
			}
		})
	}
}

// --- random recipe ---

func TestRandomRecipe(t *testing.T) {
	rcfg := config.RecipeConfig{MaxAttempts: 20, PoolSize: 100}
	rows := []models.NormalizedRecipeRow{
		{Title: "gone", Link: "https://example.com/gone"},
		{Title: "bharta", Link: "https://example.com/bharta"},
	}

	w := postJSON(t, RandomRecipe(testFetcher(), rcfg), map[string]any{"rows": rows, "seed": 7})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var resp models.RecipeResponse
	decodeInto(t, w, &resp)
	if resp.Recipe == nil || resp.Recipe.Name != "Baingan Bharta" || resp.Markdown == "" {
		t.Errorf("response = %+v", resp)
	}

	w = postJSON(t, RandomRecipe(testFetcher(), rcfg), map[string]any{"rows": rows[:1]})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", w.Code, w.Body)
	}
	if code := errorCode(t, w); code != models.ErrCodeRecipeExhausted {
		t.Errorf("code = %s", code)
	}

	w = postJSON(t, RandomRecipe(testFetcher(), rcfg), map[string]any{"rows": []models.NormalizedRecipeRow{}})
	if code := errorCode(t, w); code != models.ErrCodeRecipeExhausted {
		t.Errorf("empty table code = %s", code)
	}
}

func TestMapErrorToStatus(t *testing.T) {
	tests := map[string]int{
		models.ErrCodeTimeout:          http.StatusGatewayTimeout,
		models.ErrCodeNavigation:       http.StatusBadGateway,
		models.ErrCodeFetchFailed:      http.StatusBadGateway,
		models.ErrCodeClassifyFailed:   http.StatusBadGateway,
		models.ErrCodeInvalidInput:     http.StatusBadRequest,
		models.ErrCodeUnsupportedImage: http.StatusUnsupportedMediaType,
		models.ErrCodeRecipeExhausted:  http.StatusUnprocessableEntity,
		models.ErrCodeWorkflowOrder:    http.StatusConflict,
		models.ErrCodeRateLimited:      http.StatusTooManyRequests,
		models.ErrCodeUnauthorized:     http.StatusUnauthorized,
		models.ErrCodeBrowserCrash:     http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := mapErrorToStatus(models.NewScrapeError(code, "", nil)); got != want {
			t.Errorf("%s -> %d, want %d", code, got, want)
		}
	}
}

func TestSearchRecipes_AcceptsFullBingLimitRange(t *testing.T) {
	for _, limit := range []int{15, 205, 500} {
		s := &fakeSearcher{}
		body := map[string]any{"labels": []string{"eggplant"}, "engine": "Bing", "limit": limit}
		w := postJSON(t, SearchRecipes(s, nil, testScraperConfig()), body)
		if w.Code != http.StatusOK {
			t.Fatalf("limit %d: status = %d: %s", limit, w.Code, w.Body)
		}
		if s.last.Limit != limit {
			t.Errorf("limit %d: searched with %d", limit, s.last.Limit)
		}
	}
}
