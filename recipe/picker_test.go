package recipe

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/use-agent/producerecipe/models"
	"github.com/use-agent/producerecipe/retry"
)

// scriptedFetcher fails the first failures calls and then serves a recipe
// named after the requested URL.
type scriptedFetcher struct {
	failures int
	calls    int
	urls     []string
}

func (f *scriptedFetcher) FetchStructuredData(_ context.Context, url string) (any, error) {
	f.calls++
	f.urls = append(f.urls, url)
	switch {
	case f.calls > f.failures:
		return map[string]any{
			"name": "recipe at " + url, "description": "d", "author": map[string]any{"name": "a"},
			"image": "i", "recipeIngredient": []any{"x"}, "recipeInstructions": []any{"y"},
		}, nil
	case f.calls%3 == 0:
		return nil, models.NewScrapeError(models.ErrCodeFetchFailed, "boom", nil)
	case f.calls%3 == 1:
		return nil, nil
	default:
		return map[string]any{"name": "partial"}, nil
	}
}

func tableRows(n int) []models.NormalizedRecipeRow {
	rows := make([]models.NormalizedRecipeRow, n)
	for i := range rows {
		rows[i] = models.NormalizedRecipeRow{Title: fmt.Sprintf("r%d", i), Link: fmt.Sprintf("https://example.com/%d", i)}
	}
	return rows
}

func newTestPicker(f StructuredDataFetcher, seed uint64) *Picker {
	return &Picker{
		Fetcher:     f,
		Rand:        rand.New(rand.NewPCG(seed, seed)),
		MaxAttempts: 20,
		PoolSize:    100,
	}
}

func TestPick_SucceedsOnTwentiethAttempt(t *testing.T) {
	f := &scriptedFetcher{failures: 19}
	p := newTestPicker(f, 1)

	rc, err := p.Pick(context.Background(), tableRows(5))
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if f.calls != 20 {
		t.Errorf("calls = %d, want 20", f.calls)
	}
	if rc.URL != f.urls[19] || rc.Name != "recipe at "+f.urls[19] {
		t.Errorf("recipe = %+v, want the twentieth candidate", rc)
	}
}

func TestPick_ExhaustedAfterTwentyFailures(t *testing.T) {
	f := &scriptedFetcher{failures: 1000}
	p := newTestPicker(f, 1)

	_, err := p.Pick(context.Background(), tableRows(5))
	if !errors.Is(err, ErrExhausted) || !errors.Is(err, retry.ErrExhausted) {
		t.Fatalf("Pick error = %v, want ErrExhausted", err)
	}
	if f.calls != 20 {
		t.Errorf("calls = %d, want 20", f.calls)
	}
}

func TestPick_EmptyTable(t *testing.T) {
	f := &scriptedFetcher{}
	_, err := newTestPicker(f, 1).Pick(context.Background(), nil)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("Pick error = %v, want ErrExhausted", err)
	}
	if f.calls != 0 {
		t.Errorf("calls = %d, want 0", f.calls)
	}
}

func TestPick_SamplesOnlyThePool(t *testing.T) {
	f := &scriptedFetcher{failures: 1000}
	p := newTestPicker(f, 7)
	p.PoolSize = 2

	_, _ = p.Pick(context.Background(), tableRows(10))
	for _, u := range f.urls {
		if u != "https://example.com/0" && u != "https://example.com/1" {
			t.Fatalf("sampled %s outside the pool", u)
		}
	}
}

func TestPick_SeededSelectionIsDeterministic(t *testing.T) {
	first := &scriptedFetcher{failures: 1000}
	second := &scriptedFetcher{failures: 1000}

	_, _ = newTestPicker(first, 42).Pick(context.Background(), tableRows(50))
	_, _ = newTestPicker(second, 42).Pick(context.Background(), tableRows(50))

	if !reflect.DeepEqual(first.urls, second.urls) {
		t.Errorf("same seed sampled different candidates:\n%v\n%v", first.urls, second.urls)
	}
}

func TestPick_SkipsRowsWithoutLink(t *testing.T) {
	f := &scriptedFetcher{}
	rows := []models.NormalizedRecipeRow{{Title: "no link"}}

	_, err := newTestPicker(f, 1).Pick(context.Background(), rows)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("Pick error = %v, want ErrExhausted", err)
	}
	if f.calls != 0 {
		t.Errorf("calls = %d, want 0", f.calls)
	}
}

func TestPick_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPicker(&scriptedFetcher{}, 1).Pick(ctx, tableRows(3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Pick error = %v, want context.Canceled", err)
	}
}
