package normalize

import (
	"reflect"
	"testing"

	"github.com/use-agent/producerecipe/models"
)

func sp(s string) *string { return &s }

func intVal(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   *string
		want any
	}{
		{sp("1 hr 5 min"), 65},
		{sp("2 hrs 30 mins"), 150},
		{sp("45 min"), 45},
		{sp("1 hr"), 60},
		{sp("Prep 10 min, cook 1 hr"), 70},
		{sp("quick"), nil},
		{sp(""), nil},
		{nil, nil},
	}
	for _, tt := range tests {
		name := "<nil>"
		if tt.in != nil {
			name = *tt.in
		}
		t.Run(name, func(t *testing.T) {
			if got := intVal(ParseDuration(tt.in)); got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", name, got, tt.want)
			}
		})
	}
}

func TestParseCalories(t *testing.T) {
	tests := []struct {
		in   *string
		want any
	}{
		{sp("250 cals"), 250},
		{sp("1200cals"), 1200},
		{sp("cals 250"), nil},
		{sp(""), nil},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := intVal(ParseCalories(tt.in)); got != tt.want {
			t.Errorf("ParseCalories(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseReviews(t *testing.T) {
	tests := []struct {
		in   *string
		want any
	}{
		{sp("(310)"), 310},
		{sp("250 reviews"), 250},
		{sp("1.2K"), 1200},
		{sp("(1.2K)"), 1200},
		{sp("3k reviews"), 3000},
		{sp("1,024 reviews"), 1024},
		{sp("reviews"), nil},
		{sp("1e30"), nil},
		{sp("99999999K"), nil},
		{sp("-5"), nil},
		{sp("(-1.2K)"), nil},
		{sp("   "), nil},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := intVal(ParseReviews(tt.in)); got != tt.want {
			t.Errorf("ParseReviews(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseRating(t *testing.T) {
	got, err := ParseRating(sp("4.5"))
	if err != nil || got == nil || *got != 4.5 {
		t.Errorf("ParseRating(4.5) = %v, %v", got, err)
	}
	if got, err := ParseRating(nil); got != nil || err != nil {
		t.Errorf("ParseRating(nil) = %v, %v; want nil, nil", got, err)
	}
	if got, err := ParseRating(sp("five")); got != nil || err == nil {
		t.Errorf("ParseRating(five) = %v, %v; want nil, error", got, err)
	}
}

func reviewsRow(title string, reviews *string) models.RawSearchResult {
	return models.RawSearchResult{Title: sp(title), Reviews: reviews}
}

func titles(rows []models.NormalizedRecipeRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Title
	}
	return out
}

func TestNormalize_SortPopularity(t *testing.T) {
	raw := []models.RawSearchResult{
		reviewsRow("a", sp("50 reviews")),
		reviewsRow("b", nil),
		reviewsRow("c", sp("(200)")),
		reviewsRow("d", sp("10 reviews")),
	}
	got := Normalize(raw, models.SortPopularity)

	if want := []string{"c", "a", "d"}; !reflect.DeepEqual(titles(got.Rows), want) {
		t.Errorf("order = %v, want %v", titles(got.Rows), want)
	}
}

func TestNormalize_SortTimeStable(t *testing.T) {
	raw := []models.RawSearchResult{
		{Title: sp("slow"), TotalTime: sp("1 hr")},
		{Title: sp("first 30"), TotalTime: sp("30 min")},
		{Title: sp("none")},
		{Title: sp("second 30"), TotalTime: sp("30 min")},
	}
	got := Normalize(raw, models.SortTime)

	if want := []string{"first 30", "second 30", "slow"}; !reflect.DeepEqual(titles(got.Rows), want) {
		t.Errorf("order = %v, want %v", titles(got.Rows), want)
	}
}

func TestNormalize_SortCalories(t *testing.T) {
	raw := []models.RawSearchResult{
		{Title: sp("a"), Calories: sp("300 cals")},
		{Title: sp("b")},
		{Title: sp("c"), Calories: sp("120 cals")},
	}
	got := Normalize(raw, models.SortCalories)
	if want := []string{"c", "a"}; !reflect.DeepEqual(titles(got.Rows), want) {
		t.Errorf("order = %v, want %v", titles(got.Rows), want)
	}

	// Google results carry no calorie data: the sort is skipped entirely.
	noCalories := []models.RawSearchResult{{Title: sp("x")}, {Title: sp("y")}}
	got = Normalize(noCalories, models.SortCalories)
	if want := []string{"x", "y"}; !reflect.DeepEqual(titles(got.Rows), want) {
		t.Errorf("order = %v, want %v", titles(got.Rows), want)
	}
}

func TestNormalize_NoneKeepsEveryRow(t *testing.T) {
	raw := []models.RawSearchResult{
		{Title: sp("b"), TotalTime: sp("1 hr")},
		{Title: sp("a")},
	}
	got := Normalize(raw, models.SortNone)
	if want := []string{"b", "a"}; !reflect.DeepEqual(titles(got.Rows), want) {
		t.Errorf("order = %v, want %v", titles(got.Rows), want)
	}
	if got.Rows[1].TotalTimeMinutes != nil {
		t.Error("row without duration should keep a nil duration")
	}
}

func TestNormalize_BadRatingRecorded(t *testing.T) {
	raw := []models.RawSearchResult{
		{Title: sp("ok"), Ratings: sp("4.5")},
		{Title: sp("bad"), Ratings: sp("n/a")},
	}
	got := Normalize(raw, models.SortNone)

	if len(got.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(got.Rows))
	}
	if got.Rows[1].Ratings != nil {
		t.Error("bad rating should be nil")
	}
	want := []CoercionError{{Row: 1, Field: "ratings", Value: "n/a"}}
	if !reflect.DeepEqual(got.Issues, want) {
		t.Errorf("issues = %+v, want %+v", got.Issues, want)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := []models.RawSearchResult{
		{Title: sp("a"), Reviews: sp("1.2K"), TotalTime: sp("1 hr 5 min"), Ratings: sp("4.1")},
		{Title: sp("b"), Reviews: sp("(7)"), Calories: sp("90 cals")},
		{Title: sp("c"), Reviews: sp("1.2K")},
	}
	for _, key := range []models.SortKey{models.SortNone, models.SortPopularity, models.SortCalories, models.SortTime} {
		first := Normalize(raw, key)
		second := Normalize(raw, key)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Normalize(%s) is not idempotent", key)
		}
	}
}

func TestNormalize_PopularityDropsOutOfRangeReviews(t *testing.T) {
	raw := []models.RawSearchResult{
		reviewsRow("huge", sp("1e30")),
		reviewsRow("negative", sp("-5")),
		reviewsRow("real", sp("(12)")),
	}
	got := titles(Normalize(raw, models.SortPopularity).Rows)
	if len(got) != 1 || got[0] != "real" {
		t.Errorf("Popularity rows = %v, want [real]", got)
	}
}
