// Package normalize turns raw result cards into typed, sortable table rows.
// Every coercion is per field: an unparsable value nulls that field only, and
// a row is dropped only when it lacks the value the active sort key needs.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/use-agent/producerecipe/models"
)

var (
	hourRe    = regexp.MustCompile(`(\d+)\s+hr`)
	minuteRe  = regexp.MustCompile(`(\d+)\s+min`)
	leadingRe = regexp.MustCompile(`^\d*`)
)

// CoercionError records a value that could not be coerced. The row keeps a
// nil value for the field.
type CoercionError = models.CoercionError

// Table is the normalised result set.
type Table struct {
	Rows   []models.NormalizedRecipeRow `json:"rows"`
	Issues []CoercionError              `json:"issues,omitempty"`
}

// Normalize coerces every raw card and orders the rows by key. Row indexes in
// Issues refer to positions in raw. The input is not modified.
func Normalize(raw []models.RawSearchResult, key models.SortKey) Table {
	var t Table
	rows := make([]models.NormalizedRecipeRow, 0, len(raw))
	for i, r := range raw {
		row := models.NormalizedRecipeRow{
			Title:            models.Deref(r.Title),
			Link:             models.Deref(r.Link),
			Image:            models.Deref(r.Image),
			Source:           models.Deref(r.Source),
			TotalTimeMinutes: ParseDuration(r.TotalTime),
			Calories:         ParseCalories(r.Calories),
			Reviews:          ParseReviews(r.Reviews),
		}
		rating, err := ParseRating(r.Ratings)
		if err != nil {
			t.Issues = append(t.Issues, CoercionError{Row: i, Field: "ratings", Value: *r.Ratings})
		}
		row.Ratings = rating
		rows = append(rows, row)
	}
	t.Rows = sortRows(rows, key)
	return t
}

// ParseDuration converts "1 hr 5 min" style text to minutes. A missing hour
// or minute component counts as zero; when both are missing the result is nil.
func ParseDuration(s *string) *int {
	if s == nil {
		return nil
	}
	h, hasH := firstInt(hourRe, *s)
	m, hasM := firstInt(minuteRe, *s)
	if !hasH && !hasM {
		return nil
	}
	total := h*60 + m
	return &total
}

func firstInt(re *regexp.Regexp, s string) (int, bool) {
	match := re.FindStringSubmatch(s)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseCalories takes the leading run of digits ("250 cals" is 250).
func ParseCalories(s *string) *int {
	if s == nil {
		return nil
	}
	digits := leadingRe.FindString(strings.TrimSpace(*s))
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

// ParseReviews reads the first token of "(1.2K)", "250 reviews" or "1,024"
// as an integer, scaling a trailing K by a thousand.
func ParseReviews(s *string) *int {
	if s == nil {
		return nil
	}
	fields := strings.Fields(*s)
	if len(fields) == 0 {
		return nil
	}
	tok := strings.NewReplacer("(", "", ")", "", ",", "").Replace(fields[0])

	scale := 1.0
	if strings.HasSuffix(tok, "K") || strings.HasSuffix(tok, "k") {
		scale = 1000
		tok = tok[:len(tok)-1]
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f*scale > math.MaxInt32 {
		return nil
	}
	n := int(math.Round(f * scale))
	return &n
}

// ParseRating coerces a rating to float. Missing or blank input is nil
// without error; any other non-numeric text is an error.
func ParseRating(s *string) (*float64, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("normalize: rating %q is not numeric", *s)
	}
	return &f, nil
}

// sortRows orders rows by key, dropping rows that lack the key's value.
// Equal keys keep their extraction order.
func sortRows(rows []models.NormalizedRecipeRow, key models.SortKey) []models.NormalizedRecipeRow {
	var field func(models.NormalizedRecipeRow) *int
	desc := false

	switch key {
	case models.SortPopularity:
		field = func(r models.NormalizedRecipeRow) *int { return r.Reviews }
		desc = true
	case models.SortCalories:
		field = func(r models.NormalizedRecipeRow) *int { return r.Calories }
		if !anyPresent(rows, field) {
			return rows
		}
	case models.SortTime:
		field = func(r models.NormalizedRecipeRow) *int { return r.TotalTimeMinutes }
	default:
		return rows
	}

	kept := rows[:0:0]
	for _, r := range rows {
		if field(r) != nil {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := *field(kept[i]), *field(kept[j])
		if desc {
			return a > b
		}
		return a < b
	})
	return kept
}

func anyPresent(rows []models.NormalizedRecipeRow, field func(models.NormalizedRecipeRow) *int) bool {
	for _, r := range rows {
		if field(r) != nil {
			return true
		}
	}
	return false
}
