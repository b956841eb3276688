package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the minimum TextContent length for a readability
// result to count as a real article.
const minContentLength = 50

// maxExcerptLength caps the preview excerpt.
const maxExcerptLength = 400

// Preview summarises a recipe page that carries no structured data.
type Preview struct {
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt,omitempty"`
	SiteName string `json:"site_name,omitempty"`
	Byline   string `json:"byline,omitempty"`
}

// BuildPreview runs Readability on rawHTML. It returns false when the page
// has no recognisable main content.
func BuildPreview(rawHTML, sourceURL string) (Preview, bool) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Debug("readability: invalid source URL", "url", sourceURL, "error", err)
		return Preview{}, false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Debug("readability: extraction failed", "url", sourceURL, "error", err)
		return Preview{}, false
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) < minContentLength {
		return Preview{}, false
	}

	excerpt := CollapseSpace(article.Excerpt)
	if excerpt == "" {
		excerpt = CollapseSpace(text)
	}
	if r := []rune(excerpt); len(r) > maxExcerptLength {
		excerpt = strings.TrimSpace(string(r[:maxExcerptLength])) + "…"
	}

	return Preview{
		Title:    CollapseSpace(article.Title),
		Excerpt:  excerpt,
		SiteName: article.SiteName,
		Byline:   article.Byline,
	}, true
}
