package cleaner

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"golang.org/x/net/html"
)

var (
	convOnce sync.Once
	conv     *converter.Converter
)

// markdownConverter returns the shared, goroutine-safe converter.
func markdownConverter() *converter.Converter {
	convOnce.Do(func() {
		conv = converter.NewConverter(
			converter.WithEscapeMode(converter.EscapeModeDisabled),
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		)
	})
	return conv
}

// HTMLToText turns a structured-data string that may carry markup (recipe
// descriptions and steps often embed <p> or <br>) into plain markdown text.
// Strings without tags only get entities decoded and whitespace trimmed, and
// markdown characters in the source text are never escaped.
func HTMLToText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "<") {
		return html.UnescapeString(s)
	}
	out, err := markdownConverter().ConvertString(s)
	if err != nil {
		slog.Debug("html-to-markdown failed, keeping raw text", "error", err)
		return html.UnescapeString(s)
	}
	return strings.TrimSpace(out)
}
