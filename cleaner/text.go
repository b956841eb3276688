package cleaner

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// mojibakeMarkers are the lead characters UTF-8 sequences turn into when they
// are decoded as Latin-1 (e.g. "·" becomes "Â·").
const mojibakeMarkers = "ÂÃâ"

// NormalizeText repairs Latin-1 mojibake and applies NFKC normalisation so
// that scraped separators and spaces compare equal to their canonical forms.
func NormalizeText(s string) string {
	if s == "" {
		return s
	}
	return norm.NFKC.String(RepairMojibake(s))
}

// RepairMojibake re-decodes text that was UTF-8 but got read as Latin-1. Text
// that does not round-trip cleanly is returned unchanged.
func RepairMojibake(s string) string {
	if !strings.ContainsAny(s, mojibakeMarkers) {
		return s
	}
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil || !utf8.ValidString(raw) || raw == s {
		return s
	}
	return raw
}

// CollapseSpace trims s and collapses every whitespace run to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
