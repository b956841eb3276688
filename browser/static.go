package browser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Static is a Page over fixed HTML. Nothing on it is clickable and scrolling
// never loads more content, so pagination loops terminate on their first
// iteration. It backs selector contract tests against saved result pages.
type Static struct {
	doc *goquery.Document

	// Visited records every URL passed to Navigate.
	Visited []string
	closed  bool
}

var _ Page = (*Static)(nil)

// NewStatic parses an HTML document.
func NewStatic(r io.Reader) (*Static, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("browser: parse static html: %w", err)
	}
	return &Static{doc: doc}, nil
}

// LoadStatic reads an HTML fixture from disk.
func LoadStatic(path string) (*Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewStatic(f)
}

func (s *Static) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return categorizeError(err, "navigation canceled")
	}
	s.Visited = append(s.Visited, url)
	return nil
}

func (s *Static) Find(sel string) (Element, bool) {
	return findFirst(s.doc.Selection, sel)
}

func (s *Static) FindAll(sel string) []Element {
	return findAll(s.doc.Selection, sel)
}

func (s *Static) WaitUntilClickable(Element, time.Duration) error {
	return fmt.Errorf("%w: static page", ErrNotClickable)
}

func (s *Static) ScrollBy(int) error { return nil }

func (s *Static) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *Static) Closed() bool { return s.closed }

type staticElement struct {
	sel *goquery.Selection
}

func (e *staticElement) Text() (string, error) {
	if e.sel.Length() == 0 {
		return "", nil
	}
	return innerText(e.sel.Nodes[0]), nil
}

func (e *staticElement) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *staticElement) Find(sel string) (Element, bool) {
	return findFirst(e.sel, sel)
}

func (e *staticElement) FindAll(sel string) []Element {
	return findAll(e.sel, sel)
}

func (e *staticElement) Click() error {
	return fmt.Errorf("%w: static page", ErrNotClickable)
}

func findFirst(root *goquery.Selection, sel string) (Element, bool) {
	found := root.Find(sel).First()
	if found.Length() == 0 {
		return nil, false
	}
	return &staticElement{sel: found}, true
}

func findAll(root *goquery.Selection, sel string) []Element {
	var out []Element
	root.Find(sel).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &staticElement{sel: s})
	})
	return out
}

// blockTags start a new line in rendered text.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "pre": true,
	"section": true, "table": true, "tr": true, "ul": true,
}

var hiddenTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

// innerText approximates the browser's innerText: whitespace runs collapse to
// one space, block elements break lines, empty lines are dropped.
func innerText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if hiddenTags[n.Data] {
				return
			}
			if blockTags[n.Data] {
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			b.WriteByte('\n')
		}
	}
	walk(n)

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
