package search

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

//go:embed locators.yaml
var defaultLocatorsYAML []byte

// GoogleLocators are the selectors of the Google recipe carousel.
type GoogleLocators struct {
	SearchURL   string `yaml:"search_url"`
	Card        string `yaml:"card"`
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Image       string `yaml:"image"`
	Source      string `yaml:"source"`
	TotalTime   string `yaml:"total_time"`
	Ingredients string `yaml:"ingredients"`
	Ratings     string `yaml:"ratings"`
	Reviews     string `yaml:"reviews"`
	ShowMore    string `yaml:"show_more"`
}

// BingLocators are the selectors of the Bing recipe grid.
type BingLocators struct {
	SearchURL string `yaml:"search_url"`
	Banner    string `yaml:"banner"`
	SeeMore   string `yaml:"see_more"`
	Card      string `yaml:"card"`
	Count     string `yaml:"count"`
	Title     string `yaml:"title"`
	Link      string `yaml:"link"`
	LinkAttr  string `yaml:"link_attr"`
	Image     string `yaml:"image"`
	Tags      string `yaml:"tags"`
	Rating    string `yaml:"rating"`
}

// Locators holds the selector tables of both engines.
type Locators struct {
	Google GoogleLocators `yaml:"google"`
	Bing   BingLocators   `yaml:"bing"`
}

// DefaultLocators returns the embedded selector tables.
func DefaultLocators() (*Locators, error) {
	var l Locators
	if err := yaml.Unmarshal(defaultLocatorsYAML, &l); err != nil {
		return nil, fmt.Errorf("search: parse embedded locators: %w", err)
	}
	return &l, l.Validate()
}

// LoadLocators reads path over the embedded defaults, so an override file
// only needs the keys it changes. An empty path returns the defaults.
func LoadLocators(path string) (*Locators, error) {
	l, err := DefaultLocators()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return l, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("search: read locators: %w", err)
	}
	if err := yaml.Unmarshal(data, l); err != nil {
		return nil, fmt.Errorf("search: parse locators %s: %w", path, err)
	}
	return l, l.Validate()
}

// Validate checks that every selector is present and compiles.
func (l *Locators) Validate() error {
	selectors := []struct{ name, sel string }{
		{"google.card", l.Google.Card},
		{"google.title", l.Google.Title},
		{"google.link", l.Google.Link},
		{"google.image", l.Google.Image},
		{"google.source", l.Google.Source},
		{"google.total_time", l.Google.TotalTime},
		{"google.ingredients", l.Google.Ingredients},
		{"google.ratings", l.Google.Ratings},
		{"google.reviews", l.Google.Reviews},
		{"google.show_more", l.Google.ShowMore},
		{"bing.banner", l.Bing.Banner},
		{"bing.see_more", l.Bing.SeeMore},
		{"bing.card", l.Bing.Card},
		{"bing.count", l.Bing.Count},
		{"bing.title", l.Bing.Title},
		{"bing.link", l.Bing.Link},
		{"bing.image", l.Bing.Image},
		{"bing.tags", l.Bing.Tags},
		{"bing.rating", l.Bing.Rating},
	}
	for _, s := range selectors {
		if s.sel == "" {
			return fmt.Errorf("search: locator %s is empty", s.name)
		}
		if _, err := cascadia.Compile(s.sel); err != nil {
			return fmt.Errorf("search: locator %s %q: %w", s.name, s.sel, err)
		}
	}
	if l.Google.SearchURL == "" || l.Bing.SearchURL == "" {
		return fmt.Errorf("search: search_url is required for both engines")
	}
	if l.Bing.LinkAttr == "" {
		return fmt.Errorf("search: locator bing.link_attr is empty")
	}
	return nil
}
