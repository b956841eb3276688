package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Browser    BrowserConfig
	Scraper    ScraperConfig
	Recipe     RecipeConfig
	Classifier ClassifierConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Cache      CacheConfig
	Log        LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the headless browser launched for each scrape.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is an optional proxy URL for the browser.
	Proxy string

	// Stealth injects anti-automation-detection JS before navigation.
	Stealth bool // default: true

	// Language is forced on both the browser UI and the Accept-Language header.
	Language string // default: "en-US"

	// BlockedResourceTypes lists resource types the browser never downloads.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string
}

// ScraperConfig controls the search result pagination loops.
type ScraperConfig struct {
	// NavigationTimeout is the max time for loading a result page.
	NavigationTimeout time.Duration // default: 30s

	// ClickTimeout is how long a pagination control may take to become clickable.
	ClickTimeout time.Duration // default: 5s

	// ShowMorePause is the pause before each Google "Show more" attempt.
	ShowMorePause time.Duration // default: 1s

	// ScrollPause is the pause after each Bing scroll step.
	ScrollPause time.Duration // default: 500ms

	// ScrollStep is the pixel increment of each Bing scroll step.
	ScrollStep int // default: 250

	// MaxShowMore caps the Google "Show more" loop.
	MaxShowMore int // default: 20

	// MaxStableScrolls is the number of consecutive scrolls without new
	// results after which the Bing loop assumes the end of the list.
	MaxStableScrolls int // default: 10

	// MaxScrolls caps the Bing scroll loop.
	MaxScrolls int // default: 400

	// DefaultLimit is the Bing result limit when the request has none.
	DefaultLimit int // default: 15

	// LocatorsFile optionally overrides the embedded selector tables.
	LocatorsFile string
}

// RecipeConfig controls recipe page fetching and random picking.
type RecipeConfig struct {
	// FetchTimeout bounds a single recipe page request.
	FetchTimeout time.Duration // default: 10s

	// MaxAttempts bounds the "feeling hungry" resampling loop.
	MaxAttempts int // default: 20

	// PoolSize is the number of leading table rows sampled from.
	PoolSize int // default: 100

	// UserAgent is sent with every recipe page request.
	UserAgent string
}

// ClassifierConfig points at the model server and the label table.
type ClassifierConfig struct {
	// ModelURL is the base URL of a TensorFlow-Serving compatible REST endpoint.
	ModelURL string // default: "http://127.0.0.1:8501"

	// ModelName is the served model name.
	ModelName string // default: "produce"

	// ClassFile is the class index file (JSON or YAML, label -> index).
	ClassFile string // default: "classes.json"

	// Timeout bounds a single prediction call.
	Timeout time.Duration // default: 15s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the scrape result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached scrapes.
	MaxEntries int // default: 64

	// TTL is how long a cached scrape stays valid.
	TTL time.Duration // default: 1h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("PRODUCE_HOST", "0.0.0.0"),
			Port: envIntOr("PRODUCE_PORT", 8080),
			Mode: envOr("PRODUCE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("PRODUCE_HEADLESS", true),
			NoSandbox:  envBoolOr("PRODUCE_NO_SANDBOX", false),
			BrowserBin: os.Getenv("PRODUCE_BROWSER_BIN"),
			Proxy:      os.Getenv("PRODUCE_PROXY"),
			Stealth:    envBoolOr("PRODUCE_STEALTH", true),
			Language:   envOr("PRODUCE_LANGUAGE", "en-US"),
			BlockedResourceTypes: envSliceOr("PRODUCE_BLOCKED_RESOURCES", []string{
				"Font", "Media",
			}),
		},
		Scraper: ScraperConfig{
			NavigationTimeout: envDurationOr("PRODUCE_NAV_TIMEOUT", 30*time.Second),
			ClickTimeout:      envDurationOr("PRODUCE_CLICK_TIMEOUT", 5*time.Second),
			ShowMorePause:     envDurationOr("PRODUCE_SHOW_MORE_PAUSE", time.Second),
			ScrollPause:       envDurationOr("PRODUCE_SCROLL_PAUSE", 500*time.Millisecond),
			ScrollStep:        envIntOr("PRODUCE_SCROLL_STEP", 250),
			MaxShowMore:       envIntOr("PRODUCE_MAX_SHOW_MORE", 20),
			MaxStableScrolls:  envIntOr("PRODUCE_MAX_STABLE_SCROLLS", 10),
			MaxScrolls:        envIntOr("PRODUCE_MAX_SCROLLS", 400),
			DefaultLimit:      envIntOr("PRODUCE_DEFAULT_LIMIT", 15),
			LocatorsFile:      os.Getenv("PRODUCE_LOCATORS_FILE"),
		},
		Recipe: RecipeConfig{
			FetchTimeout: envDurationOr("PRODUCE_FETCH_TIMEOUT", 10*time.Second),
			MaxAttempts:  envIntOr("PRODUCE_MAX_ATTEMPTS", 20),
			PoolSize:     envIntOr("PRODUCE_POOL_SIZE", 100),
			UserAgent:    envOr("PRODUCE_USER_AGENT", defaultUserAgent),
		},
		Classifier: ClassifierConfig{
			ModelURL:  envOr("PRODUCE_MODEL_URL", "http://127.0.0.1:8501"),
			ModelName: envOr("PRODUCE_MODEL_NAME", "produce"),
			ClassFile: envOr("PRODUCE_CLASS_FILE", "classes.json"),
			Timeout:   envDurationOr("PRODUCE_MODEL_TIMEOUT", 15*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PRODUCE_AUTH_ENABLED", false),
			APIKeys: envSliceOr("PRODUCE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PRODUCE_RATE_RPS", 2.0),
			Burst:             envIntOr("PRODUCE_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("PRODUCE_CACHE_MAX_ENTRIES", 64),
			TTL:        envDurationOr("PRODUCE_CACHE_TTL", time.Hour),
		},
		Log: LogConfig{
			Level:  envOr("PRODUCE_LOG_LEVEL", "info"),
			Format: envOr("PRODUCE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
