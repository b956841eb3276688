package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/producerecipe/api"
	"github.com/use-agent/producerecipe/cache"
	"github.com/use-agent/producerecipe/classify"
	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/recipe"
	"github.com/use-agent/producerecipe/search"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("producerecipe starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"modelURL", cfg.Classifier.ModelURL,
	)

	// ── 3. Classifier ───────────────────────────────────────────────
	classes, err := classify.LoadClassTable(cfg.Classifier.ClassFile)
	if err != nil {
		// Search and recipe endpoints still work without a class table.
		slog.Warn("class table unavailable, classification disabled", "file", cfg.Classifier.ClassFile, "error", err)
	} else {
		slog.Info("class table loaded", "classes", len(classes))
	}
	classifier := classify.New(classify.NewHTTPModel(cfg.Classifier), classes)

	// ── 4. Search ───────────────────────────────────────────────────
	locators, err := search.LoadLocators(cfg.Scraper.LocatorsFile)
	if err != nil {
		slog.Error("failed to load search locators", "error", err)
		os.Exit(1)
	}
	runner := search.NewRunner(search.BrowserOpener(cfg.Browser, cfg.Scraper), locators, cfg.Scraper)

	// ── 5. Recipe fetcher and scrape cache ──────────────────────────
	fetcher := recipe.NewFetcher(cfg.Recipe)
	cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	defer cc.Close()

	// ── 6. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(api.Deps{
		Classifier: classifier,
		Classes:    len(classes),
		Searcher:   runner,
		Fetcher:    fetcher,
		Cache:      cc,
	}, cfg, startTime)

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// A scrape can take a while; give in-flight requests time to finish
	// and close their browsers.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Scraper.NavigationTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("producerecipe stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
