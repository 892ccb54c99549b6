// Package main is the entry point for the docsync application.
package main

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/joe/docsync/internal/cache"
	"github.com/joe/docsync/internal/config"
	"github.com/joe/docsync/internal/download"
	"github.com/joe/docsync/internal/manifest"
	"github.com/joe/docsync/internal/reconcile"
	"github.com/joe/docsync/internal/scan"
	"github.com/joe/docsync/internal/syncengine"
	"github.com/joe/docsync/internal/tui"
	syncerrors "github.com/joe/docsync/pkg/errors"
	"github.com/joe/docsync/pkg/logger"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level := "info"
	if cfg.Verbose {
		level = "debug"
	}

	log, err := logger.New(logger.WithLevel(level), logger.WithLogFile(cfg.LogFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		_ = log.Sync()
	}()

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	store := cache.NewStore(cfg.CacheFile)
	engine := syncengine.NewEngine(
		manifest.NewFetcher(cfg.ManifestURL, timeout),
		download.NewDownloader(timeout),
		reconcile.NewPlanner(cfg.BaseURL, cfg.DocsRoot),
		store,
		log,
	)

	var result *syncengine.Result

	// Only run the TUI on a real terminal
	if cfg.Headless || !term.IsTerminal(int(os.Stdout.Fd())) {
		result = engine.Sync()
	} else {
		result, err = tui.Run(engine)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if result == nil {
		return
	}

	fmt.Println(result.Message)

	if !result.Success {
		if suggestions := syncerrors.FormatSuggestions(result.Err); suggestions != "" {
			fmt.Println("Try these solutions:")
			fmt.Println(suggestions)
		}

		printOfflineLibrary(cfg, store, log)
		os.Exit(1)
	}
}

// printOfflineLibrary lists what is available on disk when a sync could not
// reach the remote. The cache is preferred; with nothing cached it falls
// back to a one-time scan of the documents directory.
func printOfflineLibrary(cfg *config.Config, store *cache.Store, log logger.Logger) {
	library, err := store.Load()
	if err != nil {
		log.Warn("cache unreadable for offline listing", logger.Error(err))
	}

	if len(library.GCF)+len(library.Policy) == 0 {
		scanned, err := scan.Library(cfg.DocsRoot)
		if err != nil {
			log.Warn("local scan failed", logger.Error(err))
			return
		}

		library = scanned
	}

	if len(library.GCF)+len(library.Policy) == 0 {
		return
	}

	fmt.Println("\nAvailable offline:")

	for _, category := range cache.Categories() {
		for _, rec := range library.Records(category) {
			fmt.Printf("  %s (%s, %s)\n", rec.Title, rec.Size, rec.Date)
		}
	}
}
