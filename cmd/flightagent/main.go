// Command flightagent reads a free-text travel request from a file, runs
// the search pipeline, and exports the ranked itineraries to a
// spreadsheet.
//
// Usage:
//
//	flightagent [flags] [query-file]
//	  -no-cache  bypass the response cache (every request hits the provider)
//	  -reparse   force a fresh parse of the query text
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dharmasatrya/flightagent/internal/cache"
	"github.com/dharmasatrya/flightagent/internal/config"
	"github.com/dharmasatrya/flightagent/internal/export"
	"github.com/dharmasatrya/flightagent/internal/fetch"
	"github.com/dharmasatrya/flightagent/internal/models"
	"github.com/dharmasatrya/flightagent/internal/parser"
	"github.com/dharmasatrya/flightagent/internal/pipeline"
	"github.com/dharmasatrya/flightagent/internal/provider"
	"github.com/dharmasatrya/flightagent/internal/ratelimit"
)

const defaultQueryFile = "query.txt"

func main() {
	noCache := flag.Bool("no-cache", false, "bypass the response cache")
	reparse := flag.Bool("reparse", false, "force a fresh parse of the query text")
	flag.Parse()

	cfg := config.Load()
	if cfg.SerpAPIKey == "" || cfg.OpenAIKey == "" {
		log.Fatal("SERPAPI_KEY and OPENAI_API_KEY must be set")
	}

	queryFile := defaultQueryFile
	if flag.NArg() > 0 {
		queryFile = flag.Arg(0)
	}

	raw, err := os.ReadFile(queryFile)
	if err != nil {
		log.Fatalf("Failed to read query file %s: %v", queryFile, err)
	}
	rawText := strings.TrimSpace(string(raw))
	if rawText == "" {
		log.Fatalf("Query file %s is empty", queryFile)
	}

	store := openStore(cfg)
	defer store.Close()

	serp := provider.NewSerpAPI(cfg.SerpAPIKey)
	responseCache := cache.NewResponseCache(store, cfg.ResponseTTL, *noCache)
	quota := fetch.NewQuotaTracker(store, cfg.MonthlyLimit)
	orchestrator := fetch.NewOrchestrator(serp, responseCache, quota, fetch.Config{
		Workers: cfg.FetchWorkers,
		RateLimiter: ratelimit.New(ratelimit.Config{
			RequestsPerSecond: cfg.ProviderRPS,
			BurstSize:         cfg.ProviderBurst,
		}),
	})

	parseCache := cache.NewParseCache(store)
	llm := parser.NewOpenAIParser(cfg.OpenAIKey, cfg.OpenAIModel)

	p := &pipeline.Pipeline{
		Parser:          parser.NewCachedParser(llm, parseCache, *reparse),
		Orchestrator:    orchestrator,
		MaxCombinations: cfg.MaxCombinations,
		MonthlyLimit:    cfg.MonthlyLimit,
	}

	log.Printf("Query file: %s (cache: %s)", queryFile, cacheLabel(*noCache, cfg))

	outcome, err := p.Run(context.Background(), rawText)
	if err != nil {
		var limitErr *models.CombinationLimitError
		if errors.As(err, &limitErr) {
			log.Fatalf("Aborted: %v. Narrow the date ranges or airport lists and retry.", limitErr)
		}
		log.Fatalf("Run failed: %v", err)
	}

	meta := outcome.Metadata
	log.Printf("Requests: %d attempted, %d from cache, %d provider call(s), %d failed",
		meta.RequestsAttempted, meta.CacheHits, meta.ProviderCalls, meta.RequestsFailed)
	for _, failure := range meta.FailedRequests {
		log.Printf("  failed: %s", failure)
	}
	log.Printf("Monthly usage: %d/%d", meta.MonthlyUsage, meta.MonthlyLimit)

	if len(outcome.Results) == 0 {
		fmt.Println("No flights matched the query. Try relaxing stops, airline, or price constraints.")
		return
	}

	exporter := &export.ExcelExporter{OutputDir: filepath.Dir(queryFile)}
	path, err := exporter.Export(outcome.Results, meta, outcome.Query.Summary)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	fmt.Printf("Done: %d flight(s) saved to %s\n", len(outcome.Results), path)
}

func openStore(cfg config.Config) cache.Store {
	if !cfg.CacheEnabled {
		log.Println("Durable cache disabled, using in-memory store")
		return cache.NewMemoryStore()
	}
	store, err := cache.NewRedisStore(cache.RedisConfig{Host: cfg.RedisHost, Port: cfg.RedisPort})
	if err != nil {
		log.Printf("Redis unavailable (%v), falling back to in-memory store", err)
		return cache.NewMemoryStore()
	}
	return store
}

func cacheLabel(noCache bool, cfg config.Config) string {
	if noCache {
		return "disabled (--no-cache)"
	}
	return fmt.Sprintf("enabled, %v TTL", cfg.ResponseTTL)
}
