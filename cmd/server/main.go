package main

import (
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dharmasatrya/flightagent/internal/cache"
	"github.com/dharmasatrya/flightagent/internal/config"
	"github.com/dharmasatrya/flightagent/internal/fetch"
	"github.com/dharmasatrya/flightagent/internal/handler"
	"github.com/dharmasatrya/flightagent/internal/parser"
	"github.com/dharmasatrya/flightagent/internal/pipeline"
	"github.com/dharmasatrya/flightagent/internal/provider"
	"github.com/dharmasatrya/flightagent/internal/ratelimit"
)

func main() {
	cfg := config.Load()
	if cfg.SerpAPIKey == "" || cfg.OpenAIKey == "" {
		log.Fatal("SERPAPI_KEY and OPENAI_API_KEY must be set")
	}

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	var store cache.Store
	if cfg.CacheEnabled {
		redisStore, err := cache.NewRedisStore(cache.RedisConfig{
			Host: cfg.RedisHost,
			Port: cfg.RedisPort,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		store = redisStore
		log.Printf("Redis cache enabled (host: %s:%s, TTL: %v)", cfg.RedisHost, cfg.RedisPort, cfg.ResponseTTL)
	} else {
		store = cache.NewMemoryStore()
		log.Println("Durable cache disabled, using in-memory store")
	}
	defer store.Close()

	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: cfg.ProviderRPS,
		BurstSize:         cfg.ProviderBurst,
	})

	serp := provider.NewSerpAPI(cfg.SerpAPIKey)
	responseCache := cache.NewResponseCache(store, cfg.ResponseTTL, false)
	quota := fetch.NewQuotaTracker(store, cfg.MonthlyLimit)
	orchestrator := fetch.NewOrchestrator(serp, responseCache, quota, fetch.Config{
		Workers:     cfg.FetchWorkers,
		RateLimiter: limiter,
	})

	parseCache := cache.NewParseCache(store)
	llm := parser.NewOpenAIParser(cfg.OpenAIKey, cfg.OpenAIModel)
	cachedParser := parser.NewCachedParser(llm, parseCache, false)

	p := &pipeline.Pipeline{
		Parser:          cachedParser,
		Orchestrator:    orchestrator,
		MaxCombinations: cfg.MaxCombinations,
		MonthlyLimit:    cfg.MonthlyLimit,
	}

	searchHandler := handler.NewSearchHandler(p)

	api := e.Group("/api/v1")
	api.POST("/search", searchHandler.Search)
	e.GET("/health", handler.HealthHandler)

	log.Printf("Starting flight search server on port %s", cfg.Port)

	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
