// Package config loads the runtime configuration from environment
// variables, with working defaults for everything but the API keys.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	SerpAPIKey  string
	OpenAIKey   string
	OpenAIModel string

	Port string

	CacheEnabled bool
	RedisHost    string
	RedisPort    string
	ResponseTTL  time.Duration

	MonthlyLimit    int
	MaxCombinations int
	FetchWorkers    int

	ProviderRPS   float64
	ProviderBurst int
}

func Load() Config {
	return Config{
		SerpAPIKey:  os.Getenv("SERPAPI_KEY"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: getEnv("OPENAI_MODEL", "gpt-4o"),

		Port: getEnv("PORT", "8080"),

		CacheEnabled: getEnvBool("CACHE_ENABLED", true),
		RedisHost:    getEnv("REDIS_HOST", "localhost"),
		RedisPort:    getEnv("REDIS_PORT", "6379"),
		ResponseTTL:  getEnvDuration("RESPONSE_CACHE_TTL", 6*time.Hour),

		MonthlyLimit:    getEnvInt("MONTHLY_CALL_LIMIT", 250),
		MaxCombinations: getEnvInt("MAX_COMBINATIONS", 20),
		FetchWorkers:    getEnvInt("FETCH_WORKERS", 4),

		ProviderRPS:   getEnvFloat("PROVIDER_RPS", 0.8),
		ProviderBurst: getEnvInt("PROVIDER_BURST", 2),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
