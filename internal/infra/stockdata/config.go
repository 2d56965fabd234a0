package stockdata

import (
	"time"

	"finsight/pkg/config"
)

// Config holds settings for the market data API client.
type Config struct {
	// BaseURL is the root of the quote API.
	BaseURL string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// NewsLimit is the default number of news items per lookup.
	NewsLimit int

	// RecommendationLimit caps analyst rating history entries per lookup.
	RecommendationLimit int
}

// LoadConfig reads client settings from environment variables:
//   - STOCK_API_BASE_URL: quote API root
//   - STOCK_API_TIMEOUT: per-request timeout (e.g. "10s")
//   - STOCK_API_NEWS_LIMIT: default news items per lookup
func LoadConfig() Config {
	return Config{
		BaseURL:             config.GetEnvString("STOCK_API_BASE_URL", "https://query1.finance.yahoo.com"),
		Timeout:             config.GetEnvDuration("STOCK_API_TIMEOUT", 10*time.Second),
		NewsLimit:           config.GetEnvInt("STOCK_API_NEWS_LIMIT", 5),
		RecommendationLimit: 10,
	}
}
