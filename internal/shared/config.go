package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	FeedBase    string
	FeedKey     string
	Workers     int
	ReportCount int
	CacheTTL    time.Duration

	// abuse protection
	BurstLimit  int
	BurstWindow time.Duration
	BlockTTL    time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/haus?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		FeedBase:    env("FEED_BASE_URL", "https://feed.haus.example/v1"),
		FeedKey:     env("FEED_API_KEY", ""),
		Workers:     atoi("INGEST_WORKERS", 8),
		ReportCount: atoi("INGEST_REPORT_COUNT", 10),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		BurstLimit:  atoi("RATE_BURST_LIMIT", 50),
		BurstWindow: time.Duration(atoi("RATE_BURST_WINDOW_SECONDS", 3600)) * time.Second,
		BlockTTL:    time.Duration(atoi("RATE_BLOCK_TTL_SECONDS", 86400)) * time.Second,
	}
	c.RedisDB = atoi("REDIS_DB", 0)
	if c.FeedKey == "" {
		log.Warn().Msg("FEED_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
