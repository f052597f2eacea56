package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "haus_search/internal/adapters/http_server"
	"haus_search/internal/adapters/observability"
	redisad "haus_search/internal/adapters/redis"
	"haus_search/internal/app"
	"haus_search/internal/ratelimit"
	"haus_search/internal/shared"
	mysqlrepo "haus_search/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	counters := redisad.NewCounters(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	q := app.NewSearchService(repo, cache, cfg.CacheTTL)
	policy := ratelimit.NewPolicy(counters,
		ratelimit.WithBurstLimit(cfg.BurstLimit, cfg.BurstWindow),
		ratelimit.WithBlockTTL(cfg.BlockTTL),
	)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, Policy: policy, Limits: ratelimit.DefaultLimits()})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
