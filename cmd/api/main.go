package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	server "tourbook/internal/adapters/http_server"
	"tourbook/internal/adapters/observability"
	redisad "tourbook/internal/adapters/redis"
	"tourbook/internal/app"
	"tourbook/internal/shared"
	mysqlrepo "tourbook/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	// amounts go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	observability.Serve(cfg.MetricsAddr)

	if cfg.MigrateOnStart {
		if err := mysqlrepo.Migrate(cfg.MySQLDSN, cfg.MigrationsDir); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		log.Info().Str("dir", cfg.MigrationsDir).Msg("migrations applied")
	}

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
	if err := cache.Ping(context.Background()); err != nil {
		log.Warn().Err(err).Msg("redis unreachable; package views will not be cached")
	}
	q := app.NewQueryService(repo, cache, cfg.CacheTTL, cfg.DefaultLang)
	quotes := app.NewQuoteService(repo, cfg.DefaultFreeAge, time.Now)
	cmd := app.NewCommandService(repo, cache)

	store, err := limiterredis.NewStoreWithOptions(cache.Client(), limiter.StoreOptions{Prefix: "tourbook:limiter"})
	if err != nil {
		log.Fatal().Err(err).Msg("rate limiter store failed")
	}
	quoteLimit, err := server.RateLimit(store, cfg.RateLimit)
	if err != nil {
		log.Fatal().Err(err).Str("rate", cfg.RateLimit).Msg("invalid RATE_LIMIT")
	}

	// http
	srv := server.New(server.Options{AllowedOrigins: cfg.CORSAllowedOrigins, QuoteLimit: quoteLimit})
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(server.NewHandlers(q, quotes, cmd))

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	_ = cache.Client().Close()
	_ = db.Close()
	log.Info().Msg("API stopped")
}
