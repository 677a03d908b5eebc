package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"tourbook/internal/adapters/observability"
	redisad "tourbook/internal/adapters/redis"
	"tourbook/internal/adapters/supplier"
	"tourbook/internal/app"
	"tourbook/internal/domain"
	"tourbook/internal/shared"
	mysqlrepo "tourbook/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	res, err := domain.ParseResource(cfg.IngestResource)
	if err != nil {
		log.Fatal().Str("resource", cfg.IngestResource).Msg("INGEST_RESOURCE must be hotel, activity, car_rental or visa")
	}
	if len(cfg.IngestIDs) == 0 {
		log.Fatal().Msg("INGEST_IDS is empty")
	}

	log.Info().
		Str("base", cfg.SupplierBase).
		Str("resource", string(res)).
		Int("packages", len(cfg.IngestIDs)).
		Int("workers", cfg.Workers).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	client, err := supplier.New(cfg.SupplierBase, cfg.SupplierKey, cfg.SupplierRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize supplier client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	ing := app.NewIngestionService(client, repo, cache)

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures int
	)

	for _, id := range cfg.IngestIDs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(packageID int64) {
			defer wg.Done()
			defer sem.Release(1)

			if err := ing.IngestPackage(ctx, res, packageID); err != nil {
				log.Warn().Int64("id", packageID).Str("kind", observability.LabelErr(err)).Err(err).Msg("ingest failed")
				mu.Lock()
				failures++
				mu.Unlock()
				return
			}
			log.Info().Int64("id", packageID).Msg("ingest ok")
		}(id)
	}

	wg.Wait()
	log.Info().Int("failures", failures).Int("total", len(cfg.IngestIDs)).Msg("ingestion completed")
}
