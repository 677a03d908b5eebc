package main

import (
	"github.com/rs/zerolog/log"

	"tourbook/internal/adapters/observability"
	"tourbook/internal/shared"
	mysqlrepo "tourbook/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	if err := mysqlrepo.Migrate(cfg.MySQLDSN, cfg.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}
	log.Info().Str("dir", cfg.MigrationsDir).Msg("migrations up to date")
}
