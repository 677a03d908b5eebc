package shared

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv             string
	LogLevel           string
	HTTPAddr           string
	MetricsAddr        string
	MySQLDSN           string
	MigrationsDir      string
	RedisAddr          string
	RedisDB            int
	RedisPass          string
	SupplierBase       string
	SupplierKey        string
	SupplierRPS        int
	Workers            int
	CacheTTL           time.Duration
	CORSAllowedOrigins []string
	RateLimit          string // ulule formatted, e.g. 100-M
	DefaultLang        string
	DefaultFreeAge     int
	MigrateOnStart     bool
	IngestResource     string
	IngestIDs          []int64
}

func Load() Config {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		log.Warn().Err(err).Msg("load env failed, using defaults")
	}

	str := func(key, def string) string {
		if v := strings.TrimSpace(k.String(key)); v != "" {
			return v
		}
		return def
	}
	atoi := func(key string, def int) int {
		if v := k.String(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}

	c := Config{
		AppEnv:             str("APP_ENV", "prod"),
		LogLevel:           str("LOG_LEVEL", "info"),
		HTTPAddr:           str("HTTP_ADDR", ":8080"),
		MetricsAddr:        str("METRICS_ADDR", ""),
		MySQLDSN:           str("MYSQL_DSN", "root:root@tcp(localhost:3306)/tourbook?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		MigrationsDir:      str("MIGRATIONS_DIR", "migrations"),
		RedisAddr:          str("REDIS_ADDR", "localhost:6379"),
		RedisPass:          str("REDIS_PASSWORD", ""),
		RedisDB:            atoi("REDIS_DB", 0),
		SupplierBase:       str("SUPPLIER_BASE_URL", "https://content.supplier.example/v1"),
		SupplierKey:        str("SUPPLIER_API_KEY", ""),
		SupplierRPS:        atoi("SUPPLIER_RPS", 5),
		Workers:            atoi("INGEST_WORKERS", 8),
		CacheTTL:           time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		CORSAllowedOrigins: splitAndTrim(str("CORS_ALLOWED_ORIGINS", "*")),
		RateLimit:          str("RATE_LIMIT", "600-M"),
		DefaultLang:        str("DEFAULT_LANG", "en"),
		DefaultFreeAge:     atoi("DEFAULT_FREE_AGE_LIMIT", 6),
		MigrateOnStart:     k.Bool("MIGRATE_ON_START"),
		IngestResource:     str("INGEST_RESOURCE", "hotel"),
		IngestIDs:          parseIDs(str("INGEST_IDS", "")),
	}
	if c.SupplierKey == "" {
		log.Warn().Msg("SUPPLIER_API_KEY is empty")
	}
	return c
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseIDs reads a comma separated id list, skipping anything that is not a positive integer.
func parseIDs(value string) []int64 {
	var out []int64
	for _, p := range splitAndTrim(value) {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n <= 0 {
			log.Warn().Str("value", p).Msg("INGEST_IDS entry ignored")
			continue
		}
		out = append(out, n)
	}
	return out
}
