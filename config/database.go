package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"storewatch"`
	Password string `env:"PASSWORD" envDefault:"storewatch"`
	Name     string `env:"NAME"     envDefault:"storewatch"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI      string `env:"URI"      envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// CacheConfig contains catalog cache configuration (Redis-based).
type CacheConfig struct {
	// Enabled toggles the read-through catalog cache. When disabled the
	// resolvers hit Postgres directly.
	Enabled bool `env:"CACHE_ENABLED" envDefault:"true"`

	// CatalogTTL is the TTL for cached timezone and business-hours lookups.
	CatalogTTL time.Duration `env:"CACHE_CATALOG_TTL" envDefault:"30m"`
}
