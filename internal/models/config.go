package models

import "time"

// Config represents the application configuration
type Config struct {
	Backend  string
	Database DatabaseConfig
	Postgres PostgresConfig
	Ledger   LedgerConfig
	Cache    CacheConfig
	Server   ServerConfig
	Session  SessionConfig
	Catalog  CatalogConfig
}

// Supported record store backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// DatabaseConfig holds SQLite connection settings
type DatabaseConfig struct {
	Path             string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	PingTimeout      time.Duration
	CreateDummyUsers bool
}

// PostgresConfig holds pgx pool settings
type PostgresConfig struct {
	DSN         string
	MaxConns    int32
	PingTimeout time.Duration
}

// Supported balance backends.
const (
	LedgerBackendStore    = "store"
	LedgerBackendFormance = "formance"
)

// LedgerConfig selects where authoritative balances live
type LedgerConfig struct {
	Backend  string
	Formance FormanceConfig
}

// FormanceConfig holds Formance Stack connection settings
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
	// RequestTimeout bounds a single call to the stack, including reading the response headers.
	RequestTimeout time.Duration
}

// CacheConfig holds the balance replica settings. An empty RedisAddr selects the
// in-process cache.
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
	NotificationQueue int
}

// SessionConfig holds bearer token settings
type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

// CatalogConfig points at the service catalog file
type CatalogConfig struct {
	Path string
}
