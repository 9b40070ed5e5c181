/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"smartcare-ledger-go/internal/models"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	cacheTTL, err := getEnvDuration("CACHE_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	readTimeout, err := getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	writeTimeout, err := getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	sessionTTL, err := getEnvDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	formanceTimeout, err := getEnvDuration("FORMANCE_REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &models.Config{
		Backend: getEnvString("STORE_BACKEND", models.BackendSQLite),
		Database: models.DatabaseConfig{
			Path:             getEnvString("DATABASE_PATH", "smartcare.db"),
			MaxOpenConns:     getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  connMaxLifetime,
			ConnMaxIdleTime:  connMaxIdleTime,
			PingTimeout:      pingTimeout,
			CreateDummyUsers: getEnvBool("CREATE_DUMMY_USERS", false),
		},
		Postgres: models.PostgresConfig{
			DSN:         getEnvString("POSTGRES_DSN", ""),
			MaxConns:    int32(getEnvInt("POSTGRES_MAX_CONNS", 10)),
			PingTimeout: pingTimeout,
		},
		Ledger: models.LedgerConfig{
			Backend: getEnvString("LEDGER_BACKEND", models.LedgerBackendStore),
			Formance: models.FormanceConfig{
				StackURL:       getEnvString("FORMANCE_STACK_URL", ""),
				ClientID:       getEnvString("FORMANCE_CLIENT_ID", ""),
				ClientSecret:   getEnvString("FORMANCE_CLIENT_SECRET", ""),
				LedgerName:     getEnvString("FORMANCE_LEDGER", "smartcare-saldo"),
				RequestTimeout: formanceTimeout,
			},
		},
		Cache: models.CacheConfig{
			RedisAddr:     getEnvString("REDIS_ADDR", ""),
			RedisPassword: getEnvString("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			TTL:           cacheTTL,
		},
		Server: models.ServerConfig{
			Addr:              getEnvString("SERVER_ADDR", ":8080"),
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			ShutdownTimeout:   shutdownTimeout,
			NotificationQueue: getEnvInt("NOTIFICATION_QUEUE_SIZE", 256),
		},
		Session: models.SessionConfig{
			Secret: getEnvString("SESSION_SECRET", ""),
			TTL:    sessionTTL,
		},
		Catalog: models.CatalogConfig{
			Path: getEnvString("CATALOG_FILE", ""),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *models.Config) error {
	switch cfg.Backend {
	case models.BackendSQLite:
	case models.BackendPostgres:
		if cfg.Postgres.DSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORE_BACKEND=%s", models.BackendPostgres)
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", cfg.Backend)
	}

	switch cfg.Ledger.Backend {
	case models.LedgerBackendStore, models.LedgerBackendFormance:
	default:
		return fmt.Errorf("unsupported LEDGER_BACKEND %q", cfg.Ledger.Backend)
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
