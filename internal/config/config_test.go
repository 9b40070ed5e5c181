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
	"testing"
	"time"

	"smartcare-ledger-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, models.BackendSQLite, cfg.Backend)
	assert.Equal(t, models.LedgerBackendStore, cfg.Ledger.Backend)
	assert.Equal(t, "smartcare.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Second, cfg.Database.PingTimeout)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Empty(t, cfg.Cache.RedisAddr)
	assert.Equal(t, "smartcare-saldo", cfg.Ledger.Formance.LedgerName)
	assert.Equal(t, 30*time.Second, cfg.Ledger.Formance.RequestTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", models.BackendPostgres)
	t.Setenv("POSTGRES_DSN", "postgres://localhost/smartcare")
	t.Setenv("POSTGRES_MAX_CONNS", "4")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("CREATE_DUMMY_USERS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, models.BackendPostgres, cfg.Backend)
	assert.Equal(t, int32(4), cfg.Postgres.MaxConns)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.Database.CreateDummyUsers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad duration", map[string]string{"CACHE_TTL": "soon"}},
		{"bad formance timeout", map[string]string{"FORMANCE_REQUEST_TIMEOUT": "30"}},
		{"unknown store", map[string]string{"STORE_BACKEND": "mongo"}},
		{"postgres without dsn", map[string]string{"STORE_BACKEND": models.BackendPostgres}},
		{"unknown ledger", map[string]string{"LEDGER_BACKEND": "spreadsheet"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvInt_IgnoresGarbage(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	assert.Equal(t, 25, getEnvInt("DB_MAX_OPEN_CONNS", 25))
}
