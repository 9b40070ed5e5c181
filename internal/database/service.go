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

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/store"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.LedgerStore.
var _ store.LedgerStore = (*Service)(nil)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

type Service struct {
	db        *sql.DB
	subledger *SubledgerService
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Every connection to :memory: is a separate database
	if cfg.Path == MemoryPath {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.ConnMaxLifetime = 0
		cfg.ConnMaxIdleTime = 0
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := newServiceFromDb(db)
	if err := service.InitSchema(cfg.CreateDummyUsers); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, err
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func newServiceFromDb(db *sql.DB) *Service {
	return &Service{db: db, subledger: NewSubledgerService(db)}
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

// InitSchema creates the record and subledger tables if they do not exist.
// Ping reports whether the database file is still reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Service) InitSchema(createDummyUsers bool) error {
	if err := s.initSchema(createDummyUsers); err != nil {
		return fmt.Errorf("unable to initialize schema: %w", err)
	}
	if err := s.subledger.InitSchema(); err != nil {
		return fmt.Errorf("unable to initialize subledger schema: %w", err)
	}
	return nil
}

func (s *Service) initSchema(createDummyUsers bool) error {
	schema := `
	-- Create users table
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE COLLATE NOCASE,
		password TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'customer',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_active ON users(active);

	-- Create orders table (one row per booking, both payment methods)
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id),
		description TEXT NOT NULL,
		service_address TEXT NOT NULL,
		price INTEGER NOT NULL CHECK (price > 0),
		payment_method TEXT NOT NULL CHECK (payment_method IN ('cash', 'saldo')),
		status TEXT NOT NULL,
		assigned_partner_id TEXT NOT NULL DEFAULT '',
		requested_at TIMESTAMP NOT NULL,
		scheduled_at TIMESTAMP,
		started_at TIMESTAMP,
		completed_at TIMESTAMP,
		version INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_orders_owner_requested ON orders(owner_id, requested_at);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);

	-- Create top-up requests table
	CREATE TABLE IF NOT EXISTS topups (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id),
		amount INTEGER NOT NULL CHECK (amount BETWEEN 10000 AND 10000000),
		status TEXT NOT NULL,
		contact_channel TEXT NOT NULL,
		submitted_at TIMESTAMP NOT NULL,
		resolved_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_topups_owner_submitted ON topups(owner_id, submitted_at);
	CREATE INDEX IF NOT EXISTS idx_topups_status ON topups(status);

	-- Create invoices table, at most one per order
	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL UNIQUE REFERENCES orders(id),
		owner_id TEXT NOT NULL,
		partner_id TEXT NOT NULL DEFAULT '',
		total INTEGER NOT NULL,
		payment_method TEXT NOT NULL,
		settled BOOLEAN NOT NULL,
		started_at TIMESTAMP,
		completed_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return err
	}

	// Insert 3 dummy customers for testing if configured to do so
	if createDummyUsers {
		users := []models.User{
			{Name: "Siti Rahma", Email: "siti.rahma@example.com", Address: "Jl. Melati 12, Bandung", Phone: "081200000001"},
			{Name: "Budi Santoso", Email: "budi.santoso@example.com", Address: "Jl. Kenanga 3, Jakarta", Phone: "081200000002"},
			{Name: "Dewi Lestari", Email: "dewi.lestari@example.com", Address: "Jl. Mawar 7, Surabaya", Phone: "081200000003"},
		}

		for _, user := range users {
			user.Id = uuid.New().String()
			user.Password = "password"
			user.Role = models.RoleCustomer
			if _, err := s.CreateUser(context.Background(), user); err != nil {
				zap.L().Error("Failed to insert dummy user", zap.String("name", user.Name), zap.Error(err))
			} else {
				zap.L().Info("Dummy user created", zap.String("id", user.Id), zap.String("name", user.Name))
			}
		}
	} else {
		zap.L().Info("Skipping dummy user creation (CREATE_DUMMY_USERS=false)")
	}

	return nil
}

// Subledger convenience methods

func (s *Service) ApplyPosting(ctx context.Context, params store.PostingParams) (*models.Posting, *models.WalletAccount, error) {
	return s.subledger.ApplyPosting(ctx, params)
}

func (s *Service) GetPostingByKey(ctx context.Context, idempotencyKey string) (*models.Posting, error) {
	return s.subledger.GetPostingByKey(ctx, idempotencyKey)
}

func (s *Service) GetWallet(ctx context.Context, ownerId string) (*models.WalletAccount, error) {
	return s.subledger.GetWallet(ctx, ownerId)
}

func (s *Service) ListPostings(ctx context.Context, ownerId string, limit, offset int) ([]models.Posting, error) {
	return s.subledger.ListPostings(ctx, ownerId, limit, offset)
}

func (s *Service) ReconcileWallet(ctx context.Context, ownerId string) error {
	return s.subledger.ReconcileWallet(ctx, ownerId)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
