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
	"database/sql"
	"time"
)

// SubledgerService handles wallet balances and their postings
type SubledgerService struct {
	db  *sql.DB
	now func() time.Time
}

func NewSubledgerService(db *sql.DB) *SubledgerService {
	return &SubledgerService{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *SubledgerService) InitSchema() error {
	schema := `
	-- Wallets Table (Current State - Hot Data)
	CREATE TABLE IF NOT EXISTS wallets (
		owner_id TEXT PRIMARY KEY,
		balance INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
		last_posting_id TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Postings Table (Audit Trail - Cold Data)
	CREATE TABLE IF NOT EXISTS postings (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('credit', 'debit')),
		amount INTEGER NOT NULL CHECK (amount > 0),
		balance_before INTEGER NOT NULL,
		balance_after INTEGER NOT NULL CHECK (balance_after >= 0),
		idempotency_key TEXT NOT NULL UNIQUE,
		request_hash TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		transition TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_postings_owner_id ON postings(owner_id);
	CREATE INDEX IF NOT EXISTS idx_postings_created_at ON postings(created_at);
	CREATE INDEX IF NOT EXISTS idx_postings_entity_id ON postings(entity_id);

	-- Journal Entries for Double-Entry Bookkeeping
	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		posting_id TEXT NOT NULL,
		account_type TEXT NOT NULL,
		account_id TEXT NOT NULL,
		debit_amount INTEGER DEFAULT 0,
		credit_amount INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_journal_posting_id ON journal_entries(posting_id);
	CREATE INDEX IF NOT EXISTS idx_journal_account ON journal_entries(account_type, account_id);
	`

	_, err := s.db.Exec(schema)
	return err
}
