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

package postgres

const (
	// User queries
	queryGetActiveUsers = `
		SELECT id, name, email, password, address, phone, role, created_at, updated_at
		FROM users
		WHERE active
		ORDER BY created_at`

	queryInsertUser = `
		INSERT INTO users (id, name, email, password, address, phone, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING`

	queryGetUserById = `
		SELECT id, name, email, password, address, phone, role, created_at, updated_at
		FROM users
		WHERE id = $1 AND active`

	queryGetUserByEmail = `
		SELECT id, name, email, password, address, phone, role, created_at, updated_at
		FROM users
		WHERE LOWER(email) = LOWER($1) AND active`

	queryUpdateUser = `
		UPDATE users
		SET name = $1, email = $2, address = $3, phone = $4, updated_at = $5
		WHERE id = $6 AND active`

	// Wallet queries
	queryInsertWallet = `
		INSERT INTO wallets (owner_id, balance, version, updated_at)
		VALUES ($1, 0, 1, $2)
		ON CONFLICT (owner_id) DO NOTHING`

	queryGetWallet = `
		SELECT owner_id, balance, COALESCE(last_posting_id, ''), version, updated_at
		FROM wallets
		WHERE owner_id = $1`

	queryLockWallet = `
		SELECT owner_id, balance, COALESCE(last_posting_id, ''), version, updated_at
		FROM wallets
		WHERE owner_id = $1
		FOR UPDATE`

	queryUpdateWalletBalance = `
		UPDATE wallets
		SET balance = $1, last_posting_id = $2, version = version + 1, updated_at = $3
		WHERE owner_id = $4 AND version = $5`

	// Posting queries
	queryLockIdempotencyKey = `SELECT pg_advisory_xact_lock(hashtext($1))`

	queryCheckDuplicatePosting = `
		SELECT id FROM postings WHERE idempotency_key = $1`

	queryInsertPosting = `
		INSERT INTO postings (
			id, owner_id, kind, amount, balance_before, balance_after,
			idempotency_key, request_hash, entity_id, transition, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	queryGetPostingByKey = `
		SELECT id, owner_id, kind, amount, balance_before, balance_after,
		       idempotency_key, request_hash, entity_id, transition, created_at
		FROM postings
		WHERE idempotency_key = $1`

	queryListPostings = `
		SELECT id, owner_id, kind, amount, balance_before, balance_after,
		       idempotency_key, request_hash, entity_id, transition, created_at
		FROM postings
		WHERE owner_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	queryReconcileWallet = `
		SELECT COALESCE(SUM(CASE WHEN kind = 'credit' THEN amount ELSE -amount END), 0)
		FROM postings
		WHERE owner_id = $1`

	queryInsertJournalEntry = `
		INSERT INTO journal_entries (id, posting_id, account_type, account_id, debit_amount, credit_amount)
		VALUES ($1, $2, $3, $4, $5, $6)`

	// Order queries
	queryInsertOrder = `
		INSERT INTO orders (
			id, owner_id, description, service_address, price, payment_method, status,
			assigned_partner_id, requested_at, scheduled_at, started_at, completed_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	queryGetOrder = `
		SELECT id, owner_id, description, service_address, price, payment_method, status,
		       assigned_partner_id, requested_at, scheduled_at, started_at, completed_at, version
		FROM orders
		WHERE id = $1`

	queryUpdateOrder = `
		UPDATE orders
		SET status = $1, assigned_partner_id = $2, started_at = $3, completed_at = $4, version = version + 1
		WHERE id = $5 AND status = $6 AND version = $7`

	queryListOrders = `
		SELECT id, owner_id, description, service_address, price, payment_method, status,
		       assigned_partner_id, requested_at, scheduled_at, started_at, completed_at, version
		FROM orders
		WHERE ($1::text = '' OR owner_id = $1) AND ($2::text = '' OR status = $2)
		ORDER BY requested_at DESC, id
		LIMIT $3`

	// Top-up queries
	queryInsertTopUp = `
		INSERT INTO topups (id, owner_id, amount, status, contact_channel, submitted_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	queryGetTopUp = `
		SELECT id, owner_id, amount, status, contact_channel, submitted_at, resolved_at
		FROM topups
		WHERE id = $1`

	queryUpdateTopUp = `
		UPDATE topups
		SET status = $1, resolved_at = $2
		WHERE id = $3 AND status = $4`

	queryListTopUps = `
		SELECT id, owner_id, amount, status, contact_channel, submitted_at, resolved_at
		FROM topups
		WHERE ($1::text = '' OR owner_id = $1) AND ($2::text = '' OR status = $2)
		ORDER BY submitted_at DESC, id
		LIMIT $3`

	// Invoice queries
	queryInsertInvoice = `
		INSERT INTO invoices (
			id, order_id, owner_id, partner_id, total, payment_method, settled, started_at, completed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (order_id) DO NOTHING`

	queryGetInvoiceByOrder = `
		SELECT id, order_id, owner_id, partner_id, total, payment_method, settled, started_at, completed_at, created_at
		FROM invoices
		WHERE order_id = $1`
)
