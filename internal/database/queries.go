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

const (
	// User queries
	queryGetActiveUsers = `
		SELECT id, name, email, password, address, phone, role, created_at, updated_at
		FROM users
		WHERE active = 1
		ORDER BY created_at`

	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, name, email, password, address, phone, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetUserById = `
		SELECT id, name, email, password, address, phone, role, created_at, updated_at
		FROM users
		WHERE id = ? AND active = 1`

	queryGetUserByEmail = `
		SELECT id, name, email, password, address, phone, role, created_at, updated_at
		FROM users
		WHERE LOWER(email) = LOWER(?) AND active = 1`

	queryUpdateUser = `
		UPDATE users
		SET name = ?, email = ?, address = ?, phone = ?, updated_at = ?
		WHERE id = ? AND active = 1`

	// Wallet queries
	queryInsertWallet = `
		INSERT OR IGNORE INTO wallets (owner_id, balance, version, updated_at)
		VALUES (?, 0, 1, ?)`

	queryGetWallet = `
		SELECT owner_id, balance, COALESCE(last_posting_id, ''), version, updated_at
		FROM wallets
		WHERE owner_id = ?`

	queryUpdateWalletBalance = `
		UPDATE wallets
		SET balance = ?, last_posting_id = ?, version = version + 1, updated_at = ?
		WHERE owner_id = ? AND version = ?`

	queryReconcileWallet = `
		SELECT COALESCE(SUM(CASE kind WHEN 'credit' THEN amount ELSE -amount END), 0)
		FROM postings
		WHERE owner_id = ?`

	// Posting queries
	queryCheckDuplicatePosting = `
		SELECT id FROM postings WHERE idempotency_key = ? LIMIT 1`

	queryInsertPosting = `
		INSERT INTO postings (
			id, owner_id, kind, amount, balance_before, balance_after,
			idempotency_key, request_hash, entity_id, transition, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetPostingByKey = `
		SELECT id, owner_id, kind, amount, balance_before, balance_after,
		       idempotency_key, request_hash, entity_id, transition, created_at
		FROM postings
		WHERE idempotency_key = ?`

	queryListPostings = `
		SELECT id, owner_id, kind, amount, balance_before, balance_after,
		       idempotency_key, request_hash, entity_id, transition, created_at
		FROM postings
		WHERE owner_id = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`

	queryInsertJournalEntry = `
		INSERT INTO journal_entries (id, posting_id, account_type, account_id, debit_amount, credit_amount)
		VALUES (?, ?, ?, ?, ?, ?)`

	// Order queries
	queryInsertOrder = `
		INSERT INTO orders (
			id, owner_id, description, service_address, price, payment_method, status,
			assigned_partner_id, requested_at, scheduled_at, started_at, completed_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetOrder = `
		SELECT id, owner_id, description, service_address, price, payment_method, status,
		       assigned_partner_id, requested_at, scheduled_at, started_at, completed_at, version
		FROM orders
		WHERE id = ?`

	queryUpdateOrder = `
		UPDATE orders
		SET status = ?, assigned_partner_id = ?, started_at = ?, completed_at = ?, version = version + 1
		WHERE id = ? AND status = ? AND version = ?`

	queryListOrders = `
		SELECT id, owner_id, description, service_address, price, payment_method, status,
		       assigned_partner_id, requested_at, scheduled_at, started_at, completed_at, version
		FROM orders
		WHERE (? = '' OR owner_id = ?) AND (? = '' OR status = ?)
		ORDER BY requested_at DESC, id
		LIMIT ?`

	// Top-up queries
	queryInsertTopUp = `
		INSERT INTO topups (id, owner_id, amount, status, contact_channel, submitted_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetTopUp = `
		SELECT id, owner_id, amount, status, contact_channel, submitted_at, resolved_at
		FROM topups
		WHERE id = ?`

	queryUpdateTopUp = `
		UPDATE topups
		SET status = ?, resolved_at = ?
		WHERE id = ? AND status = ?`

	queryListTopUps = `
		SELECT id, owner_id, amount, status, contact_channel, submitted_at, resolved_at
		FROM topups
		WHERE (? = '' OR owner_id = ?) AND (? = '' OR status = ?)
		ORDER BY submitted_at DESC, id
		LIMIT ?`

	// Invoice queries
	queryInsertInvoice = `
		INSERT OR IGNORE INTO invoices (
			id, order_id, owner_id, partner_id, total, payment_method, settled, started_at, completed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetInvoiceByOrder = `
		SELECT id, order_id, owner_id, partner_id, total, payment_method, settled, started_at, completed_at, created_at
		FROM invoices
		WHERE order_id = ?`
)
