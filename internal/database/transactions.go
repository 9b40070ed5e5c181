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
	"errors"
	"fmt"

	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// ApplyPosting atomically updates the wallet balance and records the posting
func (s *SubledgerService) ApplyPosting(ctx context.Context, params store.PostingParams) (*models.Posting, *models.WalletAccount, error) {
	if params.Amount <= 0 {
		return nil, nil, fmt.Errorf("posting amount must be positive, got %d", params.Amount)
	}
	if params.Kind != models.PostingCredit && params.Kind != models.PostingDebit {
		return nil, nil, fmt.Errorf("unknown posting kind %q", params.Kind)
	}

	zap.L().Info("Applying posting",
		zap.String("owner_id", params.OwnerId),
		zap.String("kind", string(params.Kind)),
		zap.Int64("amount", params.Amount),
		zap.String("idempotency_key", params.IdempotencyKey))

	// Check for a previously applied posting with the same key
	var existingId string
	err := s.db.QueryRowContext(ctx, queryCheckDuplicatePosting, params.IdempotencyKey).Scan(&existingId)
	if err == nil {
		zap.L().Warn("Duplicate idempotency key detected, skipping",
			zap.String("idempotency_key", params.IdempotencyKey),
			zap.String("existing_posting_id", existingId))
		return nil, nil, fmt.Errorf("%w: idempotency key %s already applied", store.ErrDuplicatePosting, params.IdempotencyKey)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("failed to check for duplicate posting: %w", err)
	}

	// Start database transaction for atomicity
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()

	var wallet models.WalletAccount
	err = tx.QueryRowContext(ctx, queryGetWallet, params.OwnerId).Scan(
		&wallet.OwnerId, &wallet.Balance, &wallet.LastPostingId, &wallet.Version, &wallet.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := tx.ExecContext(ctx, queryInsertWallet, params.OwnerId, now); err != nil {
			return nil, nil, fmt.Errorf("failed to create wallet: %w", err)
		}
		wallet = models.WalletAccount{OwnerId: params.OwnerId, Version: 1, UpdatedAt: now}
	} else if err != nil {
		return nil, nil, fmt.Errorf("failed to get current balance: %w", err)
	}

	newBalance := wallet.Balance + params.Amount
	if params.Kind == models.PostingDebit {
		if wallet.Balance < params.Amount {
			return nil, nil, &store.InsufficientFundsError{
				OwnerId: params.OwnerId,
				Balance: wallet.Balance,
				Amount:  params.Amount,
			}
		}
		newBalance = wallet.Balance - params.Amount
	}

	posting := &models.Posting{
		Id:             uuid.New().String(),
		OwnerId:        params.OwnerId,
		Kind:           params.Kind,
		Amount:         params.Amount,
		BalanceBefore:  wallet.Balance,
		BalanceAfter:   newBalance,
		IdempotencyKey: params.IdempotencyKey,
		RequestHash:    params.RequestHash,
		EntityId:       params.EntityId,
		Transition:     params.Transition,
		CreatedAt:      now,
	}
	_, err = tx.ExecContext(ctx, queryInsertPosting,
		posting.Id, posting.OwnerId, string(posting.Kind), posting.Amount, posting.BalanceBefore, posting.BalanceAfter,
		posting.IdempotencyKey, posting.RequestHash, posting.EntityId, posting.Transition, posting.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, fmt.Errorf("%w: idempotency key %s already applied", store.ErrDuplicatePosting, params.IdempotencyKey)
		}
		return nil, nil, fmt.Errorf("failed to insert posting: %w", err)
	}

	// Update wallet balance (with optimistic locking)
	result, err := tx.ExecContext(ctx, queryUpdateWalletBalance, newBalance, posting.Id, now, params.OwnerId, wallet.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, nil, fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
	}

	if err := s.addJournalEntries(ctx, tx, posting); err != nil {
		return nil, nil, fmt.Errorf("failed to add journal entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	wallet.Balance = newBalance
	wallet.LastPostingId = posting.Id
	wallet.Version++
	wallet.UpdatedAt = now

	zap.L().Info("Posting applied successfully",
		zap.String("posting_id", posting.Id),
		zap.String("owner_id", params.OwnerId),
		zap.Int64("old_balance", posting.BalanceBefore),
		zap.Int64("new_balance", posting.BalanceAfter))

	return posting, &wallet, nil
}

// addJournalEntries creates double-entry bookkeeping entries
func (s *SubledgerService) addJournalEntries(ctx context.Context, tx *sql.Tx, posting *models.Posting) error {
	// A top-up credit moves money from the top-up clearing account into the customer's saldo;
	// a settlement debit moves it from saldo into service revenue.
	type entry struct {
		accountType  string
		accountId    string
		debitAmount  int64
		creditAmount int64
	}

	saldoAccount := "saldo_" + posting.OwnerId
	var entries []entry
	switch posting.Kind {
	case models.PostingCredit:
		entries = []entry{
			{"platform_clearing", "topup_clearing", posting.Amount, 0},
			{"customer_saldo", saldoAccount, 0, posting.Amount},
		}
	case models.PostingDebit:
		entries = []entry{
			{"customer_saldo", saldoAccount, posting.Amount, 0},
			{"platform_revenue", "service_revenue", 0, posting.Amount},
		}
	}

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, queryInsertJournalEntry,
			uuid.New().String(), posting.Id, e.accountType, e.accountId, e.debitAmount, e.creditAmount)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetPostingByKey returns the posting applied under idempotencyKey
func (s *SubledgerService) GetPostingByKey(ctx context.Context, idempotencyKey string) (*models.Posting, error) {
	row := s.db.QueryRowContext(ctx, queryGetPostingByKey, idempotencyKey)
	posting, err := scanPosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrPostingNotFound, idempotencyKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}
	return posting, nil
}

// ListPostings returns paginated posting history for an owner, newest first
func (s *SubledgerService) ListPostings(ctx context.Context, ownerId string, limit, offset int) ([]models.Posting, error) {
	zap.L().Debug("Getting posting history",
		zap.String("owner_id", ownerId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, queryListPostings, ownerId, sqlLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get posting history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var postings []models.Posting
	for rows.Next() {
		posting, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		postings = append(postings, *posting)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posting rows: %w", err)
	}

	return postings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosting(row rowScanner) (*models.Posting, error) {
	var p models.Posting
	var kind string
	err := row.Scan(&p.Id, &p.OwnerId, &kind, &p.Amount, &p.BalanceBefore, &p.BalanceAfter,
		&p.IdempotencyKey, &p.RequestHash, &p.EntityId, &p.Transition, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Kind = models.PostingKind(kind)
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}
