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

import (
	"context"
	"errors"
	"fmt"

	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ApplyPosting validates and applies one balance adjustment in a single
// transaction. Concurrent calls with the same idempotency key serialize on an
// advisory lock, so the second one sees the first one's posting.
func (s *Service) ApplyPosting(ctx context.Context, params store.PostingParams) (*models.Posting, *models.WalletAccount, error) {
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

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, queryLockIdempotencyKey, params.IdempotencyKey); err != nil {
		return nil, nil, fmt.Errorf("failed to lock idempotency key: %w", err)
	}

	var existingId string
	err = tx.QueryRow(ctx, queryCheckDuplicatePosting, params.IdempotencyKey).Scan(&existingId)
	if err == nil {
		zap.L().Warn("Duplicate idempotency key detected, skipping",
			zap.String("idempotency_key", params.IdempotencyKey),
			zap.String("existing_posting_id", existingId))
		return nil, nil, fmt.Errorf("%w: idempotency key %s already applied", store.ErrDuplicatePosting, params.IdempotencyKey)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, fmt.Errorf("failed to check for duplicate posting: %w", err)
	}

	now := s.now()
	if _, err := tx.Exec(ctx, queryInsertWallet, params.OwnerId, now); err != nil {
		return nil, nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	var wallet models.WalletAccount
	err = tx.QueryRow(ctx, queryLockWallet, params.OwnerId).Scan(
		&wallet.OwnerId, &wallet.Balance, &wallet.LastPostingId, &wallet.Version, &wallet.UpdatedAt)
	if err != nil {
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
	_, err = tx.Exec(ctx, queryInsertPosting,
		posting.Id, posting.OwnerId, string(posting.Kind), posting.Amount, posting.BalanceBefore, posting.BalanceAfter,
		posting.IdempotencyKey, posting.RequestHash, posting.EntityId, posting.Transition, posting.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, fmt.Errorf("%w: idempotency key %s already applied", store.ErrDuplicatePosting, params.IdempotencyKey)
		}
		return nil, nil, fmt.Errorf("failed to insert posting: %w", err)
	}

	tag, err := tx.Exec(ctx, queryUpdateWalletBalance, newBalance, posting.Id, now, params.OwnerId, wallet.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil, fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
	}

	if err := addJournalEntries(ctx, tx, posting); err != nil {
		return nil, nil, fmt.Errorf("failed to add journal entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
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

// addJournalEntries writes the two balanced legs of a posting.
func addJournalEntries(ctx context.Context, tx pgx.Tx, posting *models.Posting) error {
	saldoAccount := "saldo_" + posting.OwnerId
	type leg struct {
		accountType, accountId string
		debit, credit          int64
	}
	var legs []leg
	switch posting.Kind {
	case models.PostingCredit:
		legs = []leg{
			{"platform_clearing", "topup_clearing", posting.Amount, 0},
			{"customer_saldo", saldoAccount, 0, posting.Amount},
		}
	case models.PostingDebit:
		legs = []leg{
			{"customer_saldo", saldoAccount, posting.Amount, 0},
			{"platform_revenue", "service_revenue", 0, posting.Amount},
		}
	}

	for _, l := range legs {
		if _, err := tx.Exec(ctx, queryInsertJournalEntry,
			uuid.New().String(), posting.Id, l.accountType, l.accountId, l.debit, l.credit); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) GetPostingByKey(ctx context.Context, idempotencyKey string) (*models.Posting, error) {
	posting, err := scanPosting(s.db.QueryRow(ctx, queryGetPostingByKey, idempotencyKey))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrPostingNotFound, idempotencyKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}
	return posting, nil
}

// GetWallet returns the wallet for ownerId; an owner that never had a posting
// or a wallet row reads as a zero balance.
func (s *Service) GetWallet(ctx context.Context, ownerId string) (*models.WalletAccount, error) {
	var wallet models.WalletAccount
	err := s.db.QueryRow(ctx, queryGetWallet, ownerId).Scan(
		&wallet.OwnerId, &wallet.Balance, &wallet.LastPostingId, &wallet.Version, &wallet.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.WalletAccount{OwnerId: ownerId}, nil
	}
	if err != nil {
		zap.L().Error("Failed to get wallet", zap.String("owner_id", ownerId), zap.Error(err))
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (s *Service) ListPostings(ctx context.Context, ownerId string, limit, offset int) ([]models.Posting, error) {
	rows, err := s.db.Query(ctx, queryListPostings, ownerId, pgLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get posting history: %w", err)
	}
	defer rows.Close()

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

// ReconcileWallet checks the stored balance against the sum of its postings.
func (s *Service) ReconcileWallet(ctx context.Context, ownerId string) error {
	wallet, err := s.GetWallet(ctx, ownerId)
	if err != nil {
		return fmt.Errorf("failed to get current balance: %w", err)
	}

	var calculated int64
	if err := s.db.QueryRow(ctx, queryReconcileWallet, ownerId).Scan(&calculated); err != nil {
		return fmt.Errorf("failed to calculate balance from postings: %w", err)
	}
	if wallet.Balance != calculated {
		zap.L().Error("Wallet reconciliation failed",
			zap.String("owner_id", ownerId),
			zap.Int64("current_balance", wallet.Balance),
			zap.Int64("calculated_balance", calculated))
		return fmt.Errorf("balance mismatch: current=%d, calculated=%d", wallet.Balance, calculated)
	}
	return nil
}

func scanPosting(row pgx.Row) (*models.Posting, error) {
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
