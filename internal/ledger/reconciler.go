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

package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smartcare-ledger-go/internal/cache"
	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/store"

	"go.uber.org/zap"
)

// ErrIdempotencyKeyReused means an (entity, transition) pair was already applied with a
// different owner, amount or direction.
var ErrIdempotencyKeyReused = errors.New("idempotency key reused with a different request")

// Entry is one balance adjustment triggered by an entity's transition.
type Entry struct {
	OwnerId    string
	Amount     int64
	EntityId   string
	Transition string
}

// Result is the outcome of an applied (or replayed) adjustment. Balance is the
// wallet balance read after the call, also on a replay.
type Result struct {
	Posting  models.Posting
	Balance  int64
	Replayed bool
}

// Reconciler is the only writer of wallet balances. Each call applies at most once per
// (entity, transition) and refreshes the cached replica after the store confirms.
type Reconciler struct {
	balances store.BalanceStore
	cache    cache.BalanceCache
}

func NewReconciler(balances store.BalanceStore, balanceCache cache.BalanceCache) *Reconciler {
	if balances == nil {
		panic("ledger: balance store is required")
	}
	if balanceCache == nil {
		balanceCache = cache.NewMemoryCache()
	}
	return &Reconciler{balances: balances, cache: balanceCache}
}

// IdempotencyKey derives the at-most-once key for a transition of an entity.
func IdempotencyKey(entityId, transition string) string {
	return entityId + ":" + transition
}

// ApplyCredit adds entry.Amount to the owner's balance.
func (r *Reconciler) ApplyCredit(ctx context.Context, entry Entry) (Result, error) {
	return r.apply(ctx, models.PostingCredit, entry)
}

// ApplyDebit removes entry.Amount from the owner's balance. The balance is re-validated
// at write time; a shortfall fails with *models.InsufficientBalanceError regardless of
// any earlier pre-check.
func (r *Reconciler) ApplyDebit(ctx context.Context, entry Entry) (Result, error) {
	return r.apply(ctx, models.PostingDebit, entry)
}

func (r *Reconciler) apply(ctx context.Context, kind models.PostingKind, entry Entry) (Result, error) {
	if err := validateEntry(entry); err != nil {
		return Result{}, err
	}

	key := IdempotencyKey(entry.EntityId, entry.Transition)
	hash, err := RequestHash(kind, entry)
	if err != nil {
		return Result{}, fmt.Errorf("hash ledger request: %w", err)
	}

	posting, wallet, err := r.balances.ApplyPosting(ctx, store.PostingParams{
		OwnerId:        entry.OwnerId,
		Kind:           kind,
		Amount:         entry.Amount,
		IdempotencyKey: key,
		RequestHash:    hash,
		EntityId:       entry.EntityId,
		Transition:     entry.Transition,
	})

	var insufficient *store.InsufficientFundsError
	switch {
	case err == nil:
		r.propagate(ctx, *wallet)
		return Result{Posting: *posting, Balance: wallet.Balance}, nil

	case errors.Is(err, store.ErrDuplicatePosting):
		return r.replay(ctx, key, hash)

	case errors.As(err, &insufficient):
		zap.L().Info("Debit rejected at write time",
			zap.String("owner_id", entry.OwnerId),
			zap.String("entity_id", entry.EntityId),
			zap.Int64("balance", insufficient.Balance),
			zap.Int64("amount", insufficient.Amount))
		r.refresh(ctx, entry.OwnerId)
		return Result{}, &models.InsufficientBalanceError{Shortfall: insufficient.Shortfall()}

	default:
		zap.L().Error("Failed to apply posting",
			zap.String("owner_id", entry.OwnerId),
			zap.String("idempotency_key", key),
			zap.Error(err))
		return Result{}, models.StoreUnavailable("apply posting", err)
	}
}

// Applied returns the posting recorded for (entityId, transition), or nil if that
// transition has not been applied.
func (r *Reconciler) Applied(ctx context.Context, entityId, transition string) (*models.Posting, error) {
	posting, err := r.balances.GetPostingByKey(ctx, IdempotencyKey(entityId, transition))
	if errors.Is(err, store.ErrPostingNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.StoreUnavailable("get posting", err)
	}
	return posting, nil
}

// replay returns the posting already applied under key, provided it was the same request,
// with the current wallet. The replica is resynced since the first delivery may not have
// reached it.
func (r *Reconciler) replay(ctx context.Context, key, hash string) (Result, error) {
	existing, err := r.balances.GetPostingByKey(ctx, key)
	if err != nil {
		return Result{}, models.StoreUnavailable("load replayed posting", err)
	}
	if existing.RequestHash != hash {
		return Result{}, fmt.Errorf("%w: %s", ErrIdempotencyKeyReused, key)
	}

	wallet, err := r.balances.GetWallet(ctx, existing.OwnerId)
	if err != nil {
		return Result{}, models.StoreUnavailable("load wallet for replay", err)
	}
	r.propagate(ctx, *wallet)

	zap.L().Warn("Posting already applied, replaying",
		zap.String("idempotency_key", key),
		zap.String("posting_id", existing.Id),
		zap.Int64("balance", wallet.Balance))
	return Result{Posting: *existing, Balance: wallet.Balance, Replayed: true}, nil
}

// propagate pushes a confirmed wallet state to the replica. The store has already
// committed, so a cache failure only drops the cached entry.
func (r *Reconciler) propagate(ctx context.Context, wallet models.WalletAccount) {
	if err := r.cache.Set(ctx, wallet); err != nil {
		zap.L().Warn("Failed to propagate balance to cache",
			zap.String("owner_id", wallet.OwnerId),
			zap.Error(err))
		if err := r.cache.Invalidate(ctx, wallet.OwnerId); err != nil {
			zap.L().Warn("Failed to invalidate cached balance", zap.String("owner_id", wallet.OwnerId), zap.Error(err))
		}
	}
}

func (r *Reconciler) refresh(ctx context.Context, ownerId string) {
	wallet, err := r.balances.GetWallet(ctx, ownerId)
	if err != nil {
		zap.L().Warn("Failed to refresh wallet after rejected debit", zap.String("owner_id", ownerId), zap.Error(err))
		return
	}
	r.propagate(ctx, *wallet)
}

func validateEntry(entry Entry) error {
	if strings.TrimSpace(entry.OwnerId) == "" {
		return models.NewValidationError("owner_id", "is required")
	}
	if strings.TrimSpace(entry.EntityId) == "" {
		return models.NewValidationError("entity_id", "is required")
	}
	if strings.TrimSpace(entry.Transition) == "" {
		return models.NewValidationError("transition", "is required")
	}
	if entry.Amount <= 0 {
		return models.NewValidationError("amount", "must be positive, got %d", entry.Amount)
	}
	return nil
}
