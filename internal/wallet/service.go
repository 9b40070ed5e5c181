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

package wallet

import (
	"context"
	"errors"
	"fmt"

	"smartcare-ledger-go/internal/cache"
	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/store"

	"go.uber.org/zap"
)

// Service serves wallet snapshots from the cache, falling back to the authoritative store.
// It never mutates balances.
type Service struct {
	balances store.BalanceStore
	cache    cache.BalanceCache
}

func NewService(balances store.BalanceStore, balanceCache cache.BalanceCache) *Service {
	if balances == nil {
		panic("wallet: balance store is required")
	}
	if balanceCache == nil {
		balanceCache = cache.NewMemoryCache()
	}
	return &Service{balances: balances, cache: balanceCache}
}

// Snapshot returns the cached wallet, loading and caching the authoritative one on a miss.
func (s *Service) Snapshot(ctx context.Context, ownerId string) (*models.WalletAccount, error) {
	wallet, err := s.cache.Get(ctx, ownerId)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		zap.L().Warn("Wallet cache read failed, using store", zap.String("owner_id", ownerId), zap.Error(err))
	}

	wallet, err = s.Authoritative(ctx, ownerId)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, *wallet); err != nil {
		zap.L().Warn("Failed to cache wallet", zap.String("owner_id", ownerId), zap.Error(err))
	}
	return wallet, nil
}

// Authoritative reads the wallet straight from the balance store.
func (s *Service) Authoritative(ctx context.Context, ownerId string) (*models.WalletAccount, error) {
	wallet, err := s.balances.GetWallet(ctx, ownerId)
	if err != nil {
		return nil, models.StoreUnavailable("get wallet", err)
	}
	return wallet, nil
}

// Resync overwrites the cached snapshot with the authoritative wallet.
func (s *Service) Resync(ctx context.Context, ownerId string) (*models.WalletAccount, error) {
	wallet, err := s.Authoritative(ctx, ownerId)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, ownerId); err != nil {
		return nil, fmt.Errorf("invalidate cached wallet: %w", err)
	}
	if err := s.cache.Set(ctx, *wallet); err != nil {
		return nil, fmt.Errorf("cache wallet: %w", err)
	}

	zap.L().Info("Wallet cache resynchronized",
		zap.String("owner_id", ownerId),
		zap.Int64("balance", wallet.Balance),
		zap.Int64("version", wallet.Version))
	return wallet, nil
}

// Drift compares the cached snapshot with the authoritative wallet. cached is nil when
// nothing is cached.
func (s *Service) Drift(ctx context.Context, ownerId string) (cached, authoritative *models.WalletAccount, inSync bool, err error) {
	authoritative, err = s.Authoritative(ctx, ownerId)
	if err != nil {
		return nil, nil, false, err
	}

	cached, err = s.cache.Get(ctx, ownerId)
	if errors.Is(err, cache.ErrMiss) {
		return nil, authoritative, false, nil
	}
	if err != nil {
		return nil, authoritative, false, fmt.Errorf("read cached wallet: %w", err)
	}

	inSync = cached.Balance == authoritative.Balance && cached.Version == authoritative.Version
	return cached, authoritative, inSync, nil
}

// Postings returns the owner's posting history, newest first.
func (s *Service) Postings(ctx context.Context, ownerId string, limit, offset int) ([]models.Posting, error) {
	if ownerId == "" {
		return nil, models.NewValidationError("owner_id", "is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	postings, err := s.balances.ListPostings(ctx, ownerId, limit, offset)
	if err != nil {
		zap.L().Error("Failed to get posting history", zap.String("owner_id", ownerId), zap.Error(err))
		return nil, models.StoreUnavailable("list postings", err)
	}
	return postings, nil
}
