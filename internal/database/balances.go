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

	"go.uber.org/zap"
)

// GetWallet returns the current wallet state for an owner (O(1) lookup)
func (s *SubledgerService) GetWallet(ctx context.Context, ownerId string) (*models.WalletAccount, error) {
	zap.L().Debug("Getting wallet", zap.String("owner_id", ownerId))

	var wallet models.WalletAccount
	err := s.db.QueryRowContext(ctx, queryGetWallet, ownerId).Scan(
		&wallet.OwnerId, &wallet.Balance, &wallet.LastPostingId, &wallet.Version, &wallet.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// No wallet row means an untouched zero balance
		return &models.WalletAccount{OwnerId: ownerId}, nil
	}
	if err != nil {
		zap.L().Error("Failed to get wallet", zap.String("owner_id", ownerId), zap.Error(err))
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	zap.L().Debug("Retrieved wallet", zap.String("owner_id", ownerId), zap.Int64("balance", wallet.Balance))
	return &wallet, nil
}

// ReconcileWallet verifies that the current balance matches the sum of all postings
func (s *SubledgerService) ReconcileWallet(ctx context.Context, ownerId string) error {
	zap.L().Info("Reconciling wallet", zap.String("owner_id", ownerId))

	wallet, err := s.GetWallet(ctx, ownerId)
	if err != nil {
		return fmt.Errorf("failed to get current balance: %w", err)
	}

	var calculated int64
	if err := s.db.QueryRowContext(ctx, queryReconcileWallet, ownerId).Scan(&calculated); err != nil {
		return fmt.Errorf("failed to calculate balance from postings: %w", err)
	}

	if wallet.Balance != calculated {
		zap.L().Error("Wallet reconciliation failed",
			zap.String("owner_id", ownerId),
			zap.Int64("current_balance", wallet.Balance),
			zap.Int64("calculated_balance", calculated),
			zap.Int64("difference", wallet.Balance-calculated))
		return fmt.Errorf("balance mismatch: current=%d, calculated=%d", wallet.Balance, calculated)
	}

	zap.L().Info("Wallet reconciliation successful",
		zap.String("owner_id", ownerId),
		zap.Int64("balance", wallet.Balance))
	return nil
}
