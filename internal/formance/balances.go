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

package formance

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"smartcare-ledger-go/internal/models"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

var errNoTransactions = errors.New("no transactions")

// GetWallet reads the users:{ownerId} balance. The version is the id of the
// last ledger transaction that touched the account, so it only ever grows.
func (s *Service) GetWallet(ctx context.Context, ownerId string) (*models.WalletAccount, error) {
	address := walletPrefix + ownerId
	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: address,
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		if errorCode(err) == shared.V2ErrorsEnumNotFound {
			return &models.WalletAccount{OwnerId: ownerId}, nil
		}
		zap.L().Warn("Failed to get account volumes", zap.String("address", address), zap.Error(err))
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	wallet := &models.WalletAccount{OwnerId: ownerId}
	if bal := volumeBalance(resp.V2AccountResponse.Data.Volumes, idrAsset); bal != nil {
		wallet.Balance = bal.Int64()
	}
	if t := resp.V2AccountResponse.Data.UpdatedAt; t != nil {
		wallet.UpdatedAt = *t
	} else if t := resp.V2AccountResponse.Data.FirstUsage; t != nil {
		wallet.UpdatedAt = *t
	}

	last, err := s.lastTransaction(ctx, address)
	switch {
	case err == nil:
		wallet.LastPostingId, wallet.Version = transactionId(last)
		wallet.UpdatedAt = last.Timestamp
	case !errors.Is(err, errNoTransactions):
		return nil, err
	}
	return wallet, nil
}

func (s *Service) lastTransaction(ctx context.Context, address string) (shared.V2Transaction, error) {
	pageSize := int64(1)
	resp, err := s.client.Ledger.V2.ListTransactions(ctx, operations.V2ListTransactionsRequest{
		Ledger:   s.ledger,
		PageSize: &pageSize,
		RequestBody: map[string]any{
			"$or": []any{
				map[string]any{"$match": map[string]any{"source": address}},
				map[string]any{"$match": map[string]any{"destination": address}},
			},
		},
	})
	if err != nil {
		return shared.V2Transaction{}, fmt.Errorf("failed to get last transaction: %w", err)
	}
	if len(resp.V2TransactionsCursorResponse.Cursor.Data) == 0 {
		return shared.V2Transaction{}, errNoTransactions
	}
	return resp.V2TransactionsCursorResponse.Cursor.Data[0], nil
}

// volumeBalance extracts the balance for one asset, deriving it from input and
// output when the stack omits it.
func volumeBalance(vols map[string]shared.V2Volume, asset string) *big.Int {
	vol, ok := vols[asset]
	if !ok {
		return nil
	}
	if vol.Balance != nil {
		return vol.Balance
	}
	if vol.Input == nil {
		return nil
	}
	result := new(big.Int).Set(vol.Input)
	if vol.Output != nil {
		result.Sub(result, vol.Output)
	}
	return result
}
