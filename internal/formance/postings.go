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
	"fmt"
	"strconv"
	"strings"

	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/store"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

const (
	walletPrefix    = "users:"
	clearingAccount = "platform:topups:clearing"
	revenueAccount  = "platform:revenue:services"
)

// Numscript templates. Every posting field is stored as transaction metadata
// so a transaction can be read back as a models.Posting.

const numscriptCredit = `vars {
  asset $asset
  number $amount
  account $owner_id
  string $kind
  string $request_hash
  string $entity_id
  string $transition
  string $balance_before
  string $balance_after
}

send [$asset $amount] (
  source = @platform:topups:clearing allowing unbounded overdraft
  destination = @users:$owner_id
)

set_tx_meta("owner_id", $owner_id)
set_tx_meta("kind", $kind)
set_tx_meta("request_hash", $request_hash)
set_tx_meta("entity_id", $entity_id)
set_tx_meta("transition", $transition)
set_tx_meta("balance_before", $balance_before)
set_tx_meta("balance_after", $balance_after)
`

// The wallet source has no overdraft, so the ledger itself rejects a debit
// larger than the balance.
const numscriptDebit = `vars {
  asset $asset
  number $amount
  account $owner_id
  string $kind
  string $request_hash
  string $entity_id
  string $transition
  string $balance_before
  string $balance_after
}

send [$asset $amount] (
  source = @users:$owner_id
  destination = @platform:revenue:services
)

set_tx_meta("owner_id", $owner_id)
set_tx_meta("kind", $kind)
set_tx_meta("request_hash", $request_hash)
set_tx_meta("entity_id", $entity_id)
set_tx_meta("transition", $transition)
set_tx_meta("balance_before", $balance_before)
set_tx_meta("balance_after", $balance_after)
`

// ApplyPosting records the adjustment as one ledger transaction referenced by
// the idempotency key. Formance rejects a second transaction with the same
// reference, which surfaces as store.ErrDuplicatePosting.
func (s *Service) ApplyPosting(ctx context.Context, params store.PostingParams) (*models.Posting, *models.WalletAccount, error) {
	if params.Amount <= 0 {
		return nil, nil, fmt.Errorf("posting amount must be positive, got %d", params.Amount)
	}
	script := numscriptCredit
	switch params.Kind {
	case models.PostingCredit:
	case models.PostingDebit:
		script = numscriptDebit
	default:
		return nil, nil, fmt.Errorf("unknown posting kind %q", params.Kind)
	}

	zap.L().Info("Applying posting in Formance",
		zap.String("owner_id", params.OwnerId),
		zap.String("kind", string(params.Kind)),
		zap.Int64("amount", params.Amount),
		zap.String("idempotency_key", params.IdempotencyKey))

	before, err := s.GetWallet(ctx, params.OwnerId)
	if err != nil {
		return nil, nil, err
	}
	after := before.Balance + params.Amount
	if params.Kind == models.PostingDebit {
		if before.Balance < params.Amount {
			return nil, nil, &store.InsufficientFundsError{OwnerId: params.OwnerId, Balance: before.Balance, Amount: params.Amount}
		}
		after = before.Balance - params.Amount
	}

	_, err = s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger: s.ledger,
		V2PostTransaction: shared.V2PostTransaction{
			Reference: strPtr(params.IdempotencyKey),
			Script: &shared.V2PostTransactionScript{
				Plain: script,
				Vars: map[string]string{
					"asset":          idrAsset,
					"amount":         strconv.FormatInt(params.Amount, 10),
					"owner_id":       params.OwnerId,
					"kind":           string(params.Kind),
					"request_hash":   params.RequestHash,
					"entity_id":      params.EntityId,
					"transition":     params.Transition,
					"balance_before": strconv.FormatInt(before.Balance, 10),
					"balance_after":  strconv.FormatInt(after, 10),
				},
			},
		},
	})
	if err != nil {
		switch errorCode(err) {
		case shared.V2ErrorsEnumConflict:
			return nil, nil, fmt.Errorf("%w: idempotency key %s already applied", store.ErrDuplicatePosting, params.IdempotencyKey)
		case shared.V2ErrorsEnumInsufficientFund:
			current, werr := s.GetWallet(ctx, params.OwnerId)
			if werr != nil {
				return nil, nil, werr
			}
			return nil, nil, &store.InsufficientFundsError{OwnerId: params.OwnerId, Balance: current.Balance, Amount: params.Amount}
		}
		return nil, nil, fmt.Errorf("error creating posting transaction: %w", err)
	}

	posting, err := s.GetPostingByKey(ctx, params.IdempotencyKey)
	if err != nil {
		return nil, nil, fmt.Errorf("posting committed but not readable: %w", err)
	}
	wallet, err := s.GetWallet(ctx, params.OwnerId)
	if err != nil {
		return nil, nil, err
	}

	zap.L().Info("Posting applied in Formance",
		zap.String("posting_id", posting.Id),
		zap.String("owner_id", params.OwnerId),
		zap.Int64("new_balance", wallet.Balance))
	return posting, wallet, nil
}

// GetPostingByKey finds the transaction whose reference is idempotencyKey.
func (s *Service) GetPostingByKey(ctx context.Context, idempotencyKey string) (*models.Posting, error) {
	pageSize := int64(1)
	resp, err := s.client.Ledger.V2.ListTransactions(ctx, operations.V2ListTransactionsRequest{
		Ledger:   s.ledger,
		PageSize: &pageSize,
		RequestBody: map[string]any{
			"$match": map[string]any{"reference": idempotencyKey},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}
	if len(resp.V2TransactionsCursorResponse.Cursor.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrPostingNotFound, idempotencyKey)
	}
	posting := postingFromTransaction(resp.V2TransactionsCursorResponse.Cursor.Data[0])
	return &posting, nil
}

// ListPostings returns the wallet's transactions newest first.
func (s *Service) ListPostings(ctx context.Context, ownerId string, limit, offset int) ([]models.Posting, error) {
	if limit <= 0 {
		limit = 100
	}
	pageSize := int64(limit + offset)
	address := walletPrefix + ownerId

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
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	data := resp.V2TransactionsCursorResponse.Cursor.Data
	if offset >= len(data) {
		return nil, nil
	}
	data = data[offset:]
	if len(data) > limit {
		data = data[:limit]
	}

	postings := make([]models.Posting, 0, len(data))
	for _, tx := range data {
		postings = append(postings, postingFromTransaction(tx))
	}
	return postings, nil
}

// postingFromTransaction rebuilds a posting from the metadata written by the
// Numscript templates. The amount comes from the wallet leg of the transaction.
func postingFromTransaction(tx shared.V2Transaction) models.Posting {
	id, _ := transactionId(tx)
	p := models.Posting{
		Id:          id,
		OwnerId:     tx.Metadata["owner_id"],
		Kind:        models.PostingKind(tx.Metadata["kind"]),
		RequestHash: tx.Metadata["request_hash"],
		EntityId:    tx.Metadata["entity_id"],
		Transition:  tx.Metadata["transition"],
		CreatedAt:   tx.Timestamp,
	}
	if tx.Reference != nil {
		p.IdempotencyKey = *tx.Reference
	}
	p.BalanceBefore, _ = strconv.ParseInt(tx.Metadata["balance_before"], 10, 64)
	p.BalanceAfter, _ = strconv.ParseInt(tx.Metadata["balance_after"], 10, 64)

	for _, leg := range tx.Postings {
		if leg.Asset != idrAsset || leg.Amount == nil {
			continue
		}
		if strings.HasPrefix(leg.Source, walletPrefix) || strings.HasPrefix(leg.Destination, walletPrefix) {
			p.Amount = leg.Amount.Int64()
			break
		}
	}
	return p
}

// transactionId returns the ledger transaction id as a string and as the
// monotonically increasing number used for wallet versions.
func transactionId(tx shared.V2Transaction) (string, int64) {
	id := fmt.Sprintf("%d", tx.ID)
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return id, 0
	}
	return id, n
}
