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
	"errors"
	"math/big"
	"testing"
	"time"

	"smartcare-ledger-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
)

// ---------- Unit tests for pure helpers (no Formance stack needed) ----------

func TestVolumeBalance(t *testing.T) {
	tests := []struct {
		name string
		vols map[string]shared.V2Volume
		want *big.Int
	}{
		{"missing asset", map[string]shared.V2Volume{}, nil},
		{"explicit balance", map[string]shared.V2Volume{idrAsset: {Balance: big.NewInt(150_000)}}, big.NewInt(150_000)},
		{"derived from volumes", map[string]shared.V2Volume{idrAsset: {Input: big.NewInt(200_000), Output: big.NewInt(50_000)}}, big.NewInt(150_000)},
		{"input only", map[string]shared.V2Volume{idrAsset: {Input: big.NewInt(10_000)}}, big.NewInt(10_000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := volumeBalance(tt.vols, idrAsset)
			if tt.want == nil {
				if got != nil {
					t.Errorf("expected nil, got %s", got)
				}
				return
			}
			if got == nil || got.Cmp(tt.want) != 0 {
				t.Errorf("volumeBalance = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestPostingFromTransaction(t *testing.T) {
	ts := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ref := "order-1:complete"
	tx := shared.V2Transaction{
		Reference: &ref,
		Timestamp: ts,
		Metadata: map[string]string{
			"owner_id":       "user-1",
			"kind":           "debit",
			"request_hash":   "abc",
			"entity_id":      "order-1",
			"transition":     "complete",
			"balance_before": "200000",
			"balance_after":  "50000",
		},
		Postings: []shared.V2Posting{
			{Source: "users:user-1", Destination: revenueAccount, Asset: idrAsset, Amount: big.NewInt(150_000)},
		},
	}

	p := postingFromTransaction(tx)
	if p.OwnerId != "user-1" || p.Kind != models.PostingDebit || p.Amount != 150_000 {
		t.Errorf("unexpected posting: %+v", p)
	}
	if p.IdempotencyKey != ref || p.EntityId != "order-1" || p.Transition != "complete" {
		t.Errorf("unexpected key fields: %+v", p)
	}
	if p.BalanceBefore != 200_000 || p.BalanceAfter != 50_000 {
		t.Errorf("unexpected balances: before=%d after=%d", p.BalanceBefore, p.BalanceAfter)
	}
	if !p.CreatedAt.Equal(ts) {
		t.Errorf("CreatedAt = %v, want %v", p.CreatedAt, ts)
	}
	if p.SignedAmount() != -150_000 {
		t.Errorf("SignedAmount = %d, want -150000", p.SignedAmount())
	}
}

func TestPostingFromTransaction_IgnoresOtherAssets(t *testing.T) {
	tx := shared.V2Transaction{
		Metadata: map[string]string{"kind": "credit"},
		Postings: []shared.V2Posting{
			{Source: clearingAccount, Destination: "users:user-1", Asset: "USD/2", Amount: big.NewInt(99)},
			{Source: clearingAccount, Destination: "users:user-1", Asset: idrAsset, Amount: big.NewInt(50_000)},
		},
	}
	if p := postingFromTransaction(tx); p.Amount != 50_000 {
		t.Errorf("Amount = %d, want 50000", p.Amount)
	}
}

func TestErrorCode(t *testing.T) {
	if errorCode(nil) != "" {
		t.Error("nil should have no error code")
	}
	if errorCode(errors.New("boom")) != "" {
		t.Error("plain errors should have no error code")
	}
	apiErr := &sdkerrors.V2ErrorResponse{ErrorCode: shared.V2ErrorsEnumConflict}
	if errorCode(apiErr) != shared.V2ErrorsEnumConflict {
		t.Errorf("expected CONFLICT, got %q", errorCode(apiErr))
	}
}
