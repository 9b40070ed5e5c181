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
	"testing"

	"smartcare-ledger-go/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanDebit_CashAlwaysAllowed(t *testing.T) {
	allowed, shortfall := CanDebit(models.WalletAccount{Balance: 0}, 1_000_000, models.PaymentCash)
	assert.True(t, allowed)
	assert.Zero(t, shortfall)
}

func TestCanDebit_Saldo(t *testing.T) {
	tests := []struct {
		name          string
		balance       int64
		amount        int64
		wantAllowed   bool
		wantShortfall int64
	}{
		{"exact balance", 150_000, 150_000, true, 0},
		{"surplus", 200_000, 150_000, true, 0},
		{"short", 100_000, 150_000, false, 50_000},
		{"empty wallet", 0, 10_000, false, 10_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, shortfall := CanDebit(models.WalletAccount{Balance: tt.balance}, tt.amount, models.PaymentSaldo)
			assert.Equal(t, tt.wantAllowed, allowed)
			assert.Equal(t, tt.wantShortfall, shortfall)
		})
	}
}

func TestCanDebit_SaldoMatchesBalanceComparison(t *testing.T) {
	for balance := int64(0); balance <= 50; balance++ {
		for amount := int64(1); amount <= 50; amount++ {
			allowed, shortfall := CanDebit(models.WalletAccount{Balance: balance}, amount, models.PaymentSaldo)
			if allowed != (balance >= amount) {
				t.Fatalf("balance=%d amount=%d: allowed=%v", balance, amount, allowed)
			}
			want := amount - balance
			if want < 0 {
				want = 0
			}
			if shortfall != want {
				t.Fatalf("balance=%d amount=%d: shortfall=%d want %d", balance, amount, shortfall, want)
			}
		}
	}
}
