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

import "smartcare-ledger-go/internal/models"

// CanDebit decides whether a payment of amount by method may proceed against account.
// Cash is always allowed. Saldo is allowed iff the balance covers the amount; shortfall
// is how much is missing. The result is advisory: the authoritative debit re-validates.
func CanDebit(account models.WalletAccount, amount int64, method models.PaymentMethod) (allowed bool, shortfall int64) {
	if method != models.PaymentSaldo {
		return true, 0
	}
	if account.Balance >= amount {
		return true, 0
	}
	return false, amount - account.Balance
}
