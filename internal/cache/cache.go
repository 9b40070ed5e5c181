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

package cache

import (
	"context"
	"errors"
	"fmt"

	"smartcare-ledger-go/internal/models"
)

// ErrMiss is returned by Get when no snapshot is cached for the owner.
var ErrMiss = errors.New("cache miss")

// BalanceCache is the read replica of authoritative wallet balances. Entries may be
// stale between reconciliations; Set never replaces a snapshot with an older version.
type BalanceCache interface {
	Get(ctx context.Context, ownerId string) (*models.WalletAccount, error)
	Set(ctx context.Context, wallet models.WalletAccount) error
	Invalidate(ctx context.Context, ownerId string) error
}

// WalletKey is the cache key of an owner's wallet snapshot.
func WalletKey(ownerId string) string {
	return fmt.Sprintf("smartcare:wallet:%s", ownerId)
}
