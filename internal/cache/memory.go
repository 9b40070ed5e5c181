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
	"sync"

	"smartcare-ledger-go/internal/models"
)

var _ BalanceCache = (*MemoryCache)(nil)

// MemoryCache keeps wallet snapshots in process. Used when no Redis address is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	wallets map[string]models.WalletAccount
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{wallets: make(map[string]models.WalletAccount)}
}

func (c *MemoryCache) Get(_ context.Context, ownerId string) (*models.WalletAccount, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	wallet, ok := c.wallets[ownerId]
	if !ok {
		return nil, ErrMiss
	}
	return &wallet, nil
}

func (c *MemoryCache) Set(_ context.Context, wallet models.WalletAccount) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.wallets[wallet.OwnerId]; ok && existing.Version > wallet.Version {
		return nil
	}
	c.wallets[wallet.OwnerId] = wallet
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, ownerId string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.wallets, ownerId)
	return nil
}
