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
	"os"
	"testing"
	"time"

	"smartcare-ledger-go/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a reachable Redis; skipped unless SMARTCARE_TEST_REDIS_ADDR is set.
func setupRedisCache(t *testing.T) *RedisCache {
	addr := os.Getenv("SMARTCARE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SMARTCARE_TEST_REDIS_ADDR not set")
	}

	client, err := NewRedisClient(context.Background(), models.CacheConfig{RedisAddr: addr})
	require.NoError(t, err)

	c := NewRedisCache(client, time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCache_SetGetInvalidate(t *testing.T) {
	c := setupRedisCache(t)
	ctx := context.Background()
	owner := uuid.New().String()

	_, err := c.Get(ctx, owner)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, models.WalletAccount{OwnerId: owner, Balance: 200_000, Version: 4}))
	require.NoError(t, c.Set(ctx, models.WalletAccount{OwnerId: owner, Balance: 1, Version: 3}))

	wallet, err := c.Get(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(200_000), wallet.Balance)

	require.NoError(t, c.Invalidate(ctx, owner))
	_, err = c.Get(ctx, owner)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCache_HealthCheck(t *testing.T) {
	c := setupRedisCache(t)
	assert.NoError(t, c.HealthCheck(context.Background()))
}
