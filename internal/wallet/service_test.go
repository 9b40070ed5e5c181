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
	"testing"

	"smartcare-ledger-go/internal/cache"
	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBalanceStore struct {
	mock.Mock
}

func (m *mockBalanceStore) ApplyPosting(ctx context.Context, params store.PostingParams) (*models.Posting, *models.WalletAccount, error) {
	args := m.Called(ctx, params)
	return nil, nil, args.Error(2)
}

func (m *mockBalanceStore) GetPostingByKey(ctx context.Context, key string) (*models.Posting, error) {
	args := m.Called(ctx, key)
	return nil, args.Error(1)
}

func (m *mockBalanceStore) GetWallet(ctx context.Context, ownerId string) (*models.WalletAccount, error) {
	args := m.Called(ctx, ownerId)
	if w, ok := args.Get(0).(*models.WalletAccount); ok {
		return w, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBalanceStore) ListPostings(ctx context.Context, ownerId string, limit, offset int) ([]models.Posting, error) {
	args := m.Called(ctx, ownerId, limit, offset)
	return nil, args.Error(1)
}

func (m *mockBalanceStore) Close() {}

func TestSnapshot_MissLoadsAndCaches(t *testing.T) {
	ctx := context.Background()
	balances := new(mockBalanceStore)
	balances.On("GetWallet", ctx, "user1").Return(&models.WalletAccount{OwnerId: "user1", Balance: 75_000, Version: 2}, nil).Once()

	svc := NewService(balances, cache.NewMemoryCache())

	first, err := svc.Snapshot(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(75_000), first.Balance)

	// Second read is served from the cache
	second, err := svc.Snapshot(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, first.Balance, second.Balance)

	balances.AssertExpectations(t)
}

func TestSnapshot_StoreFailureIsStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	balances := new(mockBalanceStore)
	balances.On("GetWallet", ctx, "user1").Return(nil, errors.New("disk gone"))

	svc := NewService(balances, nil)

	_, err := svc.Snapshot(ctx, "user1")
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}

func TestResyncAndDrift(t *testing.T) {
	ctx := context.Background()
	balances := new(mockBalanceStore)
	balances.On("GetWallet", ctx, "user1").Return(&models.WalletAccount{OwnerId: "user1", Balance: 10_000, Version: 5}, nil)

	replica := cache.NewMemoryCache()
	require.NoError(t, replica.Set(ctx, models.WalletAccount{OwnerId: "user1", Balance: 99, Version: 1}))

	svc := NewService(balances, replica)

	_, _, inSync, err := svc.Drift(ctx, "user1")
	require.NoError(t, err)
	assert.False(t, inSync)

	wallet, err := svc.Resync(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), wallet.Balance)

	cached, authoritative, inSync, err := svc.Drift(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, inSync)
	assert.Equal(t, authoritative.Balance, cached.Balance)
}

func TestPostings_ClampsPaging(t *testing.T) {
	ctx := context.Background()
	balances := new(mockBalanceStore)
	balances.On("ListPostings", ctx, "user1", 20, 0).Return(nil, nil).Once()
	balances.On("ListPostings", ctx, "user1", 50, 10).Return(nil, errors.New("timeout")).Once()

	svc := NewService(balances, nil)

	_, err := svc.Postings(ctx, "user1", 500, -3)
	require.NoError(t, err)

	_, err = svc.Postings(ctx, "user1", 50, 10)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)

	_, err = svc.Postings(ctx, "", 10, 0)
	assert.ErrorIs(t, err, models.ErrValidation)

	balances.AssertExpectations(t)
}
