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

package topup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"smartcare-ledger-go/internal/cache"
	"smartcare-ledger-go/internal/database"
	"smartcare-ledger-go/internal/history"
	"smartcare-ledger-go/internal/ledger"
	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/notify"
	"smartcare-ledger-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const owner = "user-1"

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(_ context.Context, event notify.Event) {
	m.Called(event.Kind, event.EntityId, event.Amount)
}

// flakyTopUps fails UpdateTopUp while down is set. afterGet, when set, runs once
// right after the next GetTopUp returns.
type flakyTopUps struct {
	*database.Service
	down     atomic.Bool
	afterGet func()
}

func (f *flakyTopUps) GetTopUp(ctx context.Context, topUpId string) (*models.TopUpRequest, error) {
	topUp, err := f.Service.GetTopUp(ctx, topUpId)
	if hook := f.afterGet; hook != nil {
		f.afterGet = nil
		hook()
	}
	return topUp, err
}

func (f *flakyTopUps) UpdateTopUp(ctx context.Context, topUp models.TopUpRequest, from models.TopUpStatus) error {
	if f.down.Load() {
		return errors.New("disk I/O error")
	}
	return f.Service.UpdateTopUp(ctx, topUp, from)
}

// flakyBalances fails ApplyPosting while down is set.
type flakyBalances struct {
	*database.Service
	down atomic.Bool
}

func (f *flakyBalances) ApplyPosting(ctx context.Context, params store.PostingParams) (*models.Posting, *models.WalletAccount, error) {
	if f.down.Load() {
		return nil, nil, errors.New("database is locked")
	}
	return f.Service.ApplyPosting(ctx, params)
}

type harness struct {
	db       *database.Service
	records  *flakyTopUps
	balances *flakyBalances
	replica  *cache.MemoryCache
	notifier *mockNotifier
	svc      *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         database.MemoryPath,
		MaxOpenConns: 1,
		PingTimeout:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = db.CreateUser(context.Background(), models.User{
		Id: owner, Name: "Budi Santoso", Email: "budi@example.com", Password: "secret",
		Address: "Jl. Kenanga 3", Phone: "08129876543", Role: models.RoleCustomer,
	})
	require.NoError(t, err)

	records := &flakyTopUps{Service: db}
	balances := &flakyBalances{Service: db}
	replica := cache.NewMemoryCache()
	notifier := &mockNotifier{}
	svc := NewService(ServiceConfig{
		Records:  records,
		Ledger:   ledger.NewReconciler(balances, replica),
		Notifier: notifier,
	})
	return &harness{db: db, records: records, balances: balances, replica: replica, notifier: notifier, svc: svc}
}

func (h *harness) balance(t *testing.T) int64 {
	t.Helper()
	w, err := h.db.GetWallet(context.Background(), owner)
	require.NoError(t, err)
	return w.Balance
}

func TestConfirm_CreditsBalance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.Zero(t, h.balance(t))

	topUp, err := h.svc.Submit(ctx, owner, 50_000, "whatsapp")
	require.NoError(t, err)
	assert.Equal(t, models.TopUpSubmitted, topUp.Status)
	assert.Zero(t, h.balance(t), "submitting does not credit")

	h.notifier.On("Notify", notify.EventTopUpConfirmed, topUp.Id, int64(50_000)).Once()

	confirmed, err := h.svc.Confirm(ctx, topUp.Id)
	require.NoError(t, err)
	assert.Equal(t, models.TopUpConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ResolvedAt)
	assert.Equal(t, int64(50_000), h.balance(t))

	cached, err := h.replica.Get(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), cached.Balance)

	h.notifier.AssertExpectations(t)
}

func TestSubmit_OutOfRangeCreatesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, amount := range []int64{5_000, 0, -10_000, 10_000_001} {
		_, err := h.svc.Submit(ctx, owner, amount, "whatsapp")
		assert.ErrorIs(t, err, models.ErrValidation, "amount %d", amount)
	}

	topUps, err := h.svc.List(ctx, owner, history.TopUpFilter{})
	require.NoError(t, err)
	assert.Empty(t, topUps)
}

func TestConfirm_TwiceCreditsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	topUp, err := h.svc.Submit(ctx, owner, 100_000, "whatsapp")
	require.NoError(t, err)

	h.notifier.On("Notify", notify.EventTopUpConfirmed, topUp.Id, int64(100_000)).Once()
	_, err = h.svc.Confirm(ctx, topUp.Id)
	require.NoError(t, err)

	_, err = h.svc.Confirm(ctx, topUp.Id)
	assert.ErrorIs(t, err, models.ErrAlreadyResolved)
	_, err = h.svc.Reject(ctx, topUp.Id)
	assert.ErrorIs(t, err, models.ErrAlreadyResolved)

	assert.Equal(t, int64(100_000), h.balance(t))
	h.notifier.AssertExpectations(t)
}

func TestReject_NoBalanceEffect(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	topUp, err := h.svc.Submit(ctx, owner, 75_000, "telegram")
	require.NoError(t, err)

	h.notifier.On("Notify", notify.EventTopUpRejected, topUp.Id, int64(75_000)).Once()
	rejected, err := h.svc.Reject(ctx, topUp.Id)
	require.NoError(t, err)
	assert.Equal(t, models.TopUpRejected, rejected.Status)

	_, err = h.svc.Confirm(ctx, topUp.Id)
	assert.ErrorIs(t, err, models.ErrAlreadyResolved)
	assert.Zero(t, h.balance(t))
	h.notifier.AssertExpectations(t)
}

func TestConfirm_RetryAfterStatusWriteFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	topUp, err := h.svc.Submit(ctx, owner, 200_000, "whatsapp")
	require.NoError(t, err)

	h.records.down.Store(true)
	_, err = h.svc.Confirm(ctx, topUp.Id)
	require.ErrorIs(t, err, models.ErrStoreUnavailable)

	current, err := h.svc.Get(ctx, topUp.Id)
	require.NoError(t, err)
	assert.Equal(t, models.TopUpSubmitted, current.Status)

	h.records.down.Store(false)
	h.notifier.On("Notify", notify.EventTopUpConfirmed, topUp.Id, int64(200_000)).Once()

	confirmed, err := h.svc.Confirm(ctx, topUp.Id)
	require.NoError(t, err)
	assert.Equal(t, models.TopUpConfirmed, confirmed.Status)
	assert.Equal(t, int64(200_000), h.balance(t))
}

func TestConfirm_RetryAfterCreditFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	topUp, err := h.svc.Submit(ctx, owner, 150_000, "whatsapp")
	require.NoError(t, err)

	h.balances.down.Store(true)
	_, err = h.svc.Confirm(ctx, topUp.Id)
	require.ErrorIs(t, err, models.ErrStoreUnavailable)

	current, err := h.svc.Get(ctx, topUp.Id)
	require.NoError(t, err)
	assert.Equal(t, models.TopUpConfirmed, current.Status)
	assert.Zero(t, h.balance(t))

	_, err = h.svc.Reject(ctx, topUp.Id)
	require.ErrorIs(t, err, models.ErrAlreadyResolved)

	h.balances.down.Store(false)
	h.notifier.On("Notify", notify.EventTopUpConfirmed, topUp.Id, int64(150_000)).Once()

	confirmed, err := h.svc.Confirm(ctx, topUp.Id)
	require.NoError(t, err)
	assert.Equal(t, models.TopUpConfirmed, confirmed.Status)
	assert.Equal(t, int64(150_000), h.balance(t))

	_, err = h.svc.Confirm(ctx, topUp.Id)
	assert.ErrorIs(t, err, models.ErrAlreadyResolved)
	assert.Equal(t, int64(150_000), h.balance(t))
	h.notifier.AssertExpectations(t)
}

func TestRejectDuringConfirm_RejectWins(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	topUp, err := h.svc.Submit(ctx, owner, 50_000, "whatsapp")
	require.NoError(t, err)
	h.notifier.On("Notify", notify.EventTopUpRejected, topUp.Id, int64(50_000)).Once()

	// Confirm has read the request as submitted when the reject lands.
	var rejectErr error
	h.records.afterGet = func() {
		_, rejectErr = h.svc.Reject(ctx, topUp.Id)
	}
	_, err = h.svc.Confirm(ctx, topUp.Id)
	require.NoError(t, rejectErr)
	assert.ErrorIs(t, err, models.ErrAlreadyResolved)

	current, err := h.svc.Get(ctx, topUp.Id)
	require.NoError(t, err)
	assert.Equal(t, models.TopUpRejected, current.Status)
	assert.Zero(t, h.balance(t))

	posting, err := h.svc.ledger.Applied(ctx, topUp.Id, TransitionConfirm)
	require.NoError(t, err)
	assert.Nil(t, posting)
	h.notifier.AssertExpectations(t)
}

func TestConfirmDuringReject_ConfirmWins(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	topUp, err := h.svc.Submit(ctx, owner, 50_000, "whatsapp")
	require.NoError(t, err)
	h.notifier.On("Notify", notify.EventTopUpConfirmed, topUp.Id, int64(50_000)).Once()

	// Reject has read the request as submitted when the confirmation lands.
	var confirmErr error
	h.records.afterGet = func() {
		_, confirmErr = h.svc.Confirm(ctx, topUp.Id)
	}
	_, err = h.svc.Reject(ctx, topUp.Id)
	require.NoError(t, confirmErr)
	assert.ErrorIs(t, err, models.ErrAlreadyResolved)

	current, err := h.svc.Get(ctx, topUp.Id)
	require.NoError(t, err)
	assert.Equal(t, models.TopUpConfirmed, current.Status)
	assert.Equal(t, int64(50_000), h.balance(t))
	h.notifier.AssertExpectations(t)
}

func TestGetForOwner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	topUp, err := h.svc.Submit(ctx, owner, 50_000, "whatsapp")
	require.NoError(t, err)

	got, err := h.svc.GetForOwner(ctx, owner, topUp.Id)
	require.NoError(t, err)
	assert.Equal(t, topUp.Id, got.Id)

	_, err = h.svc.GetForOwner(ctx, "user-2", topUp.Id)
	assert.ErrorIs(t, err, store.ErrTopUpNotFound)

	_, err = h.svc.Confirm(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrTopUpNotFound)
}

func TestList_ByStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.Submit(ctx, owner, 50_000, "whatsapp")
	require.NoError(t, err)
	_, err = h.svc.Submit(ctx, owner, 100_000, "whatsapp")
	require.NoError(t, err)

	h.notifier.On("Notify", notify.EventTopUpRejected, first.Id, int64(50_000)).Once()
	_, err = h.svc.Reject(ctx, first.Id)
	require.NoError(t, err)

	pending, err := h.svc.ListAll(ctx, history.TopUpFilter{Status: models.TopUpSubmitted}, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(100_000), pending[0].Amount)

	all, err := h.svc.List(ctx, owner, history.TopUpFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestQuickAmountsAreValid(t *testing.T) {
	for _, amount := range QuickAmounts {
		assert.NoError(t, models.ValidateTopUpAmount(amount))
	}
}
