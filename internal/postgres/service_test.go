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

package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/store"

	"github.com/google/uuid"
)

const dsnEnv = "SMARTCARE_TEST_POSTGRES_DSN"

// setupTestDb connects to the database named by SMARTCARE_TEST_POSTGRES_DSN.
// Rows are keyed by fresh uuids so runs do not collide.
func setupTestDb(t *testing.T) *Service {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}
	service, err := NewService(context.Background(), models.PostgresConfig{
		DSN:         dsn,
		MaxConns:    8,
		PingTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(service.Close)
	return service
}

func createTestUser(t *testing.T, s *Service) models.User {
	t.Helper()
	id := uuid.New().String()
	user, err := s.CreateUser(context.Background(), models.User{
		Id:       id,
		Name:     "Test User",
		Email:    id + "@example.com",
		Password: "password",
		Role:     models.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return *user
}

func posting(ownerId string, kind models.PostingKind, amount int64, entityId, transition string) store.PostingParams {
	return store.PostingParams{
		OwnerId:        ownerId,
		Kind:           kind,
		Amount:         amount,
		IdempotencyKey: entityId + ":" + transition,
		RequestHash:    "hash-" + entityId,
		EntityId:       entityId,
		Transition:     transition,
	}
}

func TestApplyPosting_CreditThenDebit(t *testing.T) {
	s := setupTestDb(t)
	ctx := context.Background()
	user := createTestUser(t, s)

	topUp := uuid.New().String()
	p, wallet, err := s.ApplyPosting(ctx, posting(user.Id, models.PostingCredit, 100_000, topUp, "confirm"))
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if wallet.Balance != 100_000 || p.BalanceBefore != 0 || p.BalanceAfter != 100_000 {
		t.Errorf("unexpected credit result: wallet=%+v posting=%+v", wallet, p)
	}

	order := uuid.New().String()
	_, wallet, err = s.ApplyPosting(ctx, posting(user.Id, models.PostingDebit, 40_000, order, "complete"))
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if wallet.Balance != 60_000 {
		t.Errorf("Expected balance 60000, got %d", wallet.Balance)
	}

	stored, err := s.GetWallet(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if stored.Balance != 60_000 || stored.Version != wallet.Version {
		t.Errorf("stored wallet %+v does not match returned %+v", stored, wallet)
	}

	if err := s.ReconcileWallet(ctx, user.Id); err != nil {
		t.Errorf("ReconcileWallet failed: %v", err)
	}

	postings, err := s.ListPostings(ctx, user.Id, 0, 0)
	if err != nil {
		t.Fatalf("ListPostings failed: %v", err)
	}
	if len(postings) != 2 || postings[0].Kind != models.PostingDebit {
		t.Errorf("Expected debit first of 2 postings, got %+v", postings)
	}
}

func TestApplyPosting_InsufficientFunds(t *testing.T) {
	s := setupTestDb(t)
	ctx := context.Background()
	user := createTestUser(t, s)

	_, _, err := s.ApplyPosting(ctx, posting(user.Id, models.PostingDebit, 10_000, uuid.New().String(), "complete"))
	var ife *store.InsufficientFundsError
	if !errors.As(err, &ife) {
		t.Fatalf("Expected InsufficientFundsError, got %v", err)
	}
	if ife.Shortfall() != 10_000 {
		t.Errorf("Expected shortfall 10000, got %d", ife.Shortfall())
	}

	postings, err := s.ListPostings(ctx, user.Id, 10, 0)
	if err != nil {
		t.Fatalf("ListPostings failed: %v", err)
	}
	if len(postings) != 0 {
		t.Errorf("Expected no postings, got %d", len(postings))
	}
}

func TestApplyPosting_ConcurrentSameKey(t *testing.T) {
	s := setupTestDb(t)
	ctx := context.Background()
	user := createTestUser(t, s)
	params := posting(user.Id, models.PostingCredit, 50_000, uuid.New().String(), "confirm")

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.ApplyPosting(ctx, params)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	applied := 0
	for err := range errs {
		switch {
		case err == nil:
			applied++
		case errors.Is(err, store.ErrDuplicatePosting):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if applied != 1 {
		t.Errorf("Expected exactly one applied posting, got %d", applied)
	}

	wallet, err := s.GetWallet(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if wallet.Balance != 50_000 {
		t.Errorf("Expected balance 50000, got %d", wallet.Balance)
	}

	if _, err := s.GetPostingByKey(ctx, params.IdempotencyKey); err != nil {
		t.Errorf("GetPostingByKey failed: %v", err)
	}
	if _, err := s.GetPostingByKey(ctx, "missing:confirm"); !errors.Is(err, store.ErrPostingNotFound) {
		t.Errorf("Expected ErrPostingNotFound, got %v", err)
	}
}

func TestCreateUser_EmailTaken(t *testing.T) {
	s := setupTestDb(t)
	user := createTestUser(t, s)

	_, err := s.CreateUser(context.Background(), models.User{
		Id:       uuid.New().String(),
		Name:     "Other",
		Email:    user.Email,
		Password: "password",
		Role:     models.RoleCustomer,
	})
	if !errors.Is(err, store.ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}
}

func TestUpdateOrder_StatusConflict(t *testing.T) {
	s := setupTestDb(t)
	ctx := context.Background()
	user := createTestUser(t, s)

	order, err := models.NewOrder(user.Id, models.OrderDraft{
		Description:    "Perawatan Luka",
		ServiceAddress: "Jl. Melati 12",
		Price:          150_000,
		PaymentMethod:  models.PaymentSaldo,
	}, time.Now())
	if err != nil {
		t.Fatalf("NewOrder failed: %v", err)
	}
	if err := s.CreateOrder(ctx, order); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	accepted := order
	accepted.Status = models.OrderAccepted
	accepted.AssignedPartnerId = "partner-1"
	if err := s.UpdateOrder(ctx, &accepted, models.OrderPending); err != nil {
		t.Fatalf("UpdateOrder failed: %v", err)
	}
	if accepted.Version != 2 {
		t.Errorf("Expected version 2, got %d", accepted.Version)
	}

	stale := order
	stale.Status = models.OrderCancelled
	if err := s.UpdateOrder(ctx, &stale, models.OrderPending); !errors.Is(err, store.ErrStatusConflict) {
		t.Errorf("Expected ErrStatusConflict, got %v", err)
	}

	orders, err := s.ListOrders(ctx, store.OrderFilter{OwnerId: user.Id, Status: models.OrderAccepted})
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	if len(orders) != 1 || orders[0].AssignedPartnerId != "partner-1" {
		t.Errorf("unexpected orders: %+v", orders)
	}
}

func TestTopUpAndInvoice(t *testing.T) {
	s := setupTestDb(t)
	ctx := context.Background()
	user := createTestUser(t, s)

	topUp, err := models.NewTopUpRequest(user.Id, 100_000, "whatsapp", time.Now())
	if err != nil {
		t.Fatalf("NewTopUpRequest failed: %v", err)
	}
	if err := s.CreateTopUp(ctx, topUp); err != nil {
		t.Fatalf("CreateTopUp failed: %v", err)
	}

	resolved := topUp
	now := time.Now().UTC()
	resolved.Status = models.TopUpConfirmed
	resolved.ResolvedAt = &now
	if err := s.UpdateTopUp(ctx, resolved, models.TopUpSubmitted); err != nil {
		t.Fatalf("UpdateTopUp failed: %v", err)
	}
	resolved.Status = models.TopUpRejected
	if err := s.UpdateTopUp(ctx, resolved, models.TopUpSubmitted); !errors.Is(err, store.ErrStatusConflict) {
		t.Errorf("Expected ErrStatusConflict, got %v", err)
	}

	if _, err := s.GetInvoiceByOrder(ctx, uuid.New().String()); !errors.Is(err, store.ErrInvoiceNotFound) {
		t.Errorf("Expected ErrInvoiceNotFound, got %v", err)
	}
}
