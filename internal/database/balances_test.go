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

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

func setupServiceTestDb(t *testing.T) (*Service, func()) {
	service, err := NewService(context.Background(), models.DatabaseConfig{
		Path:         MemoryPath,
		MaxOpenConns: 1,
		PingTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	return service, service.Close
}

func insertTestUser(t *testing.T, service *Service, id, email string) *models.User {
	user, err := service.CreateUser(context.Background(), models.User{
		Id:       id,
		Name:     "Test User",
		Email:    email,
		Password: "secret",
		Address:  "Jl. Test 1",
		Phone:    "0812",
		Role:     models.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}
	return user
}

func TestGetWallet_NoBalance(t *testing.T) {
	service, cleanup := setupServiceTestDb(t)
	defer cleanup()

	wallet, err := service.GetWallet(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if wallet.Balance != 0 {
		t.Errorf("Expected balance 0, got %d", wallet.Balance)
	}
}

func TestCreateUser_CreatesEmptyWallet(t *testing.T) {
	service, cleanup := setupServiceTestDb(t)
	defer cleanup()

	ctx := context.Background()
	insertTestUser(t, service, "user1", "test@example.com")

	wallet, err := service.GetWallet(ctx, "user1")
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if wallet.Balance != 0 || wallet.Version != 1 {
		t.Errorf("Expected fresh wallet (0, v1), got (%d, v%d)", wallet.Balance, wallet.Version)
	}

	byEmail, err := service.GetUserByEmail(ctx, "TEST@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.Id != "user1" {
		t.Errorf("Expected user1, got %s", byEmail.Id)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	service, cleanup := setupServiceTestDb(t)
	defer cleanup()

	insertTestUser(t, service, "user1", "test@example.com")
	_, err := service.CreateUser(context.Background(), models.User{Id: "user2", Name: "Other", Email: "test@example.com", Password: "x"})
	if !errors.Is(err, store.ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}
}

func TestGetUserById_NotFound(t *testing.T) {
	service, cleanup := setupServiceTestDb(t)
	defer cleanup()

	if _, err := service.GetUserById(context.Background(), "missing"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	service, cleanup := setupServiceTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := insertTestUser(t, service, "user1", "test@example.com")
	user.Name = "Renamed"
	user.Phone = "0899"
	if err := service.UpdateUser(ctx, *user); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	got, err := service.GetUserById(ctx, "user1")
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if got.Name != "Renamed" || got.Phone != "0899" {
		t.Errorf("Expected updated profile, got %+v", got)
	}
}

func TestOrderRoundTripAndConditionalUpdate(t *testing.T) {
	service, cleanup := setupServiceTestDb(t)
	defer cleanup()

	ctx := context.Background()
	insertTestUser(t, service, "user1", "test@example.com")

	order, err := models.NewOrder("user1", models.OrderDraft{
		Description:    "Fisioterapi - lutut kiri",
		ServiceAddress: "Jl. Test 1",
		Price:          150_000,
		PaymentMethod:  models.PaymentSaldo,
	}, time.Now())
	if err != nil {
		t.Fatalf("NewOrder failed: %v", err)
	}
	if err := service.CreateOrder(ctx, order); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	stored, err := service.GetOrder(ctx, order.Id)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if stored.Status != models.OrderPending || stored.Price != 150_000 || stored.StartedAt != nil {
		t.Errorf("Unexpected stored order: %+v", stored)
	}

	stored.Status = models.OrderAccepted
	stored.AssignedPartnerId = "mitra1"
	if err := service.UpdateOrder(ctx, stored, models.OrderPending); err != nil {
		t.Fatalf("UpdateOrder failed: %v", err)
	}
	if stored.Version != 2 {
		t.Errorf("Expected version 2, got %d", stored.Version)
	}

	// A second writer still believing the order is Pending loses
	stale := order
	stale.Status = models.OrderCancelled
	if err := service.UpdateOrder(ctx, &stale, models.OrderPending); !errors.Is(err, store.ErrStatusConflict) {
		t.Errorf("Expected ErrStatusConflict, got %v", err)
	}

	missing := order
	missing.Id = "missing"
	if err := service.UpdateOrder(ctx, &missing, models.OrderPending); !errors.Is(err, store.ErrOrderNotFound) {
		t.Errorf("Expected ErrOrderNotFound, got %v", err)
	}
}

func TestListOrders_Filters(t *testing.T) {
	service, cleanup := setupServiceTestDb(t)
	defer cleanup()

	ctx := context.Background()
	insertTestUser(t, service, "user1", "a@example.com")
	insertTestUser(t, service, "user2", "b@example.com")

	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	for i, owner := range []string{"user1", "user1", "user2"} {
		order, err := models.NewOrder(owner, models.OrderDraft{
			Description: "Layanan Suntik", ServiceAddress: "Jl. A", Price: 100_000, PaymentMethod: models.PaymentCash,
		}, base.Add(time.Duration(i)*time.Hour))
		if err != nil {
			t.Fatalf("NewOrder failed: %v", err)
		}
		if err := service.CreateOrder(ctx, order); err != nil {
			t.Fatalf("CreateOrder failed: %v", err)
		}
	}

	orders, err := service.ListOrders(ctx, store.OrderFilter{OwnerId: "user1"})
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("Expected 2 orders for user1, got %d", len(orders))
	}
	if !orders[0].RequestedAt.After(orders[1].RequestedAt) {
		t.Errorf("Expected newest first, got %v then %v", orders[0].RequestedAt, orders[1].RequestedAt)
	}

	accepted, err := service.ListOrders(ctx, store.OrderFilter{Status: models.OrderAccepted})
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	if len(accepted) != 0 {
		t.Errorf("Expected no accepted orders, got %d", len(accepted))
	}
}

func TestTopUpRoundTrip(t *testing.T) {
	service, cleanup := setupServiceTestDb(t)
	defer cleanup()

	ctx := context.Background()
	insertTestUser(t, service, "user1", "a@example.com")

	topUp, err := models.NewTopUpRequest("user1", 50_000, "0812", time.Now())
	if err != nil {
		t.Fatalf("NewTopUpRequest failed: %v", err)
	}
	if err := service.CreateTopUp(ctx, topUp); err != nil {
		t.Fatalf("CreateTopUp failed: %v", err)
	}

	resolved := time.Now().UTC()
	topUp.Status = models.TopUpConfirmed
	topUp.ResolvedAt = &resolved
	if err := service.UpdateTopUp(ctx, topUp, models.TopUpSubmitted); err != nil {
		t.Fatalf("UpdateTopUp failed: %v", err)
	}

	if err := service.UpdateTopUp(ctx, topUp, models.TopUpSubmitted); !errors.Is(err, store.ErrStatusConflict) {
		t.Errorf("Expected ErrStatusConflict on second resolve, got %v", err)
	}

	stored, err := service.GetTopUp(ctx, topUp.Id)
	if err != nil {
		t.Fatalf("GetTopUp failed: %v", err)
	}
	if stored.Status != models.TopUpConfirmed || stored.ResolvedAt == nil {
		t.Errorf("Unexpected stored top-up: %+v", stored)
	}

	pending, err := service.ListTopUps(ctx, store.TopUpFilter{Status: models.TopUpSubmitted})
	if err != nil {
		t.Fatalf("ListTopUps failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected no pending top-ups, got %d", len(pending))
	}
}

func TestCreateInvoice_OncePerOrder(t *testing.T) {
	service, cleanup := setupServiceTestDb(t)
	defer cleanup()

	ctx := context.Background()
	insertTestUser(t, service, "user1", "a@example.com")
	order, _ := models.NewOrder("user1", models.OrderDraft{
		Description: "Perawatan Jantung", ServiceAddress: "Jl. A", Price: 300_000, PaymentMethod: models.PaymentCash,
	}, time.Now())
	if err := service.CreateOrder(ctx, order); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	invoice := models.Invoice{Id: "inv1", OrderId: order.Id, OwnerId: "user1", Total: 300_000, Method: models.PaymentCash, Settled: true, CreatedAt: time.Now()}
	if err := service.CreateInvoice(ctx, invoice); err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	invoice.Id = "inv2"
	invoice.Total = 1
	if err := service.CreateInvoice(ctx, invoice); err != nil {
		t.Fatalf("second CreateInvoice failed: %v", err)
	}

	stored, err := service.GetInvoiceByOrder(ctx, order.Id)
	if err != nil {
		t.Fatalf("GetInvoiceByOrder failed: %v", err)
	}
	if stored.Id != "inv1" || stored.Total != 300_000 || !stored.Settled {
		t.Errorf("Expected first invoice to stick, got %+v", stored)
	}
}
