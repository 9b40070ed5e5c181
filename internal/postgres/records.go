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
	"fmt"

	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/store"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Query(ctx, queryGetActiveUsers)
	if err != nil {
		return nil, fmt.Errorf("unable to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, queryGetUserById, userId))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, userId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query user by ID: %w", err)
	}
	return user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, queryGetUserByEmail, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query user by email: %w", err)
	}
	return user, nil
}

// CreateUser inserts the user together with an empty wallet.
func (s *Service) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	zap.L().Info("Creating user", zap.String("id", user.Id), zap.String("email", user.Email))

	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, queryInsertUser,
		user.Id, user.Name, user.Email, user.Password, user.Address, user.Phone, user.Role, now, now)
	if err != nil {
		return nil, fmt.Errorf("unable to insert user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrEmailTaken, user.Email)
	}

	if _, err := tx.Exec(ctx, queryInsertWallet, user.Id, now); err != nil {
		return nil, fmt.Errorf("unable to create wallet: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &user, nil
}

func (s *Service) UpdateUser(ctx context.Context, user models.User) error {
	tag, err := s.db.Exec(ctx, queryUpdateUser,
		user.Name, user.Email, user.Address, user.Phone, s.now(), user.Id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", store.ErrEmailTaken, user.Email)
		}
		return fmt.Errorf("unable to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrUserNotFound, user.Id)
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.Id, &user.Name, &user.Email, &user.Password, &user.Address, &user.Phone,
		&user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) CreateOrder(ctx context.Context, order models.Order) error {
	_, err := s.db.Exec(ctx, queryInsertOrder,
		order.Id, order.OwnerId, order.Description, order.ServiceAddress, order.Price,
		string(order.PaymentMethod), string(order.Status), order.AssignedPartnerId,
		order.RequestedAt, order.ScheduledAt, order.StartedAt, order.CompletedAt, order.Version)
	if err != nil {
		zap.L().Error("Failed to insert order", zap.String("order_id", order.Id), zap.Error(err))
		return fmt.Errorf("unable to insert order: %w", err)
	}
	return nil
}

func (s *Service) GetOrder(ctx context.Context, orderId string) (*models.Order, error) {
	order, err := scanOrder(s.db.QueryRow(ctx, queryGetOrder, orderId))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrOrderNotFound, orderId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query order: %w", err)
	}
	return order, nil
}

// UpdateOrder writes the mutable order fields if the row is still in from at
// the same version.
func (s *Service) UpdateOrder(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	tag, err := s.db.Exec(ctx, queryUpdateOrder,
		string(order.Status), order.AssignedPartnerId, order.StartedAt, order.CompletedAt,
		order.Id, string(from), order.Version)
	if err != nil {
		return fmt.Errorf("unable to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetOrder(ctx, order.Id); err != nil {
			return err
		}
		return fmt.Errorf("%w: order %s is no longer %s", store.ErrStatusConflict, order.Id, from)
	}
	order.Version++
	return nil
}

func (s *Service) ListOrders(ctx context.Context, filter store.OrderFilter) ([]models.Order, error) {
	rows, err := s.db.Query(ctx, queryListOrders, filter.OwnerId, string(filter.Status), pgLimit(filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("unable to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan order row: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	var method, status string
	err := row.Scan(&order.Id, &order.OwnerId, &order.Description, &order.ServiceAddress, &order.Price,
		&method, &status, &order.AssignedPartnerId, &order.RequestedAt,
		&order.ScheduledAt, &order.StartedAt, &order.CompletedAt, &order.Version)
	if err != nil {
		return nil, err
	}
	order.PaymentMethod = models.PaymentMethod(method)
	order.Status = models.OrderStatus(status)
	return &order, nil
}

func (s *Service) CreateTopUp(ctx context.Context, topUp models.TopUpRequest) error {
	_, err := s.db.Exec(ctx, queryInsertTopUp,
		topUp.Id, topUp.OwnerId, topUp.Amount, string(topUp.Status), topUp.ContactChannel,
		topUp.SubmittedAt, topUp.ResolvedAt)
	if err != nil {
		zap.L().Error("Failed to insert top-up", zap.String("topup_id", topUp.Id), zap.Error(err))
		return fmt.Errorf("unable to insert top-up: %w", err)
	}
	return nil
}

func (s *Service) GetTopUp(ctx context.Context, topUpId string) (*models.TopUpRequest, error) {
	topUp, err := scanTopUp(s.db.QueryRow(ctx, queryGetTopUp, topUpId))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrTopUpNotFound, topUpId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query top-up: %w", err)
	}
	return topUp, nil
}

func (s *Service) UpdateTopUp(ctx context.Context, topUp models.TopUpRequest, from models.TopUpStatus) error {
	tag, err := s.db.Exec(ctx, queryUpdateTopUp, string(topUp.Status), topUp.ResolvedAt, topUp.Id, string(from))
	if err != nil {
		return fmt.Errorf("unable to update top-up: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetTopUp(ctx, topUp.Id); err != nil {
			return err
		}
		return fmt.Errorf("%w: top-up %s is no longer %s", store.ErrStatusConflict, topUp.Id, from)
	}
	return nil
}

func (s *Service) ListTopUps(ctx context.Context, filter store.TopUpFilter) ([]models.TopUpRequest, error) {
	rows, err := s.db.Query(ctx, queryListTopUps, filter.OwnerId, string(filter.Status), pgLimit(filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("unable to query top-ups: %w", err)
	}
	defer rows.Close()

	var topUps []models.TopUpRequest
	for rows.Next() {
		topUp, err := scanTopUp(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan top-up row: %w", err)
		}
		topUps = append(topUps, *topUp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top-up rows: %w", err)
	}
	return topUps, nil
}

func scanTopUp(row pgx.Row) (*models.TopUpRequest, error) {
	var topUp models.TopUpRequest
	var status string
	err := row.Scan(&topUp.Id, &topUp.OwnerId, &topUp.Amount, &status, &topUp.ContactChannel,
		&topUp.SubmittedAt, &topUp.ResolvedAt)
	if err != nil {
		return nil, err
	}
	topUp.Status = models.TopUpStatus(status)
	return &topUp, nil
}

// CreateInvoice is a no-op when the order already has an invoice.
func (s *Service) CreateInvoice(ctx context.Context, invoice models.Invoice) error {
	_, err := s.db.Exec(ctx, queryInsertInvoice,
		invoice.Id, invoice.OrderId, invoice.OwnerId, invoice.PartnerId, invoice.Total,
		string(invoice.Method), invoice.Settled, invoice.StartedAt, invoice.CompletedAt, invoice.CreatedAt)
	if err != nil {
		return fmt.Errorf("unable to insert invoice: %w", err)
	}
	return nil
}

func (s *Service) GetInvoiceByOrder(ctx context.Context, orderId string) (*models.Invoice, error) {
	var invoice models.Invoice
	var method string
	err := s.db.QueryRow(ctx, queryGetInvoiceByOrder, orderId).Scan(
		&invoice.Id, &invoice.OrderId, &invoice.OwnerId, &invoice.PartnerId, &invoice.Total,
		&method, &invoice.Settled, &invoice.StartedAt, &invoice.CompletedAt, &invoice.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %s", store.ErrInvoiceNotFound, orderId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query invoice: %w", err)
	}
	invoice.Method = models.PaymentMethod(method)
	return &invoice, nil
}
