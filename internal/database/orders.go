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
	"database/sql"
	"errors"
	"fmt"

	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) CreateOrder(ctx context.Context, order models.Order) error {
	_, err := s.db.ExecContext(ctx, queryInsertOrder,
		order.Id, order.OwnerId, order.Description, order.ServiceAddress, order.Price,
		string(order.PaymentMethod), string(order.Status), order.AssignedPartnerId,
		order.RequestedAt, nullTime(order.ScheduledAt), nullTime(order.StartedAt), nullTime(order.CompletedAt),
		order.Version)
	if err != nil {
		zap.L().Error("Failed to insert order", zap.String("order_id", order.Id), zap.Error(err))
		return fmt.Errorf("unable to insert order: %w", err)
	}
	return nil
}

func (s *Service) GetOrder(ctx context.Context, orderId string) (*models.Order, error) {
	order, err := scanOrder(s.db.QueryRowContext(ctx, queryGetOrder, orderId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrOrderNotFound, orderId)
		}
		return nil, fmt.Errorf("unable to query order: %w", err)
	}
	return order, nil
}

// UpdateOrder writes the mutable order fields if the stored row is still in from
// at the same version.
func (s *Service) UpdateOrder(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	result, err := s.db.ExecContext(ctx, queryUpdateOrder,
		string(order.Status), order.AssignedPartnerId, nullTime(order.StartedAt), nullTime(order.CompletedAt),
		order.Id, string(from), order.Version)
	if err != nil {
		return fmt.Errorf("unable to update order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, err := s.GetOrder(ctx, order.Id); err != nil {
			return err
		}
		return fmt.Errorf("%w: order %s is no longer %s", store.ErrStatusConflict, order.Id, from)
	}

	order.Version++
	return nil
}

func (s *Service) ListOrders(ctx context.Context, filter store.OrderFilter) ([]models.Order, error) {
	status := string(filter.Status)
	rows, err := s.db.QueryContext(ctx, queryListOrders,
		filter.OwnerId, filter.OwnerId, status, status, sqlLimit(filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("unable to query orders: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

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

	zap.L().Debug("Retrieved orders", zap.String("owner_id", filter.OwnerId), zap.Int("count", len(orders)))
	return orders, nil
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var method, status string
	var scheduledAt, startedAt, completedAt sql.NullTime
	err := row.Scan(&order.Id, &order.OwnerId, &order.Description, &order.ServiceAddress, &order.Price,
		&method, &status, &order.AssignedPartnerId, &order.RequestedAt,
		&scheduledAt, &startedAt, &completedAt, &order.Version)
	if err != nil {
		return nil, err
	}
	order.PaymentMethod = models.PaymentMethod(method)
	order.Status = models.OrderStatus(status)
	order.ScheduledAt = timePtr(scheduledAt)
	order.StartedAt = timePtr(startedAt)
	order.CompletedAt = timePtr(completedAt)
	return &order, nil
}
