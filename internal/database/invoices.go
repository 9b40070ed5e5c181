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
)

func (s *Service) CreateInvoice(ctx context.Context, invoice models.Invoice) error {
	_, err := s.db.ExecContext(ctx, queryInsertInvoice,
		invoice.Id, invoice.OrderId, invoice.OwnerId, invoice.PartnerId, invoice.Total,
		string(invoice.Method), invoice.Settled, nullTime(invoice.StartedAt), nullTime(invoice.CompletedAt),
		invoice.CreatedAt)
	if err != nil {
		return fmt.Errorf("unable to insert invoice: %w", err)
	}
	return nil
}

func (s *Service) GetInvoiceByOrder(ctx context.Context, orderId string) (*models.Invoice, error) {
	var invoice models.Invoice
	var method string
	var startedAt, completedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, queryGetInvoiceByOrder, orderId).Scan(
		&invoice.Id, &invoice.OrderId, &invoice.OwnerId, &invoice.PartnerId, &invoice.Total,
		&method, &invoice.Settled, &startedAt, &completedAt, &invoice.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %s", store.ErrInvoiceNotFound, orderId)
		}
		return nil, fmt.Errorf("unable to query invoice: %w", err)
	}
	invoice.Method = models.PaymentMethod(method)
	invoice.StartedAt = timePtr(startedAt)
	invoice.CompletedAt = timePtr(completedAt)
	return &invoice, nil
}
