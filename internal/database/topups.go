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

func (s *Service) CreateTopUp(ctx context.Context, topUp models.TopUpRequest) error {
	_, err := s.db.ExecContext(ctx, queryInsertTopUp,
		topUp.Id, topUp.OwnerId, topUp.Amount, string(topUp.Status), topUp.ContactChannel,
		topUp.SubmittedAt, nullTime(topUp.ResolvedAt))
	if err != nil {
		zap.L().Error("Failed to insert top-up", zap.String("topup_id", topUp.Id), zap.Error(err))
		return fmt.Errorf("unable to insert top-up: %w", err)
	}
	return nil
}

func (s *Service) GetTopUp(ctx context.Context, topUpId string) (*models.TopUpRequest, error) {
	topUp, err := scanTopUp(s.db.QueryRowContext(ctx, queryGetTopUp, topUpId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrTopUpNotFound, topUpId)
		}
		return nil, fmt.Errorf("unable to query top-up: %w", err)
	}
	return topUp, nil
}

func (s *Service) UpdateTopUp(ctx context.Context, topUp models.TopUpRequest, from models.TopUpStatus) error {
	result, err := s.db.ExecContext(ctx, queryUpdateTopUp,
		string(topUp.Status), nullTime(topUp.ResolvedAt), topUp.Id, string(from))
	if err != nil {
		return fmt.Errorf("unable to update top-up: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, err := s.GetTopUp(ctx, topUp.Id); err != nil {
			return err
		}
		return fmt.Errorf("%w: top-up %s is no longer %s", store.ErrStatusConflict, topUp.Id, from)
	}
	return nil
}

func (s *Service) ListTopUps(ctx context.Context, filter store.TopUpFilter) ([]models.TopUpRequest, error) {
	status := string(filter.Status)
	rows, err := s.db.QueryContext(ctx, queryListTopUps,
		filter.OwnerId, filter.OwnerId, status, status, sqlLimit(filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("unable to query top-ups: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

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

func scanTopUp(row rowScanner) (*models.TopUpRequest, error) {
	var topUp models.TopUpRequest
	var status string
	var resolvedAt sql.NullTime
	err := row.Scan(&topUp.Id, &topUp.OwnerId, &topUp.Amount, &status, &topUp.ContactChannel,
		&topUp.SubmittedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	topUp.Status = models.TopUpStatus(status)
	topUp.ResolvedAt = timePtr(resolvedAt)
	return &topUp, nil
}
