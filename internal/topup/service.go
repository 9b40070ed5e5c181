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
	"fmt"
	"strings"
	"time"

	"smartcare-ledger-go/internal/history"
	"smartcare-ledger-go/internal/ledger"
	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/notify"
	"smartcare-ledger-go/internal/store"

	"go.uber.org/zap"
)

// TransitionConfirm names the credit step in ledger idempotency keys.
const TransitionConfirm = "confirm"

// QuickAmounts are the preset amounts offered on the top-up page.
var QuickAmounts = []int64{50_000, 100_000, 200_000, 500_000}

// ServiceConfig contains the collaborators of Service
type ServiceConfig struct {
	Records  store.TopUpStore
	Ledger   *ledger.Reconciler
	Notifier notify.Notifier
	Now      func() time.Time
}

// Service runs the top-up lifecycle: submitted -> confirmed | rejected.
type Service struct {
	records  store.TopUpStore
	ledger   *ledger.Reconciler
	notifier notify.Notifier
	now      func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Records == nil || cfg.Ledger == nil {
		panic("topup: records and ledger are required")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{records: cfg.Records, ledger: cfg.Ledger, notifier: cfg.Notifier, now: cfg.Now}
}

// Submit records a request to add amount to the owner's saldo.
func (s *Service) Submit(ctx context.Context, ownerId string, amount int64, contactChannel string) (*models.TopUpRequest, error) {
	topUp, err := models.NewTopUpRequest(ownerId, amount, contactChannel, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.records.CreateTopUp(ctx, topUp); err != nil {
		return nil, models.StoreUnavailable("create top-up", err)
	}

	zap.L().Info("Top-up submitted",
		zap.String("topup_id", topUp.Id),
		zap.String("owner_id", topUp.OwnerId),
		zap.Int64("amount", topUp.Amount),
		zap.String("contact_channel", topUp.ContactChannel))
	return &topUp, nil
}

// Confirm marks the request confirmed and credits its amount exactly once. The
// status write decides between confirm and reject; the credit follows it. A
// request left confirmed without its credit gets the credit on the next Confirm.
func (s *Service) Confirm(ctx context.Context, topUpId string) (*models.TopUpRequest, error) {
	topUp, err := s.load(ctx, topUpId)
	if err != nil {
		return nil, err
	}

	switch topUp.Status {
	case models.TopUpSubmitted:
		if err := s.resolve(ctx, topUp, models.TopUpConfirmed); err != nil {
			return nil, err
		}
	case models.TopUpConfirmed:
		credited, err := s.ledger.Applied(ctx, topUp.Id, TransitionConfirm)
		if err != nil {
			return nil, err
		}
		if credited != nil {
			return nil, alreadyResolved(topUp)
		}
		zap.L().Warn("Top-up confirmed without its credit, applying it now", zap.String("topup_id", topUp.Id))
	default:
		return nil, alreadyResolved(topUp)
	}

	result, err := s.ledger.ApplyCredit(ctx, ledger.Entry{
		OwnerId:    topUp.OwnerId,
		Amount:     topUp.Amount,
		EntityId:   topUp.Id,
		Transition: TransitionConfirm,
	})
	if err != nil {
		zap.L().Error("Top-up confirmed but credit failed",
			zap.String("topup_id", topUp.Id),
			zap.String("owner_id", topUp.OwnerId),
			zap.Error(err))
		return nil, err
	}

	zap.L().Info("Top-up confirmed",
		zap.String("topup_id", topUp.Id),
		zap.String("owner_id", topUp.OwnerId),
		zap.Int64("amount", topUp.Amount),
		zap.Int64("balance", result.Balance),
		zap.Bool("replayed", result.Replayed))
	s.notify(ctx, notify.EventTopUpConfirmed, topUp)
	return topUp, nil
}

// Reject closes a submitted request without touching the balance. Credits only
// follow a confirmed status, so a rejected request is never credited.
func (s *Service) Reject(ctx context.Context, topUpId string) (*models.TopUpRequest, error) {
	topUp, err := s.load(ctx, topUpId)
	if err != nil {
		return nil, err
	}
	if topUp.Status.IsTerminal() {
		return nil, alreadyResolved(topUp)
	}

	if err := s.resolve(ctx, topUp, models.TopUpRejected); err != nil {
		return nil, err
	}

	zap.L().Info("Top-up rejected",
		zap.String("topup_id", topUp.Id),
		zap.String("owner_id", topUp.OwnerId),
		zap.Int64("amount", topUp.Amount))
	s.notify(ctx, notify.EventTopUpRejected, topUp)
	return topUp, nil
}

// Get loads a request regardless of owner.
func (s *Service) Get(ctx context.Context, topUpId string) (*models.TopUpRequest, error) {
	return s.load(ctx, topUpId)
}

// GetForOwner loads a request only if it belongs to ownerId.
func (s *Service) GetForOwner(ctx context.Context, ownerId, topUpId string) (*models.TopUpRequest, error) {
	topUp, err := s.load(ctx, topUpId)
	if err != nil {
		return nil, err
	}
	if topUp.OwnerId != ownerId {
		return nil, fmt.Errorf("%w: %s", store.ErrTopUpNotFound, topUpId)
	}
	return topUp, nil
}

// List returns the owner's requests matching filter, most recent first.
func (s *Service) List(ctx context.Context, ownerId string, filter history.TopUpFilter) ([]models.TopUpRequest, error) {
	topUps, err := s.records.ListTopUps(ctx, store.TopUpFilter{OwnerId: ownerId, Status: filter.Status})
	if err != nil {
		return nil, models.StoreUnavailable("list top-ups", err)
	}
	return history.FilterTopUps(topUps, filter), nil
}

// ListAll returns every request matching filter, for the approver tooling.
func (s *Service) ListAll(ctx context.Context, filter history.TopUpFilter, limit int) ([]models.TopUpRequest, error) {
	topUps, err := s.records.ListTopUps(ctx, store.TopUpFilter{Status: filter.Status, Limit: limit})
	if err != nil {
		return nil, models.StoreUnavailable("list top-ups", err)
	}
	return history.FilterTopUps(topUps, filter), nil
}

// resolve moves a submitted request to status. Losing the race to another
// resolution is reported as already resolved.
func (s *Service) resolve(ctx context.Context, topUp *models.TopUpRequest, status models.TopUpStatus) error {
	now := s.now().UTC()
	next := *topUp
	next.Status = status
	next.ResolvedAt = &now

	err := s.records.UpdateTopUp(ctx, next, models.TopUpSubmitted)
	if err == nil {
		*topUp = next
		return nil
	}
	if !errors.Is(err, store.ErrStatusConflict) {
		zap.L().Error("Failed to resolve top-up", zap.String("topup_id", topUp.Id), zap.Error(err))
		return models.StoreUnavailable("update top-up", err)
	}

	current, loadErr := s.load(ctx, topUp.Id)
	if loadErr != nil {
		return loadErr
	}
	if current.Status != status {
		zap.L().Warn("Top-up resolved the other way concurrently",
			zap.String("topup_id", topUp.Id),
			zap.String("stored", string(current.Status)),
			zap.String("wanted", string(status)))
	}
	return alreadyResolved(current)
}

func (s *Service) load(ctx context.Context, topUpId string) (*models.TopUpRequest, error) {
	if strings.TrimSpace(topUpId) == "" {
		return nil, models.NewValidationError("topup_id", "is required")
	}
	topUp, err := s.records.GetTopUp(ctx, topUpId)
	if err != nil {
		if errors.Is(err, store.ErrTopUpNotFound) {
			return nil, err
		}
		return nil, models.StoreUnavailable("get top-up", err)
	}
	return topUp, nil
}

func (s *Service) notify(ctx context.Context, kind notify.EventKind, topUp *models.TopUpRequest) {
	s.notifier.Notify(ctx, notify.Event{
		Kind:       kind,
		OwnerId:    topUp.OwnerId,
		EntityId:   topUp.Id,
		Status:     string(topUp.Status),
		Amount:     topUp.Amount,
		OccurredAt: s.now().UTC(),
	})
}

func alreadyResolved(topUp *models.TopUpRequest) error {
	return fmt.Errorf("%w: top-up %s is %s", models.ErrAlreadyResolved, topUp.Id, topUp.Status)
}
