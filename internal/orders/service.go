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

package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartcare-ledger-go/internal/catalog"
	"smartcare-ledger-go/internal/history"
	"smartcare-ledger-go/internal/ledger"
	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/notify"
	"smartcare-ledger-go/internal/store"
	"smartcare-ledger-go/internal/wallet"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransitionComplete names the settlement step in ledger idempotency keys.
const TransitionComplete = "complete"

// Records is the persistence the order lifecycle needs.
type Records interface {
	store.OrderStore
	store.InvoiceStore
}

// ServiceConfig contains the collaborators of Service
type ServiceConfig struct {
	Records  Records
	Ledger   *ledger.Reconciler
	Wallets  *wallet.Service
	Notifier notify.Notifier
	Catalog  *catalog.Catalog // optional; nil accepts any service name
	Now      func() time.Time
}

// Service runs the order lifecycle:
//
//	pending -> accepted -> in_progress -> completed | completed_unsettled
//	pending | accepted -> cancelled
//
// Saldo orders are debited once, at completion. If that debit fails for lack of
// funds the order still completes, as completed_unsettled: the visit already
// happened, so settlement moves out of band instead of undoing the completion.
type Service struct {
	records  Records
	ledger   *ledger.Reconciler
	wallets  *wallet.Service
	notifier notify.Notifier
	catalog  *catalog.Catalog
	now      func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Records == nil || cfg.Ledger == nil || cfg.Wallets == nil {
		panic("orders: records, ledger and wallets are required")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		records:  cfg.Records,
		ledger:   cfg.Ledger,
		wallets:  cfg.Wallets,
		notifier: cfg.Notifier,
		catalog:  cfg.Catalog,
		now:      cfg.Now,
	}
}

// Create places a new pending order for the session owner. For saldo orders the
// session's balance snapshot must cover the price; the check is repeated by the
// ledger at completion.
func (s *Service) Create(ctx context.Context, session models.Session, draft models.OrderDraft) (*models.Order, error) {
	order, err := models.NewOrder(session.OwnerId, draft, s.now())
	if err != nil {
		return nil, err
	}
	if s.catalog != nil {
		if err := s.catalog.ValidateDescription(order.Description); err != nil {
			return nil, err
		}
	}

	if order.PaymentMethod == models.PaymentSaldo {
		snapshot := session.Wallet
		if snapshot == nil {
			snapshot, err = s.wallets.Snapshot(ctx, session.OwnerId)
			if err != nil {
				return nil, err
			}
		}
		if allowed, shortfall := wallet.CanDebit(*snapshot, order.Price, order.PaymentMethod); !allowed {
			zap.L().Info("Order rejected by balance pre-check",
				zap.String("owner_id", session.OwnerId),
				zap.Int64("price", order.Price),
				zap.Int64("balance", snapshot.Balance),
				zap.Int64("shortfall", shortfall))
			return nil, &models.InsufficientBalanceError{Shortfall: shortfall}
		}
	}

	if err := s.records.CreateOrder(ctx, order); err != nil {
		return nil, models.StoreUnavailable("create order", err)
	}

	zap.L().Info("Order created",
		zap.String("order_id", order.Id),
		zap.String("owner_id", order.OwnerId),
		zap.String("service", order.ServiceName()),
		zap.String("payment_method", string(order.PaymentMethod)),
		zap.Int64("price", order.Price))
	return &order, nil
}

// Accept assigns partnerId to a pending order.
func (s *Service) Accept(ctx context.Context, orderId, partnerId string) (*models.Order, error) {
	partnerId = strings.TrimSpace(partnerId)
	if partnerId == "" {
		return nil, models.NewValidationError("partner_id", "is required")
	}
	return s.transition(ctx, orderId, models.OrderAccepted, func(o *models.Order) {
		o.AssignedPartnerId = partnerId
	})
}

// Start marks an accepted order as in progress.
func (s *Service) Start(ctx context.Context, orderId string) (*models.Order, error) {
	return s.transition(ctx, orderId, models.OrderInProgress, func(o *models.Order) {
		now := s.now().UTC()
		o.StartedAt = &now
	})
}

// Cancel ends a pending or accepted order. Nothing has been debited yet, so there
// is no balance effect.
func (s *Service) Cancel(ctx context.Context, orderId string) (*models.Order, error) {
	order, err := s.transition(ctx, orderId, models.OrderCancelled, func(*models.Order) {})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notify.EventOrderCancelled, order)
	return order, nil
}

// Complete finishes an in-progress order and settles saldo orders through the
// ledger. A store failure during settlement leaves the order in progress; calling
// Complete again is safe because the debit is keyed on the order.
func (s *Service) Complete(ctx context.Context, orderId string) (*models.Order, error) {
	order, err := s.load(ctx, orderId)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderInProgress {
		return nil, transitionError(order, models.OrderCompleted)
	}

	to := models.OrderCompleted
	if order.PaymentMethod == models.PaymentSaldo {
		to, err = s.settle(ctx, order)
		if err != nil {
			return nil, err
		}
	}

	from := order.Status
	now := s.now().UTC()
	order.Status = to
	order.CompletedAt = &now
	if err := s.records.UpdateOrder(ctx, order, from); err != nil {
		return nil, s.updateError(ctx, order.Id, to, err)
	}

	zap.L().Info("Order completed",
		zap.String("order_id", order.Id),
		zap.String("status", string(order.Status)))

	if _, err := s.ensureInvoice(ctx, order); err != nil {
		zap.L().Error("Failed to store invoice", zap.String("order_id", order.Id), zap.Error(err))
	}

	event := notify.EventOrderCompleted
	if to == models.OrderCompletedUnsettled {
		event = notify.EventOrderCompletedUnsettled
	}
	s.notify(ctx, event, order)
	return order, nil
}

func (s *Service) settle(ctx context.Context, order *models.Order) (models.OrderStatus, error) {
	_, err := s.ledger.ApplyDebit(ctx, ledger.Entry{
		OwnerId:    order.OwnerId,
		Amount:     order.Price,
		EntityId:   order.Id,
		Transition: TransitionComplete,
	})
	switch {
	case err == nil:
		return models.OrderCompleted, nil
	case errors.Is(err, models.ErrInsufficientBalance):
		shortfall, _ := models.Shortfall(err)
		zap.L().Warn("Saldo debit failed at completion, order left unsettled",
			zap.String("order_id", order.Id),
			zap.String("owner_id", order.OwnerId),
			zap.Int64("shortfall", shortfall))
		return models.OrderCompletedUnsettled, nil
	default:
		return "", err
	}
}

// Reorder places a new order for the same service, address and price as a
// completed order, paid by method.
func (s *Service) Reorder(ctx context.Context, session models.Session, orderId string, method models.PaymentMethod) (*models.Order, error) {
	previous, err := s.GetForOwner(ctx, session.OwnerId, orderId)
	if err != nil {
		return nil, err
	}
	if previous.Status != models.OrderCompleted && previous.Status != models.OrderCompletedUnsettled {
		return nil, models.NewValidationError("order_id", "only completed orders can be reordered")
	}

	return s.Create(ctx, session, models.OrderDraft{
		Description:    previous.ServiceName(),
		ServiceAddress: previous.ServiceAddress,
		Price:          previous.Price,
		PaymentMethod:  method,
	})
}

// Get loads an order by id regardless of owner.
func (s *Service) Get(ctx context.Context, orderId string) (*models.Order, error) {
	return s.load(ctx, orderId)
}

// GetForOwner loads an order only if it belongs to ownerId. Other owners'
// orders are reported as not found.
func (s *Service) GetForOwner(ctx context.Context, ownerId, orderId string) (*models.Order, error) {
	order, err := s.load(ctx, orderId)
	if err != nil {
		return nil, err
	}
	if order.OwnerId != ownerId {
		return nil, fmt.Errorf("%w: %s", store.ErrOrderNotFound, orderId)
	}
	return order, nil
}

// List returns the owner's orders matching filter, most recent first.
func (s *Service) List(ctx context.Context, ownerId string, filter history.OrderFilter) ([]models.Order, error) {
	orders, err := s.records.ListOrders(ctx, store.OrderFilter{OwnerId: ownerId, Status: filter.Status})
	if err != nil {
		return nil, models.StoreUnavailable("list orders", err)
	}
	return history.FilterOrders(orders, filter), nil
}

// ListAll returns every order matching filter, for partner tooling.
func (s *Service) ListAll(ctx context.Context, filter history.OrderFilter, limit int) ([]models.Order, error) {
	orders, err := s.records.ListOrders(ctx, store.OrderFilter{Status: filter.Status, Limit: limit})
	if err != nil {
		return nil, models.StoreUnavailable("list orders", err)
	}
	return history.FilterOrders(orders, filter), nil
}

// Invoice returns the invoice of a completed order, storing it first if the
// write at completion was lost.
func (s *Service) Invoice(ctx context.Context, orderId string) (*models.Invoice, error) {
	invoice, err := s.records.GetInvoiceByOrder(ctx, orderId)
	if err == nil {
		return invoice, nil
	}
	if !errors.Is(err, store.ErrInvoiceNotFound) {
		return nil, models.StoreUnavailable("get invoice", err)
	}

	order, err := s.load(ctx, orderId)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderCompleted && order.Status != models.OrderCompletedUnsettled {
		return nil, fmt.Errorf("%w: order %s is %s", store.ErrInvoiceNotFound, orderId, order.Status)
	}
	return s.ensureInvoice(ctx, order)
}

func (s *Service) ensureInvoice(ctx context.Context, order *models.Order) (*models.Invoice, error) {
	invoice := models.Invoice{
		Id:          uuid.New().String(),
		OrderId:     order.Id,
		OwnerId:     order.OwnerId,
		PartnerId:   order.AssignedPartnerId,
		Total:       order.Price,
		Method:      order.PaymentMethod,
		Settled:     order.Status == models.OrderCompleted,
		StartedAt:   order.StartedAt,
		CompletedAt: order.CompletedAt,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.records.CreateInvoice(ctx, invoice); err != nil {
		return nil, models.StoreUnavailable("create invoice", err)
	}
	stored, err := s.records.GetInvoiceByOrder(ctx, order.Id)
	if err != nil {
		return nil, models.StoreUnavailable("get invoice", err)
	}
	return stored, nil
}

// transition applies a single-step status change guarded by the stored status.
func (s *Service) transition(ctx context.Context, orderId string, to models.OrderStatus, mutate func(*models.Order)) (*models.Order, error) {
	order, err := s.load(ctx, orderId)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if !from.CanTransitionTo(to) {
		return nil, transitionError(order, to)
	}

	mutate(order)
	order.Status = to
	if err := s.records.UpdateOrder(ctx, order, from); err != nil {
		return nil, s.updateError(ctx, order.Id, to, err)
	}

	zap.L().Info("Order status changed",
		zap.String("order_id", order.Id),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return order, nil
}

func (s *Service) load(ctx context.Context, orderId string) (*models.Order, error) {
	if strings.TrimSpace(orderId) == "" {
		return nil, models.NewValidationError("order_id", "is required")
	}
	order, err := s.records.GetOrder(ctx, orderId)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			return nil, err
		}
		return nil, models.StoreUnavailable("get order", err)
	}
	return order, nil
}

// updateError maps a failed conditional update. Losing the race to another writer
// is reported as an invalid transition from whatever status won.
func (s *Service) updateError(ctx context.Context, orderId string, to models.OrderStatus, err error) error {
	if !errors.Is(err, store.ErrStatusConflict) {
		zap.L().Error("Failed to update order", zap.String("order_id", orderId), zap.Error(err))
		return models.StoreUnavailable("update order", err)
	}

	current, loadErr := s.load(ctx, orderId)
	if loadErr != nil {
		return loadErr
	}
	zap.L().Warn("Order changed concurrently",
		zap.String("order_id", orderId),
		zap.String("status", string(current.Status)),
		zap.String("wanted", string(to)))
	return transitionError(current, to)
}

func (s *Service) notify(ctx context.Context, kind notify.EventKind, order *models.Order) {
	s.notifier.Notify(ctx, notify.Event{
		Kind:       kind,
		OwnerId:    order.OwnerId,
		EntityId:   order.Id,
		Status:     string(order.Status),
		Amount:     order.Price,
		OccurredAt: s.now().UTC(),
	})
}

func transitionError(order *models.Order, to models.OrderStatus) error {
	return &models.TransitionError{
		Entity: "order",
		Id:     order.Id,
		From:   string(order.Status),
		To:     string(to),
	}
}
