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

package notify

import (
	"context"
	"fmt"
	"time"

	"smartcare-ledger-go/internal/models"

	"go.uber.org/zap"
)

type EventKind string

const (
	EventOrderCompleted          EventKind = "order.completed"
	EventOrderCompletedUnsettled EventKind = "order.completed_unsettled"
	EventOrderCancelled          EventKind = "order.cancelled"
	EventTopUpConfirmed          EventKind = "topup.confirmed"
	EventTopUpRejected           EventKind = "topup.rejected"
)

// Event describes a terminal transition the customer should hear about.
type Event struct {
	Kind       EventKind
	OwnerId    string
	EntityId   string
	Status     string
	Amount     int64
	OccurredAt time.Time
}

// Message is the plain user-facing text for the event.
func (e Event) Message() string {
	amount := models.FormatRupiah(e.Amount)
	switch e.Kind {
	case EventOrderCompleted:
		return fmt.Sprintf("Your order is complete. %s has been settled.", amount)
	case EventOrderCompletedUnsettled:
		return fmt.Sprintf("Your order is complete but %s could not be taken from your saldo. Please settle it with our staff.", amount)
	case EventOrderCancelled:
		return "Your order has been cancelled."
	case EventTopUpConfirmed:
		return fmt.Sprintf("Your top-up of %s has been confirmed.", amount)
	case EventTopUpRejected:
		return fmt.Sprintf("Your top-up of %s was rejected.", amount)
	}
	return fmt.Sprintf("Update on %s: %s", e.EntityId, e.Status)
}

// Notifier is informed of terminal transitions. Delivery is fire-and-forget:
// implementations must not block the caller for long and report nothing back.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event Event)

func (f NotifierFunc) Notify(ctx context.Context, event Event) { f(ctx, event) }

// Nop discards every event.
var Nop Notifier = NotifierFunc(func(context.Context, Event) {})

// LogNotifier writes events to the global zap logger.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, event Event) {
	zap.L().Info("Customer notification",
		zap.String("kind", string(event.Kind)),
		zap.String("owner_id", event.OwnerId),
		zap.String("entity_id", event.EntityId),
		zap.String("status", event.Status),
		zap.Int64("amount", event.Amount),
		zap.String("message", event.Message()))
}
