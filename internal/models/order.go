package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of a service order.
type OrderStatus string

const (
	OrderPending            OrderStatus = "pending"
	OrderAccepted           OrderStatus = "accepted"
	OrderInProgress         OrderStatus = "in_progress"
	OrderCompleted          OrderStatus = "completed"
	OrderCompletedUnsettled OrderStatus = "completed_unsettled"
	OrderCancelled          OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderPending,
	OrderAccepted,
	OrderInProgress,
	OrderCompleted,
	OrderCompletedUnsettled,
	OrderCancelled,
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderAccepted, OrderCancelled},
	OrderAccepted:   {OrderInProgress, OrderCancelled},
	OrderInProgress: {OrderCompleted, OrderCompletedUnsettled},
}

// CanTransitionTo reports whether a single step from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// PaymentMethod tags how an order is paid for.
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentSaldo PaymentMethod = "saldo"
)

// ParsePaymentMethod accepts the method names case-insensitively.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(s))) {
	case PaymentCash:
		return PaymentCash, nil
	case PaymentSaldo:
		return PaymentSaldo, nil
	}
	return "", NewValidationError("payment_method", "unknown payment method %q", s)
}

// Order is a single home-care service booking.
type Order struct {
	Id                string        `db:"id" json:"id"`
	OwnerId           string        `db:"owner_id" json:"owner_id"`
	Description       string        `db:"description" json:"description"`
	ServiceAddress    string        `db:"service_address" json:"service_address"`
	Price             int64         `db:"price" json:"price"`
	PaymentMethod     PaymentMethod `db:"payment_method" json:"payment_method"`
	Status            OrderStatus   `db:"status" json:"status"`
	AssignedPartnerId string        `db:"assigned_partner_id" json:"assigned_partner_id,omitempty"`
	RequestedAt       time.Time     `db:"requested_at" json:"requested_at"`
	ScheduledAt       *time.Time    `db:"scheduled_at" json:"scheduled_at,omitempty"`
	StartedAt         *time.Time    `db:"started_at" json:"started_at,omitempty"`
	CompletedAt       *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
	Version           int64         `db:"version" json:"version"`
}

// ServiceName is the catalog part of the description.
func (o Order) ServiceName() string {
	return ServiceName(o.Description)
}

// OrderDraft is the customer input for a new order.
type OrderDraft struct {
	Description    string
	ServiceAddress string
	Price          int64
	PaymentMethod  PaymentMethod
	ScheduledAt    *time.Time
}

// NewOrder validates draft and returns a Pending order owned by ownerId.
func NewOrder(ownerId string, draft OrderDraft, now time.Time) (Order, error) {
	if strings.TrimSpace(ownerId) == "" {
		return Order{}, NewValidationError("owner_id", "is required")
	}
	description := strings.TrimSpace(draft.Description)
	if description == "" {
		return Order{}, NewValidationError("description", "is required")
	}
	address := strings.TrimSpace(draft.ServiceAddress)
	if address == "" {
		return Order{}, NewValidationError("service_address", "is required")
	}
	if draft.Price <= 0 {
		return Order{}, NewValidationError("price", "must be positive, got %d", draft.Price)
	}
	if draft.PaymentMethod != PaymentCash && draft.PaymentMethod != PaymentSaldo {
		return Order{}, NewValidationError("payment_method", "unknown payment method %q", draft.PaymentMethod)
	}

	return Order{
		Id:             uuid.New().String(),
		OwnerId:        ownerId,
		Description:    description,
		ServiceAddress: address,
		Price:          draft.Price,
		PaymentMethod:  draft.PaymentMethod,
		Status:         OrderPending,
		RequestedAt:    now.UTC(),
		ScheduledAt:    draft.ScheduledAt,
		Version:        1,
	}, nil
}

const descriptionSeparator = " - "

// ComposeDescription joins a service name and optional notes.
func ComposeDescription(service, notes string) string {
	service = strings.TrimSpace(service)
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return service
	}
	return service + descriptionSeparator + notes
}

// ServiceName returns the part of description before the first " - ".
func ServiceName(description string) string {
	name, _, _ := strings.Cut(description, descriptionSeparator)
	return strings.TrimSpace(name)
}
