package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Top-up amount bounds, inclusive, in rupiah.
const (
	MinTopUpAmount int64 = 10_000
	MaxTopUpAmount int64 = 10_000_000
)

// TopUpStatus is the lifecycle state of a top-up request.
type TopUpStatus string

const (
	TopUpSubmitted TopUpStatus = "submitted"
	TopUpConfirmed TopUpStatus = "confirmed"
	TopUpRejected  TopUpStatus = "rejected"
)

// TopUpStatuses lists every top-up status.
var TopUpStatuses = []TopUpStatus{TopUpSubmitted, TopUpConfirmed, TopUpRejected}

func (s TopUpStatus) IsTerminal() bool {
	return s == TopUpConfirmed || s == TopUpRejected
}

func (s TopUpStatus) Valid() bool {
	return s == TopUpSubmitted || s.IsTerminal()
}

// TopUpRequest asks for the owner's saldo to be increased by Amount.
type TopUpRequest struct {
	Id             string      `db:"id" json:"id"`
	OwnerId        string      `db:"owner_id" json:"owner_id"`
	Amount         int64       `db:"amount" json:"amount"`
	Status         TopUpStatus `db:"status" json:"status"`
	ContactChannel string      `db:"contact_channel" json:"contact_channel"`
	SubmittedAt    time.Time   `db:"submitted_at" json:"submitted_at"`
	ResolvedAt     *time.Time  `db:"resolved_at" json:"resolved_at,omitempty"`
}

// ValidateTopUpAmount checks amount against the inclusive bounds.
func ValidateTopUpAmount(amount int64) error {
	if amount < MinTopUpAmount || amount > MaxTopUpAmount {
		return NewValidationError("amount", "must be between %d and %d, got %d", MinTopUpAmount, MaxTopUpAmount, amount)
	}
	return nil
}

// NewTopUpRequest validates the input and returns a Submitted request.
func NewTopUpRequest(ownerId string, amount int64, contactChannel string, now time.Time) (TopUpRequest, error) {
	if strings.TrimSpace(ownerId) == "" {
		return TopUpRequest{}, NewValidationError("owner_id", "is required")
	}
	if err := ValidateTopUpAmount(amount); err != nil {
		return TopUpRequest{}, err
	}
	contactChannel = strings.TrimSpace(contactChannel)
	if contactChannel == "" {
		return TopUpRequest{}, NewValidationError("contact_channel", "is required")
	}
	return TopUpRequest{
		Id:             uuid.New().String(),
		OwnerId:        ownerId,
		Amount:         amount,
		Status:         TopUpSubmitted,
		ContactChannel: contactChannel,
		SubmittedAt:    now.UTC(),
	}, nil
}
