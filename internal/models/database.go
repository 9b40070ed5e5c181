package models

import "time"

// User represents a registered customer
type User struct {
	Id        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"`
	Address   string    `db:"address" json:"address"`
	Phone     string    `db:"phone" json:"phone"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoleCustomer is the role given to self-registered users.
const RoleCustomer = "customer"

// WalletAccount holds a customer's prepaid balance (hot data)
type WalletAccount struct {
	OwnerId       string    `db:"owner_id" json:"owner_id"`
	Balance       int64     `db:"balance" json:"balance"`
	LastPostingId string    `db:"last_posting_id" json:"last_posting_id,omitempty"`
	Version       int64     `db:"version" json:"version"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// PostingKind is the direction of a balance adjustment.
type PostingKind string

const (
	PostingCredit PostingKind = "credit"
	PostingDebit  PostingKind = "debit"
)

// Posting is an immutable balance adjustment (cold data)
type Posting struct {
	Id             string      `db:"id" json:"id"`
	OwnerId        string      `db:"owner_id" json:"owner_id"`
	Kind           PostingKind `db:"kind" json:"kind"`
	Amount         int64       `db:"amount" json:"amount"`
	BalanceBefore  int64       `db:"balance_before" json:"balance_before"`
	BalanceAfter   int64       `db:"balance_after" json:"balance_after"`
	IdempotencyKey string      `db:"idempotency_key" json:"idempotency_key"`
	RequestHash    string      `db:"request_hash" json:"-"`
	EntityId       string      `db:"entity_id" json:"entity_id"`
	Transition     string      `db:"transition" json:"transition"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

// SignedAmount is the balance delta the posting applies.
func (p Posting) SignedAmount() int64 {
	if p.Kind == PostingDebit {
		return -p.Amount
	}
	return p.Amount
}

// Invoice is issued once an order reaches a completed state.
type Invoice struct {
	Id          string        `db:"id" json:"id"`
	OrderId     string        `db:"order_id" json:"order_id"`
	OwnerId     string        `db:"owner_id" json:"owner_id"`
	PartnerId   string        `db:"partner_id" json:"partner_id"`
	Total       int64         `db:"total" json:"total"`
	Method      PaymentMethod `db:"payment_method" json:"payment_method"`
	Settled     bool          `db:"settled" json:"settled"`
	StartedAt   *time.Time    `db:"started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// Profile is a user together with a snapshot of their wallet.
type Profile struct {
	User   User          `json:"user"`
	Wallet WalletAccount `json:"wallet"`
}
