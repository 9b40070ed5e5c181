package store

import (
	"context"
	"errors"
	"fmt"

	"smartcare-ledger-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrDuplicatePosting       = errors.New("duplicate posting")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailTaken             = errors.New("email already registered")
	ErrOrderNotFound          = errors.New("order not found")
	ErrTopUpNotFound          = errors.New("top-up request not found")
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrPostingNotFound        = errors.New("posting not found")
	ErrStatusConflict         = errors.New("status changed concurrently")
)

// InsufficientFundsError is returned by ApplyPosting when a debit would take the
// balance below zero at write time.
type InsufficientFundsError struct {
	OwnerId string
	Balance int64
	Amount  int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds for %s: balance %d, debit %d", e.OwnerId, e.Balance, e.Amount)
}

func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }

// Shortfall is how much the debit exceeds the balance.
func (e *InsufficientFundsError) Shortfall() int64 {
	if e.Amount <= e.Balance {
		return 0
	}
	return e.Amount - e.Balance
}

// PostingParams describes a single balance adjustment.
type PostingParams struct {
	OwnerId        string
	Kind           models.PostingKind
	Amount         int64 // always positive; Kind gives the direction
	IdempotencyKey string
	RequestHash    string
	EntityId       string
	Transition     string
}

// OrderFilter narrows ListOrders. Zero values mean "any".
type OrderFilter struct {
	OwnerId string
	Status  models.OrderStatus
	Limit   int
}

// TopUpFilter narrows ListTopUps. Zero values mean "any".
type TopUpFilter struct {
	OwnerId string
	Status  models.TopUpStatus
	Limit   int
}

// BalanceStore holds authoritative wallet balances and their posting history.
type BalanceStore interface {
	// ApplyPosting atomically validates and applies the adjustment and appends the posting.
	// A reused idempotency key fails with ErrDuplicatePosting and changes nothing.
	ApplyPosting(ctx context.Context, params PostingParams) (*models.Posting, *models.WalletAccount, error)
	GetPostingByKey(ctx context.Context, idempotencyKey string) (*models.Posting, error)
	GetWallet(ctx context.Context, ownerId string) (*models.WalletAccount, error)
	ListPostings(ctx context.Context, ownerId string, limit, offset int) ([]models.Posting, error)
	Close()
}

// UserStore persists registered customers.
type UserStore interface {
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	UpdateUser(ctx context.Context, user models.User) error
}

// OrderStore persists orders. UpdateOrder is conditional on the stored status
// still being from, and bumps order.Version on success.
type OrderStore interface {
	CreateOrder(ctx context.Context, order models.Order) error
	GetOrder(ctx context.Context, orderId string) (*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order, from models.OrderStatus) error
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
}

// TopUpStore persists top-up requests. UpdateTopUp is conditional on the stored
// status still being from.
type TopUpStore interface {
	CreateTopUp(ctx context.Context, topUp models.TopUpRequest) error
	GetTopUp(ctx context.Context, topUpId string) (*models.TopUpRequest, error)
	UpdateTopUp(ctx context.Context, topUp models.TopUpRequest, from models.TopUpStatus) error
	ListTopUps(ctx context.Context, filter TopUpFilter) ([]models.TopUpRequest, error)
}

// InvoiceStore persists invoices. CreateInvoice is a no-op if the order already has one.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, invoice models.Invoice) error
	GetInvoiceByOrder(ctx context.Context, orderId string) (*models.Invoice, error)
}

// RecordStore is the persistence collaborator for everything except balances.
type RecordStore interface {
	UserStore
	OrderStore
	TopUpStore
	InvoiceStore
	Close()
}

// LedgerStore defines the contract that every full backend (SQLite, Postgres) must satisfy.
type LedgerStore interface {
	RecordStore
	BalanceStore
}
