package models

import "context"

// Session is the explicit caller context handed to every customer-facing core call.
// Wallet is the caller's cached balance snapshot; when nil the service loads one.
type Session struct {
	OwnerId string
	Wallet  *WalletAccount
}

type ownerContextKey struct{}

// WithOwnerId attaches the authenticated owner id to a request context.
// Only the HTTP layer uses this; core services take the owner id as an argument.
func WithOwnerId(ctx context.Context, ownerId string) context.Context {
	return context.WithValue(ctx, ownerContextKey{}, ownerId)
}

// OwnerIdFromContext returns the owner id set by WithOwnerId, or "" if absent.
func OwnerIdFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ownerContextKey{}).(string)
	return id
}
