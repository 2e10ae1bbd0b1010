package storage

import "context"

// Store holds fast-path state next to the authoritative Postgres ledger:
// cached unread badge totals (short TTL, invalidated on every increment or
// reset) and technician Web Push subscriptions.
// Implementations: redis.Client, memory.Client (for -dev without Redis).
type Store interface {
	// GetUnreadTotal returns the cached badge total; ok is false on a miss.
	GetUnreadTotal(ctx context.Context, technicianID string) (total int, ok bool, err error)
	SetUnreadTotal(ctx context.Context, technicianID string, total int) error
	InvalidateUnreadTotal(ctx context.Context, technicianID string) error

	AddSubscription(ctx context.Context, technicianID, endpoint, payload string) error
	RemoveSubscription(ctx context.Context, technicianID, endpoint string) error
	ListSubscriptions(ctx context.Context, technicianID string) ([]string, error)

	Close() error
}
