package usecase

import "time"

const (
	// DefaultMovementTimeout bounds a single money-movement attempt so a
	// stuck atomic unit cannot hold row locks indefinitely.
	DefaultMovementTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long transport-level idempotent responses
	// are cached. The registry itself never expires keys.
	IdempotencyKeyTTL = 24 * time.Hour

	// BalanceCacheTTL is the staleness budget for display-only balance
	// reads served from cache.
	BalanceCacheTTL = 5 * time.Second
)
