package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrKeyNotFound is returned when a key is absent or expired.
var ErrKeyNotFound = errors.New("cache key not found")

// Cache is a process-wide keyed byte cache with explicit invalidation.
// Writers replace or delete whole keys atomically, so a reader never observes
// a partially written value.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// SlotKey is the cache key for one day's computed slots.
func SlotKey(businessID, appointmentTypeID, date string) string {
	return fmt.Sprintf("slots:%s:%s:%s", businessID, appointmentTypeID, date)
}

// BusyKey is the cache key for one day's raw external busy intervals.
func BusyKey(businessID, date string) string {
	return fmt.Sprintf("busy:%s:%s", businessID, date)
}

// BusinessPrefix covers every cached value derived from a business's state.
func BusinessPrefix(businessID string) []string {
	return []string{
		fmt.Sprintf("slots:%s:", businessID),
		fmt.Sprintf("busy:%s:", businessID),
	}
}

// InvalidateBusiness drops all cached slots and busy intervals for a business.
// Called synchronously after a booking or cancellation changes state.
func InvalidateBusiness(ctx context.Context, c Cache, businessID string) error {
	var firstErr error
	for _, prefix := range BusinessPrefix(businessID) {
		if err := c.DeletePrefix(ctx, prefix); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
