package types

import (
	"sync/atomic"
	"time"
)

/*
Entry is a single cached record.

An entry only ever holds a successfully computed (or explicitly stored)
value. There is no entry for a failed computation and no entry for a
computation still in flight; those states live outside the store.

Key, Value, CreatedAt, TTL and Compute are fixed at creation. The expiry
deadline and the last-access timestamp move while the entry is visible to
concurrent readers, so they are kept as atomic nanosecond values rather
than plain time.Time fields.
*/
type Entry[V any] struct {

	// Key is the cache key the entry is stored under.
	Key string

	// Value is the cached value. It is never mutated after the entry
	// is published; replacing a value means replacing the entry.
	Value V

	// CreatedAt is when the value was computed or stored.
	CreatedAt time.Time

	// TTL is the lifetime the entry was stored with. Sliding expiration
	// and background refresh reuse it when they move the deadline or
	// replace the entry.
	TTL time.Duration

	// Compute is the function that produced Value, kept so the cache can
	// recompute the entry in the background before it expires. Nil for
	// values stored directly, which are therefore never refreshed.
	Compute ComputeFunc[V]

	// expireAt is the expiry deadline as UnixNano.
	expireAt atomic.Int64

	// accessAt is the last-access time as UnixNano.
	accessAt atomic.Int64

	// refreshing is set while a background refresh for this entry is in
	// flight, so reads inside the refresh window do not pile up refreshes.
	refreshing atomic.Bool
}

// NewEntry builds a live entry whose deadline is now + ttl.
func NewEntry[V any](key string, value V, compute ComputeFunc[V], now time.Time, ttl time.Duration) *Entry[V] {
	e := &Entry[V]{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		TTL:       ttl,
		Compute:   compute,
	}
	e.expireAt.Store(now.Add(ttl).UnixNano())
	e.accessAt.Store(now.UnixNano())
	return e
}

// ExpiresAt returns the current expiry deadline.
func (e *Entry[V]) ExpiresAt() time.Time {
	return time.Unix(0, e.expireAt.Load())
}

// Expired reports whether the entry is dead at the given instant.
// An entry is live strictly before its deadline: at now == deadline it
// is already expired.
func (e *Entry[V]) Expired(now time.Time) bool {
	return now.UnixNano() >= e.expireAt.Load()
}

// Remaining returns how long the entry stays live after the given
// instant. The result is negative once the entry has expired.
func (e *Entry[V]) Remaining(now time.Time) time.Duration {
	return time.Duration(e.expireAt.Load() - now.UnixNano())
}

// ExtendTo moves the expiry deadline. Used by sliding expiration.
func (e *Entry[V]) ExtendTo(deadline time.Time) {
	e.expireAt.Store(deadline.UnixNano())
}

// Touch records a successful read.
func (e *Entry[V]) Touch(now time.Time) {
	e.accessAt.Store(now.UnixNano())
}

// LastAccessedAt returns the time of the most recent read, or the
// creation time if the entry has never been read.
func (e *Entry[V]) LastAccessedAt() time.Time {
	return time.Unix(0, e.accessAt.Load())
}

// StartRefresh claims the entry's refresh slot. It returns true for
// exactly one caller until the slot is released or the entry is
// replaced.
func (e *Entry[V]) StartRefresh() bool {
	return e.refreshing.CompareAndSwap(false, true)
}

// EndRefresh releases the refresh slot after a failed attempt, allowing
// a later read to try again. A successful refresh replaces the entry
// outright, so it never needs to release anything.
func (e *Entry[V]) EndRefresh() {
	e.refreshing.Store(false)
}
