// This file decides when the cache recomputes a value BEFORE it expires.
// The goal of refresh is to keep hot data fresh without ever making a
// reader wait for the recomputation.

package refresh

import (
	"time"

	"github.com/krisalay/flightcache/types"
)

/*
Policy is consulted after every successful read. If it returns true the
cache starts a background recomputation of the entry while the current
value keeps being served; readers only see the new value once it lands.

Implementations must be fast and must not block. The decision runs on
the hot read path, once per hit.
*/
type Policy[V any] interface {

	// ShouldRefresh reports whether the entry is worth recomputing at
	// the given instant.
	ShouldRefresh(ent *types.Entry[V], now time.Time) bool
}

/*
Ahead refreshes entries that have entered the last Window of their
lifetime. A read that finds the entry with less than Window left
triggers the recomputation; reads earlier in the entry's life do not.

Entries whose remaining lifetime is already negative are left to the
normal expiry path rather than refreshed.
*/
type Ahead[V any] struct {

	// Window is how close to the deadline an entry must be before a
	// read refreshes it.
	Window time.Duration
}

func (a Ahead[V]) ShouldRefresh(ent *types.Entry[V], now time.Time) bool {
	rem := ent.Remaining(now)
	return rem > 0 && rem <= a.Window
}
