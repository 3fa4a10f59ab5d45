// This file defines how cache entries age out.

package expiration

import (
	"time"

	"github.com/krisalay/flightcache/types"
)

/*
Strategy decides when an entry stops being servable and how its deadline
reacts to reads and stores. The cache never compares timestamps itself;
it hands every aging decision to the configured strategy along with the
current instant from its own clock.
*/
type Strategy[V any] interface {

	// Expired reports whether the entry is dead at the given instant.
	Expired(ent *types.Entry[V], now time.Time) bool

	// OnAccess is called after an entry serves a read.
	OnAccess(ent *types.Entry[V], now time.Time)

	// OnStore is called when an entry is first published.
	OnStore(ent *types.Entry[V], now time.Time)
}
