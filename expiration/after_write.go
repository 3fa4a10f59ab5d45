package expiration

import (
	"time"

	"github.com/krisalay/flightcache/types"
)

/*
AfterWrite expires an entry a fixed time after it was stored. The
deadline is set once, when the value lands, and reads do not move it:
an entry stored with a 30 second TTL is gone 30 seconds later no matter
how often it was read in between.

This is the default strategy.
*/
type AfterWrite[V any] struct{}

func (AfterWrite[V]) Expired(ent *types.Entry[V], now time.Time) bool {
	return ent.Expired(now)
}

// OnAccess records the read. The deadline stays where the store put it.
func (AfterWrite[V]) OnAccess(ent *types.Entry[V], now time.Time) {
	ent.Touch(now)
}

// OnStore does nothing; the entry is created with its final deadline.
func (AfterWrite[V]) OnStore(*types.Entry[V], time.Time) {}
