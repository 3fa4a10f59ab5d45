package expiration

import (
	"time"

	"github.com/krisalay/flightcache/types"
)

/*
AfterAccess is sliding expiration. Every read pushes the deadline to
now + the entry's own TTL, so an entry stays alive as long as it keeps
being used and dies once nobody has touched it for a full TTL.
*/
type AfterAccess[V any] struct{}

func (AfterAccess[V]) Expired(ent *types.Entry[V], now time.Time) bool {
	return ent.Expired(now)
}

// OnAccess records the read and slides the deadline forward.
func (AfterAccess[V]) OnAccess(ent *types.Entry[V], now time.Time) {
	ent.Touch(now)
	ent.ExtendTo(now.Add(ent.TTL))
}

// OnStore does nothing; the entry's initial deadline is already
// creation time + TTL, which is where the first slide would put it.
func (AfterAccess[V]) OnStore(*types.Entry[V], time.Time) {}
