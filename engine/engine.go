package engine

import (
	"time"

	"github.com/krisalay/flightcache/expiration"
	"github.com/krisalay/flightcache/refresh"
	"github.com/krisalay/flightcache/types"
)

/*
Engine is the behavior layer of the cache. It bundles the policies that
say what entries MEAN over time:

- when an entry stops being servable (expiration)
- when a served entry is worth recomputing early (refresh)
- where lifecycle events are reported (metrics)

It holds no data and takes no locks. Storage, sharding and locking live
elsewhere; the engine is consulted with entries and instants and answers
policy questions.

Every method takes the current instant from the caller. The cache owns
the single clock all expiry decisions are measured against; the engine
never reads wall time on its own.
*/
type Engine[V any] struct {

	// Expiration decides when entries die. Defaults to AfterWrite:
	// a fixed deadline set when the value is stored.
	Expiration expiration.Strategy[V]

	// Refresh decides, per read, whether to recompute the entry in the
	// background. Nil disables refresh.
	Refresh refresh.Policy[V]

	// Metrics receives lifecycle events. Never nil.
	Metrics types.Metrics
}

// New builds an engine, filling in the AfterWrite strategy and the
// no-op metrics sink for nil arguments.
func New[V any](exp expiration.Strategy[V], ref refresh.Policy[V], metrics types.Metrics) *Engine[V] {
	if exp == nil {
		exp = expiration.AfterWrite[V]{}
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	return &Engine[V]{
		Expiration: exp,
		Refresh:    ref,
		Metrics:    metrics,
	}
}

// Expired reports whether the entry is dead at the given instant.
func (e *Engine[V]) Expired(ent *types.Entry[V], now time.Time) bool {
	return e.Expiration.Expired(ent, now)
}

/*
OnRead is called after an entry serves a read. It applies the
expiration strategy's access behavior (sliding deadlines live here) and
reports whether the caller should start a background refresh.

A true return only states the policy's wish; whether a refresh actually
starts is up to the caller, which also dedupes refreshes per entry.
*/
func (e *Engine[V]) OnRead(ent *types.Entry[V], now time.Time) bool {
	e.Expiration.OnAccess(ent, now)
	return e.Refresh != nil && e.Refresh.ShouldRefresh(ent, now)
}

// OnStore is called when an entry is first published.
func (e *Engine[V]) OnStore(ent *types.Entry[V], now time.Time) {
	e.Expiration.OnStore(ent, now)
}
