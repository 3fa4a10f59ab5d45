package api

import (
	"context"
	"time"

	"github.com/krisalay/flightcache/types"
)

/*
Cache is the public contract of the flightcache module. Sharding,
locking, flight coalescing, expiration strategy and eviction order are
implementation details behind this interface; what is promised here is
promised regardless of how the cache is configured.
*/
type Cache[V any] interface {

	/*
		GetOrCompute returns the value stored under key, computing it
		if the cache has no live entry.

		1. A live entry serves the call immediately. The compute
		   function is not invoked.

		2. With no live entry, compute runs once and its value is
		   stored with a deadline of now + ttl. Calls arriving for the
		   same key while the computation runs do not start another
		   one; they wait and receive the same outcome. Independent
		   keys never wait on each other.

		3. If compute fails, every caller waiting on that attempt gets
		   the error exactly as compute returned it. Nothing is stored;
		   the next call starts a fresh attempt.

		The compute function runs under the cache's own context, which
		is cancelled only by Close. ctx belongs to the caller:
		cancelling it abandons the caller's wait with ctx.Err() and has
		no effect on the computation or on other waiters.

		An empty key, a non-positive ttl or a nil compute is rejected
		synchronously with the matching sentinel error, before any
		lookup or locking.
	*/
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute types.ComputeFunc[V]) (V, error)

	/*
		Set stores a value directly with a deadline of now + ttl. The
		entry behaves like a computed one, except background refresh
		never touches it: there is no compute function to re-run.
	*/
	Set(key string, value V, ttl time.Duration) error

	/*
		Peek returns the live value for key with no side effects at
		all. Absent and expired keys return false. No computation, no
		deadline movement, no recency bookkeeping, no refresh.
	*/
	Peek(key string) (V, bool)

	/*
		Invalidate removes the stored entry for key so the next
		GetOrCompute recomputes. It is idempotent; invalidating an
		absent key does nothing.

		Invalidate acts on stored values only. It does not interrupt a
		computation in flight for the key and cannot retract its
		result: that value lands when the computation finishes.
	*/
	Invalidate(key string)

	/*
		Len reports how many entries are stored, counting expired
		entries that have not been physically dropped yet.
	*/
	Len() int

	/*
		Close tears the cache down: background goroutines stop, the
		context given to compute functions is cancelled. Later
		operations return ErrClosed. Close is idempotent.
	*/
	Close() error
}
