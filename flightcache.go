package flightcache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/singleflight"
	"oss.indeed.com/go/libtime"

	"github.com/krisalay/flightcache/engine"
	"github.com/krisalay/flightcache/eviction"
	"github.com/krisalay/flightcache/shard"
	"github.com/krisalay/flightcache/types"
)

/*
Cache is a sharded in-memory cache for values that are expensive to
compute. Its contract:

  - A live entry serves reads without locks and without recomputing.
  - A missing or expired entry is computed at most once no matter how
    many goroutines ask at the same moment; every concurrent caller
    shares the one computation and its outcome.
  - A failed computation poisons nothing. The error reaches everyone
    who waited on that attempt, exactly as the compute returned it,
    and the next request starts a fresh attempt.

Entries expire a fixed TTL after they are stored (strategies can change
this), and expiry is lazy: a dead entry is treated as absent and is
physically dropped by whichever read trips over it, or by the optional
background sweeper.

A Cache is built with New and torn down with Close. There is no
package-level instance.
*/
type Cache[V any] struct {

	// shards hold the entries. Each shard is an independent slice of
	// the key space with its own lock and eviction bookkeeping.
	shards []*shard.Shard[V]

	// selector maps keys to shards.
	selector shard.Selector

	// engine answers the policy questions: is this entry expired,
	// should this read trigger a refresh, where do events go.
	engine *engine.Engine[V]

	// capacity is the total entry budget, split evenly across shards.
	// Zero means unbounded.
	capacity int

	// flight collapses concurrent computations so each key has at most
	// one in progress.
	flight singleflight.Group

	// clock is the one time source for every expiry decision.
	clock libtime.Clock

	log hclog.Logger

	// baseCtx is the context handed to every compute function. It
	// belongs to the cache, not to any caller, and is cancelled by
	// Close; this is what keeps one caller's cancellation from
	// interrupting a computation other callers share.
	baseCtx context.Context
	cancel  context.CancelFunc

	closed atomic.Bool

	// refreshCh queues background refresh work. Nil when refresh is
	// disabled.
	refreshCh chan refreshTask[V]

	// background counts the sweeper and the refresh worker so Close
	// can wait for them.
	background sync.WaitGroup
}

type refreshTask[V any] struct {
	key string
	ent *types.Entry[V]
}

// New builds a Cache from the given options, validating the combination
// before anything starts running.
func New[V any](opts ...Option[V]) (*Cache[V], error) {
	cfg := defaults[V]()
	for _, opt := range opts {
		opt(&cfg)
	}

	var mErr *multierror.Error
	if cfg.shards < 1 {
		mErr = multierror.Append(mErr, fmt.Errorf("shard count must be at least 1, got %d", cfg.shards))
	}
	if cfg.capacity < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("capacity must not be negative, got %d", cfg.capacity))
	}
	if cfg.capacity > 0 && cfg.shards >= 1 && cfg.capacity < cfg.shards {
		mErr = multierror.Append(mErr, fmt.Errorf("capacity %d is below the shard count %d", cfg.capacity, cfg.shards))
	}
	if cfg.capacity > 0 && (cfg.policy == eviction.None || cfg.policy == "") {
		mErr = multierror.Append(mErr, fmt.Errorf("a bounded cache needs an eviction policy"))
	}
	if cfg.sweepInterval < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("sweep interval must not be negative, got %s", cfg.sweepInterval))
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return nil, err
	}

	// An unbounded cache never evicts, whatever policy was named.
	policy := cfg.policy
	if cfg.capacity == 0 {
		policy = eviction.None
	}

	shards := make([]*shard.Shard[V], cfg.shards)
	for i := range shards {
		p, err := eviction.New(policy)
		if err != nil {
			return nil, err
		}
		shards[i] = shard.New[V](p)
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Cache[V]{
		shards:   shards,
		selector: shard.HashSelector{},
		engine:   engine.New(cfg.expiration, cfg.refresh, cfg.metrics),
		capacity: cfg.capacity,
		clock:    cfg.clock,
		log:      cfg.logger.Named("flightcache"),
		baseCtx:  ctx,
		cancel:   cancel,
	}

	if cfg.refresh != nil {
		c.refreshCh = make(chan refreshTask[V], refreshQueueSize)
		c.background.Add(1)
		go c.refreshWorker()
	}

	if cfg.sweepInterval > 0 {
		c.background.Add(1)
		go c.sweep(cfg.sweepInterval)
	}

	return c, nil
}

/*
GetOrCompute returns the value stored under key, computing it if the
cache has no live entry.

On a hit the stored value returns immediately. On a miss, compute runs
and its value is stored with a deadline of now + ttl; concurrent calls
for the same key do not each run compute, they join the one invocation
in flight and receive the same value. If compute fails the error is
returned to every caller of that attempt exactly as compute produced
it, nothing is stored, and the next call starts over.

The compute function receives the cache's own context, which is only
cancelled when the cache closes. ctx is the caller's: cancelling it
abandons this caller's wait with ctx.Err() but does not interrupt the
computation or any other caller waiting on it.

The key must be non-empty, ttl positive, compute non-nil; violations
return the corresponding sentinel error before anything else happens.
*/
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute types.ComputeFunc[V]) (V, error) {
	var zero V

	if key == "" {
		return zero, ErrInvalidKey
	}
	if ttl <= 0 {
		return zero, ErrInvalidTTL
	}
	if compute == nil {
		return zero, ErrNilCompute
	}
	if c.closed.Load() {
		return zero, ErrClosed
	}

	sh := c.shardFor(key)

	// Fast path: lock-free read of a live entry.
	if ent, ok := sh.Store.Get(key); ok {
		now := c.clock.Now()
		if !c.engine.Expired(ent, now) {
			c.engine.Metrics.Hit()
			c.afterHit(sh, key, ent, now)
			return ent.Value, nil
		}

		// The entry is past its deadline: physically drop it and fall
		// through to compute. To every caller it was already absent.
		c.dropEntry(sh, key, ent)
	}

	return c.fly(ctx, sh, key, ttl, compute, false)
}

/*
fly funnels one computation for key through the flight group. Exactly
one caller's closure runs; everyone else waits on the same channel. The
force flag makes the closure recompute even over a live entry, which is
what background refresh needs; normal misses re-check the store first
so a value another flight just landed is not computed twice.
*/
func (c *Cache[V]) fly(ctx context.Context, sh *shard.Shard[V], key string, ttl time.Duration, compute types.ComputeFunc[V], force bool) (V, error) {
	var zero V
	var led atomic.Bool

	ch := c.flight.DoChan(key, func() (any, error) {
		led.Store(true)

		if !force {
			// A computation may have landed a live entry between this
			// caller's lookup and its flight winning the key.
			if ent, ok := sh.Store.Get(key); ok && !c.engine.Expired(ent, c.clock.Now()) {
				c.engine.Metrics.Hit()
				return ent, nil
			}
			c.engine.Metrics.Miss()
		}

		value, err := compute(c.baseCtx)
		if err != nil {
			// Failures are delivered, never stored.
			return nil, err
		}

		return c.install(sh, key, value, ttl, compute), nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if !led.Load() {
			c.engine.Metrics.Join()
		}
		return res.Val.(*types.Entry[V]).Value, nil

	case <-ctx.Done():
		// This caller stops waiting. The computation keeps running
		// under the cache's context and its result still lands for
		// everyone else.
		return zero, ctx.Err()
	}
}

/*
Set stores a value directly, with a deadline of now + ttl, bypassing
any computation. The entry serves reads and expires exactly like a
computed one but is never background-refreshed, because there is no
compute function to re-run.
*/
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	if c.closed.Load() {
		return ErrClosed
	}

	c.install(c.shardFor(key), key, value, ttl, nil)
	return nil
}

/*
Peek returns the live value for key without side effects: nothing is
computed, deadlines do not slide, recency is not bumped, no refresh
starts. The second return is false for absent and expired entries.
*/
func (c *Cache[V]) Peek(key string) (V, bool) {
	var zero V
	if key == "" || c.closed.Load() {
		return zero, false
	}

	ent, ok := c.shardFor(key).Store.Get(key)
	if !ok || c.engine.Expired(ent, c.clock.Now()) {
		return zero, false
	}
	return ent.Value, true
}

/*
Invalidate removes the stored entry for key, forcing the next
GetOrCompute to recompute. Invalidating an absent key is a no-op.

Invalidate acts on stored values only. A computation currently in
flight for the key is not interrupted: it completes, its waiters get
its result, and that result is stored. Invalidate cannot retract a
value that has not landed yet.
*/
func (c *Cache[V]) Invalidate(key string) {
	if key == "" || c.closed.Load() {
		return
	}

	sh := c.shardFor(key)
	sh.Mu.Lock()
	defer sh.Mu.Unlock()
	sh.Store.Delete(key)
	sh.Eviction.Remove(key)
}

// Len returns the number of stored entries across all shards,
// including expired entries no read or sweep has dropped yet.
func (c *Cache[V]) Len() int {
	var n int64
	for _, sh := range c.shards {
		n += sh.Store.Len()
	}
	return int(n)
}

/*
Close shuts the cache down. The context handed to compute functions is
cancelled, so a compute that honors cancellation ends early and its
waiters see that error; the sweeper and the refresh worker are stopped
and waited for. Operations after Close return ErrClosed (or report
absence). Closing twice is a no-op.

Close does not wait for in-flight computations: one that ignores its
context keeps running until it returns, after which its result is
discarded with the rest of the cache.
*/
func (c *Cache[V]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.cancel()
	c.background.Wait()
	c.log.Debug("cache closed")
	return nil
}

func (c *Cache[V]) shardFor(key string) *shard.Shard[V] {
	return c.shards[c.selector.Index(key, len(c.shards))]
}

// afterHit applies post-read behavior: sliding deadlines, recency
// bookkeeping, and the decision to refresh in the background.
func (c *Cache[V]) afterHit(sh *shard.Shard[V], key string, ent *types.Entry[V], now time.Time) {
	wantRefresh := c.engine.OnRead(ent, now)

	// Recency and frequency bookkeeping mutates policy state, so even
	// on the read path it runs under the shard mutex. Unbounded caches
	// track nothing and skip the lock.
	if c.capacity > 0 {
		sh.Mu.Lock()
		sh.Eviction.OnGet(key)
		sh.Mu.Unlock()
	}

	if wantRefresh && ent.Compute != nil && ent.StartRefresh() {
		select {
		case c.refreshCh <- refreshTask[V]{key: key, ent: ent}:
			c.engine.Metrics.Refresh()
		default:
			// Queue full. Release the slot so a later read retries;
			// worst case the entry just expires and is recomputed on
			// demand.
			ent.EndRefresh()
		}
	}
}

// refreshWorker drains the refresh queue until Close.
func (c *Cache[V]) refreshWorker() {
	defer c.background.Done()

	for {
		select {
		case <-c.baseCtx.Done():
			return
		case task := <-c.refreshCh:
			c.refreshOne(task)
		}
	}
}

/*
refreshOne recomputes one entry before it expires. The recomputation
goes through the same flight group as on-demand computes, so the
at-most-one-computation-per-key rule holds even while refresh and
demand overlap. Until the new value lands, readers keep being served
the old entry; if the recomputation fails, the old entry stays and
simply expires on schedule.
*/
func (c *Cache[V]) refreshOne(task refreshTask[V]) {
	sh := c.shardFor(task.key)

	_, err := c.fly(c.baseCtx, sh, task.key, task.ent.TTL, task.ent.Compute, true)
	if err != nil {
		task.ent.EndRefresh()
		c.log.Debug("background refresh failed", "key", task.key, "error", err)
	}
}

/*
install publishes a freshly computed or directly stored value as the
live entry for key, evicting within the shard first if it is at its
share of the capacity.
*/
func (c *Cache[V]) install(sh *shard.Shard[V], key string, value V, ttl time.Duration, compute types.ComputeFunc[V]) *types.Entry[V] {
	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	c.evictIfFull(sh, key)

	now := c.clock.Now()
	ent := types.NewEntry(key, value, compute, now, ttl)
	c.engine.OnStore(ent, now)
	sh.Store.Put(ent)
	sh.Eviction.OnPut(key)
	return ent
}

// evictIfFull frees one slot when the shard is at its share of the
// capacity. Replacing an existing key needs no slot. Callers hold the
// shard mutex.
func (c *Cache[V]) evictIfFull(sh *shard.Shard[V], key string) {
	if c.capacity == 0 {
		return
	}
	if _, ok := sh.Store.Get(key); ok {
		return
	}
	if sh.Store.Len() < int64(c.capacity/len(c.shards)) {
		return
	}

	if victim := sh.Eviction.Evict(); victim != "" {
		sh.Store.Delete(victim)
		c.engine.Metrics.Eviction()
	}
}

/*
dropEntry removes ent if it is still the entry stored under key, and
reports whether it did. A replacement installed by a concurrent
computation stays put: deleting blindly here could throw away a value
some other caller just computed.
*/
func (c *Cache[V]) dropEntry(sh *shard.Shard[V], key string, ent *types.Entry[V]) bool {
	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	cur, ok := sh.Store.Get(key)
	if !ok || cur != ent {
		return false
	}

	sh.Store.Delete(key)
	sh.Eviction.Remove(key)
	c.engine.Metrics.Expire()
	return true
}
