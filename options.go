package flightcache

import (
	"time"

	"github.com/hashicorp/go-hclog"
	"oss.indeed.com/go/libtime"

	"github.com/krisalay/flightcache/eviction"
	"github.com/krisalay/flightcache/expiration"
	"github.com/krisalay/flightcache/refresh"
	"github.com/krisalay/flightcache/types"
)

const (
	// defaultShards is the shard count when WithShards is not given.
	defaultShards = 4

	// refreshQueueSize bounds the background refresh queue. A full
	// queue drops refresh requests; the entries involved simply expire
	// and get recomputed on demand.
	refreshQueueSize = 256
)

// config collects everything New needs. Options mutate it; New
// validates the result.
type config[V any] struct {
	shards        int
	capacity      int
	policy        eviction.PolicyType
	expiration    expiration.Strategy[V]
	refresh       refresh.Policy[V]
	metrics       types.Metrics
	clock         libtime.Clock
	logger        hclog.Logger
	sweepInterval time.Duration
}

func defaults[V any]() config[V] {
	return config[V]{
		shards: defaultShards,
		clock:  libtime.SystemClock(),
		logger: hclog.NewNullLogger(),
	}
}

// Option configures a Cache at construction.
type Option[V any] func(*config[V])

// WithShards sets how many independent shards the key space is split
// across. More shards means less write contention; the default is 4.
func WithShards[V any](n int) Option[V] {
	return func(c *config[V]) {
		c.shards = n
	}
}

/*
WithCapacity bounds the cache to at most n entries, split evenly across
shards, evicted by the named policy when a shard's share fills up. The
capacity must be at least the shard count so every shard gets a slot.

Without this option the cache is unbounded and nothing is ever evicted.
*/
func WithCapacity[V any](n int, policy eviction.PolicyType) Option[V] {
	return func(c *config[V]) {
		c.capacity = n
		c.policy = policy
	}
}

// WithExpiration replaces the default fixed-deadline strategy
// (expiration.AfterWrite) with another aging strategy, such as the
// sliding expiration.AfterAccess.
func WithExpiration[V any](s expiration.Strategy[V]) Option[V] {
	return func(c *config[V]) {
		c.expiration = s
	}
}

/*
WithRefresh enables background refresh. After a read the policy is
asked whether the entry is worth recomputing early; if so the entry's
own compute function is re-run off the read path and the new value
replaces the old one when it lands. Readers keep getting the old value
until then, and a failed refresh leaves the old value to expire
normally.
*/
func WithRefresh[V any](p refresh.Policy[V]) Option[V] {
	return func(c *config[V]) {
		c.refresh = p
	}
}

// WithMetrics sets the sink for cache lifecycle events. The default
// discards them.
func WithMetrics[V any](m types.Metrics) Option[V] {
	return func(c *config[V]) {
		c.metrics = m
	}
}

// WithClock replaces the wall clock. Every expiry decision the cache
// makes reads this one clock, which is how tests drive time.
func WithClock[V any](clk libtime.Clock) Option[V] {
	return func(c *config[V]) {
		c.clock = clk
	}
}

// WithLogger attaches a logger. The cache logs at debug level only.
func WithLogger[V any](l hclog.Logger) Option[V] {
	return func(c *config[V]) {
		c.logger = l
	}
}

/*
WithSweep runs a background sweeper that removes expired entries every
interval. Without it expired entries are only dropped when a read trips
over them, which is correct (expired entries are invisible either way)
but can leave dead entries holding memory in a cache with cold keys.
*/
func WithSweep[V any](interval time.Duration) Option[V] {
	return func(c *config[V]) {
		c.sweepInterval = interval
	}
}
