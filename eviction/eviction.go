package eviction

import "fmt"

// This file defines how the cache picks a victim when a shard is full.

/*
Policy is the bookkeeping side of an eviction strategy. The cache tells
the policy what happened (reads, writes, removals) and asks it for a
victim when space runs out; the cache itself removes the victim from
storage.

Implementations are not safe for concurrent use. Every call happens
under the owning shard's mutex.
*/
type Policy interface {

	// OnGet records that a key was read. Recency- and frequency-based
	// strategies feed on this; others ignore it.
	OnGet(key string)

	// OnPut records that a key was inserted. Re-inserting a tracked key
	// is a no-op for the bookkeeping.
	OnPut(key string)

	// Remove drops the bookkeeping for a key that was deleted outside
	// of eviction (invalidation, expiry).
	Remove(key string)

	// Evict picks the victim, drops its bookkeeping, and returns its
	// key. It returns "" when there is nothing to evict.
	Evict() string
}

// PolicyType identifies an eviction strategy by name.
type PolicyType string

const (
	// LRU evicts the key unread for the longest time.
	LRU PolicyType = "LRU"

	// LFU evicts the key read the fewest times.
	LFU PolicyType = "LFU"

	// FIFO evicts the oldest inserted key regardless of reads.
	FIFO PolicyType = "FIFO"

	// None never evicts. It is the policy of an unbounded cache.
	None PolicyType = "NONE"
)

// New builds the policy for a PolicyType. Each shard gets its own
// instance; policies share no state.
func New(t PolicyType) (Policy, error) {
	switch t {
	case LRU:
		return newLRU(), nil
	case LFU:
		return newLFU(), nil
	case FIFO:
		return newFIFO(), nil
	case None, "":
		return noop{}, nil
	default:
		return nil, fmt.Errorf("unknown eviction policy %q", t)
	}
}

// noop is the None policy: it tracks nothing and never names a victim.
type noop struct{}

func (noop) OnGet(string)  {}
func (noop) OnPut(string)  {}
func (noop) Remove(string) {}
func (noop) Evict() string { return "" }
