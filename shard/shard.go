package shard

import (
	"sync"

	"github.com/krisalay/flightcache/eviction"
)

/*
A Shard is one independent slice of the cache. Splitting the key space
across shards means a write to one key only ever contends with writes
to keys in the same slice; reads contend with nothing.

Each shard owns its storage, its eviction bookkeeping, and the one
mutex that serializes mutations to both.
*/
type Shard[V any] struct {

	// Store holds this shard's entries. Reads are lock-free.
	Store Store[V]

	// Eviction names the victim when this shard is at capacity. It is
	// bookkeeping only; the caller removes the victim from Store.
	Eviction eviction.Policy

	// Mu serializes every mutation of Store and every call into
	// Eviction. Reads of Store do not take it.
	Mu sync.Mutex
}

// New builds a shard around a fresh store and the given eviction
// policy instance. Policy instances are never shared between shards.
func New[V any](p eviction.Policy) *Shard[V] {
	return &Shard[V]{
		Store:    NewStore[V](),
		Eviction: p,
	}
}
