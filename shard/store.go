package shard

import (
	"sync/atomic"

	"github.com/krisalay/flightcache/types"
)

/*
This file defines how entries are stored inside a shard. It is not a
plain locked map:

- Reads take no lock at all
- Writes copy the map and swap it in atomically

Readers always see a complete, immutable snapshot ("copy-on-write").
The cache's read-to-write ratio is extreme, which is the trade this
structure makes: cheap frequent reads, more expensive rare writes.
*/

// Store is the entry table of a single shard.
type Store[V any] interface {

	// Get returns the entry for a key, expired or not. Deciding whether
	// the entry is servable belongs to the caller.
	Get(key string) (*types.Entry[V], bool)

	// Put inserts or replaces the entry stored under ent.Key.
	Put(ent *types.Entry[V])

	// Delete removes the entry for a key.
	Delete(key string)

	// Len returns the number of entries, live or expired.
	Len() int64

	// Snapshot returns the current entry table. The returned map is an
	// immutable snapshot; callers must not mutate it.
	Snapshot() map[string]*types.Entry[V]
}

// cowStore is the copy-on-write Store. Mutations must be serialized by
// the owning shard's mutex; reads need nothing.
type cowStore[V any] struct {
	data atomic.Pointer[map[string]*types.Entry[V]]
	size atomic.Int64
}

func NewStore[V any]() Store[V] {
	s := &cowStore[V]{}
	empty := make(map[string]*types.Entry[V])
	s.data.Store(&empty)
	return s
}

func (s *cowStore[V]) Get(key string) (*types.Entry[V], bool) {
	ent, ok := (*s.data.Load())[key]
	return ent, ok
}

// Put copies the current table, adds the entry, and publishes the copy.
func (s *cowStore[V]) Put(ent *types.Entry[V]) {
	old := *s.data.Load()

	next := make(map[string]*types.Entry[V], len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[ent.Key] = ent

	s.data.Store(&next)
	s.size.Store(int64(len(next)))
}

// Delete copies the current table without the key and publishes the copy.
func (s *cowStore[V]) Delete(key string) {
	old := *s.data.Load()
	if _, ok := old[key]; !ok {
		return
	}

	next := make(map[string]*types.Entry[V], len(old)-1)
	for k, v := range old {
		if k != key {
			next[k] = v
		}
	}

	s.data.Store(&next)
	s.size.Store(int64(len(next)))
}

func (s *cowStore[V]) Len() int64 {
	return s.size.Load()
}

func (s *cowStore[V]) Snapshot() map[string]*types.Entry[V] {
	return *s.data.Load()
}
