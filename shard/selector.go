package shard

import "hash/fnv"

// This file decides which shard owns a key. The mapping must be stable
// (same key, same shard, always) and spread keys evenly so no single
// shard turns into a hot spot.

// Selector maps a key to a shard index in [0, buckets).
type Selector interface {
	Index(key string, buckets int) int
}

// HashSelector distributes keys by FNV-1a hash. FNV is fast,
// allocation-free and spreads short string keys well.
type HashSelector struct{}

func (HashSelector) Index(key string, buckets int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(buckets))
}
