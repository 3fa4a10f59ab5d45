package flightcache_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/krisalay/flightcache"
	"github.com/krisalay/flightcache/eviction"
)

func newBenchCache(b *testing.B, opts ...flightcache.Option[string]) *flightcache.Cache[string] {
	b.Helper()
	c, err := flightcache.New(opts...)
	if err != nil {
		b.Fatalf("failed to create cache: %v", err)
	}
	b.Cleanup(func() { _ = c.Close() })
	return c
}

func BenchmarkGetOrComputeHit(b *testing.B) {
	c := newBenchCache(b, flightcache.WithShards[string](8))
	ctx := context.Background()
	compute := func(context.Context) (string, error) { return "value", nil }

	if _, err := c.GetOrCompute(ctx, "hot", time.Hour, compute); err != nil {
		b.Fatalf("warm-up failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.GetOrCompute(ctx, "hot", time.Hour, compute); err != nil {
			b.Fatalf("get failed: %v", err)
		}
	}
}

func BenchmarkGetOrComputeMiss(b *testing.B) {
	c := newBenchCache(b, flightcache.WithShards[string](8))
	ctx := context.Background()
	compute := func(context.Context) (string, error) { return "value", nil }

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.GetOrCompute(ctx, strconv.Itoa(i), time.Hour, compute); err != nil {
			b.Fatalf("get failed: %v", err)
		}
	}
}

func BenchmarkSet(b *testing.B) {
	c := newBenchCache(b, flightcache.WithShards[string](8))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.Set(strconv.Itoa(i), "value", time.Hour); err != nil {
			b.Fatalf("set failed: %v", err)
		}
	}
}

func BenchmarkSetWithEviction(b *testing.B) {
	c := newBenchCache(b,
		flightcache.WithShards[string](8),
		flightcache.WithCapacity[string](1024, eviction.LRU),
	)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.Set(strconv.Itoa(i), "value", time.Hour); err != nil {
			b.Fatalf("set failed: %v", err)
		}
	}
}

func BenchmarkParallelHit(b *testing.B) {
	c := newBenchCache(b, flightcache.WithShards[string](8))
	ctx := context.Background()
	compute := func(context.Context) (string, error) { return "value", nil }

	const keys = 128
	for i := 0; i < keys; i++ {
		if _, err := c.GetOrCompute(ctx, strconv.Itoa(i), time.Hour, compute); err != nil {
			b.Fatalf("warm-up failed: %v", err)
		}
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = c.GetOrCompute(ctx, strconv.Itoa(i%keys), time.Hour, compute)
			i++
		}
	})
}

func BenchmarkParallelMixed(b *testing.B) {
	c := newBenchCache(b, flightcache.WithShards[string](8))
	ctx := context.Background()
	compute := func(context.Context) (string, error) { return "value", nil }

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := strconv.Itoa(i % 1024)
			if i%10 == 0 {
				_ = c.Set(key, "value", time.Hour)
			} else {
				_, _ = c.GetOrCompute(ctx, key, time.Hour, compute)
			}
			i++
		}
	})
}
