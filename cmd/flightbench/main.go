// flightbench hammers a cache with concurrent GetOrCompute traffic and
// reports how well request coalescing held up: how many requests were
// served per actual computation.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/krisalay/flightcache"
)

// counters tallies cache events in memory for the final report.
type counters struct {
	hits      atomic.Int64
	misses    atomic.Int64
	joins     atomic.Int64
	expired   atomic.Int64
	evictions atomic.Int64
	refreshes atomic.Int64
}

func (c *counters) Hit()      { c.hits.Add(1) }
func (c *counters) Miss()     { c.misses.Add(1) }
func (c *counters) Join()     { c.joins.Add(1) }
func (c *counters) Expire()   { c.expired.Add(1) }
func (c *counters) Eviction() { c.evictions.Add(1) }
func (c *counters) Refresh()  { c.refreshes.Add(1) }

func main() {
	var (
		goroutines = flag.Int("goroutines", 200, "concurrent workers")
		opsPerG    = flag.Int("ops", 5000, "operations per worker")
		keys       = flag.Int("keys", 1000, "distinct keys")
		ttl        = flag.Duration("ttl", 5*time.Second, "entry ttl")
		computeLag = flag.Duration("compute", 2*time.Millisecond, "simulated compute latency")
		shards     = flag.Int("shards", 8, "cache shards")
	)
	flag.Parse()

	fmt.Println("================ FLIGHT LOAD BENCHMARK ================")
	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Goroutines   :", *goroutines)
	fmt.Println("Ops/Goroutine:", *opsPerG)
	fmt.Println("Distinct Keys:", *keys)
	fmt.Println("TTL          :", *ttl)
	fmt.Println("Compute Lag  :", *computeLag)
	fmt.Println("Shards       :", *shards)
	fmt.Println("---------------------------------")

	ctr := &counters{}
	var computes atomic.Int64

	c, err := flightcache.New(
		flightcache.WithShards[string](*shards),
		flightcache.WithMetrics[string](ctr),
	)
	if err != nil {
		fmt.Println("failed to build cache:", err)
		os.Exit(1)
	}

	ctx := context.Background()

	fmt.Println("Running load...")
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(*goroutines)
	for g := 0; g < *goroutines; g++ {
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))

			for i := 0; i < *opsPerG; i++ {
				key := fmt.Sprintf("key-%d", rng.Intn(*keys))

				_, err := c.GetOrCompute(ctx, key, *ttl, func(context.Context) (string, error) {
					computes.Add(1)
					time.Sleep(*computeLag)
					return "value of " + key, nil
				})
				if err != nil {
					fmt.Println("unexpected error:", err)
					return
				}
			}
		}(int64(g))
	}
	wg.Wait()

	elapsed := time.Since(start)
	totalOps := int64(*goroutines) * int64(*opsPerG)
	computed := computes.Load()

	fmt.Println("\n================ RESULTS ================")
	fmt.Printf("Total Requests   : %d\n", totalOps)
	fmt.Printf("Compute Calls    : %d\n", computed)
	if computed > 0 {
		fmt.Printf("Requests/Compute : %.1f\n", float64(totalOps)/float64(computed))
	}
	fmt.Printf("Hits             : %d\n", ctr.hits.Load())
	fmt.Printf("Misses           : %d\n", ctr.misses.Load())
	fmt.Printf("Joins            : %d\n", ctr.joins.Load())
	fmt.Printf("Expired          : %d\n", ctr.expired.Load())
	fmt.Printf("Total Time       : %v\n", elapsed)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/elapsed.Seconds())
	fmt.Println("=========================================")

	_ = c.Close()
}
