package flightcache

import "time"

/*
The sweeper is the eager half of expiry. Reads already treat dead
entries as absent and drop the ones they trip over; the sweeper walks
the shards on an interval so entries nobody asks for again do not sit
in memory until eviction or forever. Nothing observable changes: every
entry the sweeper removes was already invisible to readers.
*/
func (c *Cache[V]) sweep(interval time.Duration) {
	defer c.background.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.baseCtx.Done():
			return
		case <-ticker.C:
			c.sweepOnce()
		}
	}
}

// sweepOnce drops every entry already past its deadline. The snapshot
// walk takes no locks; each removal re-checks under the shard mutex
// that it still removes the entry it saw.
func (c *Cache[V]) sweepOnce() {
	now := c.clock.Now()

	removed := 0
	for _, sh := range c.shards {
		for key, ent := range sh.Store.Snapshot() {
			if !c.engine.Expired(ent, now) {
				continue
			}
			if c.dropEntry(sh, key, ent) {
				removed++
			}
		}
	}

	if removed > 0 {
		c.log.Debug("sweep removed expired entries", "count", removed)
	}
}
