package types

// This file defines how the cache reports what it is doing.

/*
Metrics receives cache lifecycle events. Every method may be called from
many goroutines at once, so implementations must be safe for concurrent
use and must not block: these calls sit on the hot read path.

Each lookup reports exactly one of Hit, Miss or Join:

	Hit:  a live entry served the lookup
	Miss: no live entry existed and this caller ran the computation
	Join: no live entry existed and this caller attached to a
	      computation that was already in flight
*/
type Metrics interface {

	// Hit is called when a live entry serves a lookup.
	Hit()

	// Miss is called when a lookup finds no live entry and its caller
	// becomes the one that runs the computation.
	Miss()

	// Join is called when a lookup finds no live entry and its caller
	// shares a computation another caller already started.
	Join()

	// Expire is called when an entry past its deadline is discovered
	// and dropped, whether by a read or by the background sweeper.
	Expire()

	// Eviction is called when a live entry is dropped to make room.
	Eviction()

	// Refresh is called when a background refresh is started for an
	// entry nearing its deadline.
	Refresh()
}

/*
NoopMetrics discards every event. It is the default sink, so the cache
never needs nil checks around metrics calls.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()      {}
func (NoopMetrics) Miss()     {}
func (NoopMetrics) Join()     {}
func (NoopMetrics) Expire()   {}
func (NoopMetrics) Eviction() {}
func (NoopMetrics) Refresh()  {}
