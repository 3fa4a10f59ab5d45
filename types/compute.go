package types

import "context"

/*
ComputeFunc produces the value for a key the cache cannot serve from
memory. It is the contract between the cache and the outside world: a
database query, an API call, any expensive fetch.

The cache invokes at most one ComputeFunc per key at a time; concurrent
requests for the same key share the single invocation and its outcome.

The context passed in belongs to the cache, not to any individual caller,
and is cancelled only when the cache shuts down. A caller abandoning its
wait therefore never interrupts a computation other callers are sharing.
*/
type ComputeFunc[V any] func(ctx context.Context) (V, error)
