package flightcache

import "errors"

// Sentinel errors returned by the cache itself. Errors returned by a
// compute function are passed through untouched and are never any of
// these; callers can tell cache problems from computation problems
// with errors.Is.
var (
	// ErrInvalidKey rejects the empty key. Returned synchronously,
	// before any lookup or locking happens.
	ErrInvalidKey = errors.New("flightcache: key must not be empty")

	// ErrInvalidTTL rejects a zero or negative TTL, which would create
	// an entry that is expired the moment it lands.
	ErrInvalidTTL = errors.New("flightcache: ttl must be positive")

	// ErrNilCompute rejects a nil compute function.
	ErrNilCompute = errors.New("flightcache: compute function must not be nil")

	// ErrClosed is returned by operations on a cache after Close.
	ErrClosed = errors.New("flightcache: cache is closed")
)
