package server

import (
	"fmt"
	"regexp"
	"time"

	"github.com/hashicorp/go-multierror"
)

// langPattern matches the language subdomains the encyclopedia API
// serves: "en", "de", "simple", "zh-yue" and the like.
var langPattern = regexp.MustCompile(`^[a-z]{2,12}(-[a-z0-9]{1,8})?$`)

// ValidLanguage reports whether s can be used as a language code.
func ValidLanguage(s string) bool {
	return langPattern.MatchString(s)
}

// Config is everything the summary daemon needs to run. Flags populate
// it; Validate decides whether the combination is usable.
type Config struct {

	// BindAddr is the address the HTTP server listens on.
	BindAddr string

	// DefaultLanguage is the language used when a request names none.
	DefaultLanguage string

	// CacheTTL is how long a fetched summary stays servable.
	CacheTTL time.Duration

	// RequestTimeout bounds how long one HTTP caller waits for a
	// summary, including any time spent waiting on a shared fetch.
	RequestTimeout time.Duration

	// Shards is the cache shard count.
	Shards int

	// Capacity bounds the cache entry count. Zero means unbounded.
	Capacity int

	// SweepInterval is the cadence of the background expiry sweep.
	// Zero disables the sweeper.
	SweepInterval time.Duration

	// RefreshWindow makes reads that close within this window of an
	// entry's deadline refresh it in the background. Zero disables
	// refresh.
	RefreshWindow time.Duration

	// UpstreamURL overrides the live encyclopedia endpoint, mainly for
	// local testing. Empty means the real per-language hosts.
	UpstreamURL string

	// UpstreamRPS caps outbound requests per second. Zero means no cap.
	UpstreamRPS float64

	// LogLevel is an hclog level name: trace, debug, info, warn, error.
	LogLevel string
}

// DefaultConfig returns the configuration the daemon runs with when no
// flags are given.
func DefaultConfig() *Config {
	return &Config{
		BindAddr:        "127.0.0.1:8080",
		DefaultLanguage: "en",
		CacheTTL:        30 * time.Second,
		RequestTimeout:  15 * time.Second,
		Shards:          4,
		SweepInterval:   time.Minute,
		RefreshWindow:   5 * time.Second,
		UpstreamRPS:     10,
		LogLevel:        "info",
	}
}

// Validate collects every problem with the configuration rather than
// stopping at the first.
func (c *Config) Validate() error {
	var mErr *multierror.Error

	if c.BindAddr == "" {
		mErr = multierror.Append(mErr, fmt.Errorf("bind address must not be empty"))
	}
	if !ValidLanguage(c.DefaultLanguage) {
		mErr = multierror.Append(mErr, fmt.Errorf("invalid default language %q", c.DefaultLanguage))
	}
	if c.CacheTTL <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("cache ttl must be positive, got %s", c.CacheTTL))
	}
	if c.RequestTimeout <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.Shards < 1 {
		mErr = multierror.Append(mErr, fmt.Errorf("shard count must be at least 1, got %d", c.Shards))
	}
	if c.Capacity < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("capacity must not be negative, got %d", c.Capacity))
	}
	if c.SweepInterval < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("sweep interval must not be negative, got %s", c.SweepInterval))
	}
	if c.RefreshWindow < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("refresh window must not be negative, got %s", c.RefreshWindow))
	}
	if c.UpstreamRPS < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("upstream rate limit must not be negative, got %f", c.UpstreamRPS))
	}

	return mErr.ErrorOrNil()
}
