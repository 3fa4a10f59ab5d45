// summaryd serves encyclopedia page summaries over HTTP, caching each
// summary for a short TTL so bursts of identical requests cost one
// upstream fetch.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/krisalay/flightcache"
	"github.com/krisalay/flightcache/eviction"
	"github.com/krisalay/flightcache/metrics"
	"github.com/krisalay/flightcache/refresh"
	"github.com/krisalay/flightcache/server"
	"github.com/krisalay/flightcache/wikipedia"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := server.DefaultConfig()

	flag.StringVar(&cfg.BindAddr, "bind", cfg.BindAddr, "address to listen on")
	flag.StringVar(&cfg.DefaultLanguage, "lang", cfg.DefaultLanguage, "default page language")
	flag.DurationVar(&cfg.CacheTTL, "ttl", cfg.CacheTTL, "how long summaries stay cached")
	flag.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "how long one request may wait for a summary")
	flag.IntVar(&cfg.Shards, "shards", cfg.Shards, "cache shard count")
	flag.IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "maximum cached summaries, 0 for unbounded")
	flag.DurationVar(&cfg.SweepInterval, "sweep", cfg.SweepInterval, "expired entry sweep interval, 0 to disable")
	flag.DurationVar(&cfg.RefreshWindow, "refresh-window", cfg.RefreshWindow, "refresh summaries this close to expiry, 0 to disable")
	flag.StringVar(&cfg.UpstreamURL, "upstream", cfg.UpstreamURL, "override the encyclopedia API endpoint")
	flag.Float64Var(&cfg.UpstreamRPS, "upstream-rps", cfg.UpstreamRPS, "upstream requests per second, 0 for no cap")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "trace, debug, info, warn or error")
	flag.Parse()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "summaryd",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New("summaryd", registry)

	cacheOpts := []flightcache.Option[*wikipedia.Summary]{
		flightcache.WithShards[*wikipedia.Summary](cfg.Shards),
		flightcache.WithMetrics[*wikipedia.Summary](m),
		flightcache.WithLogger[*wikipedia.Summary](logger),
	}
	if cfg.Capacity > 0 {
		cacheOpts = append(cacheOpts,
			flightcache.WithCapacity[*wikipedia.Summary](cfg.Capacity, eviction.LRU))
	}
	if cfg.SweepInterval > 0 {
		cacheOpts = append(cacheOpts,
			flightcache.WithSweep[*wikipedia.Summary](cfg.SweepInterval))
	}
	if cfg.RefreshWindow > 0 {
		cacheOpts = append(cacheOpts,
			flightcache.WithRefresh[*wikipedia.Summary](refresh.Ahead[*wikipedia.Summary]{Window: cfg.RefreshWindow}))
	}

	cache, err := flightcache.New(cacheOpts...)
	if err != nil {
		logger.Error("failed to build cache", "error", err)
		return 1
	}

	client := wikipedia.NewClient(wikipedia.ClientOptions{
		BaseURL:   cfg.UpstreamURL,
		RateLimit: cfg.UpstreamRPS,
		Logger:    logger,
	})

	srv := server.NewHTTPServer(cfg, cache, client, m, registry, logger)
	if err := srv.Start(); err != nil {
		logger.Error("failed to start http server", "error", err)
		_ = cache.Close()
		return 1
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Drain the HTTP side first so no request arrives at a closed cache.
	var mErr *multierror.Error
	mErr = multierror.Append(mErr, srv.Shutdown(shutdownCtx))
	mErr = multierror.Append(mErr, cache.Close())
	if err := mErr.ErrorOrNil(); err != nil {
		logger.Error("shutdown finished with errors", "error", err)
		return 1
	}

	logger.Info("shutdown complete")
	return 0
}
