package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/krisalay/flightcache"
	"github.com/krisalay/flightcache/api"
	"github.com/krisalay/flightcache/metrics"
	"github.com/krisalay/flightcache/wikipedia"
)

const (
	errInvalidMethod = "Invalid method"

	// requestIDHeader carries the request ID in and out. Incoming IDs
	// are kept; requests without one get a fresh UUID.
	requestIDHeader = "X-Request-ID"
)

// SummaryFetcher is the upstream the daemon proxies. *wikipedia.Client
// satisfies it; tests substitute their own.
type SummaryFetcher interface {
	GetSummary(ctx context.Context, lang, title string) (*wikipedia.Summary, error)
}

/*
HTTPServer is the daemon's HTTP surface:

	GET    /v1/summary/{title}   summary for a page, served through the cache
	DELETE /v1/summary/{title}   drop the cached summary
	GET    /v1/health            liveness plus cache size
	GET    /metrics              Prometheus exposition

Handlers return a value and an error; wrap turns that into JSON, a
status code, a log line and a request metric. The summary route allows
cross-origin reads.
*/
type HTTPServer struct {
	cfg     *Config
	cache   api.Cache[*wikipedia.Summary]
	fetcher SummaryFetcher
	metrics *metrics.Metrics
	log     hclog.Logger

	mux     *http.ServeMux
	handler http.Handler

	httpServer *http.Server
	listener   net.Listener
	listenerCh chan struct{}
}

// NewHTTPServer wires the routes. gatherer feeds /metrics; it is
// normally the registry the Metrics were created on.
func NewHTTPServer(
	cfg *Config,
	cache api.Cache[*wikipedia.Summary],
	fetcher SummaryFetcher,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	log hclog.Logger,
) *HTTPServer {

	s := &HTTPServer{
		cfg:     cfg,
		cache:   cache,
		fetcher: fetcher,
		metrics: m,
		log:     log.Named("http"),
		mux:     http.NewServeMux(),
	}

	corsWrapper := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
		AllowedHeaders: []string{"*"},
	})

	s.mux.Handle("/v1/summary/", corsWrapper.Handler(s.wrap(s.summaryRequest)))
	s.mux.Handle("/v1/health", s.wrap(s.healthRequest))
	s.mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.handler = s.withRequestID(s.mux)
	return s
}

// Handler returns the full middleware-wrapped handler. Tests mount it
// on a local listener of their own.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

// Start binds the configured address and begins serving. It returns
// once the listener is up; serving continues in the background until
// Shutdown.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.cfg.BindAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.BindAddr, err)
	}

	s.listener = ln
	s.listenerCh = make(chan struct{})
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		defer close(s.listenerCh)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server failed", "error", err)
		}
	}()

	s.log.Info("http server started", "address", ln.Addr().String())
	return nil
}

// Addr returns the bound address, usable once Start has returned.
func (s *HTTPServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting connections and drains in-flight requests
// until ctx expires, then waits for the serve loop to finish.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	err := s.httpServer.Shutdown(ctx)
	<-s.listenerCh
	s.log.Info("http server stopped")
	return err
}

//
// Handlers
//

// summaryRequest serves and invalidates cached page summaries. The
// title is the rest of the path, so titles containing slashes work;
// the language comes from ?lang= or the configured default.
func (s *HTTPServer) summaryRequest(resp http.ResponseWriter, req *http.Request) (any, error) {
	title := strings.TrimPrefix(req.URL.Path, "/v1/summary/")
	title = wikipedia.NormalizeTitle(title)
	if title == "" {
		return nil, CodedError(http.StatusBadRequest, "missing page title")
	}

	lang := s.cfg.DefaultLanguage
	if q := req.URL.Query().Get("lang"); q != "" {
		if !ValidLanguage(q) {
			return nil, CodedError(http.StatusBadRequest, fmt.Sprintf("invalid language %q", q))
		}
		lang = q
	}

	switch req.Method {
	case http.MethodGet, http.MethodHead:
		return s.fetchSummary(req.Context(), lang, title)

	case http.MethodDelete:
		s.cache.Invalidate(wikipedia.SummaryKey(lang, title))
		return nil, nil

	default:
		return nil, CodedError(http.StatusMethodNotAllowed, errInvalidMethod)
	}
}

/*
fetchSummary reads through the cache. Identical titles requested
concurrently share one upstream fetch; a cached summary is served with
no upstream traffic at all.

The timeout bounds how long this caller waits. The fetch itself runs
under the cache's context with the upstream client's own timeout, so
one impatient caller hanging up does not cancel a fetch other callers
are waiting on.
*/
func (s *HTTPServer) fetchSummary(ctx context.Context, lang, title string) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	sum, err := s.cache.GetOrCompute(ctx, wikipedia.SummaryKey(lang, title), s.cfg.CacheTTL,
		func(ctx context.Context) (*wikipedia.Summary, error) {
			return s.fetcher.GetSummary(ctx, lang, title)
		})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// HealthResponse is the /v1/health body.
type HealthResponse struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
}

func (s *HTTPServer) healthRequest(resp http.ResponseWriter, req *http.Request) (any, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return nil, CodedError(http.StatusMethodNotAllowed, errInvalidMethod)
	}
	return &HealthResponse{Status: "ok", Entries: s.cache.Len()}, nil
}

//
// Plumbing
//

// HTTPCodedError is an error that chose its own HTTP status code.
type HTTPCodedError interface {
	error
	Code() int
}

func CodedError(c int, msg string) HTTPCodedError {
	return &codedError{msg, c}
}

type codedError struct {
	msg  string
	code int
}

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Code() int     { return e.code }

type errorResponse struct {
	Error string `json:"error"`
}

/*
wrap adapts an (any, error) handler into an http.Handler: the value is
encoded as JSON, the error is mapped to a status code and an error
body, and every request ends as one log line and one request metric. A
nil value with a nil error becomes 204.
*/
func (s *HTTPServer) wrap(handler func(resp http.ResponseWriter, req *http.Request) (any, error)) http.Handler {
	return http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		start := time.Now()
		route := routeName(req.URL.Path)

		obj, err := handler(resp, req)

		code := http.StatusOK
		switch {
		case err != nil:
			code = errorCode(err)
			resp.Header().Set("Content-Type", "application/json; charset=utf-8")
			resp.WriteHeader(code)
			_ = json.NewEncoder(resp).Encode(errorResponse{Error: err.Error()})

		case obj != nil:
			buf, merr := json.Marshal(obj)
			if merr != nil {
				code = http.StatusInternalServerError
				resp.Header().Set("Content-Type", "application/json; charset=utf-8")
				resp.WriteHeader(code)
				_ = json.NewEncoder(resp).Encode(errorResponse{Error: "failed to encode response"})
				break
			}
			resp.Header().Set("Content-Type", "application/json; charset=utf-8")
			resp.WriteHeader(code)
			_, _ = resp.Write(buf)

		default:
			code = http.StatusNoContent
			resp.WriteHeader(code)
		}

		elapsed := time.Since(start)
		if s.metrics != nil {
			s.metrics.RecordRequest(route, strconv.Itoa(code), elapsed)
		}

		if code >= http.StatusInternalServerError {
			s.log.Warn("request failed",
				"method", req.Method, "path", req.URL.Path, "code", code,
				"duration", elapsed, "request_id", RequestID(req.Context()), "error", err)
		} else {
			s.log.Debug("request complete",
				"method", req.Method, "path", req.URL.Path, "code", code,
				"duration", elapsed, "request_id", RequestID(req.Context()))
		}
	})
}

// errorCode maps the errors handlers return onto HTTP status codes.
// Compute errors surface here exactly as the upstream client produced
// them, which is what lets this mapping see through the cache.
func errorCode(err error) int {
	var coded HTTPCodedError
	if errors.As(err, &coded) {
		return coded.Code()
	}

	var status *wikipedia.StatusError
	switch {
	case errors.Is(err, wikipedia.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, flightcache.ErrInvalidKey),
		errors.Is(err, flightcache.ErrInvalidTTL),
		errors.Is(err, flightcache.ErrNilCompute):
		return http.StatusBadRequest

	case errors.Is(err, flightcache.ErrClosed):
		return http.StatusServiceUnavailable

	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout

	case errors.As(err, &status):
		if status.StatusCode == http.StatusTooManyRequests {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway

	default:
		return http.StatusBadGateway
	}
}

// routeName collapses paths into a small fixed label set so metric
// cardinality stays bounded no matter what titles are requested.
func routeName(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/summary/"):
		return "summary"
	case path == "/v1/health":
		return "health"
	case path == "/metrics":
		return "metrics"
	default:
		return "other"
	}
}

type ctxKey int

const requestIDKey ctxKey = 0

// RequestID returns the request's ID, or "" outside a request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// withRequestID tags every request with an ID, echoes it in the
// response header, and makes it available to handler logging.
func (s *HTTPServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(requestIDHeader)
		if id == "" {
			if generated, err := uuid.GenerateUUID(); err == nil {
				id = generated
			}
		}

		resp.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(req.Context(), requestIDKey, id)
		next.ServeHTTP(resp, req.WithContext(ctx))
	})
}
