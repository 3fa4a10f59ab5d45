package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"
)

const (
	// defaultUserAgent identifies us to the Wikimedia API, which asks
	// clients for an agent string with a contact reference.
	defaultUserAgent = "flightcache-summaryd/1.0 (github.com/krisalay/flightcache)"

	defaultTimeout = 10 * time.Second

	defaultRetries   = 3
	defaultBaseDelay = 250 * time.Millisecond
	defaultMaxDelay  = 4 * time.Second

	// maxErrorBody caps how much of an upstream error response is
	// carried inside a StatusError.
	maxErrorBody = 4 << 10
)

// ErrNotFound means the page does not exist in that language.
var ErrNotFound = errors.New("wikipedia: page not found")

// StatusError is a non-2xx upstream response that survived retries.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wikipedia: upstream status %d: %s", e.StatusCode, e.Body)
}

/*
Client fetches page summaries from the Wikimedia REST API.

Transient upstream trouble (429 and 5xx, or transport errors) is
retried with exponential backoff and jitter before the caller sees a
failure. An optional rate limiter paces outbound requests; with one
configured, GetSummary blocks until the limiter grants a slot or the
context dies.
*/
type Client struct {
	httpClient *http.Client

	// baseURL overrides the live API endpoint. Empty means the real
	// per-language wikipedia.org hosts.
	baseURL string

	limiter *rate.Limiter
	log     hclog.Logger

	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// ClientOptions configure NewClient. The zero value works against the
// live API with library defaults.
type ClientOptions struct {

	// BaseURL points every request at one fixed endpoint instead of
	// the per-language wikipedia.org hosts. Tests point it at a local
	// server.
	BaseURL string

	// UserAgent replaces the default agent string.
	UserAgent string

	// Timeout is the whole-request timeout. Zero means the default.
	Timeout time.Duration

	// RateLimit caps outbound requests per second. Zero means no cap.
	RateLimit float64

	// Burst is the limiter's burst size. Zero means 1.
	Burst int

	// Retries is how many times a failed request is retried. Zero
	// means the default; retries are capped, not disabled, because an
	// upstream that flaps is this client's normal weather.
	Retries int

	// Logger receives debug lines about retries. Nil discards them.
	Logger hclog.Logger
}

func NewClient(opts ClientOptions) *Client {
	agent := opts.UserAgent
	if agent == "" {
		agent = defaultUserAgent
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout
	httpClient.Transport = &userAgentTransport{
		agent: agent,
		next:  httpClient.Transport,
	}

	retries := opts.Retries
	if retries <= 0 {
		retries = defaultRetries
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		limiter:    limiter,
		log:        logger.Named("wikipedia"),
		maxRetries: retries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
}

/*
GetSummary fetches the summary of a page in the given language.

A missing page is ErrNotFound. Any other upstream failure that
survives retries is a *StatusError carrying the status code and
response body, or the transport error as-is.
*/
func (c *Client) GetSummary(ctx context.Context, lang, title string) (*Summary, error) {
	title = NormalizeTitle(title)
	if title == "" {
		return nil, errors.New("wikipedia: title must not be empty")
	}
	if lang == "" {
		return nil, errors.New("wikipedia: language must not be empty")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var s Summary
	if err := c.getJSON(ctx, c.endpoint(lang, title), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) endpoint(lang, title string) string {
	base := c.baseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.wikipedia.org/api/rest_v1", lang)
	}
	return base + "/page/summary/" + url.PathEscape(title)
}

func (c *Client) getJSON(ctx context.Context, requestURL string, out any) error {
	resp, err := c.doWithRetry(ctx, requestURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return ErrNotFound

	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

/*
doWithRetry performs the GET, retrying transport errors and retryable
statuses with exponential backoff plus jitter. The last response is
returned to the caller even if still retryable, so the real upstream
status makes it into the error the caller builds.
*/
func (c *Client) doWithRetry(ctx context.Context, requestURL string) (*http.Response, error) {
	delay := c.baseDelay

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, doErr := c.httpClient.Do(req)
		if doErr == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}

		if attempt == c.maxRetries {
			if doErr != nil {
				return nil, doErr
			}
			return resp, nil
		}

		if doErr == nil {
			// Drain before retrying so the connection is reusable.
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			c.log.Debug("retrying upstream request",
				"url", requestURL, "status", resp.StatusCode, "attempt", attempt+1)
		} else {
			c.log.Debug("retrying upstream request",
				"url", requestURL, "error", doErr, "attempt", attempt+1)
		}

		jitter := time.Duration(rand.Int63n(int64(delay)))
		select {
		case <-time.After(delay + jitter):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		delay *= 2
		if delay > c.maxDelay {
			delay = c.maxDelay
		}
	}
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// userAgentTransport stamps the agent string on every request. The
// request is cloned first; transports must not mutate their input.
type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.agent)
	return t.next.RoundTrip(clone)
}
