package overpass

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/futuricity/livability/internal/resilience"
)

// DefaultBaseURL is the public Overpass interpreter endpoint.
const DefaultBaseURL = "https://overpass-api.de/api/interpreter"

// Client fetches raw elements for one category query.
type Client interface {
	Fetch(ctx context.Context, category, query string) ([]Element, error)
}

// Options configures the HTTP client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// RequestDelay is the minimum spacing between requests to the API,
	// shared across all concurrent workers.
	RequestDelay time.Duration

	// BreakerThreshold is the consecutive-failure count that opens the
	// circuit; 0 disables the breaker.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// HTTPClient is the production Client. A single rate limiter spaces out
// requests regardless of worker concurrency, and a circuit breaker stops a
// batch from hammering a mirror that is down.
type HTTPClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	breaker   *resilience.Breaker
}

// NewHTTPClient creates an HTTPClient with the given options.
func NewHTTPClient(opts Options) *HTTPClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "livability/1.0"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestDelay <= 0 {
		opts.RequestDelay = 500 * time.Millisecond
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}

	return &HTTPClient{
		baseURL:   opts.BaseURL,
		userAgent: opts.UserAgent,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Every(opts.RequestDelay), 1),
		breaker: resilience.NewBreaker(opts.BreakerThreshold, opts.BreakerCooldown, nil),
	}
}

// Fetch posts the query and decodes the element list. It performs exactly
// one network call; retry policy belongs to the caller. Rate-limit and
// gateway-timeout statuses, transport failures and malformed bodies are
// wrapped as transient (Overpass mirrors return HTML error pages when
// overloaded, which is worth one more try).
func (c *HTTPClient) Fetch(ctx context.Context, category, query string) ([]Element, error) {
	if err := c.breaker.Allow(); err != nil {
		return nil, err
	}

	elements, err := c.fetch(ctx, category, query)
	c.breaker.Record(err)
	return elements, err
}

func (c *HTTPClient) fetch(ctx context.Context, category, query string) ([]Element, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "overpass: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(query))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "overpass: %s request", category)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("overpass: %s returned status %d", category, resp.StatusCode)
		if resilience.IsTransientStatus(resp.StatusCode) {
			return nil, resilience.NewTransient(err, resp.StatusCode)
		}
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "overpass: %s read body", category)
	}

	var parsed Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, resilience.NewTransient(eris.Wrapf(err, "overpass: %s parse response", category), resp.StatusCode)
	}

	return parsed.Elements, nil
}

// BreakerState exposes the breaker state for health reporting.
func (c *HTTPClient) BreakerState() resilience.BreakerState {
	return c.breaker.State()
}
