// Package client provides the collection API HTTP client with rate limiting,
// caching, and error handling.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/artic-select/pkg/cache"
	"github.com/Sternrassler/artic-select/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artic_requests_total",
		Help: "Total collection API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "artic_request_duration_seconds",
		Help:    "Collection API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artic_errors_total",
		Help: "Total collection API errors by class",
	}, []string{"class"})
)

const (
	// DefaultBaseURL is the public collection API.
	DefaultBaseURL = "https://api.artic.edu/api/v1"

	// DefaultUserAgent identifies this client to the API.
	DefaultUserAgent = "artic-select/0.1.0"
)

// Client talks to the collection API.
type Client struct {
	httpClient  *http.Client
	redis       *redis.Client
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Redis client for caching and rate limit state. Optional: without it
	// responses are not cached and the rate limit is not shared.
	Redis *redis.Client

	// BaseURL of the API, without trailing slash
	BaseURL string

	// User-Agent header sent with every request
	UserAgent string

	// Timeout per HTTP attempt
	Timeout time.Duration

	// Fields restricts the artwork fields the API returns
	Fields []string

	// Revalidate sends a conditional request for cached entries instead of
	// serving them straight from Redis.
	Revalidate bool

	// StaleRetention keeps expired pages in Redis for revalidation. Zero
	// uses cache.DefaultStaleRetention.
	StaleRetention time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(redis *redis.Client, userAgent string) Config {
	return Config{
		Redis:          redis,
		BaseURL:        DefaultBaseURL,
		UserAgent:      userAgent,
		Timeout:        30 * time.Second,
		Fields:         DefaultFields(),
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
	}
}

// New creates a new collection API client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if len(cfg.Fields) == 0 {
		cfg.Fields = DefaultFields()
	}

	logger := log.With().Str("component", "artic-client").Logger()

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		redis:  cfg.Redis,
		config: cfg,
		logger: logger,
	}

	if cfg.Redis != nil {
		c.rateLimiter = ratelimit.NewTracker(cfg.Redis, logger)
		c.cache = cache.NewManager(cfg.Redis)
		if cfg.StaleRetention > 0 {
			c.cache.SetStaleRetention(cfg.StaleRetention)
		}
	} else {
		logger.Info().Msg("No Redis configured, response cache and shared rate limit disabled")
	}

	return c, nil
}

// Do performs an HTTP request with rate limiting, caching, and error handling.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check Rate Limit
	if c.rateLimiter != nil {
		allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Error().Err(err).Msg("Rate limit check failed")
			return nil, fmt.Errorf("rate limit check: %w", err)
		}
		if !allowed {
			c.logger.Warn().
				Str("endpoint", endpoint).
				Msg("Request blocked by rate limiter")
			requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
			return nil, ErrRateLimited
		}
	}

	// Step 2: Check Cache
	cacheKey := cache.Key{
		Endpoint: endpoint,
		Query:    req.URL.Query(),
	}

	var cachedEntry *cache.Entry
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		cachedEntry = entry
	}

	if cachedEntry != nil && !cachedEntry.IsExpired() && !c.config.Revalidate {
		c.logger.Debug().
			Str("endpoint", endpoint).
			Dur("age", cachedEntry.Age()).
			Msg("Serving response from cache")
		requestsTotal.WithLabelValues(endpoint, "cache_hit").Inc()
		return cache.EntryToResponse(cachedEntry), nil
	}

	// Step 3: Revalidate a stale (or, with Revalidate, any) cached entry
	if cachedEntry != nil && cache.ShouldMakeConditionalRequest(cachedEntry) {
		cache.AddConditionalHeaders(req, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	// Step 4: Set headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("AIC-User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	// Step 5: Execute HTTP Request with Retry Logic
	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing API request")

	var resp *http.Response

	retryErr := retryWithBackoff(ctx, c.retryPolicy, func() error {
		var reqErr error
		resp, reqErr = c.httpClient.Do(req)

		if reqErr != nil {
			c.logger.Error().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			errClass := c.classifyError(nil, reqErr)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			resp = nil
			return reqErr
		}

		if c.rateLimiter != nil {
			if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
			}
		}

		if resp.StatusCode == http.StatusNotModified {
			return nil
		}

		if resp.StatusCode >= 400 {
			errClass := c.classifyError(resp, nil)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("API request error")

			if shouldRetry(errClass) {
				resp.Body.Close()
				return &APIError{
					StatusCode: resp.StatusCode,
					ErrorClass: errClass,
					Message:    resp.Status,
				}
			}

			// client errors are handed to the caller as a response
			return nil
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		return nil
	}, classOf)

	if retryErr != nil {
		return nil, retryErr
	}

	// Step 6: Handle 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		requestsTotal.WithLabelValues(endpoint, "304").Inc()
		cache.NotModifiedResponses.Inc()

		expires := cachedEntry.Expires
		if entry, err := cache.ResponseToEntry(resp); err == nil && entry.Expires.After(expires) {
			expires = entry.Expires
		}
		if err := c.cache.Refresh(ctx, cacheKey, expires); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
		}

		resp.Body.Close()
		return cache.EntryToResponse(cachedEntry), nil
	}

	// Step 7: Update Cache on success
	if resp.StatusCode == http.StatusOK && c.cache != nil {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			c.logger.Debug().
				Str("endpoint", endpoint).
				Dur("ttl", entry.TTL()).
				Msg("Cached response")
		}
	}

	return resp, nil
}

// retryPolicy applies the configured attempt budget and backoff on top of the
// per-class defaults.
func (c *Client) retryPolicy(class ErrorClass) RetryConfig {
	cfg := RetryConfigForErrorClass(class)
	cfg.MaxAttempts = c.config.MaxRetries + 1
	if c.config.InitialBackoff > 0 && c.config.InitialBackoff < cfg.InitialBackoff {
		cfg.InitialBackoff = c.config.InitialBackoff
		if cfg.MaxBackoff > 10*c.config.InitialBackoff {
			cfg.MaxBackoff = 10 * c.config.InitialBackoff
		}
	}
	return cfg
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		c.logger.Debug().Str("class", string(ErrorClassNetwork)).Msg("Error classified")
		return ErrorClassNetwork
	}

	var class ErrorClass
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		class = ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		class = ErrorClassClient
	case resp.StatusCode >= 500:
		class = ErrorClassServer
	default:
		return ""
	}

	c.logger.Debug().Str("class", string(class)).Msg("Error classified")
	return class
}

// Get performs a GET request to an API path relative to BaseURL.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// Ping checks the Redis connection when one is configured.
func (c *Client) Ping(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}

// Close releases idle HTTP connections. The Redis client belongs to the caller.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager, nil without Redis.
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}
