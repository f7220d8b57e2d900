package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. The client is copied so the
// configured timeout does not leak into the caller's instance.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			clone := *client
			c.http = &clone
		}
	}
}

// WithTimeout bounds every request issued by the client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithJobTimeout bounds training and cleaning requests.
func WithJobTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.jobTimeout = timeout
		}
	}
}

// WithRateLimit throttles outbound requests to perSecond with the given
// burst. A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestIDFunc overrides how X-Request-ID values are generated.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.requestID = fn
		}
	}
}
