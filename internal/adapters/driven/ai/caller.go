package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ollama/ollama/api"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const (
	serviceEmbedding = "embedding"
	serviceLLM       = "llm"
)

// caller applies a CallPolicy to every request made against one provider:
// a shared rate limit, a per-attempt timeout and exponential backoff on
// transient failures.
type caller struct {
	service string
	policy  domain.CallPolicy
	limiter *rate.Limiter
	backoff time.Duration
}

func newCaller(service string, policy domain.CallPolicy) *caller {
	c := &caller{
		service: service,
		policy:  policy,
		backoff: 100 * time.Millisecond,
	}
	if policy.RatePerSec > 0 {
		burst := int(policy.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(policy.RatePerSec), burst)
	}
	return c
}

// do runs fn until it succeeds, fails permanently or exhausts MaxRetries.
// The returned error is always a *domain.ServiceCallError.
func (c *caller) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return c.wrap(op, err)
			}
		}

		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if c.policy.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.policy.Timeout)
		}
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		// The caller gave up; retrying would only burn quota.
		if ctx.Err() != nil || !isRetryable(err) || attempt == c.policy.MaxRetries {
			break
		}

		wait := time.Duration(1<<uint(attempt)) * c.backoff
		slog.Warn("retrying service call",
			"service", c.service,
			"op", op,
			"attempt", attempt+1,
			"backoff", wait,
			"error", err)

		select {
		case <-ctx.Done():
			return c.wrap(op, ctx.Err())
		case <-time.After(wait):
		}
	}

	return c.wrap(op, lastErr)
}

func (c *caller) wrap(op string, err error) error {
	var sce *domain.ServiceCallError
	if errors.As(err, &sce) {
		return sce
	}
	return &domain.ServiceCallError{
		Service:    c.service,
		Op:         op,
		StatusCode: statusCode(err),
		Retryable:  isRetryable(err),
		Err:        err,
	}
}

// statusCode extracts the HTTP status from a provider error, or 0.
func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// isRetryable reports whether err is transient: rate limiting, a server
// error, a timeout or a dropped connection.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if code := statusCode(err); code != 0 {
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
