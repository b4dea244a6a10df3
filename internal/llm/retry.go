package llm

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// RetryingClient retries transient provider failures with exponential backoff.
// Malformed output and non-transient API errors are returned immediately.
type RetryingClient struct {
	base            Client
	maxRetries      uint64
	initialInterval time.Duration
}

// WithRetry decorates base. maxRetries of zero returns base unchanged.
func WithRetry(base Client, maxRetries int, initialInterval time.Duration) Client {
	if maxRetries <= 0 {
		return base
	}
	if initialInterval <= 0 {
		initialInterval = 500 * time.Millisecond
	}
	return &RetryingClient{
		base:            base,
		maxRetries:      uint64(maxRetries),
		initialInterval: initialInterval,
	}
}

// Complete runs the request, retrying while the error is Retryable.
func (c *RetryingClient) Complete(ctx context.Context, req Request) (Response, error) {
	callID := uuid.NewString()
	ctx = WithCallID(ctx, callID)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialInterval
	policy.MaxElapsedTime = 0

	var (
		resp    Response
		attempt int
	)
	operation := func() error {
		attempt++
		out, err := c.base.Complete(ctx, req)
		if err == nil {
			resp = out
			return nil
		}
		if !Retryable(err) {
			return backoff.Permanent(err)
		}
		log.Printf("llm: call %s attempt %d failed: %v", callID, attempt, err)
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx))
	if err != nil {
		return Response{}, err
	}
	return resp, nil
}
