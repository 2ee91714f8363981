package fetchqueue

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/steambuddy/steambuddy/internal/domain"
	"github.com/steambuddy/steambuddy/internal/logging"
)

const MAX_ATTEMPTS = 3

const INITIAL_BACKOFF = 2 * time.Second

type RetryPolicy struct {
	MaxAttempts    uint
	InitialBackoff time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    MAX_ATTEMPTS,
		InitialBackoff: INITIAL_BACKOFF,
	}
}

// Retry the handler with exponential backoff while it fails with domain.ErrTemporarilyUnavailable.
// Any other error is returned immediately.
func WithRetries(handler JobHandler, policy RetryPolicy) JobHandler {
	return func(ctx context.Context, job FetchJob) error {
		exponentialBackoff := backoff.NewExponentialBackOff()
		exponentialBackoff.InitialInterval = policy.InitialBackoff

		attempt := 0
		_, err := backoff.Retry(
			ctx,
			func() (struct{}, error) {
				attempt++
				err := handler(ctx, job)
				if err == nil {
					return struct{}{}, nil
				}
				if !errors.Is(err, domain.ErrTemporarilyUnavailable) {
					return struct{}{}, backoff.Permanent(err)
				}
				return struct{}{}, err
			},
			backoff.WithBackOff(exponentialBackoff),
			backoff.WithMaxTries(policy.MaxAttempts),
			backoff.WithNotify(func(err error, wait time.Duration) {
				logging.FromContext(ctx).WarnContext(
					ctx,
					"Fetch job failed, retrying",
					"jobId", job.ID.String(),
					"attempt", attempt,
					"wait", wait.String(),
					"error", err.Error(),
				)
			}),
		)
		return err
	}
}
