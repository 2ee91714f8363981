package fetchqueue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/steambuddy/steambuddy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetries(t *testing.T) {
	t.Parallel()

	policy := RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	}
	job := NewFetchJob("76561198012078200", time.Now())

	newHandler := func(errs ...error) (JobHandler, *int) {
		calls := 0
		return func(ctx context.Context, j FetchJob) error {
			calls++
			if calls > len(errs) {
				return nil
			}
			return errs[calls-1]
		}, &calls
	}

	temporary := fmt.Errorf("steam is down: %w", domain.ErrTemporarilyUnavailable)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		handler, calls := newHandler()
		require.NoError(t, WithRetries(handler, policy)(t.Context(), job))
		require.Equal(t, 1, *calls)
	})

	t.Run("temporary error is retried", func(t *testing.T) {
		t.Parallel()

		handler, calls := newHandler(temporary, temporary)
		require.NoError(t, WithRetries(handler, policy)(t.Context(), job))
		require.Equal(t, 3, *calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		t.Parallel()

		handler, calls := newHandler(temporary, temporary, temporary, temporary)
		err := WithRetries(handler, policy)(t.Context(), job)
		require.ErrorIs(t, err, domain.ErrTemporarilyUnavailable)
		require.Equal(t, 3, *calls)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		t.Parallel()

		handler, calls := newHandler(assert.AnError)
		err := WithRetries(handler, policy)(t.Context(), job)
		require.ErrorIs(t, err, assert.AnError)
		require.Equal(t, 1, *calls)
	})
}
