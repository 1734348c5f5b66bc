// Package provider defines the external AI capabilities the pipeline
// composes — text embedding and the two LLM operations (candidate
// reranking and filter extraction) — together with real adapters,
// a redis-backed embedding cache, and deterministic fallbacks that
// keep the whole system runnable without external services.
package provider

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hirestack/assessrec/filter"
)

// ErrUnavailable marks a provider failure that survived the retry
// policy. The pipeline decides per capability whether it is fatal.
var ErrUnavailable = errors.New("provider unavailable")

// Embedder maps a text document to a unit-norm dense vector of fixed
// dimension. The same text always yields the same vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// LLM is the generative capability pair used by the pipeline.
type LLM interface {
	// Rerank returns indices into docs ordered best-to-worst, at most
	// k of them. Callers must tolerate short, duplicated, or
	// out-of-range output.
	Rerank(ctx context.Context, query string, docs []string, k int) ([]int, error)

	// ExtractFilters derives structured filters from a natural
	// language query. Failures are recoverable; callers fall back to
	// empty filters.
	ExtractFilters(ctx context.Context, query string) (filter.Filters, error)
}

// retryPolicy is the shared retry schedule for transient provider
// errors: fixed 2 s pauses, at most 3 attempts.
func retryPolicy(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(2*time.Second), 2), ctx)
}

// isTransient reports whether err is worth retrying: timeouts and
// connection-level failures. Anything else is permanent.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, context.DeadlineExceeded)
}

// withRetry runs op under the shared retry policy, retrying only
// transient failures.
func withRetry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, retryPolicy(ctx))
}
