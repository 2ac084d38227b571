package provider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chain-gateway/internal/logging"
	"chain-gateway/internal/observability"
)

// DefaultTimeout bounds every upstream call made by an adapter.
const DefaultTimeout = 5 * time.Second

// base carries what every adapter needs to call an upstream safely.
type base struct {
	kind    string
	timeout time.Duration
	logger  *zap.SugaredLogger
}

func newBase(kind string, timeout time.Duration, logger *zap.SugaredLogger) base {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return base{
		kind:    kind,
		timeout: timeout,
		logger:  logging.OrNop(logger).Named(kind),
	}
}

// call runs fn under the adapter timeout and swallows its error.
// A nil result means the source is unavailable for this invocation.
func call[T any](ctx context.Context, b *base, source string, fn func(context.Context) (*T, error)) *T {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	result, err := fn(ctx)
	observability.RecordProviderCall(b.kind, source, time.Since(start).Seconds(), err)

	if err != nil {
		b.logger.Warnw("upstream call failed", "source", source, "error", err)
		return nil
	}
	return result
}
