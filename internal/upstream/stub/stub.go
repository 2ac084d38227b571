// Package stub provides deterministic in-memory upstream sources.
//
// Every source is safe for concurrent use, counts its calls and can be told
// to fail, so tests can drive adapter fallback and health transitions.
package stub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNotFound is returned when the stub holds no data for a request.
var ErrNotFound = errors.New("not found")

// ErrUnavailable is the default error of a failing source.
var ErrUnavailable = errors.New("source unavailable")

// control is embedded by every stub source.
type control struct {
	mu    sync.RWMutex
	err   error
	delay time.Duration
	calls atomic.Int64
}

// SetError makes every subsequent call fail with err. nil restores the source.
func (c *control) SetError(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// Fail makes every subsequent call fail with ErrUnavailable.
func (c *control) Fail() { c.SetError(ErrUnavailable) }

// Recover clears a previously set error.
func (c *control) Recover() { c.SetError(nil) }

// SetDelay makes every call block for d or until the context is done.
func (c *control) SetDelay(d time.Duration) {
	c.mu.Lock()
	c.delay = d
	c.mu.Unlock()
}

// Calls returns the number of calls served, failed ones included.
func (c *control) Calls() int64 { return c.calls.Load() }

// Probe reports the configured error.
func (c *control) Probe(ctx context.Context) error {
	return c.enter(ctx)
}

func (c *control) enter(ctx context.Context) error {
	c.calls.Add(1)
	c.mu.RLock()
	err, delay := c.err, c.delay
	c.mu.RUnlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return err
}

func tokenKey(token string, chainID int64) string {
	return fmt.Sprintf("%s|%d", strings.ToLower(token), chainID)
}

// pairKey is order-insensitive.
func pairKey(a, b string, chainID int64) string {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%s/%s|%d", a, b, chainID)
}

func nowMs() int64 { return time.Now().UnixMilli() }
