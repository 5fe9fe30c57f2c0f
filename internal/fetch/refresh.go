package fetch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshTimeout bounds a single refresh cycle. Waiters stop waiting
// when the cycle times out and keep their original 401 result.
const DefaultRefreshTimeout = 30 * time.Second

// refreshKey is the single in-flight slot shared by all callers.
const refreshKey = "refresh"

// RefreshFunc renews the stored credentials. It must issue its own request
// with SkipRetry set so a 401 from the refresh endpoint cannot recurse.
type RefreshFunc func(ctx context.Context) error

// Refresher collapses concurrent refresh attempts into one call of its
// RefreshFunc. Every caller that joins a cycle observes that cycle's single
// outcome; once the cycle completes the slot is free for the next 401.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Refresher struct {
	refresh RefreshFunc
	timeout time.Duration
	logger  *zap.Logger
	metrics *Metrics

	group singleflight.Group

	mu      sync.Mutex
	waiting int
	cycles  int
}

// NewRefresher creates a Refresher. A non-positive timeout selects
// DefaultRefreshTimeout.
func NewRefresher(fn RefreshFunc, timeout time.Duration, logger *zap.Logger, metrics *Metrics) *Refresher {
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		refresh: fn,
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// Refresh joins the in-flight refresh cycle, starting one if none is running,
// and returns its outcome. The cycle runs detached from ctx under the
// refresher's own timeout, so a caller giving up does not abort it for the
// others; that caller alone receives ctx.Err().
func (r *Refresher) Refresh(ctx context.Context) error {
	if r == nil || r.refresh == nil {
		return ErrRefreshUnavailable
	}

	r.mu.Lock()
	r.waiting++
	ch := r.group.DoChan(refreshKey, func() (any, error) {
		return nil, r.run(ctx)
	})
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.waiting--
		r.mu.Unlock()
	}()

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Refresher) run(parent context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), r.timeout)
	defer cancel()

	r.mu.Lock()
	r.cycles++
	r.mu.Unlock()

	start := time.Now()
	err := r.refresh(ctx)
	if err != nil {
		r.logger.Warn("token refresh failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		r.metrics.observeRefresh(false)
		return err
	}
	r.logger.Info("token refreshed", zap.Duration("duration", time.Since(start)))
	r.metrics.observeRefresh(true)
	return nil
}

// Pending returns the number of callers currently waiting on a cycle.
func (r *Refresher) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waiting
}

// Cycles returns how many refresh calls have been made.
func (r *Refresher) Cycles() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cycles
}
