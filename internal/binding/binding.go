// Package binding keeps loading, data, and error state for one endpoint and
// re-fetches it on demand or when its query changes. Bindings are independent
// of each other; the only state they share is the client's refresh
// coordinator.
package binding

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/storefront/internal/fetch"
	"github.com/mesh-intelligence/storefront/internal/qs"
	"github.com/mesh-intelligence/storefront/pkg/types"
)

// Options configures a Binding.
type Options struct {
	// Request is passed to the pipeline on every fetch.
	Request fetch.Options
	// Immediate runs one fetch from New.
	Immediate bool
	// ShowNotifications enables failure and success notifications.
	ShowNotifications bool
	Notifier          Notifier
	Navigator         Navigator
	Logger            *zap.Logger
}

// State is a snapshot of a binding.
type State[T any] struct {
	Loading bool
	Data    *T
	Err     error
	Status  int
}

// Binding tracks the state of one endpoint for a consumer.
//
// Overlapping fetches may run concurrently. The most recently started fetch
// owns the state: responses from fetches superseded before they complete are
// returned to their caller but not stored.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Binding[T any] struct {
	client   *fetch.Client
	endpoint string
	opts     Options
	logger   *zap.Logger

	mu       sync.Mutex
	state    State[T]
	query    map[string]any
	queryKey string
	seq      uint64
	subs     map[int]func(State[T])
	nextSub  int
}

// New creates a binding. When opts.Immediate is set it performs the initial
// fetch before returning; that fetch never raises a success notification.
func New[T any](ctx context.Context, client *fetch.Client, endpoint string, opts Options) *Binding[T] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Binding[T]{
		client:   client,
		endpoint: endpoint,
		opts:     opts,
		logger:   logger,
		query:    opts.Request.Query,
		queryKey: qs.Encode(opts.Request.Query),
		subs:     make(map[int]func(State[T])),
	}
	b.state.Loading = opts.Immediate
	if opts.Immediate {
		b.run(ctx, true)
	}
	return b
}

// State returns the current snapshot.
func (b *Binding[T]) State() State[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Loading reports whether a fetch is outstanding.
func (b *Binding[T]) Loading() bool { return b.State().Loading }

// Data returns the last successful payload, or nil.
func (b *Binding[T]) Data() *T { return b.State().Data }

// Err returns the last error, or nil.
func (b *Binding[T]) Err() error { return b.State().Err }

// Refetch fetches the endpoint again with the current query. Success
// notifications are allowed because the call is explicit.
func (b *Binding[T]) Refetch(ctx context.Context) fetch.Result[T] {
	return b.run(ctx, false)
}

// SetQuery replaces the query and re-fetches once if its encoded form
// differs from the current one. It reports whether a fetch was made.
// Equivalent queries built as fresh maps do not trigger a fetch.
func (b *Binding[T]) SetQuery(ctx context.Context, query map[string]any) bool {
	key := qs.Encode(query)
	b.mu.Lock()
	if key == b.queryKey {
		b.mu.Unlock()
		return false
	}
	b.query = query
	b.queryKey = key
	b.mu.Unlock()

	b.run(ctx, true)
	return true
}

// Query returns the query used for the next fetch.
func (b *Binding[T]) Query() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

// SetData overwrites the stored payload without a request.
func (b *Binding[T]) SetData(data *T) {
	b.update(func(s *State[T]) { s.Data = data })
}

// SetLoading overwrites the loading flag without a request.
func (b *Binding[T]) SetLoading(loading bool) {
	b.update(func(s *State[T]) { s.Loading = loading })
}

// Subscribe registers fn to receive every state change and returns a
// function that removes it. fn runs on the goroutine that made the change
// and must not call back into the binding's setters.
func (b *Binding[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

func (b *Binding[T]) update(mutate func(*State[T])) {
	b.mu.Lock()
	mutate(&b.state)
	snapshot := b.state
	subs := make([]func(State[T]), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// run performs one fetch. automatic marks fetches the consumer did not ask
// for explicitly; they never raise success notifications.
func (b *Binding[T]) run(ctx context.Context, automatic bool) fetch.Result[T] {
	var seq uint64
	var opts fetch.Options
	b.update(func(s *State[T]) {
		b.seq++
		seq = b.seq
		opts = b.opts.Request
		opts.Query = b.query
		s.Loading = true
	})

	res := fetch.Request[T](ctx, b.client, b.endpoint, opts)
	b.logger.Debug("binding fetched",
		zap.String("endpoint", b.endpoint),
		zap.Int("status", res.Status),
		zap.Bool("automatic", automatic),
		zap.Error(res.Err))

	b.notify(res, automatic)
	if res.Status == http.StatusUnauthorized && b.opts.Navigator != nil {
		b.opts.Navigator.RedirectToLogin()
	}

	b.mu.Lock()
	latest := seq == b.seq
	b.mu.Unlock()
	if latest {
		b.update(func(s *State[T]) {
			if seq != b.seq {
				return
			}
			*s = State[T]{Data: res.Data, Err: res.Err, Status: res.Status}
		})
	}
	return res
}

func (b *Binding[T]) notify(res fetch.Result[T], automatic bool) {
	if !b.opts.ShowNotifications || b.opts.Notifier == nil {
		return
	}
	if res.Err != nil {
		apiErr := res.APIError()
		if apiErr != nil && apiErr.HasFieldErrors() {
			return
		}
		b.opts.Notifier.Notify(Notification{Type: NotifyFailure, Message: errorMessage(res.Err, apiErr)})
		return
	}
	if res.Message != "" && !automatic {
		b.opts.Notifier.Notify(Notification{Type: NotifySuccess, Message: res.Message})
	}
}

func errorMessage(err error, apiErr *types.ErrorAPI) string {
	if apiErr != nil {
		return apiErr.Message
	}
	var transportErr *fetch.TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Err.Error()
	}
	return err.Error()
}
