package binding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/storefront/internal/fetch"
)

type payload struct {
	N       int    `json:"n"`
	Message string `json:"message"`
}

func newClient(t *testing.T, h http.HandlerFunc) *fetch.Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	c, err := fetch.NewClient(fetch.Config{BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestImmediateFetch(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"n":7}`))
	})

	b := New[payload](context.Background(), c, "/items", Options{Immediate: true})

	assert.Equal(t, int32(1), hits.Load())
	st := b.State()
	assert.False(t, st.Loading)
	require.NotNil(t, st.Data)
	assert.Equal(t, 7, st.Data.N)
	assert.NoError(t, st.Err)
	assert.Equal(t, http.StatusOK, st.Status)
}

func TestDeferredFetch(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"n":1}`))
	})

	b := New[payload](context.Background(), c, "/items", Options{})
	assert.Equal(t, int32(0), hits.Load())
	assert.False(t, b.Loading())
	assert.Nil(t, b.Data())

	res := b.Refetch(context.Background())
	assert.True(t, res.OK())
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 1, b.Data().N)
}

func TestSetQueryFetchesOncePerChange(t *testing.T) {
	var hits atomic.Int32
	var lastQuery atomic.Value
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		lastQuery.Store(r.URL.RawQuery)
		w.Write([]byte(`{"n":1}`))
	})

	b := New[payload](context.Background(), c, "/products", Options{
		Immediate: true,
		Request:   fetch.Options{Query: map[string]any{"page": 1, "search": ""}},
	})
	require.Equal(t, int32(1), hits.Load())

	// A fresh map with equal content is not a change.
	assert.False(t, b.SetQuery(context.Background(), map[string]any{"page": 1}))
	assert.Equal(t, int32(1), hits.Load())

	assert.True(t, b.SetQuery(context.Background(), map[string]any{"page": 2}))
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, "page=2", lastQuery.Load())
	assert.Equal(t, map[string]any{"page": 2}, b.Query())

	assert.False(t, b.SetQuery(context.Background(), map[string]any{"page": 2}))
	assert.Equal(t, int32(2), hits.Load())
}

func TestNotifications(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		immediate bool
		show      bool
		refetch   bool
		want      []Notification
	}{
		{
			name:      "generic failure is shown",
			status:    http.StatusInternalServerError,
			body:      `{"message":"Server exploded"}`,
			immediate: true,
			show:      true,
			want:      []Notification{{Type: NotifyFailure, Message: "Server exploded"}},
		},
		{
			name:      "field errors are not shown",
			status:    http.StatusUnprocessableEntity,
			body:      `{"message":"Invalid","errors":{"email":["taken"]}}`,
			immediate: true,
			show:      true,
		},
		{
			name:      "notifications disabled",
			status:    http.StatusInternalServerError,
			body:      `{"message":"Server exploded"}`,
			immediate: true,
			show:      false,
		},
		{
			name:      "initial fetch message is not shown",
			status:    http.StatusOK,
			body:      `{"message":"Loaded"}`,
			immediate: true,
			show:      true,
		},
		{
			name:    "explicit fetch message is shown",
			status:  http.StatusOK,
			body:    `{"message":"Saved"}`,
			show:    true,
			refetch: true,
			want:    []Notification{{Type: NotifySuccess, Message: "Saved"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			var got []Notification
			b := New[payload](context.Background(), c, "/x", Options{
				Immediate:         tt.immediate,
				ShowNotifications: tt.show,
				Notifier:          NotifierFunc(func(n Notification) { got = append(got, n) }),
			})
			if tt.refetch {
				b.Refetch(context.Background())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldErrorsReachState(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Invalid","errors":{"first_name":["required"]}}`))
	})

	b := New[payload](context.Background(), c, "/x", Options{})
	res := b.Refetch(context.Background())

	assert.Equal(t, map[string][]string{"firstName": {"required"}}, res.FieldErrors())
	st := b.State()
	assert.Nil(t, st.Data)
	assert.Error(t, st.Err)
	assert.Equal(t, http.StatusUnprocessableEntity, st.Status)
}

func TestUnauthorizedRedirectsToLogin(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Unauthenticated"}`))
	})

	var redirects int
	snackbar := NewSnackbar(nil)
	New[payload](context.Background(), c, "/me", Options{
		Immediate:         true,
		ShowNotifications: true,
		Notifier:          snackbar,
		Navigator:         NavigatorFunc(func() { redirects++ }),
	})

	assert.Equal(t, 1, redirects)
	n, ok := snackbar.Current()
	require.True(t, ok)
	assert.Equal(t, Notification{Type: NotifyFailure, Message: "Unauthenticated"}, n)
}

func TestSubscribeSeesLoadingTransitions(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"n":3}`))
	})
	b := New[payload](context.Background(), c, "/x", Options{})

	var states []State[payload]
	unsubscribe := b.Subscribe(func(s State[payload]) { states = append(states, s) })
	b.Refetch(context.Background())

	require.Len(t, states, 2)
	assert.True(t, states[0].Loading)
	assert.False(t, states[1].Loading)
	assert.Equal(t, 3, states[1].Data.N)

	unsubscribe()
	b.SetLoading(true)
	assert.Len(t, states, 2)
}

func TestSetDataAndSetLoading(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {})
	b := New[payload](context.Background(), c, "/x", Options{})

	b.SetData(&payload{N: 42})
	b.SetLoading(true)

	st := b.State()
	assert.True(t, st.Loading)
	assert.Equal(t, 42, st.Data.N)
}

func TestSupersededResponseIsDropped(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			<-release
			w.Write([]byte(`{"n":1}`))
			return
		}
		w.Write([]byte(`{"n":2}`))
	})
	b := New[payload](context.Background(), c, "/x", Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	var slow fetch.Result[payload]
	go func() {
		defer wg.Done()
		slow = b.Refetch(context.Background())
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, time.Millisecond)

	fast := b.Refetch(context.Background())
	require.True(t, fast.OK())
	assert.Equal(t, 2, b.Data().N)

	close(release)
	wg.Wait()
	require.True(t, slow.OK())
	assert.Equal(t, 1, slow.Data.N)
	assert.Equal(t, 2, b.Data().N)
	assert.False(t, b.Loading())
}
