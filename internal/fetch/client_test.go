package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mesh-intelligence/storefront/pkg/types"
)

// memTokens is an in-memory TokenSource.
type memTokens struct {
	mu    sync.Mutex
	token string
}

func (m *memTokens) AccessToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memTokens) set(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func newTestClient(t *testing.T, baseURL string, tokens TokenSource, refresh RefreshFunc) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Tokens:  tokens,
		Refresh: refresh,
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return c
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr error
	}{
		{name: "empty base URL", baseURL: "", wantErr: ErrBaseURLRequired},
		{name: "missing scheme", baseURL: "localhost:8080", wantErr: ErrInvalidBaseURL},
		{name: "valid", baseURL: "http://localhost:8080/", wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(Config{BaseURL: tt.baseURL})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "http://localhost:8080", c.BaseURL())
		})
	}
}

func TestRequestHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "web", r.Header.Get("X-Client"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.Write([]byte(`{"message":"ok"}`))
	}))
	defer server.Close()

	c, err := NewClient(Config{
		BaseURL: server.URL,
		Headers: map[string]string{"X-Client": "web"},
		Tokens:  &memTokens{token: "tok-1"},
	})
	require.NoError(t, err)

	res := Request[types.MessageResponse](context.Background(), c, "/api/v1/ping", Options{})
	require.True(t, res.OK())
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "ok", res.Data.Message)
	assert.Equal(t, "ok", res.Message)
}

func TestRequestWithoutTokenSendsNoAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, &memTokens{}, nil)
	res := Request[map[string]any](context.Background(), c, "/", Options{})
	assert.True(t, res.OK())
}

func TestRequestQueryIsEncodedAndDecamelized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/products", r.URL.Path)
		assert.Equal(t, "category_id=c1&filter%5Bstore_id%5D=s1&in_stock=1&tags%5B%5D=a&tags%5B%5D=b", r.URL.RawQuery)
		w.Write([]byte(`{"meta":{"total":0},"data":[]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil, nil)
	res := Request[types.Pagination[types.Product]](context.Background(), c, "/api/v1/products", Options{
		Query: map[string]any{
			"categoryId": "c1",
			"filter":     map[string]any{"storeId": "s1"},
			"tags":       []string{"a", "b"},
			"inStock":    true,
			"search":     "",
		},
	})
	require.True(t, res.OK())
	assert.Empty(t, res.Data.Data)
}

func TestRequestQueryKeysInsideSlicesAndTypedMaps(t *testing.T) {
	tests := []struct {
		name  string
		query map[string]any
		want  string
	}{
		{
			name:  "slice of maps",
			query: map[string]any{"sortBy": "price", "filters": []any{map[string]any{"categoryId": "c1"}}},
			want:  "filters%5B0%5D%5Bcategory_id%5D=c1&sort_by=price",
		},
		{
			name:  "typed map",
			query: map[string]any{"range": map[string]string{"minPrice": "10"}},
			want:  "range%5Bmin_price%5D=10",
		},
		{
			name:  "typed slice of typed maps",
			query: map[string]any{"orderLines": []map[string]int{{"productQty": 2}}},
			want:  "order_lines%5B0%5D%5Bproduct_qty%5D=2",
		},
		{
			name: "struct uses its json keys",
			query: map[string]any{"priceRange": struct {
				MinPrice int `json:"minPrice"`
			}{MinPrice: 10}},
			want: "price_range%5Bmin_price%5D=10",
		},
		{
			name:  "nested map inside slice inside map",
			query: map[string]any{"where": map[string]any{"anyOf": []any{map[string]any{"storeId": "s1"}}}},
			want:  "where%5Bany_of%5D%5B0%5D%5Bstore_id%5D=s1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.want, r.URL.RawQuery)
				w.Write([]byte(`{}`))
			}))
			defer server.Close()

			c := newTestClient(t, server.URL, nil, nil)
			res := Request[map[string]any](context.Background(), c, "/x", Options{Query: tt.query})
			assert.True(t, res.OK())
		})
	}
}

func TestRequestQueryKeysKeptWithNoDecamelize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "filters%5B0%5D%5BcategoryId%5D=c1", r.URL.RawQuery)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil, nil)
	res := Request[map[string]any](context.Background(), c, "/x", Options{
		Query:        map[string]any{"filters": []any{map[string]any{"categoryId": "c1"}}},
		NoDecamelize: true,
	})
	assert.True(t, res.OK())
}

func TestRequestEmptyQueryHasNoQuestionMark(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "", r.URL.RawQuery)
		assert.NotContains(t, r.RequestURI, "?")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil, nil)
	res := Request[map[string]any](context.Background(), c, "/x", Options{Query: map[string]any{"search": ""}})
	assert.True(t, res.OK())
}

func TestRequestBodyIsDecamelized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		items := body["items"].([]any)
		first := items[0].(map[string]any)
		assert.Equal(t, "p1", first["product_id"])
		assert.Equal(t, float64(2), first["quantity"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"message":"Order created","data":{"_id":"o1","total_amount":25000,"status":"pending"}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil, nil)
	res := Request[types.DataResponse[types.Order]](context.Background(), c, "/api/v1/orders", Options{
		Method: http.MethodPost,
		Body: types.CreateOrderRequest{Items: []types.OrderLine{
			{ProductID: "p1", Quantity: 2},
		}},
	})
	require.True(t, res.OK())
	assert.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, "o1", res.Data.Data.ID)
	assert.True(t, decimal.NewFromInt(25000).Equal(res.Data.Data.TotalAmount))
	assert.Equal(t, "Order created", res.Message)
}

func TestRequestBodyNoDecamelize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"fcmToken":"abc"}`, string(raw))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil, nil)
	res := Request[map[string]any](context.Background(), c, "/", Options{
		Method:       http.MethodPut,
		Body:         map[string]any{"fcmToken": "abc"},
		NoDecamelize: true,
	})
	assert.True(t, res.OK())
}

func TestResponseKeysAreCamelized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"_id":"p1","name":"Bag","price":150000,"image_url":"/img/bag.png","created_at":"2026-01-02T03:04:05Z","store":{"_id":"s1","avatar_url":"/a.png"}}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil, nil)
	res := Request[types.DataResponse[types.Product]](context.Background(), c, "/api/v1/products/p1", Options{})
	require.True(t, res.OK())

	p := res.Data.Data
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "/img/bag.png", p.ImageURL)
	assert.Equal(t, "/a.png", p.Store.AvatarURL)
	assert.Equal(t, 2026, p.CreatedAt.Year())
	assert.True(t, decimal.NewFromInt(150000).Equal(p.Price))
}

func TestResponseNoCamelize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"image_url":"x"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil, nil)
	res := Request[map[string]any](context.Background(), c, "/", Options{NoCamelize: true})
	require.True(t, res.OK())
	assert.Equal(t, "x", (*res.Data)["image_url"])
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantFields  map[string][]string
	}{
		{
			name:        "validation errors are camelized",
			status:      http.StatusUnprocessableEntity,
			body:        `{"message":"Validation failed","errors":{"product_id":["is required"],"quantity":"must be positive"}}`,
			wantMessage: "Validation failed",
			wantFields:  map[string][]string{"productId": {"is required"}, "quantity": {"must be positive"}},
		},
		{
			name:        "generic error",
			status:      http.StatusForbidden,
			body:        `{"message":"Forbidden resource"}`,
			wantMessage: "Forbidden resource",
		},
		{
			name:        "empty body falls back to status text",
			status:      http.StatusInternalServerError,
			body:        "",
			wantMessage: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := newTestClient(t, server.URL, nil, nil)
			res := Request[types.MessageResponse](context.Background(), c, "/", Options{})

			assert.Nil(t, res.Data)
			assert.Equal(t, tt.status, res.Status)
			apiErr := res.APIError()
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.wantFields, res.FieldErrors())
			assert.Equal(t, len(tt.wantFields) > 0, apiErr.HasFieldErrors())
		})
	}
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := newTestClient(t, url, nil, nil)
	res := Request[types.MessageResponse](context.Background(), c, "/", Options{})

	assert.Equal(t, 0, res.Status)
	assert.Nil(t, res.Data)
	var transportErr *TransportError
	require.True(t, errors.As(res.Err, &transportErr))
	assert.Equal(t, http.MethodGet, transportErr.Method)
	assert.Nil(t, res.APIError())
}

func TestMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil, nil)
	res := Request[types.MessageResponse](context.Background(), c, "/", Options{})

	assert.Equal(t, http.StatusOK, res.Status)
	assert.Nil(t, res.Data)
	var decodeErr *DecodeError
	assert.True(t, errors.As(res.Err, &decodeErr))
}

func TestEmptySuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil, nil)
	res := Request[types.MessageResponse](context.Background(), c, "/", Options{Method: http.MethodDelete})
	require.True(t, res.OK())
	assert.NotNil(t, res.Data)
	assert.Equal(t, http.StatusNoContent, res.Status)
}

// authServer answers 200 only for the given bearer token and counts requests.
func authServer(t *testing.T, valid string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+valid {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Unauthenticated"}`))
			return
		}
		w.Write([]byte(`{"message":"ok"}`))
	}))
}

func TestRetryAfterRefresh(t *testing.T) {
	var hits atomic.Int32
	server := authServer(t, "fresh", &hits)
	defer server.Close()

	tokens := &memTokens{token: "stale"}
	var refreshes atomic.Int32
	c := newTestClient(t, server.URL, tokens, func(ctx context.Context) error {
		refreshes.Add(1)
		tokens.set("fresh")
		return nil
	})

	res := Request[types.MessageResponse](context.Background(), c, "/", Options{})
	require.True(t, res.OK())
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, int32(2), hits.Load())
}

func TestRetryIsAttemptedOnlyOnce(t *testing.T) {
	var hits atomic.Int32
	server := authServer(t, "never", &hits)
	defer server.Close()

	var refreshes atomic.Int32
	c := newTestClient(t, server.URL, &memTokens{token: "stale"}, func(ctx context.Context) error {
		refreshes.Add(1)
		return nil
	})

	res := Request[types.MessageResponse](context.Background(), c, "/", Options{})
	assert.True(t, res.Unauthorized())
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, int32(2), hits.Load())
}

func TestNoRetryWhenSkipped(t *testing.T) {
	var hits atomic.Int32
	server := authServer(t, "fresh", &hits)
	defer server.Close()

	var refreshes atomic.Int32
	c := newTestClient(t, server.URL, &memTokens{token: "stale"}, func(ctx context.Context) error {
		refreshes.Add(1)
		return nil
	})

	res := Request[types.MessageResponse](context.Background(), c, "/api/v1/auth/refresh", Options{
		Method:    http.MethodPost,
		SkipRetry: true,
	})
	assert.True(t, res.Unauthorized())
	assert.Equal(t, int32(0), refreshes.Load())
	assert.Equal(t, int32(1), hits.Load())
}

func TestNoRetryWithoutRefreshFunc(t *testing.T) {
	var hits atomic.Int32
	server := authServer(t, "fresh", &hits)
	defer server.Close()

	c := newTestClient(t, server.URL, &memTokens{token: "stale"}, nil)
	res := Request[types.MessageResponse](context.Background(), c, "/", Options{})
	assert.True(t, res.Unauthorized())
	assert.Equal(t, int32(1), hits.Load())
}

func TestFailedRefreshReturnsOriginal401(t *testing.T) {
	var hits atomic.Int32
	server := authServer(t, "fresh", &hits)
	defer server.Close()

	c := newTestClient(t, server.URL, &memTokens{token: "stale"}, func(ctx context.Context) error {
		return errors.New("refresh rejected")
	})

	res := Request[types.MessageResponse](context.Background(), c, "/", Options{})
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Nil(t, res.Data)
	require.NotNil(t, res.APIError())
	assert.Equal(t, "Unauthenticated", res.APIError().Message)
	assert.Equal(t, int32(1), hits.Load())
}

func TestNon401ErrorsAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"nope"}`))
	}))
	defer server.Close()

	var refreshes atomic.Int32
	c := newTestClient(t, server.URL, nil, func(ctx context.Context) error {
		refreshes.Add(1)
		return nil
	})
	res := Request[types.MessageResponse](context.Background(), c, "/", Options{})
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, int32(0), refreshes.Load())
	assert.Equal(t, int32(1), hits.Load())
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	const callers = 5

	tests := []struct {
		name       string
		refreshErr error
		wantStatus int
		wantHits   int32
	}{
		{name: "refresh succeeds, all retry", refreshErr: nil, wantStatus: http.StatusOK, wantHits: callers * 2},
		{name: "refresh fails, all keep 401", refreshErr: errors.New("expired"), wantStatus: http.StatusUnauthorized, wantHits: callers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			server := authServer(t, "fresh", &hits)
			defer server.Close()

			tokens := &memTokens{token: "stale"}
			var refreshes atomic.Int32
			var c *Client
			c = newTestClient(t, server.URL, tokens, func(ctx context.Context) error {
				refreshes.Add(1)
				// Hold the cycle open until every caller has joined it.
				assert.Eventually(t, func() bool {
					return c.Refresher().Pending() == callers
				}, 5*time.Second, time.Millisecond)
				if tt.refreshErr != nil {
					return tt.refreshErr
				}
				tokens.set("fresh")
				return nil
			})

			results := make([]Result[types.MessageResponse], callers)
			var wg sync.WaitGroup
			for i := range callers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					results[i] = Request[types.MessageResponse](context.Background(), c, "/api/v1/orders", Options{
						Query: map[string]any{"page": i},
					})
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(1), refreshes.Load())
			assert.Equal(t, 1, c.Refresher().Cycles())
			assert.Equal(t, tt.wantHits, hits.Load())
			for _, res := range results {
				assert.Equal(t, tt.wantStatus, res.Status)
			}
			assert.Equal(t, 0, c.Refresher().Pending())
		})
	}
}

func TestRefreshSlotIsReusedAfterCompletion(t *testing.T) {
	var hits atomic.Int32
	server := authServer(t, "fresh", &hits)
	defer server.Close()

	tokens := &memTokens{token: "stale"}
	var refreshes atomic.Int32
	c := newTestClient(t, server.URL, tokens, func(ctx context.Context) error {
		refreshes.Add(1)
		tokens.set("fresh")
		return nil
	})

	require.True(t, Request[types.MessageResponse](context.Background(), c, "/", Options{}).OK())
	tokens.set("stale")
	require.True(t, Request[types.MessageResponse](context.Background(), c, "/", Options{}).OK())
	assert.Equal(t, int32(2), refreshes.Load())
}

func TestMultipartBodyPassesThrough(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "bag.png")
	require.NoError(t, os.WriteFile(imgPath, []byte("PNGDATA"), 0o644))

	body, err := NewMultipart(map[string]any{
		"name":       "Bag",
		"categoryId": "c1",
		"price":      decimal.NewFromInt(150000),
	}, map[string]string{"image": imgPath})
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Bag", r.FormValue("name"))
		assert.Equal(t, "c1", r.FormValue("category_id"))
		assert.Equal(t, "150000", r.FormValue("price"))
		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "bag.png", hdr.Filename)
		assert.Equal(t, "PNGDATA", string(data))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"_id":"p9"}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil, nil)
	res := Request[types.DataResponse[types.Product]](context.Background(), c, "/api/v1/products", Options{
		Method: http.MethodPost,
		Body:   body,
	})
	require.True(t, res.OK())
	assert.Equal(t, "p9", res.Data.Data.ID)
}

func TestMetricsRecordRequestsAndRefreshes(t *testing.T) {
	var hits atomic.Int32
	server := authServer(t, "fresh", &hits)
	defer server.Close()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	tokens := &memTokens{token: "stale"}
	c, err := NewClient(Config{
		BaseURL: server.URL,
		Tokens:  tokens,
		Metrics: metrics,
		Refresh: func(ctx context.Context) error {
			tokens.set("fresh")
			return nil
		},
	})
	require.NoError(t, err)

	require.True(t, Request[types.MessageResponse](context.Background(), c, "/", Options{}).OK())

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("GET", "401")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.refreshTotal.WithLabelValues("success")))
}

func TestRateLimitedClientHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c, err := NewClient(Config{BaseURL: server.URL, RateLimit: 0.001})
	require.NoError(t, err)

	require.True(t, Request[map[string]any](context.Background(), c, "/", Options{}).OK())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res := Request[map[string]any](ctx, c, "/", Options{})
	assert.Equal(t, 0, res.Status)
	var transportErr *TransportError
	assert.True(t, errors.As(res.Err, &transportErr))
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "https://cdn.example.com/a.png", want: "https://cdn.example.com/a.png"},
		{in: "/uploads/a.png", want: "http://api.test/uploads/a.png"},
		{in: "uploads/a.png", want: "http://api.test/uploads/a.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveURL("http://api.test/", tt.in), tt.in)
	}
}
