// Package fetch is the storefront's HTTP request pipeline. It builds JSON or
// multipart requests against the marketplace API, attaches the stored bearer
// token, translates key naming between camelCase and snake_case, and retries
// a request once after a single-flight token refresh when it receives 401.
// HTTP-level failures are returned as values in Result, never as Go errors.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mesh-intelligence/storefront/internal/qs"
	"github.com/mesh-intelligence/storefront/pkg/storefront"
)

// DefaultTimeout is used when Config.Timeout is not positive.
const DefaultTimeout = 30 * time.Second

// TokenSource supplies the bearer token from persistent storage. An empty
// token means the request is sent unauthenticated.
type TokenSource interface {
	AccessToken() (string, error)
}

// Config configures a Client.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	Headers        map[string]string
	Tokens         TokenSource
	Refresh        RefreshFunc
	RefreshTimeout time.Duration
	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit  float64
	Logger     *zap.Logger
	Metrics    *Metrics
	HTTPClient *http.Client
}

// Client issues requests against one API base URL. Each Client owns its
// refresh coordinator, so clients for different base URLs never share
// refresh state.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	refresher  *Refresher
	limiter    *rate.Limiter
	logger     *zap.Logger
	metrics    *Metrics

	mu      sync.RWMutex
	headers map[string]string
}

// NewClient validates cfg and creates a Client. Cookies are kept in a jar so
// session cookies set by the API are sent on later requests.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		httpClient = &http.Client{Timeout: cfg.Timeout, Jar: jar}
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tokens:     cfg.Tokens,
		logger:     logger,
		metrics:    cfg.Metrics,
		headers:    make(map[string]string),
	}
	for k, v := range cfg.Headers {
		c.headers[k] = v
	}
	if cfg.Refresh != nil {
		c.refresher = NewRefresher(cfg.Refresh, cfg.RefreshTimeout, logger, cfg.Metrics)
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c, nil
}

// SetRefresh installs the refresh function after construction. Service
// layers need this because their refresh call goes through the same client.
func (c *Client) SetRefresh(fn RefreshFunc, timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn == nil {
		c.refresher = nil
		return
	}
	c.refresher = NewRefresher(fn, timeout, c.logger, c.metrics)
}

// Refresher returns the client's refresh coordinator, or nil.
func (c *Client) Refresher() *Refresher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresher
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResolveURL returns u unchanged when it is absolute, otherwise prefixes the
// base URL. Used for image and avatar paths stored relative to the API.
func (c *Client) ResolveURL(u string) string {
	return ResolveURL(c.baseURL, u)
}

// ResolveURL joins a possibly relative asset path to base.
func ResolveURL(base, u string) string {
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return strings.TrimRight(base, "/") + u
}

// Options controls a single request.
type Options struct {
	// Method defaults to GET.
	Method string
	// Query is encoded with the qs codec; its keys are decamelized unless
	// NoDecamelize is set.
	Query map[string]any
	// Body is JSON-encoded unless it is a *Multipart.
	Body    any
	Headers map[string]string
	// NoCamelize keeps response keys as sent by the API.
	NoCamelize bool
	// NoDecamelize keeps request body and query keys as given.
	NoDecamelize bool
	// SkipRetry disables the refresh-and-retry protocol on 401.
	SkipRetry bool
}

// response is the untyped outcome of one round trip.
type response struct {
	status  int
	body    []byte // JSON with translated keys; nil when empty
	message string
	err     error
}

// do runs the request and, on 401, the refresh-and-retry protocol. The retry
// goes straight to send and so can never trigger a second refresh.
func (c *Client) do(ctx context.Context, endpoint string, opts Options) response {
	prepared, err := c.prepare(endpoint, opts)
	if err != nil {
		return response{err: err}
	}

	first := c.send(ctx, prepared, opts)
	refresher := c.Refresher()
	if first.status != http.StatusUnauthorized || refresher == nil || opts.SkipRetry {
		return first
	}

	if err := refresher.Refresh(ctx); err != nil {
		c.logger.Debug("retry skipped after failed refresh",
			zap.String("url", prepared.url), zap.Error(err))
		return first
	}
	return c.send(ctx, prepared, opts)
}

// prepared holds the parts of a request that are identical across retries.
type prepared struct {
	method      string
	url         string
	body        []byte
	contentType string
}

func (c *Client) prepare(endpoint string, opts Options) (*prepared, error) {
	p := &prepared{method: opts.Method, url: c.baseURL + endpoint}
	if p.method == "" {
		p.method = http.MethodGet
	}

	if len(opts.Query) > 0 {
		query := opts.Query
		if !opts.NoDecamelize {
			query = decamelizeQuery(query)
		}
		if encoded := qs.Encode(query); encoded != "" {
			p.url += "?" + encoded
		}
	}

	switch body := opts.Body.(type) {
	case nil:
	case *Multipart:
		p.body = body.Bytes()
		p.contentType = body.ContentType()
	default:
		data, err := encodeJSON(body, !opts.NoDecamelize)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		p.body = data
		p.contentType = "application/json"
	}
	return p, nil
}

// queryMaxDepth matches the depth the query codec encodes.
const queryMaxDepth = 32

// decamelizeQuery rewrites string map keys at every level of a query
// configuration, through maps and slices of any element type. Leaf values
// are left untouched.
func decamelizeQuery(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[Decamelize(k)] = decamelizeValue(reflect.ValueOf(v), 1)
	}
	return out
}

func decamelizeValue(v reflect.Value, depth int) any {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) && !v.IsNil() {
		if _, ok := v.Interface().(fmt.Stringer); ok && v.Kind() == reflect.Pointer {
			break
		}
		v = v.Elem()
	}
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	if depth > queryMaxDepth {
		return v.Interface()
	}
	switch v.Kind() {
	case reflect.Struct:
		// Structs reach the codec through their JSON form; translate the keys
		// of that form. Stringers and times stay leaves.
		switch v.Interface().(type) {
		case time.Time, fmt.Stringer:
			return v.Interface()
		}
		data, err := json.Marshal(v.Interface())
		if err != nil {
			return v.Interface()
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return v.Interface()
		}
		return decamelizeValue(reflect.ValueOf(m), depth)
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return v.Interface()
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[Decamelize(iter.Key().String())] = decamelizeValue(iter.Value(), depth+1)
		}
		return out
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 || (v.Kind() == reflect.Slice && v.IsNil()) {
			return v.Interface()
		}
		out := make([]any, v.Len())
		for i := range out {
			out[i] = decamelizeValue(v.Index(i), depth+1)
		}
		return out
	default:
		return v.Interface()
	}
}

func encodeJSON(body any, decamelize bool) ([]byte, error) {
	var data []byte
	switch b := body.(type) {
	case json.RawMessage:
		data = b
	case []byte:
		data = b
	default:
		var err error
		if data, err = json.Marshal(body); err != nil {
			return nil, err
		}
	}
	if !decamelize {
		return data, nil
	}
	tree, err := decodeTree(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(transformKeys(tree, Decamelize))
}

func decodeTree(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func (c *Client) send(ctx context.Context, p *prepared, opts Options) response {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return response{err: &TransportError{Method: p.method, URL: p.url, Err: err}}
		}
	}

	var body io.Reader
	if p.body != nil {
		body = bytes.NewReader(p.body)
	}
	req, err := http.NewRequestWithContext(ctx, p.method, p.url, body)
	if err != nil {
		return response{err: &TransportError{Method: p.method, URL: p.url, Err: err}}
	}
	requestID := uuid.NewString()
	c.setHeaders(req, p, opts, requestID)

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.metrics.observeRequest(p.method, 0, duration)
		c.logger.Debug("request failed",
			zap.String("method", p.method),
			zap.String("url", p.url),
			zap.String("request_id", requestID),
			zap.Error(err))
		return response{err: &TransportError{Method: p.method, URL: p.url, Err: err}}
	}
	defer httpResp.Body.Close()

	c.metrics.observeRequest(p.method, httpResp.StatusCode, duration)
	c.logger.Debug("request completed",
		zap.String("method", p.method),
		zap.String("url", p.url),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("duration", duration),
		zap.String("request_id", requestID))

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return response{status: httpResp.StatusCode, err: &DecodeError{Status: httpResp.StatusCode, Err: err}}
	}
	return decodeResponse(httpResp.StatusCode, raw, !opts.NoCamelize)
}

func (c *Client) setHeaders(req *http.Request, p *prepared, opts Options, requestID string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "storefront/"+storefront.Version)
	req.Header.Set("X-Request-ID", requestID)

	c.mu.RLock()
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	c.mu.RUnlock()

	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if p.contentType != "" {
		req.Header.Set("Content-Type", p.contentType)
	}

	if c.tokens != nil {
		token, err := c.tokens.AccessToken()
		if err != nil {
			c.logger.Warn("read access token", zap.Error(err))
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// decodeResponse parses the body and translates keys. Error bodies are always
// camelized so callers see a uniform error shape.
func decodeResponse(status int, raw []byte, camelize bool) response {
	ok := status >= 200 && status < 300
	resp := response{status: status}

	if len(bytes.TrimSpace(raw)) == 0 {
		if !ok {
			resp.err = apiError(status, nil)
		}
		return resp
	}

	tree, err := decodeTree(raw)
	if err != nil {
		resp.err = &DecodeError{Status: status, Err: err}
		return resp
	}
	if camelize || !ok {
		tree = transformKeys(tree, Camelize)
	}
	if obj, isObj := tree.(map[string]any); isObj {
		if msg, isStr := obj["message"].(string); isStr {
			resp.message = msg
		}
	}

	if !ok {
		resp.err = apiError(status, tree)
		return resp
	}
	data, err := json.Marshal(tree)
	if err != nil {
		resp.err = &DecodeError{Status: status, Err: err}
		return resp
	}
	resp.body = data
	return resp
}
