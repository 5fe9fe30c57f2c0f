// Package fakeapi is an in-memory marketplace REST API speaking the same
// wire format as the production backend: snake_case JSON, bearer access
// tokens with a refresh-token cookie, paginated lists, multipart uploads,
// and {message, errors} failure bodies. It backs the service tests and the
// `storefront mock-server` command.
package fakeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/storefront/internal/fetch"
	"github.com/mesh-intelligence/storefront/internal/logging"
	"github.com/mesh-intelligence/storefront/pkg/types"
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Server is the fake API. All state lives in memory behind one mutex.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Server struct {
	engine   *gin.Engine
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time

	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	mu           sync.Mutex
	accessEpoch  int
	refreshCalls int
	accounts     map[string]*account // by user ID
	resetTokens  map[string]string   // token to user ID
	categories   []types.Category
	products     []types.Product
	orders       []types.Order
	uploads      map[string]upload
}

type account struct {
	user         types.User
	passwordHash []byte
	// version invalidates every token issued before a logout or password change.
	version int
}

type upload struct {
	filename    string
	contentType string
	data        []byte
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithAccessTTL sets the access token lifetime.
func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) { s.accessTTL = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithSecret sets the token signing key.
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

// New creates a Server seeded with demo accounts, categories, products, and
// one completed order.
func New(opts ...Option) *Server {
	s := &Server{
		logger:      zap.NewNop(),
		validate:    newValidator(),
		now:         time.Now,
		secret:      []byte("storefront-fake-api"),
		accessTTL:   DefaultAccessTTL,
		refreshTTL:  DefaultRefreshTTL,
		accounts:    make(map[string]*account),
		resetTokens: make(map[string]string),
		uploads:     make(map[string]upload),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.seed()

	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), logging.GinMiddleware(s.logger))
	s.routes()
	return s
}

// newValidator reports field names by their json tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Server) routes() {
	v1 := s.engine.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", s.register)
	auth.POST("/login", s.login)
	auth.POST("/refresh", s.refresh)
	auth.POST("/forgot-password", s.forgotPassword)
	auth.PUT("/reset-password", s.resetPassword)
	auth.POST("/logout", s.requireAuth, s.logout)
	auth.GET("/profile", s.requireAuth, s.profile)
	auth.PUT("/profile", s.requireAuth, s.updateProfile)
	auth.PUT("/password", s.requireAuth, s.updatePassword)

	v1.GET("/categories", s.listCategories)
	v1.GET("/categories/:id", s.getCategory)
	v1.POST("/categories", s.requireAuth, s.requireAdmin, s.createCategory)
	v1.PUT("/categories/:id", s.requireAuth, s.requireAdmin, s.updateCategory)
	v1.DELETE("/categories/:id", s.requireAuth, s.requireAdmin, s.deleteCategory)

	v1.GET("/products", s.listProducts)
	v1.GET("/products/:id", s.getProduct)
	v1.POST("/products", s.requireAuth, s.createProduct)
	v1.PUT("/products/:id", s.requireAuth, s.updateProduct)
	v1.DELETE("/products/:id", s.requireAuth, s.deleteProduct)

	v1.GET("/stores/me", s.requireAuth, s.myStore)
	v1.POST("/stores", s.requireAuth, s.createStore)
	v1.PUT("/stores", s.requireAuth, s.updateStore)

	v1.GET("/orders", s.requireAuth, s.listOrders)
	v1.GET("/orders/:id", s.requireAuth, s.getOrder)
	v1.POST("/orders", s.requireAuth, s.createOrder)
	v1.PUT("/orders/:id/status", s.requireAuth, s.updateOrderStatus)
	v1.DELETE("/orders/:id", s.requireAuth, s.deleteOrder)

	v1.GET("/dashboard/admin", s.requireAuth, s.requireAdmin, s.adminStats)
	v1.GET("/dashboard/seller", s.requireAuth, s.sellerStats)

	s.engine.GET("/uploads/:name", s.serveUpload)
	s.engine.NoRoute(func(c *gin.Context) {
		s.fail(c, http.StatusNotFound, "Route not found", nil)
	})
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
// ready, when non-nil, receives the bound address once listening.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(addr string)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	if ready != nil {
		ready(ln.Addr().String())
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// InvalidateAccessTokens makes every access token issued so far fail with
// 401. Refresh tokens stay valid.
func (s *Server) InvalidateAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessEpoch++
}

// RefreshCalls returns how many successful token refreshes were served.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// ResetToken returns the pending password reset token for email.
func (s *Server) ResetToken(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, id := range s.resetTokens {
		if acc := s.accounts[id]; acc != nil && strings.EqualFold(acc.user.Email, email) {
			return token, true
		}
	}
	return "", false
}

// Product returns the current state of a product.
func (s *Server) Product(id string) (types.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.productIndex(id); i >= 0 {
		return s.products[i], true
	}
	return types.Product{}, false
}

// respond writes v as JSON with snake_case keys.
func (s *Server) respond(c *gin.Context, status int, v any) {
	data, err := json.Marshal(v)
	if err == nil {
		data, err = fetch.DecamelizeJSON(data)
	}
	if err != nil {
		_ = c.Error(err)
		c.Data(http.StatusInternalServerError, "application/json; charset=utf-8", []byte(`{"message":"encode response"}`))
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}

func (s *Server) message(c *gin.Context, status int, msg string) {
	s.respond(c, status, types.MessageResponse{Message: msg})
}

func (s *Server) fail(c *gin.Context, status int, msg string, fields map[string][]string) {
	s.respond(c, status, types.ErrorAPI{Message: msg, Errors: fields})
	c.Abort()
}

// bind decodes a snake_case JSON body into v and validates it. It writes the
// failure response itself and reports whether the handler should go on.
func (s *Server) bind(c *gin.Context, v any) bool {
	raw, err := io.ReadAll(c.Request.Body)
	if err == nil && len(strings.TrimSpace(string(raw))) == 0 {
		raw = []byte("{}")
	}
	if err == nil {
		raw, err = fetch.CamelizeJSON(raw)
	}
	if err == nil {
		err = json.Unmarshal(raw, v)
	}
	if err != nil {
		s.fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	return s.check(c, v)
}

// check validates v and answers 422 with per-field messages on failure.
func (s *Server) check(c *gin.Context, v any) bool {
	if fields := s.fieldErrors(v); len(fields) > 0 {
		s.fail(c, http.StatusUnprocessableEntity, "Validation failed", fields)
		return false
	}
	return true
}

func (s *Server) fieldErrors(v any) map[string][]string {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string][]string{"body": {err.Error()}}
	}
	fields := make(map[string][]string)
	for _, fe := range verrs {
		name := fe.Field()
		fields[name] = append(fields[name], describe(fe))
	}
	return fields
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must have at least " + fe.Param() + " entries"
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "nefield":
		return "must differ from the current password"
	default:
		return "is invalid"
	}
}
