package fakeapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/storefront/pkg/types"
)

// RefreshCookie is the cookie carrying the refresh token.
const RefreshCookie = "refresh_token"

const (
	kindAccess  = "access"
	kindRefresh = "refresh"

	ctxAccount = "account"
)

var errInvalidToken = errors.New("invalid token")

type claims struct {
	jwt.RegisteredClaims
	Role    string `json:"role"`
	Kind    string `json:"kind"`
	Version int    `json:"version"`
	Epoch   int    `json:"epoch,omitempty"`
}

func hashPassword(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err) // only fails for passwords over 72 bytes
	}
	return hash
}

// issue signs an access and refresh token pair for acc. Callers hold s.mu.
func (s *Server) issue(acc *account) (types.Token, error) {
	now := s.now()
	sign := func(kind string, ttl time.Duration) (string, error) {
		c := claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   acc.user.ID,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			},
			Role:    acc.user.Role,
			Kind:    kind,
			Version: acc.version,
		}
		if kind == kindAccess {
			c.Epoch = s.accessEpoch
		}
		return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	}

	access, err := sign(kindAccess, s.accessTTL)
	if err != nil {
		return types.Token{}, err
	}
	refresh, err := sign(kindRefresh, s.refreshTTL)
	if err != nil {
		return types.Token{}, err
	}
	return types.Token{Type: "Bearer", AccessToken: access, RefreshToken: refresh}, nil
}

// verify parses a token of the given kind and returns its account. Callers
// hold s.mu.
func (s *Server) verify(raw, kind string) (*account, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, errInvalidToken
	}
	if c.Kind != kind || (kind == kindAccess && c.Epoch != s.accessEpoch) {
		return nil, errInvalidToken
	}
	acc := s.accounts[c.Subject]
	if acc == nil || acc.version != c.Version {
		return nil, errInvalidToken
	}
	return acc, nil
}

// requireAuth resolves the bearer token to an account or answers 401.
func (s *Server) requireAuth(c *gin.Context) {
	raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || raw == "" {
		s.fail(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	s.mu.Lock()
	acc, err := s.verify(raw, kindAccess)
	s.mu.Unlock()
	if err != nil {
		s.fail(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	c.Set(ctxAccount, acc)
	c.Next()
}

func (s *Server) requireAdmin(c *gin.Context) {
	if current(c).user.Role != types.RoleAdmin {
		s.fail(c, http.StatusForbidden, "Forbidden", nil)
		return
	}
	c.Next()
}

func current(c *gin.Context) *account {
	return c.MustGet(ctxAccount).(*account)
}

func (s *Server) accountByEmail(email string) *account {
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.user.Email, email) {
			return acc
		}
	}
	return nil
}

func (s *Server) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshCookie, token, int(s.refreshTTL.Seconds()), "/api/v1/auth", "", false, true)
}

func (s *Server) register(c *gin.Context) {
	var req types.RegisterRequest
	if !s.bind(c, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountByEmail(req.Email) != nil {
		s.fail(c, http.StatusUnprocessableEntity, "Validation failed", map[string][]string{"email": {"is already registered"}})
		return
	}
	acc := &account{
		user:         types.User{ID: uuid.NewString(), Name: req.Name, Email: req.Email, Role: types.RoleUser},
		passwordHash: hashPassword(req.Password),
	}
	s.accounts[acc.user.ID] = acc
	s.message(c, http.StatusCreated, "Registration successful")
}

func (s *Server) login(c *gin.Context) {
	var req types.LoginRequest
	if !s.bind(c, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accountByEmail(req.Email)
	if acc == nil || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(req.Password)) != nil {
		s.fail(c, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}
	s.grant(c, acc, "Login successful")
}

// grant issues a token pair, sets the refresh cookie, and answers with the
// login response. Callers hold s.mu.
func (s *Server) grant(c *gin.Context, acc *account, msg string) {
	token, err := s.issue(acc)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "Could not issue token", nil)
		return
	}
	s.setRefreshCookie(c, token.RefreshToken)
	s.respond(c, http.StatusOK, types.LoginResponse{Message: msg, Token: &token, Data: s.userView(acc)})
}

// refresh accepts the refresh token from the cookie or the request body.
func (s *Server) refresh(c *gin.Context) {
	var req types.RefreshRequest
	if !s.bind(c, &req) {
		return
	}
	raw := req.RefreshToken
	if raw == "" {
		raw, _ = c.Cookie(RefreshCookie)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.verify(raw, kindRefresh)
	if err != nil {
		s.fail(c, http.StatusUnauthorized, "Session expired", nil)
		return
	}
	s.refreshCalls++
	s.grant(c, acc, "Token refreshed")
}

func (s *Server) logout(c *gin.Context) {
	s.mu.Lock()
	current(c).version++
	s.mu.Unlock()
	c.SetCookie(RefreshCookie, "", -1, "/api/v1/auth", "", false, true)
	s.message(c, http.StatusOK, "Logout successful")
}

func (s *Server) profile(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.respond(c, http.StatusOK, types.LoginResponse{Data: s.userView(current(c))})
}

func (s *Server) updateProfile(c *gin.Context) {
	var req types.UpdateProfileRequest
	if !s.bind(c, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := current(c)
	if other := s.accountByEmail(req.Email); other != nil && other != acc {
		s.fail(c, http.StatusUnprocessableEntity, "Validation failed", map[string][]string{"email": {"is already registered"}})
		return
	}
	acc.user.Name, acc.user.Email = req.Name, req.Email
	s.message(c, http.StatusOK, "Profile updated")
}

func (s *Server) updatePassword(c *gin.Context) {
	var req types.UpdatePasswordRequest
	if !s.bind(c, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := current(c)
	if bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(req.OldPassword)) != nil {
		s.fail(c, http.StatusUnprocessableEntity, "Validation failed", map[string][]string{"oldPassword": {"is incorrect"}})
		return
	}
	acc.passwordHash = hashPassword(req.NewPassword)
	s.message(c, http.StatusOK, "Password updated")
}

func (s *Server) forgotPassword(c *gin.Context) {
	var req types.ForgotPasswordRequest
	if !s.bind(c, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Unknown addresses get the same answer so accounts cannot be probed.
	if acc := s.accountByEmail(req.Email); acc != nil {
		s.resetTokens[uuid.NewString()] = acc.user.ID
	}
	s.message(c, http.StatusOK, "If the email is registered, a reset link has been sent")
}

func (s *Server) resetPassword(c *gin.Context) {
	var req types.ResetPasswordRequest
	if !s.bind(c, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accounts[s.resetTokens[req.Token]]
	if acc == nil {
		s.fail(c, http.StatusUnprocessableEntity, "Validation failed", map[string][]string{"token": {"is invalid or expired"}})
		return
	}
	delete(s.resetTokens, req.Token)
	acc.passwordHash = hashPassword(req.Password)
	acc.version++
	s.message(c, http.StatusOK, "Password has been reset")
}

// userView returns the user with its store attached. Callers hold s.mu.
func (s *Server) userView(acc *account) types.User {
	u := acc.user
	if u.Store != nil {
		st := *u.Store
		u.Store = &st
	}
	return u
}
