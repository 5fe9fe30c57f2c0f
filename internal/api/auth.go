package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mesh-intelligence/storefront/internal/fetch"
	"github.com/mesh-intelligence/storefront/internal/session"
	"github.com/mesh-intelligence/storefront/pkg/types"
)

// ErrNoToken is returned when a login or refresh answer carries no token.
var ErrNoToken = errors.New("response carried no token")

// AuthService covers account and session endpoints. Login and refresh keep
// the stored tokens current; logout removes them.
type AuthService struct {
	client *fetch.Client
	tokens *session.Tokens
}

// Login authenticates and stores the returned tokens. Bad credentials answer
// 401, which is not treated as an expired session.
func (s *AuthService) Login(ctx context.Context, req types.LoginRequest) fetch.Result[types.LoginResponse] {
	res := fetch.Request[types.LoginResponse](ctx, s.client, PathAuth+"/login", fetch.Options{
		Method:    http.MethodPost,
		Body:      req,
		SkipRetry: true,
	})
	return s.store(res)
}

// Refresh exchanges the stored refresh token for a new pair. It never
// triggers another refresh.
func (s *AuthService) Refresh(ctx context.Context) fetch.Result[types.LoginResponse] {
	refreshToken, err := s.tokens.RefreshToken()
	if err != nil {
		return failed[types.LoginResponse](fmt.Errorf("read refresh token: %w", err))
	}
	res := fetch.Request[types.LoginResponse](ctx, s.client, PathAuth+"/refresh", fetch.Options{
		Method:    http.MethodPost,
		Body:      types.RefreshRequest{RefreshToken: refreshToken},
		SkipRetry: true,
	})
	return s.store(res)
}

// refreshSession adapts Refresh to the pipeline's refresh hook.
func (s *AuthService) refreshSession(ctx context.Context) error {
	return s.Refresh(ctx).Err
}

func (s *AuthService) store(res fetch.Result[types.LoginResponse]) fetch.Result[types.LoginResponse] {
	if !res.OK() {
		return res
	}
	if res.Data.Token == nil {
		return fetch.Result[types.LoginResponse]{Status: res.Status, Err: ErrNoToken}
	}
	if err := s.tokens.Save(*res.Data.Token); err != nil {
		return fetch.Result[types.LoginResponse]{Status: res.Status, Err: err}
	}
	return res
}

// Logout ends the session. Local tokens are removed even when the API call
// fails, so the client is signed out either way.
func (s *AuthService) Logout(ctx context.Context) fetch.Result[types.MessageResponse] {
	res := fetch.Request[types.MessageResponse](ctx, s.client, PathAuth+"/logout", fetch.Options{
		Method: http.MethodPost,
	})
	if err := s.tokens.Clear(); err != nil && res.OK() {
		return fetch.Result[types.MessageResponse]{Status: res.Status, Err: err}
	}
	return res
}

// Profile returns the signed-in user.
func (s *AuthService) Profile(ctx context.Context) fetch.Result[types.LoginResponse] {
	return fetch.Request[types.LoginResponse](ctx, s.client, PathAuth+"/profile", fetch.Options{})
}

// Register creates an account.
func (s *AuthService) Register(ctx context.Context, req types.RegisterRequest) fetch.Result[types.MessageResponse] {
	return s.send(ctx, http.MethodPost, "/register", req)
}

// ForgotPassword asks the API to email a reset link.
func (s *AuthService) ForgotPassword(ctx context.Context, req types.ForgotPasswordRequest) fetch.Result[types.MessageResponse] {
	return s.send(ctx, http.MethodPost, "/forgot-password", req)
}

// ResetPassword sets a new password with a reset token.
func (s *AuthService) ResetPassword(ctx context.Context, req types.ResetPasswordRequest) fetch.Result[types.MessageResponse] {
	return s.send(ctx, http.MethodPut, "/reset-password", req)
}

// UpdateProfile changes the user's name and email.
func (s *AuthService) UpdateProfile(ctx context.Context, req types.UpdateProfileRequest) fetch.Result[types.MessageResponse] {
	return s.send(ctx, http.MethodPut, "/profile", req)
}

// UpdatePassword changes the user's password.
func (s *AuthService) UpdatePassword(ctx context.Context, req types.UpdatePasswordRequest) fetch.Result[types.MessageResponse] {
	return s.send(ctx, http.MethodPut, "/password", req)
}

func (s *AuthService) send(ctx context.Context, method, path string, body any) fetch.Result[types.MessageResponse] {
	return fetch.Request[types.MessageResponse](ctx, s.client, PathAuth+path, fetch.Options{
		Method: method,
		Body:   body,
	})
}
