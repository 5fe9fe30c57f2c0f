// Package session keeps the signed-in user's credentials and display
// preferences in client-local storage.
package session

import (
	"fmt"

	"github.com/mesh-intelligence/storefront/pkg/types"
)

// Storage keys.
const (
	KeyToken        = "token"
	KeyRefreshToken = "refresh_token"
	KeyTheme        = "theme"
)

// Tokens reads and writes the bearer and refresh tokens. It satisfies the
// request pipeline's token source.
type Tokens struct {
	kv types.KeyValue
}

// NewTokens creates a token store over kv.
func NewTokens(kv types.KeyValue) *Tokens {
	return &Tokens{kv: kv}
}

// AccessToken returns the stored bearer token, or "" when signed out.
func (t *Tokens) AccessToken() (string, error) {
	v, _, err := t.kv.GetItem(KeyToken)
	return v, err
}

// RefreshToken returns the stored refresh token, or "".
func (t *Tokens) RefreshToken() (string, error) {
	v, _, err := t.kv.GetItem(KeyRefreshToken)
	return v, err
}

// Save stores a token pair. An empty refresh token keeps the current one.
func (t *Tokens) Save(token types.Token) error {
	if token.AccessToken == "" {
		return fmt.Errorf("save token: %w", types.ErrNotAuthenticated)
	}
	if err := t.kv.SetItem(KeyToken, token.AccessToken); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if token.RefreshToken != "" {
		if err := t.kv.SetItem(KeyRefreshToken, token.RefreshToken); err != nil {
			return fmt.Errorf("save refresh token: %w", err)
		}
	}
	return nil
}

// Clear removes both tokens.
func (t *Tokens) Clear() error {
	if err := t.kv.RemoveItem(KeyToken); err != nil {
		return err
	}
	return t.kv.RemoveItem(KeyRefreshToken)
}

// SignedIn reports whether a bearer token is stored.
func (t *Tokens) SignedIn() bool {
	token, err := t.AccessToken()
	return err == nil && token != ""
}
