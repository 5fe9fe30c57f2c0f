// Package api wraps the marketplace REST endpoints in typed calls over the
// request pipeline. Every call returns a fetch.Result; HTTP failures are
// values, never Go errors.
package api

import (
	"net/url"
	"time"

	"github.com/mesh-intelligence/storefront/internal/fetch"
	"github.com/mesh-intelligence/storefront/internal/qs"
	"github.com/mesh-intelligence/storefront/internal/session"
)

// Endpoint paths relative to the API base URL.
const (
	PathAuth       = "/api/v1/auth"
	PathCategories = "/api/v1/categories"
	PathProducts   = "/api/v1/products"
	PathStores     = "/api/v1/stores"
	PathOrders     = "/api/v1/orders"
	PathDashboard  = "/api/v1/dashboard"
)

// Services bundles every service over one client.
type Services struct {
	Client     *fetch.Client
	Auth       *AuthService
	Products   *ProductService
	Orders     *OrderService
	Categories *CategoryService
	Stores     *StoreService
	Dashboard  *DashboardService
}

// New builds the services and installs the auth refresh as the client's
// 401 recovery, bounded by refreshTimeout.
func New(client *fetch.Client, tokens *session.Tokens, refreshTimeout time.Duration) *Services {
	auth := &AuthService{client: client, tokens: tokens}
	client.SetRefresh(auth.refreshSession, refreshTimeout)
	return &Services{
		Client:     client,
		Auth:       auth,
		Products:   &ProductService{client: client},
		Orders:     &OrderService{client: client},
		Categories: &CategoryService{client: client},
		Stores:     &StoreService{client: client},
		Dashboard:  &DashboardService{client: client},
	}
}

// failed builds a Result for an error raised before any request was sent.
func failed[T any](err error) fetch.Result[T] {
	return fetch.Result[T]{Err: err}
}

func byID(base, id string) string {
	return base + "/" + url.PathEscape(id)
}

// listQuery turns pagination into a query configuration, dropping unset
// fields so the API applies its own defaults.
func listQuery(p qs.Pagination) map[string]any {
	return compact(p.Config())
}

// compact removes zero values from a query configuration.
func compact(m map[string]any) map[string]any {
	for k, v := range m {
		switch x := v.(type) {
		case string:
			if x == "" {
				delete(m, k)
			}
		case int:
			if x == 0 {
				delete(m, k)
			}
		case bool:
			if !x {
				delete(m, k)
			}
		case nil:
			delete(m, k)
		}
	}
	return m
}
