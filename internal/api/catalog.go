package api

import (
	"context"
	"net/http"

	"github.com/mesh-intelligence/storefront/internal/fetch"
	"github.com/mesh-intelligence/storefront/internal/qs"
	"github.com/mesh-intelligence/storefront/pkg/types"
)

// CategoryInput creates or renames a category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CategoryService covers product categories.
type CategoryService struct {
	client *fetch.Client
}

// List returns one page of categories.
func (s *CategoryService) List(ctx context.Context, p qs.Pagination) fetch.Result[types.Pagination[types.Category]] {
	return fetch.Request[types.Pagination[types.Category]](ctx, s.client, PathCategories, fetch.Options{
		Query: listQuery(p),
	})
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, id string) fetch.Result[types.DataResponse[types.Category]] {
	return fetch.Request[types.DataResponse[types.Category]](ctx, s.client, byID(PathCategories, id), fetch.Options{})
}

// Create adds a category. Admin only.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) fetch.Result[types.DataResponse[types.Category]] {
	return fetch.Request[types.DataResponse[types.Category]](ctx, s.client, PathCategories, fetch.Options{
		Method: http.MethodPost,
		Body:   in,
	})
}

// Update changes a category. Admin only.
func (s *CategoryService) Update(ctx context.Context, id string, in CategoryInput) fetch.Result[types.DataResponse[types.Category]] {
	return fetch.Request[types.DataResponse[types.Category]](ctx, s.client, byID(PathCategories, id), fetch.Options{
		Method: http.MethodPut,
		Body:   in,
	})
}

// Delete removes a category with no products. Admin only.
func (s *CategoryService) Delete(ctx context.Context, id string) fetch.Result[types.MessageResponse] {
	return fetch.Request[types.MessageResponse](ctx, s.client, byID(PathCategories, id), fetch.Options{
		Method: http.MethodDelete,
	})
}

// StoreService covers the caller's own store.
type StoreService struct {
	client *fetch.Client
}

// Mine returns the caller's store; 404 when they have none.
func (s *StoreService) Mine(ctx context.Context) fetch.Result[types.DataResponse[types.Store]] {
	return fetch.Request[types.DataResponse[types.Store]](ctx, s.client, PathStores+"/me", fetch.Options{})
}

// Create opens a store for the caller.
func (s *StoreService) Create(ctx context.Context, in types.StoreInput) fetch.Result[types.DataResponse[types.Store]] {
	return s.save(ctx, http.MethodPost, in)
}

// Update changes the caller's store. An empty in.Avatar keeps the current one.
func (s *StoreService) Update(ctx context.Context, in types.StoreInput) fetch.Result[types.DataResponse[types.Store]] {
	return s.save(ctx, http.MethodPut, in)
}

func (s *StoreService) save(ctx context.Context, method string, in types.StoreInput) fetch.Result[types.DataResponse[types.Store]] {
	body, err := fetch.NewMultipart(map[string]any{
		"name":        in.Name,
		"description": in.Description,
	}, map[string]string{"avatar": in.Avatar})
	if err != nil {
		return failed[types.DataResponse[types.Store]](err)
	}
	return fetch.Request[types.DataResponse[types.Store]](ctx, s.client, PathStores, fetch.Options{
		Method: method,
		Body:   body,
	})
}

// DashboardService covers the summary figures.
type DashboardService struct {
	client *fetch.Client
}

// Admin returns marketplace-wide figures. Admin only.
func (s *DashboardService) Admin(ctx context.Context) fetch.Result[types.DataResponse[types.AdminStats]] {
	return fetch.Request[types.DataResponse[types.AdminStats]](ctx, s.client, PathDashboard+"/admin", fetch.Options{})
}

// Seller returns figures for the caller's store.
func (s *DashboardService) Seller(ctx context.Context) fetch.Result[types.DataResponse[types.SellerStats]] {
	return fetch.Request[types.DataResponse[types.SellerStats]](ctx, s.client, PathDashboard+"/seller", fetch.Options{})
}
