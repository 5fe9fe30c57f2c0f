package api

import (
	"context"
	"net/http"

	"github.com/mesh-intelligence/storefront/internal/fetch"
	"github.com/mesh-intelligence/storefront/internal/qs"
	"github.com/mesh-intelligence/storefront/pkg/types"
)

// ProductSortOptions are the sort fields the products endpoint accepts.
var ProductSortOptions = []string{"id", "name", "price", "stock", "created_at"}

// ProductQuery filters the product list.
type ProductQuery struct {
	qs.Pagination
	CategoryID string
	StoreID    string
	InStock    bool
}

// Query returns q as a query configuration with camelCase keys; the
// pipeline translates them to the API's snake_case.
func (q ProductQuery) Query() map[string]any {
	m := listQuery(q.Pagination)
	m["categoryId"] = q.CategoryID
	m["storeId"] = q.StoreID
	m["inStock"] = q.InStock
	return compact(m)
}

// ProductService covers the product catalog.
type ProductService struct {
	client *fetch.Client
}

// List returns one page of products.
func (s *ProductService) List(ctx context.Context, q ProductQuery) fetch.Result[types.Pagination[types.Product]] {
	return fetch.Request[types.Pagination[types.Product]](ctx, s.client, PathProducts, fetch.Options{
		Query: q.Query(),
	})
}

// Get returns one product.
func (s *ProductService) Get(ctx context.Context, id string) fetch.Result[types.DataResponse[types.Product]] {
	return fetch.Request[types.DataResponse[types.Product]](ctx, s.client, byID(PathProducts, id), fetch.Options{})
}

// Create adds a product to the caller's store, uploading in.Image if set.
func (s *ProductService) Create(ctx context.Context, in types.ProductInput) fetch.Result[types.DataResponse[types.Product]] {
	return s.save(ctx, http.MethodPost, PathProducts, in)
}

// Update replaces a product's fields. An empty in.Image keeps the current
// image.
func (s *ProductService) Update(ctx context.Context, id string, in types.ProductInput) fetch.Result[types.DataResponse[types.Product]] {
	return s.save(ctx, http.MethodPut, byID(PathProducts, id), in)
}

func (s *ProductService) save(ctx context.Context, method, endpoint string, in types.ProductInput) fetch.Result[types.DataResponse[types.Product]] {
	body, err := fetch.NewMultipart(map[string]any{
		"name":        in.Name,
		"description": in.Description,
		"price":       in.Price,
		"stock":       in.Stock,
		"categoryId":  in.CategoryID,
	}, map[string]string{"image": in.Image})
	if err != nil {
		return failed[types.DataResponse[types.Product]](err)
	}
	return fetch.Request[types.DataResponse[types.Product]](ctx, s.client, endpoint, fetch.Options{
		Method: method,
		Body:   body,
	})
}

// Delete removes a product.
func (s *ProductService) Delete(ctx context.Context, id string) fetch.Result[types.MessageResponse] {
	return fetch.Request[types.MessageResponse](ctx, s.client, byID(PathProducts, id), fetch.Options{
		Method: http.MethodDelete,
	})
}
