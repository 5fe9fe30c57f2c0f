package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mesh-intelligence/storefront/internal/cart"
	"github.com/mesh-intelligence/storefront/internal/fetch"
	"github.com/mesh-intelligence/storefront/internal/qs"
	"github.com/mesh-intelligence/storefront/pkg/types"
)

// OrderSortOptions are the sort fields the orders endpoint accepts.
var OrderSortOptions = []string{"id", "created_at", "total_amount", "status"}

// OrderQuery filters the order list.
type OrderQuery struct {
	qs.Pagination
	Status string
}

// Query returns q as a query configuration.
func (q OrderQuery) Query() map[string]any {
	m := listQuery(q.Pagination)
	m["status"] = q.Status
	return compact(m)
}

// OrderService covers orders.
type OrderService struct {
	client *fetch.Client
}

// List returns one page of the caller's orders.
func (s *OrderService) List(ctx context.Context, q OrderQuery) fetch.Result[types.Pagination[types.Order]] {
	return fetch.Request[types.Pagination[types.Order]](ctx, s.client, PathOrders, fetch.Options{
		Query: q.Query(),
	})
}

// Get returns one order with its products embedded.
func (s *OrderService) Get(ctx context.Context, id string) fetch.Result[types.DataResponse[types.Order]] {
	return fetch.Request[types.DataResponse[types.Order]](ctx, s.client, byID(PathOrders, id), fetch.Options{})
}

// Create places an order.
func (s *OrderService) Create(ctx context.Context, req types.CreateOrderRequest) fetch.Result[types.DataResponse[types.Order]] {
	return fetch.Request[types.DataResponse[types.Order]](ctx, s.client, PathOrders, fetch.Options{
		Method: http.MethodPost,
		Body:   req,
	})
}

// Checkout places an order for the cart's contents and empties the cart once
// the API accepts it. A rejected order leaves the cart as it was.
func (s *OrderService) Checkout(ctx context.Context, c *cart.Store) fetch.Result[types.DataResponse[types.Order]] {
	req, err := cart.CheckoutRequest(c.Items())
	if err != nil {
		return failed[types.DataResponse[types.Order]](err)
	}
	res := s.Create(ctx, req)
	if !res.OK() {
		return res
	}
	if err := c.ClearCart(ctx); err != nil {
		return fetch.Result[types.DataResponse[types.Order]]{
			Status: res.Status,
			Err:    fmt.Errorf("order %s placed but cart not cleared: %w", res.Data.Data.ID, err),
		}
	}
	return res
}

// UpdateStatus changes an order's status. Unknown statuses are rejected
// without a request.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) fetch.Result[types.DataResponse[types.Order]] {
	if !types.ValidOrderStatus(status) {
		return failed[types.DataResponse[types.Order]](fmt.Errorf("%w: %q", types.ErrInvalidStatus, status))
	}
	return fetch.Request[types.DataResponse[types.Order]](ctx, s.client, byID(PathOrders, id)+"/status", fetch.Options{
		Method: http.MethodPut,
		Body:   types.UpdateOrderStatusRequest{Status: status},
	})
}

// Delete removes an order.
func (s *OrderService) Delete(ctx context.Context, id string) fetch.Result[types.MessageResponse] {
	return fetch.Request[types.MessageResponse](ctx, s.client, byID(PathOrders, id), fetch.Options{
		Method: http.MethodDelete,
	})
}
