package fakeapi

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/storefront/internal/qs"
	"github.com/mesh-intelligence/storefront/pkg/types"
)

// recentOrders is how many orders the seller dashboard lists.
const recentOrders = 5

var orderSortOptions = []string{"id", "created_at", "total_amount", "status"}

func (s *Server) orderIndex(id string) int {
	return slices.IndexFunc(s.orders, func(o types.Order) bool { return o.ID == id })
}

// visible reports whether acc may see the order: admins see every order,
// buyers their own, sellers those containing their products. Callers hold s.mu.
func (s *Server) visible(acc *account, o types.Order) bool {
	switch {
	case acc.user.Role == types.RoleAdmin, o.UserID == acc.user.ID:
		return true
	case acc.user.Store != nil:
		return s.touchesStore(o, acc.user.Store.ID)
	}
	return false
}

func (s *Server) touchesStore(o types.Order, storeID string) bool {
	for _, item := range o.Items {
		if i := s.productIndex(item.Product.ID); i >= 0 && s.products[i].Store.ID == storeID {
			return true
		}
	}
	return false
}

// summary drops embedded products so list rows carry product IDs only.
func summary(o types.Order) types.Order {
	items := make([]types.OrderItem, len(o.Items))
	for i, item := range o.Items {
		item.Product = types.ProductRef{ID: item.Product.ID}
		items[i] = item
	}
	o.Items = items
	return o
}

func (s *Server) listOrders(c *gin.Context) {
	query := c.Request.URL.Query()
	p := qs.SanitizePagination(query, rowsPerPage, orderSortOptions)
	status := query.Get("status")

	s.mu.Lock()
	acc := current(c)
	var rows []types.Order
	for _, o := range s.orders {
		if !s.visible(acc, o) || (status != "" && o.Status != status) {
			continue
		}
		if !matches(p.Search, o.ID, o.CustomerName, o.CustomerEmail) {
			continue
		}
		rows = append(rows, summary(o))
	}
	s.mu.Unlock()

	sortRows(rows, p.Direction == types.SortDesc, func(a, b types.Order) int {
		switch p.Sort {
		case "created_at":
			return a.CreatedAt.Compare(b.CreatedAt)
		case "total_amount":
			return a.TotalAmount.Cmp(b.TotalAmount)
		case "status":
			return cmp.Compare(a.Status, b.Status)
		default:
			return cmp.Compare(a.ID, b.ID)
		}
	})
	s.respond(c, http.StatusOK, paginate(rows, p))
}

func (s *Server) getOrder(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.orderIndex(c.Param("id"))
	if i < 0 || !s.visible(current(c), s.orders[i]) {
		s.fail(c, http.StatusNotFound, "Order not found", nil)
		return
	}
	s.respond(c, http.StatusOK, types.DataResponse[types.Order]{Data: s.orders[i]})
}

// createOrder checks every line before touching stock, so a rejected order
// changes nothing.
func (s *Server) createOrder(c *gin.Context) {
	var req types.CreateOrderRequest
	if !s.bind(c, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var problems []string
	wanted := make(map[string]int)
	for _, line := range req.Items {
		wanted[line.ProductID] += line.Quantity
	}
	for _, line := range req.Items {
		i := s.productIndex(line.ProductID)
		switch {
		case i < 0:
			problems = append(problems, fmt.Sprintf("product %s does not exist", line.ProductID))
		case s.products[i].Stock < wanted[line.ProductID]:
			problems = append(problems, fmt.Sprintf("%s has only %d left in stock", s.products[i].Name, s.products[i].Stock))
		}
	}
	if len(problems) > 0 {
		s.fail(c, http.StatusUnprocessableEntity, "Some items cannot be ordered", map[string][]string{"items": problems})
		return
	}

	acc := current(c)
	now := s.now()
	order := types.Order{
		ID:            uuid.NewString(),
		UserID:        acc.user.ID,
		CustomerName:  acc.user.Name,
		CustomerEmail: acc.user.Email,
		Status:        types.OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		TotalAmount:   decimal.Zero,
	}
	for _, line := range req.Items {
		i := s.productIndex(line.ProductID)
		s.products[i].Stock -= line.Quantity
		prod := s.products[i]
		order.Items = append(order.Items, types.OrderItem{
			ID:       uuid.NewString(),
			Product:  types.ProductRef{ID: prod.ID, Product: &prod},
			Name:     prod.Name,
			Quantity: line.Quantity,
			Price:    prod.Price,
		})
		order.TotalAmount = order.TotalAmount.Add(prod.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	s.orders = append(s.orders, order)
	s.respond(c, http.StatusCreated, types.DataResponse[types.Order]{Message: "Order placed", Data: order})
}

// updateOrderStatus lets admins and the selling store set any status; the
// buyer may only cancel a pending order.
func (s *Server) updateOrderStatus(c *gin.Context) {
	var req types.UpdateOrderStatusRequest
	if !s.bind(c, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.orderIndex(c.Param("id"))
	acc := current(c)
	if i < 0 || !s.visible(acc, s.orders[i]) {
		s.fail(c, http.StatusNotFound, "Order not found", nil)
		return
	}
	order := &s.orders[i]
	seller := acc.user.Store != nil && s.touchesStore(*order, acc.user.Store.ID)
	if acc.user.Role != types.RoleAdmin && !seller {
		if req.Status != types.OrderStatusCancelled || order.Status != types.OrderStatusPending {
			s.fail(c, http.StatusForbidden, "You can only cancel a pending order", nil)
			return
		}
	}
	order.Status = req.Status
	order.UpdatedAt = s.now()
	s.respond(c, http.StatusOK, types.DataResponse[types.Order]{Message: "Order updated", Data: *order})
}

func (s *Server) deleteOrder(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.orderIndex(c.Param("id"))
	acc := current(c)
	if i < 0 || !s.visible(acc, s.orders[i]) {
		s.fail(c, http.StatusNotFound, "Order not found", nil)
		return
	}
	if acc.user.Role != types.RoleAdmin {
		s.fail(c, http.StatusForbidden, "Forbidden", nil)
		return
	}
	s.orders = slices.Delete(s.orders, i, i+1)
	s.message(c, http.StatusOK, "Order deleted")
}

// revenue counts paid, shipped, and completed orders.
func revenue(status string) bool {
	switch status {
	case types.OrderStatusPaid, types.OrderStatusShipped, types.OrderStatusCompleted:
		return true
	}
	return false
}

func (s *Server) adminStats(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := types.AdminStats{
		TotalUsers:    len(s.accounts),
		TotalProducts: len(s.products),
		TotalOrders:   len(s.orders),
		TotalRevenue:  decimal.Zero,
	}
	for _, acc := range s.accounts {
		if acc.user.Store != nil {
			stats.TotalStores++
		}
	}
	for _, o := range s.orders {
		if revenue(o.Status) {
			stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalAmount)
		}
	}
	s.respond(c, http.StatusOK, types.DataResponse[types.AdminStats]{Data: stats})
}

func (s *Server) sellerStats(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	store := current(c).user.Store
	if store == nil {
		s.fail(c, http.StatusForbidden, "You do not have a store yet", nil)
		return
	}
	stats := types.SellerStats{TotalRevenue: decimal.Zero, RecentOrders: []types.Order{}}
	for _, p := range s.products {
		if p.Store.ID == store.ID {
			stats.TotalProducts++
		}
	}

	var mine []types.Order
	for _, o := range s.orders {
		if !s.touchesStore(o, store.ID) {
			continue
		}
		mine = append(mine, o)
		if !revenue(o.Status) {
			continue
		}
		for _, item := range o.Items {
			if i := s.productIndex(item.Product.ID); i >= 0 && s.products[i].Store.ID == store.ID {
				stats.TotalRevenue = stats.TotalRevenue.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			}
		}
	}
	stats.TotalOrders = len(mine)
	sortRows(mine, true, func(a, b types.Order) int { return a.CreatedAt.Compare(b.CreatedAt) })
	for _, o := range mine[:min(recentOrders, len(mine))] {
		stats.RecentOrders = append(stats.RecentOrders, summary(o))
	}
	s.respond(c, http.StatusOK, types.DataResponse[types.SellerStats]{Data: stats})
}
