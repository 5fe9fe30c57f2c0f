package types

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// validOrderStatuses is the set of recognized order status values.
var validOrderStatuses = map[string]bool{
	OrderStatusPending:   true,
	OrderStatusPaid:      true,
	OrderStatusShipped:   true,
	OrderStatusCompleted: true,
	OrderStatusCancelled: true,
}

// ValidOrderStatus reports whether s is a recognized order status.
func ValidOrderStatus(s string) bool {
	return validOrderStatuses[s]
}

// Order is a placed purchase.
type Order struct {
	ID            string          `json:"_id"`
	UserID        string          `json:"userId,omitempty"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	Items         []OrderItem     `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// OrderItem is one line of an order. The API either embeds the product or
// returns only its ID.
type OrderItem struct {
	ID       string          `json:"_id"`
	Product  ProductRef      `json:"product"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// ProductRef holds either a full product or just its ID.
type ProductRef struct {
	ID      string
	Product *Product
}

// UnmarshalJSON accepts a bare ID string or an embedded product object.
func (r *ProductRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ProductRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = ProductRef{ID: id}
		return nil
	}
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = ProductRef{ID: p.ID, Product: &p}
	return nil
}

// MarshalJSON writes the embedded product when present, else the ID.
func (r ProductRef) MarshalJSON() ([]byte, error) {
	if r.Product != nil {
		return json.Marshal(r.Product)
	}
	return json.Marshal(r.ID)
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	Items []OrderLine `json:"items" validate:"required,min=1,dive"`
}

// OrderLine is one requested product and quantity.
type OrderLine struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// UpdateOrderStatusRequest changes an order's status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid shipped completed cancelled"`
}
