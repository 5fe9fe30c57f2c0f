package cart

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/mesh-intelligence/storefront/pkg/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CheckoutRequest builds the order payload for items.
func CheckoutRequest(items []types.CartItem) (types.CreateOrderRequest, error) {
	if len(items) == 0 {
		return types.CreateOrderRequest{}, types.ErrEmptyCart
	}
	req := types.CreateOrderRequest{Items: make([]types.OrderLine, 0, len(items))}
	for _, item := range items {
		req.Items = append(req.Items, types.OrderLine{
			ProductID: item.Product.ID,
			Quantity:  item.Quantity,
		})
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return types.CreateOrderRequest{}, fmt.Errorf("%w: %s", checkoutError(verrs[0]), verrs[0].Namespace())
		}
		return types.CreateOrderRequest{}, err
	}
	return req, nil
}

func checkoutError(fe validator.FieldError) error {
	if fe.Field() == "Quantity" {
		return types.ErrInvalidQuantity
	}
	return types.ErrInvalidProduct
}
