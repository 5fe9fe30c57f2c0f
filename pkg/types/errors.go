package types

import "errors"

// Cart and checkout errors.
var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product must have an ID")
)

// Order errors.
var (
	ErrInvalidStatus = errors.New("invalid order status")
)

// Session errors.
var (
	ErrNotAuthenticated = errors.New("not logged in")
	ErrInvalidTheme     = errors.New("theme must be light or dark")
)
