package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as served by the marketplace API. Cart items hold
// a copy of it, so it must remain a plain value type.
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"imageUrl"`
	Category    Category        `json:"category"`
	Store       Store           `json:"store"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Category groups products.
type Category struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Store is a seller's storefront.
type Store struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// ProductInput is the payload for creating or updating a product. Image is
// the local path of the file to upload; empty keeps the current image.
type ProductInput struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	CategoryID  string          `json:"categoryId" validate:"required"`
	Image       string          `json:"-"`
}

// StoreInput is the payload for creating or updating the caller's store.
type StoreInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Avatar      string `json:"-"`
}
