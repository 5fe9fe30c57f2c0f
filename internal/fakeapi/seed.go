package fakeapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/storefront/pkg/types"
)

// Seeded accounts. All share DemoPassword.
const (
	AdminEmail   = "admin@storefront.test"
	SellerEmail  = "seller@storefront.test"
	BuyerEmail   = "buyer@storefront.test"
	DemoPassword = "password123"
)

// Seeded identifiers.
const (
	SellerStoreID = "s1"
	SeedOrderID   = "o1"
)

var seedTime = time.Date(2025, time.March, 1, 9, 30, 0, 0, time.UTC)

func (s *Server) seed() {
	store := types.Store{ID: SellerStoreID, Name: "Toko Rajut", Description: "Handmade crochet goods"}
	for _, u := range []types.User{
		{ID: "u1", Name: "Admin", Email: AdminEmail, Role: types.RoleAdmin},
		{ID: "u2", Name: "Juliette", Email: SellerEmail, Role: types.RoleUser, Store: &store},
		{ID: "u3", Name: "Budi", Email: BuyerEmail, Role: types.RoleUser},
	} {
		s.accounts[u.ID] = &account{user: u, passwordHash: hashPassword(DemoPassword)}
	}

	s.categories = []types.Category{
		{ID: "c1", Name: "Crochet", Description: "Finished crochet pieces"},
		{ID: "c2", Name: "Yarn", Description: "Yarn and fibre"},
		{ID: "c3", Name: "Patterns", Description: "Downloadable patterns"},
	}

	product := func(id, name string, price int64, stock int, cat int, day int) types.Product {
		at := seedTime.AddDate(0, 0, day)
		return types.Product{
			ID:        id,
			Name:      name,
			Price:     decimal.NewFromInt(price),
			Stock:     stock,
			ImageURL:  "/uploads/" + id + ".jpg",
			Category:  s.categories[cat],
			Store:     store,
			CreatedAt: at,
			UpdatedAt: at,
		}
	}
	s.products = []types.Product{
		product("p1", "Amigurumi Bear", 150000, 12, 0, 0),
		product("p2", "Cotton Yarn 100g", 35000, 200, 1, 1),
		product("p3", "Granny Square Blanket", 450000, 3, 0, 2),
		product("p4", "Beanie Pattern", 25000, 999, 2, 3),
		product("p5", "Merino Yarn 50g", 85000, 0, 1, 4),
	}
	s.products[0].Description = "A 25 cm bear in soft cotton"
	s.products[3].ImageURL = ""

	yarn := s.products[1]
	s.orders = []types.Order{{
		ID:            SeedOrderID,
		UserID:        "u3",
		CustomerName:  "Budi",
		CustomerEmail: BuyerEmail,
		Items: []types.OrderItem{{
			ID:       "oi1",
			Product:  types.ProductRef{ID: yarn.ID, Product: &yarn},
			Name:     yarn.Name,
			Quantity: 2,
			Price:    yarn.Price,
		}},
		TotalAmount: decimal.NewFromInt(70000),
		Status:      types.OrderStatusCompleted,
		CreatedAt:   seedTime.AddDate(0, 0, 5),
		UpdatedAt:   seedTime.AddDate(0, 0, 6),
	}}
}
