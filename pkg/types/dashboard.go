package types

import "github.com/shopspring/decimal"

// AdminStats are marketplace-wide totals.
type AdminStats struct {
	TotalUsers    int             `json:"totalUsers"`
	TotalStores   int             `json:"totalStores"`
	TotalProducts int             `json:"totalProducts"`
	TotalOrders   int             `json:"totalOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
}

// SellerStats are totals for the caller's store.
type SellerStats struct {
	TotalProducts int             `json:"totalProducts"`
	TotalOrders   int             `json:"totalOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	RecentOrders  []Order         `json:"recentOrders"`
}
