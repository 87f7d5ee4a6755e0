// Package stats exposes the admin analytics overview.
package stats

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryCount is a catalog category with its active book count.
type CategoryCount struct {
	Category string
	Books    int
}

// MonthlySale is one month's order count and sales volume.
type MonthlySale struct {
	Month  time.Time
	Orders int
	Sales  decimal.Decimal
}

// RecentOrder is a condensed order row for the admin dashboard.
type RecentOrder struct {
	ID         string
	TrackingID string
	Customer   string
	TotalPrice decimal.Decimal
	Status     string
	CreatedAt  time.Time
}

// Overview aggregates platform-wide counts and revenue. Revenue counts
// orders that moved past packing (shipped, out-for-delivery, delivered);
// monthly sales cover the trailing twelve months.
type Overview struct {
	TotalUsers     int
	TotalCustomers int
	TotalSellers   int
	TotalBooks     int
	TotalOrders    int
	TotalRevenue   decimal.Decimal
	TopCategories  []CategoryCount
	MonthlySales   []MonthlySale
	RecentOrders   []RecentOrder
}

// Repository computes the overview from the primary store.
type Repository interface {
	Overview(ctx context.Context) (*Overview, error)
}
