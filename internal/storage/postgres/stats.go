package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookease/marketplace/internal/domain/stats"
)

const (
	countsSQL = `SELECT
		(SELECT count(*)::int FROM users),
		(SELECT count(*)::int FROM users WHERE role = 'customer'),
		(SELECT count(*)::int FROM users WHERE role = 'seller'),
		(SELECT count(*)::int FROM books WHERE is_active),
		(SELECT count(*)::int FROM orders),
		(SELECT COALESCE(sum(total_price), 0) FROM orders
			WHERE status IN ('shipped', 'out-for-delivery', 'delivered'))`

	topCategoriesSQL = `SELECT category, count(*)::int FROM books
		WHERE is_active AND category <> ''
		GROUP BY category ORDER BY count(*) DESC, category LIMIT 5`

	monthlySalesSQL = `SELECT date_trunc('month', created_at) AS month,
			count(*)::int, COALESCE(sum(total_price), 0)
		FROM orders
		WHERE created_at >= now() - interval '12 months'
		GROUP BY month ORDER BY month`

	recentOrdersSQL = `SELECT o.id, o.tracking_id, u.name, o.total_price, o.status, o.created_at
		FROM orders o JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC LIMIT 5`
)

var _ stats.Repository = (*StatsRepository)(nil)

// StatsRepository computes the admin overview with aggregate queries.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository returns a StatsRepository that uses the given pool.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

func (r *StatsRepository) Overview(ctx context.Context) (*stats.Overview, error) {
	var o stats.Overview
	err := r.pool.QueryRow(ctx, countsSQL).Scan(
		&o.TotalUsers, &o.TotalCustomers, &o.TotalSellers,
		&o.TotalBooks, &o.TotalOrders, &o.TotalRevenue,
	)
	if err != nil {
		return nil, fmt.Errorf("computing overview counts: %w", err)
	}

	rows, err := r.pool.Query(ctx, topCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("computing top categories: %w", err)
	}
	o.TopCategories, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (stats.CategoryCount, error) {
		var c stats.CategoryCount
		err := row.Scan(&c.Category, &c.Books)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("computing top categories: %w", err)
	}

	rows, err = r.pool.Query(ctx, monthlySalesSQL)
	if err != nil {
		return nil, fmt.Errorf("computing monthly sales: %w", err)
	}
	o.MonthlySales, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (stats.MonthlySale, error) {
		var m stats.MonthlySale
		err := row.Scan(&m.Month, &m.Orders, &m.Sales)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("computing monthly sales: %w", err)
	}

	rows, err = r.pool.Query(ctx, recentOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing recent orders: %w", err)
	}
	o.RecentOrders, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (stats.RecentOrder, error) {
		var ro stats.RecentOrder
		err := row.Scan(&ro.ID, &ro.TrackingID, &ro.Customer, &ro.TotalPrice, &ro.Status, &ro.CreatedAt)
		return ro, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing recent orders: %w", err)
	}
	return &o, nil
}
