package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getDashboardStats = `-- name: GetDashboardStats :one
SELECT
	(SELECT COUNT(*) FROM orders WHERE created_at::date = CURRENT_DATE) AS orders_today,
	(SELECT COUNT(*) FROM orders WHERE status NOT IN ('DELIVERED', 'CANCELLED')) AS active_orders,
	(SELECT COALESCE(SUM(total), 0)::numeric FROM orders WHERE status = 'DELIVERED' AND created_at::date = CURRENT_DATE) AS sales_today,
	(SELECT COUNT(DISTINCT table_id) FROM orders WHERE status NOT IN ('DELIVERED', 'CANCELLED')) AS occupied_tables
`

type GetDashboardStatsRow struct {
	OrdersToday    int64
	ActiveOrders   int64
	SalesToday     pgtype.Numeric
	OccupiedTables int64
}

func (q *Queries) GetDashboardStats(ctx context.Context) (GetDashboardStatsRow, error) {
	row := q.db.QueryRow(ctx, getDashboardStats)
	var i GetDashboardStatsRow
	err := row.Scan(&i.OrdersToday, &i.ActiveOrders, &i.SalesToday, &i.OccupiedTables)
	return i, err
}

const getTopDishes = `-- name: GetTopDishes :many
SELECT d.id, d.name, SUM(oi.quantity)::bigint AS units_sold, SUM(oi.subtotal)::numeric AS revenue
FROM order_items oi
JOIN dishes d ON d.id = oi.dish_id
JOIN orders o ON o.id = oi.order_id
WHERE o.status = 'DELIVERED'
GROUP BY d.id, d.name
ORDER BY units_sold DESC
LIMIT $1
`

type GetTopDishesRow struct {
	ID        uuid.UUID
	Name      string
	UnitsSold int64
	Revenue   pgtype.Numeric
}

func (q *Queries) GetTopDishes(ctx context.Context, limit int32) ([]GetTopDishesRow, error) {
	rows, err := q.db.Query(ctx, getTopDishes, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetTopDishesRow
	for rows.Next() {
		var i GetTopDishesRow
		if err := rows.Scan(&i.ID, &i.Name, &i.UnitsSold, &i.Revenue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
