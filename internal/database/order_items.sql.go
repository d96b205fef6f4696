package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_id, dish_id, quantity, unit_price, subtotal, notes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, dish_id, quantity, unit_price, subtotal, notes, created_at
`

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	DishID    uuid.UUID
	Quantity  int32
	UnitPrice pgtype.Numeric
	Subtotal  pgtype.Numeric
	Notes     pgtype.Text
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.DishID, arg.Quantity, arg.UnitPrice, arg.Subtotal, arg.Notes)
	var i OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.DishID, &i.Quantity, &i.UnitPrice, &i.Subtotal, &i.Notes, &i.CreatedAt)
	return i, err
}

const listOrderItemsByOrder = `-- name: ListOrderItemsByOrder :many
SELECT oi.id, oi.order_id, oi.dish_id, oi.quantity, oi.unit_price, oi.subtotal, oi.notes, oi.created_at, d.name AS dish_name
FROM order_items oi
JOIN dishes d ON d.id = oi.dish_id
WHERE oi.order_id = $1
ORDER BY oi.created_at
`

type ListOrderItemsByOrderRow struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	DishID    uuid.UUID
	Quantity  int32
	UnitPrice pgtype.Numeric
	Subtotal  pgtype.Numeric
	Notes     pgtype.Text
	CreatedAt time.Time
	DishName  string
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]ListOrderItemsByOrderRow, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListOrderItemsByOrderRow
	for rows.Next() {
		var i ListOrderItemsByOrderRow
		if err := rows.Scan(&i.ID, &i.OrderID, &i.DishID, &i.Quantity, &i.UnitPrice, &i.Subtotal, &i.Notes, &i.CreatedAt, &i.DishName); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteOrderItem = `-- name: DeleteOrderItem :one
DELETE FROM order_items
WHERE id = $1 AND order_id = $2
RETURNING id
`

type DeleteOrderItemParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) DeleteOrderItem(ctx context.Context, arg DeleteOrderItemParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteOrderItem, arg.ID, arg.OrderID)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
