package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (table_id, status, notes, subtotal, tax, total, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, table_id, status, notes, subtotal, tax, total, created_by, created_at, updated_at
`

type CreateOrderParams struct {
	TableID   uuid.UUID
	Status    OrderStatus
	Notes     pgtype.Text
	Subtotal  pgtype.Numeric
	Tax       pgtype.Numeric
	Total     pgtype.Numeric
	CreatedBy uuid.UUID
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.TableID, arg.Status, arg.Notes, arg.Subtotal, arg.Tax, arg.Total, arg.CreatedBy)
	var i Order
	err := row.Scan(&i.ID, &i.TableID, &i.Status, &i.Notes, &i.Subtotal, &i.Tax, &i.Total, &i.CreatedBy, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getOrder = `-- name: GetOrder :one
SELECT id, table_id, status, notes, subtotal, tax, total, created_by, created_at, updated_at
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	var i Order
	err := row.Scan(&i.ID, &i.TableID, &i.Status, &i.Notes, &i.Subtotal, &i.Tax, &i.Total, &i.CreatedBy, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT id, table_id, status, notes, subtotal, tax, total, created_by, created_at, updated_at
FROM orders
WHERE id = $1
FOR NO KEY UPDATE
`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, id)
	var i Order
	err := row.Scan(&i.ID, &i.TableID, &i.Status, &i.Notes, &i.Subtotal, &i.Tax, &i.Total, &i.CreatedBy, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listOrders = `-- name: ListOrders :many
SELECT id, table_id, status, notes, subtotal, tax, total, created_by, created_at, updated_at
FROM orders
WHERE ($1::text IS NULL OR status = $1::text)
  AND ($2::uuid IS NULL OR table_id = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`

type ListOrdersParams struct {
	Status  pgtype.Text
	TableID pgtype.UUID
	Limit   int32
	Offset  int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.Status, arg.TableID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		var i Order
		if err := rows.Scan(&i.ID, &i.TableID, &i.Status, &i.Notes, &i.Subtotal, &i.Tax, &i.Total, &i.CreatedBy, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const hasOpenOrderForTable = `-- name: HasOpenOrderForTable :one
SELECT EXISTS (
	SELECT 1 FROM orders
	WHERE table_id = $1 AND status NOT IN ('DELIVERED', 'CANCELLED')
)
`

func (q *Queries) HasOpenOrderForTable(ctx context.Context, tableID uuid.UUID) (bool, error) {
	row := q.db.QueryRow(ctx, hasOpenOrderForTable, tableID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders
SET status = $1, updated_at = now()
WHERE id = $2 AND status = $3
RETURNING id, table_id, status, notes, subtotal, tax, total, created_by, created_at, updated_at
`

type UpdateOrderStatusParams struct {
	Status     OrderStatus
	ID         uuid.UUID
	FromStatus OrderStatus
}

// UpdateOrderStatus only matches when the row still carries FromStatus, so a
// concurrent transition loses the race instead of silently overwriting it.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.Status, arg.ID, arg.FromStatus)
	var i Order
	err := row.Scan(&i.ID, &i.TableID, &i.Status, &i.Notes, &i.Subtotal, &i.Tax, &i.Total, &i.CreatedBy, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const updateOrderTotals = `-- name: UpdateOrderTotals :one
UPDATE orders
SET subtotal = $1, tax = $2, total = $3, updated_at = now()
WHERE id = $4
RETURNING id, table_id, status, notes, subtotal, tax, total, created_by, created_at, updated_at
`

type UpdateOrderTotalsParams struct {
	Subtotal pgtype.Numeric
	Tax      pgtype.Numeric
	Total    pgtype.Numeric
	ID       uuid.UUID
}

func (q *Queries) UpdateOrderTotals(ctx context.Context, arg UpdateOrderTotalsParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderTotals, arg.Subtotal, arg.Tax, arg.Total, arg.ID)
	var i Order
	err := row.Scan(&i.ID, &i.TableID, &i.Status, &i.Notes, &i.Subtotal, &i.Tax, &i.Total, &i.CreatedBy, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}
