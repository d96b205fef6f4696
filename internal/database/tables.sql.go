package database

import (
	"context"

	"github.com/google/uuid"
)

const listTables = `-- name: ListTables :many
SELECT id, number, capacity, location, is_active
FROM tables
WHERE is_active = true
ORDER BY number
`

func (q *Queries) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Table
	for rows.Next() {
		var i Table
		if err := rows.Scan(&i.ID, &i.Number, &i.Capacity, &i.Location, &i.IsActive); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getTable = `-- name: GetTable :one
SELECT id, number, capacity, location, is_active
FROM tables
WHERE id = $1
`

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	row := q.db.QueryRow(ctx, getTable, id)
	var i Table
	err := row.Scan(&i.ID, &i.Number, &i.Capacity, &i.Location, &i.IsActive)
	return i, err
}

const createTable = `-- name: CreateTable :one
INSERT INTO tables (number, capacity, location)
VALUES ($1, $2, $3)
RETURNING id, number, capacity, location, is_active
`

type CreateTableParams struct {
	Number   int32
	Capacity int32
	Location string
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, createTable, arg.Number, arg.Capacity, arg.Location)
	var i Table
	err := row.Scan(&i.ID, &i.Number, &i.Capacity, &i.Location, &i.IsActive)
	return i, err
}

const updateTable = `-- name: UpdateTable :one
UPDATE tables
SET number = $1, capacity = $2, location = $3
WHERE id = $4 AND is_active = true
RETURNING id, number, capacity, location, is_active
`

type UpdateTableParams struct {
	Number   int32
	Capacity int32
	Location string
	ID       uuid.UUID
}

func (q *Queries) UpdateTable(ctx context.Context, arg UpdateTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, updateTable, arg.Number, arg.Capacity, arg.Location, arg.ID)
	var i Table
	err := row.Scan(&i.ID, &i.Number, &i.Capacity, &i.Location, &i.IsActive)
	return i, err
}

const softDeleteTable = `-- name: SoftDeleteTable :one
UPDATE tables
SET is_active = false
WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteTable(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteTable, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}

const getOpenOrderForTable = `-- name: GetOpenOrderForTable :one
SELECT id, table_id, status, notes, subtotal, tax, total, created_by, created_at, updated_at
FROM orders
WHERE table_id = $1 AND status NOT IN ('DELIVERED', 'CANCELLED')
LIMIT 1
`

func (q *Queries) GetOpenOrderForTable(ctx context.Context, tableID uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOpenOrderForTable, tableID)
	var i Order
	err := row.Scan(&i.ID, &i.TableID, &i.Status, &i.Notes, &i.Subtotal, &i.Tax, &i.Total, &i.CreatedBy, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}
