package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listDishes = `-- name: ListDishes :many
SELECT d.id, d.category_id, d.name, d.description, d.price, d.is_available, d.prep_minutes, d.created_at, d.updated_at
FROM dishes d
JOIN categories c ON c.id = d.category_id
WHERE c.is_active = true
  AND ($1::uuid IS NULL OR d.category_id = $1)
  AND ($2::text IS NULL OR d.name ILIKE '%' || $2 || '%' OR d.description ILIKE '%' || $2 || '%')
ORDER BY c.name, d.name
`

type ListDishesParams struct {
	CategoryID pgtype.UUID
	Search     pgtype.Text
}

func (q *Queries) ListDishes(ctx context.Context, arg ListDishesParams) ([]Dish, error) {
	rows, err := q.db.Query(ctx, listDishes, arg.CategoryID, arg.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Dish
	for rows.Next() {
		var i Dish
		if err := rows.Scan(&i.ID, &i.CategoryID, &i.Name, &i.Description, &i.Price, &i.IsAvailable, &i.PrepMinutes, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getDish = `-- name: GetDish :one
SELECT id, category_id, name, description, price, is_available, prep_minutes, created_at, updated_at
FROM dishes
WHERE id = $1
`

func (q *Queries) GetDish(ctx context.Context, id uuid.UUID) (Dish, error) {
	row := q.db.QueryRow(ctx, getDish, id)
	var i Dish
	err := row.Scan(&i.ID, &i.CategoryID, &i.Name, &i.Description, &i.Price, &i.IsAvailable, &i.PrepMinutes, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getDishForOrder = `-- name: GetDishForOrder :one
SELECT id, name, price, is_available
FROM dishes
WHERE id = $1
`

type GetDishForOrderRow struct {
	ID          uuid.UUID
	Name        string
	Price       pgtype.Numeric
	IsAvailable bool
}

func (q *Queries) GetDishForOrder(ctx context.Context, id uuid.UUID) (GetDishForOrderRow, error) {
	row := q.db.QueryRow(ctx, getDishForOrder, id)
	var i GetDishForOrderRow
	err := row.Scan(&i.ID, &i.Name, &i.Price, &i.IsAvailable)
	return i, err
}

const createDish = `-- name: CreateDish :one
INSERT INTO dishes (category_id, name, description, price, is_available, prep_minutes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, category_id, name, description, price, is_available, prep_minutes, created_at, updated_at
`

type CreateDishParams struct {
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	IsAvailable bool
	PrepMinutes int32
}

func (q *Queries) CreateDish(ctx context.Context, arg CreateDishParams) (Dish, error) {
	row := q.db.QueryRow(ctx, createDish,
		arg.CategoryID, arg.Name, arg.Description, arg.Price, arg.IsAvailable, arg.PrepMinutes)
	var i Dish
	err := row.Scan(&i.ID, &i.CategoryID, &i.Name, &i.Description, &i.Price, &i.IsAvailable, &i.PrepMinutes, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const updateDish = `-- name: UpdateDish :one
UPDATE dishes
SET category_id = $1, name = $2, description = $3, price = $4, is_available = $5, prep_minutes = $6, updated_at = now()
WHERE id = $7
RETURNING id, category_id, name, description, price, is_available, prep_minutes, created_at, updated_at
`

type UpdateDishParams struct {
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	IsAvailable bool
	PrepMinutes int32
	ID          uuid.UUID
}

func (q *Queries) UpdateDish(ctx context.Context, arg UpdateDishParams) (Dish, error) {
	row := q.db.QueryRow(ctx, updateDish,
		arg.CategoryID, arg.Name, arg.Description, arg.Price, arg.IsAvailable, arg.PrepMinutes, arg.ID)
	var i Dish
	err := row.Scan(&i.ID, &i.CategoryID, &i.Name, &i.Description, &i.Price, &i.IsAvailable, &i.PrepMinutes, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const setDishAvailability = `-- name: SetDishAvailability :one
UPDATE dishes
SET is_available = $1, updated_at = now()
WHERE id = $2
RETURNING id, category_id, name, description, price, is_available, prep_minutes, created_at, updated_at
`

type SetDishAvailabilityParams struct {
	IsAvailable bool
	ID          uuid.UUID
}

func (q *Queries) SetDishAvailability(ctx context.Context, arg SetDishAvailabilityParams) (Dish, error) {
	row := q.db.QueryRow(ctx, setDishAvailability, arg.IsAvailable, arg.ID)
	var i Dish
	err := row.Scan(&i.ID, &i.CategoryID, &i.Name, &i.Description, &i.Price, &i.IsAvailable, &i.PrepMinutes, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const deleteDish = `-- name: DeleteDish :one
DELETE FROM dishes
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteDish(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteDish, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
