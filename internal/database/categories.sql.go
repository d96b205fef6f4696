package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listCategories = `-- name: ListCategories :many
SELECT id, name, description, is_active, created_at
FROM categories
WHERE is_active = true
ORDER BY name
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name, &i.Description, &i.IsActive, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createCategory = `-- name: CreateCategory :one
INSERT INTO categories (name, description)
VALUES ($1, $2)
RETURNING id, name, description, is_active, created_at
`

type CreateCategoryParams struct {
	Name        string
	Description pgtype.Text
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, createCategory, arg.Name, arg.Description)
	var i Category
	err := row.Scan(&i.ID, &i.Name, &i.Description, &i.IsActive, &i.CreatedAt)
	return i, err
}

const updateCategory = `-- name: UpdateCategory :one
UPDATE categories
SET name = $1, description = $2
WHERE id = $3 AND is_active = true
RETURNING id, name, description, is_active, created_at
`

type UpdateCategoryParams struct {
	Name        string
	Description pgtype.Text
	ID          uuid.UUID
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, updateCategory, arg.Name, arg.Description, arg.ID)
	var i Category
	err := row.Scan(&i.ID, &i.Name, &i.Description, &i.IsActive, &i.CreatedAt)
	return i, err
}

const softDeleteCategory = `-- name: SoftDeleteCategory :one
UPDATE categories
SET is_active = false
WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteCategory, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
