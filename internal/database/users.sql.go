package database

import (
	"context"

	"github.com/google/uuid"
)

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, email, hashed_password, full_name, role, is_active, created_at, updated_at
FROM users
WHERE email = $1 AND is_active = true
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.HashedPassword, &i.FullName, &i.Role, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, email, hashed_password, full_name, role, is_active, created_at, updated_at
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.HashedPassword, &i.FullName, &i.Role, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listUsers = `-- name: ListUsers :many
SELECT id, email, hashed_password, full_name, role, is_active, created_at, updated_at
FROM users
WHERE is_active = true
ORDER BY full_name
`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var i User
		if err := rows.Scan(&i.ID, &i.Email, &i.HashedPassword, &i.FullName, &i.Role, &i.IsActive, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (email, hashed_password, full_name, role)
VALUES ($1, $2, $3, $4)
RETURNING id, email, hashed_password, full_name, role, is_active, created_at, updated_at
`

type CreateUserParams struct {
	Email          string
	HashedPassword string
	FullName       string
	Role           string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.Email, arg.HashedPassword, arg.FullName, arg.Role)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.HashedPassword, &i.FullName, &i.Role, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const updateUser = `-- name: UpdateUser :one
UPDATE users
SET full_name = $1, role = $2, updated_at = now()
WHERE id = $3 AND is_active = true
RETURNING id, email, hashed_password, full_name, role, is_active, created_at, updated_at
`

type UpdateUserParams struct {
	FullName string
	Role     string
	ID       uuid.UUID
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUser, arg.FullName, arg.Role, arg.ID)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.HashedPassword, &i.FullName, &i.Role, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const softDeleteUser = `-- name: SoftDeleteUser :one
UPDATE users
SET is_active = false, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteUser, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
