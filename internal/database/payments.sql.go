package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createPayment = `-- name: CreatePayment :one
INSERT INTO payments (order_id, method, amount, reference, processed_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, method, amount, reference, processed_by, created_at
`

type CreatePaymentParams struct {
	OrderID     uuid.UUID
	Method      PaymentMethod
	Amount      pgtype.Numeric
	Reference   pgtype.Text
	ProcessedBy uuid.UUID
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, createPayment,
		arg.OrderID, arg.Method, arg.Amount, arg.Reference, arg.ProcessedBy)
	var i Payment
	err := row.Scan(&i.ID, &i.OrderID, &i.Method, &i.Amount, &i.Reference, &i.ProcessedBy, &i.CreatedAt)
	return i, err
}

const listPaymentsByOrder = `-- name: ListPaymentsByOrder :many
SELECT id, order_id, method, amount, reference, processed_by, created_at
FROM payments
WHERE order_id = $1
ORDER BY created_at
`

func (q *Queries) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPaymentsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Payment
	for rows.Next() {
		var i Payment
		if err := rows.Scan(&i.ID, &i.OrderID, &i.Method, &i.Amount, &i.Reference, &i.ProcessedBy, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const sumPaymentsByOrder = `-- name: SumPaymentsByOrder :one
SELECT COALESCE(SUM(amount), 0)::numeric
FROM payments
WHERE order_id = $1
`

func (q *Queries) SumPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumPaymentsByOrder, orderID)
	var sum pgtype.Numeric
	err := row.Scan(&sum)
	return sum, err
}
