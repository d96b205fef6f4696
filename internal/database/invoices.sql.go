package database

import (
	"context"

	"github.com/google/uuid"
)

const createInvoice = `-- name: CreateInvoice :one
INSERT INTO invoices (order_id, folio, tax_id, customer_name)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, folio, tax_id, customer_name, issued_at
`

type CreateInvoiceParams struct {
	OrderID      uuid.UUID
	Folio        string
	TaxID        string
	CustomerName string
}

func (q *Queries) CreateInvoice(ctx context.Context, arg CreateInvoiceParams) (Invoice, error) {
	row := q.db.QueryRow(ctx, createInvoice, arg.OrderID, arg.Folio, arg.TaxID, arg.CustomerName)
	var i Invoice
	err := row.Scan(&i.ID, &i.OrderID, &i.Folio, &i.TaxID, &i.CustomerName, &i.IssuedAt)
	return i, err
}

const getInvoiceByOrder = `-- name: GetInvoiceByOrder :one
SELECT id, order_id, folio, tax_id, customer_name, issued_at
FROM invoices
WHERE order_id = $1
`

func (q *Queries) GetInvoiceByOrder(ctx context.Context, orderID uuid.UUID) (Invoice, error) {
	row := q.db.QueryRow(ctx, getInvoiceByOrder, orderID)
	var i Invoice
	err := row.Scan(&i.ID, &i.OrderID, &i.Folio, &i.TaxID, &i.CustomerName, &i.IssuedAt)
	return i, err
}

const nextInvoiceSeq = `-- name: NextInvoiceSeq :one
SELECT nextval('invoice_folio_seq')
`

func (q *Queries) NextInvoiceSeq(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, nextInvoiceSeq)
	var n int64
	err := row.Scan(&n)
	return n, err
}
