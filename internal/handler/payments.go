package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/middleware"
	"github.com/mesa-pos/api/internal/notify"
	"github.com/mesa-pos/api/internal/service"
)

// PaymentStore defines the database methods needed by payment handlers.
type PaymentStore interface {
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
	SumPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (pgtype.Numeric, error)
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
}

// NewPaymentStore creates a PaymentStore from a DBTX (pool or tx).
type NewPaymentStore func(db database.DBTX) PaymentStore

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	store    PaymentStore
	pool     service.TxBeginner
	newStore NewPaymentStore
	events   service.Publisher
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(store PaymentStore, pool service.TxBeginner, newStore NewPaymentStore, events service.Publisher) *PaymentHandler {
	return &PaymentHandler{store: store, pool: pool, newStore: newStore, events: events}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
// Expected to be mounted at /orders/{id}/payments
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Add)
	r.Get("/", h.List)
}

// --- Request / Response types ---

type addPaymentRequest struct {
	Method    string `json:"method"`
	Amount    string `json:"amount"`
	Reference string `json:"reference"`
}

type paymentResponse struct {
	ID          uuid.UUID `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	Method      string    `json:"method"`
	Amount      string    `json:"amount"`
	Reference   *string   `json:"reference"`
	ProcessedBy uuid.UUID `json:"processed_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type addPaymentResponse struct {
	Payment   paymentResponse `json:"payment"`
	Paid      string          `json:"paid"`
	Remaining string          `json:"remaining"`
	Settled   bool            `json:"settled"`
}

func toPaymentResponse(p database.Payment) paymentResponse {
	resp := paymentResponse{
		ID:          p.ID,
		OrderID:     p.OrderID,
		Method:      string(p.Method),
		Amount:      numericToDecimal(p.Amount).StringFixed(2),
		ProcessedBy: p.ProcessedBy,
		CreatedAt:   p.CreatedAt,
	}
	if p.Reference.Valid {
		resp.Reference = &p.Reference.String
	}
	return resp
}

func isValidPaymentMethod(m database.PaymentMethod) bool {
	switch m {
	case database.PaymentMethodCASH, database.PaymentMethodCARD, database.PaymentMethodTRANSFER:
		return true
	}
	return false
}

// --- Handlers ---

// Add records a payment against a delivered order. The order row is locked
// for the duration so two cashiers cannot overpay it concurrently; the
// order.paid event fires exactly once, when the running total reaches the
// order total.
func (h *PaymentHandler) Add(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req addPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	method := database.PaymentMethod(req.Method)
	if !isValidPaymentMethod(method) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid method"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be positive"})
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		log.Printf("ERROR: begin payment tx: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer tx.Rollback(r.Context()) //nolint:errcheck

	store := h.newStore(tx)

	order, err := store.GetOrderForUpdate(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if order.Status != database.OrderStatusDELIVERED {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "only delivered orders accept payments"})
		return
	}

	paidSoFar, err := store.SumPaymentsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: sum payments: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	total := numericToDecimal(order.Total)
	paid := numericToDecimal(paidSoFar)
	if paid.GreaterThanOrEqual(total) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order is already settled"})
		return
	}
	if paid.Add(amount).GreaterThan(total) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": fmt.Sprintf("payment exceeds remaining balance of %s", total.Sub(paid).StringFixed(2)),
		})
		return
	}

	reference := pgtype.Text{}
	if req.Reference != "" {
		reference = pgtype.Text{String: req.Reference, Valid: true}
	}

	payment, err := store.CreatePayment(r.Context(), database.CreatePaymentParams{
		OrderID:     orderID,
		Method:      method,
		Amount:      decimalToNumeric(amount),
		Reference:   reference,
		ProcessedBy: claims.UserID,
	})
	if err != nil {
		log.Printf("ERROR: create payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		log.Printf("ERROR: commit payment tx: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	newPaid := paid.Add(amount)
	settled := newPaid.Equal(total)
	if settled {
		tableNumber := int32(0)
		if table, err := h.store.GetTable(r.Context(), order.TableID); err == nil {
			tableNumber = table.Number
		}
		h.events.Publish(r.Context(), notify.Event{
			Type:        enum.EventOrderPaid,
			OrderID:     orderID,
			TableNumber: tableNumber,
			NewStatus:   string(order.Status),
			Actor:       claims.UserID.String(),
			Detail:      fmt.Sprintf("total %s settled", total.StringFixed(2)),
		})
	}

	writeJSON(w, http.StatusCreated, addPaymentResponse{
		Payment:   toPaymentResponse(payment),
		Paid:      newPaid.StringFixed(2),
		Remaining: total.Sub(newPaid).StringFixed(2),
		Settled:   settled,
	})
}

// List returns all payments recorded against an order.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	payments, err := h.store.ListPaymentsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list payments: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toPaymentResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Numeric helpers shared across the package ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
