package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/middleware"
	"github.com/mesa-pos/api/internal/notify"
	"github.com/mesa-pos/api/internal/service"
)

// InvoiceStore defines the database methods needed by invoice handlers.
type InvoiceStore interface {
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetInvoiceByOrder(ctx context.Context, orderID uuid.UUID) (database.Invoice, error)
	SumPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (pgtype.Numeric, error)
	NextInvoiceSeq(ctx context.Context) (int64, error)
	CreateInvoice(ctx context.Context, arg database.CreateInvoiceParams) (database.Invoice, error)
}

// NewInvoiceStore creates an InvoiceStore from a DBTX (pool or tx).
type NewInvoiceStore func(db database.DBTX) InvoiceStore

// InvoiceHandler handles invoice endpoints.
type InvoiceHandler struct {
	store    InvoiceStore
	pool     service.TxBeginner
	newStore NewInvoiceStore
	events   service.Publisher
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(store InvoiceStore, pool service.TxBeginner, newStore NewInvoiceStore, events service.Publisher) *InvoiceHandler {
	return &InvoiceHandler{store: store, pool: pool, newStore: newStore, events: events}
}

// RegisterRoutes registers invoice endpoints on the given Chi router.
// Expected to be mounted at /orders/{id}/invoice
func (h *InvoiceHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Issue)
	r.Get("/", h.Get)
}

// --- Request / Response types ---

type issueInvoiceRequest struct {
	TaxID        string `json:"tax_id"`
	CustomerName string `json:"customer_name"`
}

type invoiceResponse struct {
	ID           uuid.UUID `json:"id"`
	OrderID      uuid.UUID `json:"order_id"`
	Folio        string    `json:"folio"`
	TaxID        string    `json:"tax_id"`
	CustomerName string    `json:"customer_name"`
	IssuedAt     time.Time `json:"issued_at"`
}

func toInvoiceResponse(inv database.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:           inv.ID,
		OrderID:      inv.OrderID,
		Folio:        inv.Folio,
		TaxID:        inv.TaxID,
		CustomerName: inv.CustomerName,
		IssuedAt:     inv.IssuedAt,
	}
}

// validTaxID accepts 12 or 13 character alphanumeric tax identifiers.
func validTaxID(s string) bool {
	if len(s) != 12 && len(s) != 13 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		default:
			return false
		}
	}
	return true
}

// --- Handlers ---

// Issue creates the invoice for a fully paid order. An order gets at most
// one invoice; folios are issued from a DB sequence so they never repeat.
func (h *InvoiceHandler) Issue(w http.ResponseWriter, r *http.Request) {
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

	var req issueInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !validTaxID(req.TaxID) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tax_id must be 12 or 13 alphanumeric characters"})
		return
	}
	if req.CustomerName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_name is required"})
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		log.Printf("ERROR: begin invoice tx: %v", err)
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
		log.Printf("ERROR: get order for invoice: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if order.Status != database.OrderStatusDELIVERED {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "only delivered orders can be invoiced"})
		return
	}

	if _, err := store.GetInvoiceByOrder(r.Context(), orderID); err == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order already has an invoice"})
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("ERROR: check existing invoice: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	paid, err := store.SumPaymentsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: sum payments for invoice: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if numericToDecimal(paid).LessThan(numericToDecimal(order.Total)) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order is not fully paid"})
		return
	}

	seq, err := store.NextInvoiceSeq(r.Context())
	if err != nil {
		log.Printf("ERROR: next invoice folio: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	// Tax identifiers are stored uppercased so lookups are case-insensitive.
	invoice, err := store.CreateInvoice(r.Context(), database.CreateInvoiceParams{
		OrderID:      orderID,
		Folio:        fmt.Sprintf("FAC-%06d", seq),
		TaxID:        strings.ToUpper(req.TaxID),
		CustomerName: req.CustomerName,
	})
	if err != nil {
		log.Printf("ERROR: create invoice: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		log.Printf("ERROR: commit invoice tx: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.events.Publish(r.Context(), notify.Event{
		Type:      enum.EventOrderInvoiced,
		OrderID:   orderID,
		NewStatus: string(order.Status),
		Actor:     claims.UserID.String(),
		Detail:    invoice.Folio,
	})

	writeJSON(w, http.StatusCreated, toInvoiceResponse(invoice))
}

// Get returns the invoice for an order, if one was issued.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	invoice, err := h.store.GetInvoiceByOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "invoice not found"})
			return
		}
		log.Printf("ERROR: get invoice: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toInvoiceResponse(invoice))
}
