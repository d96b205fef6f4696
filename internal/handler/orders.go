package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/middleware"
	"github.com/mesa-pos/api/internal/service"
	"github.com/mesa-pos/api/internal/settings"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	AddItem(ctx context.Context, orderID uuid.UUID, req service.CreateOrderItemRequest, actor string) (*database.OrderItem, error)
	RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) error
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus database.OrderStatus, actor string) (*database.Order, error)
}

// OrderReadStore defines the read-only DB methods the order handlers use
// directly; writes go through the order service.
type OrderReadStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsByOrderRow, error)
}

// OrderHandler handles order lifecycle endpoints.
type OrderHandler struct {
	store    OrderReadStore
	svc      OrderServicer
	settings *settings.Settings
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(store OrderReadStore, svc OrderServicer, st *settings.Settings) *OrderHandler {
	return &OrderHandler{store: store, svc: svc, settings: st}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Post("/{id}/items", h.AddItem)
	r.Delete("/{id}/items/{itemID}", h.RemoveItem)
}

// --- Request / Response types ---

type createOrderRequest struct {
	TableID string             `json:"table_id"`
	Notes   string             `json:"notes"`
	Items   []orderItemRequest `json:"items"`
}

type orderItemRequest struct {
	DishID   string `json:"dish_id"`
	Quantity int32  `json:"quantity"`
	Notes    string `json:"notes"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	DishID    uuid.UUID `json:"dish_id"`
	DishName  string    `json:"dish_name,omitempty"`
	Quantity  int32     `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	Subtotal  string    `json:"subtotal"`
	Notes     *string   `json:"notes"`
}

type orderResponse struct {
	ID        uuid.UUID           `json:"id"`
	TableID   uuid.UUID           `json:"table_id"`
	Status    string              `json:"status"`
	Notes     *string             `json:"notes"`
	Subtotal  string              `json:"subtotal"`
	Tax       string              `json:"tax"`
	Total     string              `json:"total"`
	CreatedBy uuid.UUID           `json:"created_by"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Items     []orderItemResponse `json:"items,omitempty"`

	// Only populated on single-order reads.
	SuggestedTip string `json:"suggested_tip,omitempty"`
}

func toOrderResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:        o.ID,
		TableID:   o.TableID,
		Status:    string(o.Status),
		Subtotal:  numericToDecimal(o.Subtotal).StringFixed(2),
		Tax:       numericToDecimal(o.Tax).StringFixed(2),
		Total:     numericToDecimal(o.Total).StringFixed(2),
		CreatedBy: o.CreatedBy,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	if o.Notes.Valid {
		resp.Notes = &o.Notes.String
	}
	return resp
}

func toOrderItemResponse(item database.OrderItem, dishName string) orderItemResponse {
	resp := orderItemResponse{
		ID:        item.ID,
		DishID:    item.DishID,
		DishName:  dishName,
		Quantity:  item.Quantity,
		UnitPrice: numericToDecimal(item.UnitPrice).StringFixed(2),
		Subtotal:  numericToDecimal(item.Subtotal).StringFixed(2),
	}
	if item.Notes.Valid {
		resp.Notes = &item.Notes.String
	}
	return resp
}

// writeServiceError maps order service sentinel errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrTableNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrDishNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrTableInactive),
		errors.Is(err, service.ErrDishUnavailable),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidDishID),
		errors.Is(err, service.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrTableOccupied),
		errors.Is(err, service.ErrOrderNotOpen),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrOrderTerminal),
		errors.Is(err, service.ErrStatusConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// --- Handlers ---

// List returns orders filtered by optional status and table_id query params.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	params := database.ListOrdersParams{Limit: 50, Offset: 0}

	if status := r.URL.Query().Get("status"); status != "" {
		params.Status = pgtype.Text{String: status, Valid: true}
	}
	if tid := r.URL.Query().Get("table_id"); tid != "" {
		tableID, err := uuid.Parse(tid)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table_id"})
			return
		}
		params.TableID = pgtype.UUID{Bytes: tableID, Valid: true}
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.ParseInt(limit, 10, 32)
		if err != nil || n < 1 || n > 200 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		params.Limit = int32(n)
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		n, err := strconv.ParseInt(offset, 10, 32)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
			return
		}
		params.Offset = int32(n)
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns one order with its line items and the tip suggestion for its
// current total.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	lines, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toOrderResponse(order)
	resp.Items = make([]orderItemResponse, len(lines))
	for i, line := range lines {
		resp.Items[i] = toOrderItemResponse(database.OrderItem{
			ID:        line.ID,
			OrderID:   line.OrderID,
			DishID:    line.DishID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal,
			Notes:     line.Notes,
		}, line.DishName)
	}
	resp.SuggestedTip = h.settings.SuggestedTip(numericToDecimal(order.Total)).StringFixed(2)

	writeJSON(w, http.StatusOK, resp)
}

// Create opens a new order for a table.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.TableID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table_id is required"})
		return
	}

	svcReq := service.CreateOrderRequest{
		TableID:   req.TableID,
		Notes:     req.Notes,
		CreatedBy: claims.UserID,
		Actor:     claims.UserID.String(),
	}
	for _, item := range req.Items {
		svcReq.Items = append(svcReq.Items, service.CreateOrderItemRequest{
			DishID:   item.DishID,
			Quantity: item.Quantity,
			Notes:    item.Notes,
		})
	}

	result, err := h.svc.CreateOrder(r.Context(), svcReq)
	if err != nil {
		writeServiceError(w, "create order", err)
		return
	}

	resp := toOrderResponse(result.Order)
	resp.Items = make([]orderItemResponse, len(result.Items))
	for i, item := range result.Items {
		resp.Items[i] = toOrderItemResponse(item, "")
	}

	writeJSON(w, http.StatusCreated, resp)
}

// UpdateStatus moves an order through its lifecycle.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), orderID, database.OrderStatus(req.Status), claims.UserID.String())
	if err != nil {
		writeServiceError(w, "update order status", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// AddItem appends a line to an open order.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req orderItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	item, err := h.svc.AddItem(r.Context(), orderID, service.CreateOrderItemRequest{
		DishID:   req.DishID,
		Quantity: req.Quantity,
		Notes:    req.Notes,
	}, claims.UserID.String())
	if err != nil {
		writeServiceError(w, "add order item", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderItemResponse(*item, ""))
}

// RemoveItem deletes a line from an open order.
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	if err := h.svc.RemoveItem(r.Context(), orderID, itemID); err != nil {
		writeServiceError(w, "remove order item", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
