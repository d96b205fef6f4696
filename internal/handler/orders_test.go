package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mesa-pos/api/internal/auth"
	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/handler"
	"github.com/mesa-pos/api/internal/middleware"
	"github.com/mesa-pos/api/internal/service"
	"github.com/mesa-pos/api/internal/settings"
)

// --- Mock service ---

type mockOrderService struct {
	createFn       func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	addItemFn      func(ctx context.Context, orderID uuid.UUID, req service.CreateOrderItemRequest, actor string) (*database.OrderItem, error)
	removeItemFn   func(ctx context.Context, orderID, itemID uuid.UUID) error
	updateStatusFn func(ctx context.Context, orderID uuid.UUID, newStatus database.OrderStatus, actor string) (*database.Order, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
	return m.createFn(ctx, req)
}

func (m *mockOrderService) AddItem(ctx context.Context, orderID uuid.UUID, req service.CreateOrderItemRequest, actor string) (*database.OrderItem, error) {
	return m.addItemFn(ctx, orderID, req, actor)
}

func (m *mockOrderService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) error {
	return m.removeItemFn(ctx, orderID, itemID)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus database.OrderStatus, actor string) (*database.Order, error) {
	return m.updateStatusFn(ctx, orderID, newStatus, actor)
}

// --- Mock read store ---

type mockOrderReadStore struct {
	getOrderFn   func(ctx context.Context, id uuid.UUID) (database.Order, error)
	listOrdersFn func(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	listItemsFn  func(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsByOrderRow, error)
}

func (m *mockOrderReadStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, id)
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *mockOrderReadStore) ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	if m.listOrdersFn != nil {
		return m.listOrdersFn(ctx, arg)
	}
	return []database.Order{}, nil
}

func (m *mockOrderReadStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsByOrderRow, error) {
	if m.listItemsFn != nil {
		return m.listItemsFn(ctx, orderID)
	}
	return []database.ListOrderItemsByOrderRow{}, nil
}

// --- Helpers ---

func setupOrderRouter(t *testing.T, store *mockOrderReadStore, svc *mockOrderService) *chi.Mux {
	t.Helper()
	st, err := settings.Load(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	h := handler.NewOrderHandler(store, svc, st)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/orders", h.RegisterRoutes)
	return r
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, userID uuid.UUID, role string) *httptest.ResponseRecorder {
	t.Helper()

	token, err := auth.GenerateToken(testJWTSecret, userID, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func sampleOrder(t *testing.T, status database.OrderStatus) database.Order {
	t.Helper()
	return database.Order{
		ID:        uuid.New(),
		TableID:   uuid.New(),
		Status:    status,
		Subtotal:  makeNumeric(t, "135.00"),
		Tax:       makeNumeric(t, "21.60"),
		Total:     makeNumeric(t, "156.60"),
		CreatedBy: uuid.New(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func decodeOrderResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// --- Create tests ---

func TestOrderCreate_Valid(t *testing.T) {
	userID := uuid.New()
	order := sampleOrder(t, database.OrderStatusPENDING)

	var captured service.CreateOrderRequest
	svc := &mockOrderService{
		createFn: func(_ context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			captured = req
			return &service.CreateOrderResult{Order: order}, nil
		},
	}
	router := setupOrderRouter(t, &mockOrderReadStore{}, svc)

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"table_id": order.TableID.String(),
		"items": []map[string]interface{}{
			{"dish_id": uuid.NewString(), "quantity": 3},
		},
	}, userID, "SERVER")

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	if captured.CreatedBy != userID {
		t.Errorf("created_by: got %s, want %s", captured.CreatedBy, userID)
	}
	if len(captured.Items) != 1 || captured.Items[0].Quantity != 3 {
		t.Errorf("items not passed through: %+v", captured.Items)
	}

	resp := decodeOrderResponse(t, rr)
	if resp["status"] != "PENDING" {
		t.Errorf("status: got %v, want PENDING", resp["status"])
	}
	if resp["total"] != "156.60" {
		t.Errorf("total: got %v, want 156.60", resp["total"])
	}
}

func TestOrderCreate_Unauthenticated(t *testing.T) {
	svc := &mockOrderService{}
	router := setupOrderRouter(t, &mockOrderReadStore{}, svc)

	rr := doRequest(t, router, "POST", "/orders", map[string]interface{}{
		"table_id": uuid.NewString(),
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestOrderCreate_ServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"table not found", service.ErrTableNotFound, http.StatusNotFound},
		{"table inactive", service.ErrTableInactive, http.StatusBadRequest},
		{"table occupied", service.ErrTableOccupied, http.StatusConflict},
		{"dish not found", service.ErrDishNotFound, http.StatusNotFound},
		{"dish unavailable", service.ErrDishUnavailable, http.StatusBadRequest},
		{"bad quantity", service.ErrInvalidQuantity, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockOrderService{
				createFn: func(_ context.Context, _ service.CreateOrderRequest) (*service.CreateOrderResult, error) {
					return nil, tc.err
				},
			}
			router := setupOrderRouter(t, &mockOrderReadStore{}, svc)

			rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
				"table_id": uuid.NewString(),
			}, uuid.New(), "SERVER")

			if rr.Code != tc.want {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

func TestOrderCreate_MissingTableID(t *testing.T) {
	svc := &mockOrderService{}
	router := setupOrderRouter(t, &mockOrderReadStore{}, svc)

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"notes": "no table",
	}, uuid.New(), "SERVER")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Get tests ---

func TestOrderGet_WithItems(t *testing.T) {
	order := sampleOrder(t, database.OrderStatusPENDING)
	itemID := uuid.New()
	store := &mockOrderReadStore{
		getOrderFn: func(_ context.Context, id uuid.UUID) (database.Order, error) {
			if id != order.ID {
				return database.Order{}, pgx.ErrNoRows
			}
			return order, nil
		},
		listItemsFn: func(_ context.Context, _ uuid.UUID) ([]database.ListOrderItemsByOrderRow, error) {
			return []database.ListOrderItemsByOrderRow{{
				ID:        itemID,
				OrderID:   order.ID,
				DishID:    uuid.New(),
				DishName:  "Tacos al pastor",
				Quantity:  3,
				UnitPrice: makeNumeric(t, "45.00"),
				Subtotal:  makeNumeric(t, "135.00"),
			}}, nil
		},
	}
	router := setupOrderRouter(t, store, &mockOrderService{})

	rr := doAuthRequest(t, router, "GET", "/orders/"+order.ID.String(), nil, uuid.New(), "SERVER")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeOrderResponse(t, rr)
	items, ok := resp["items"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("expected 1 item, got %v", resp["items"])
	}
	item := items[0].(map[string]interface{})
	if item["dish_name"] != "Tacos al pastor" {
		t.Errorf("dish_name: got %v, want 'Tacos al pastor'", item["dish_name"])
	}
	if item["unit_price"] != "45.00" {
		t.Errorf("unit_price: got %v, want 45.00", item["unit_price"])
	}
	// Default 15% tip on the 156.60 total
	if resp["suggested_tip"] != "23.49" {
		t.Errorf("suggested_tip: got %v, want 23.49", resp["suggested_tip"])
	}
}

func TestOrderGet_NotFound(t *testing.T) {
	router := setupOrderRouter(t, &mockOrderReadStore{}, &mockOrderService{})

	rr := doAuthRequest(t, router, "GET", "/orders/"+uuid.NewString(), nil, uuid.New(), "SERVER")

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- List tests ---

func TestOrderList_PassesFilters(t *testing.T) {
	var captured database.ListOrdersParams
	store := &mockOrderReadStore{
		listOrdersFn: func(_ context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
			captured = arg
			return []database.Order{}, nil
		},
	}
	router := setupOrderRouter(t, store, &mockOrderService{})
	tableID := uuid.New()

	rr := doAuthRequest(t, router, "GET",
		"/orders?status=PENDING&table_id="+tableID.String()+"&limit=10&offset=20",
		nil, uuid.New(), "SERVER")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	if !captured.Status.Valid || captured.Status.String != "PENDING" {
		t.Errorf("status filter: got %+v, want PENDING", captured.Status)
	}
	if !captured.TableID.Valid || uuid.UUID(captured.TableID.Bytes) != tableID {
		t.Errorf("table filter: got %+v, want %s", captured.TableID, tableID)
	}
	if captured.Limit != 10 || captured.Offset != 20 {
		t.Errorf("pagination: got limit=%d offset=%d, want 10/20", captured.Limit, captured.Offset)
	}
}

func TestOrderList_InvalidLimit(t *testing.T) {
	router := setupOrderRouter(t, &mockOrderReadStore{}, &mockOrderService{})

	rr := doAuthRequest(t, router, "GET", "/orders?limit=500", nil, uuid.New(), "SERVER")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Status update tests ---

func TestOrderUpdateStatus_Valid(t *testing.T) {
	order := sampleOrder(t, database.OrderStatusPREPARING)
	svc := &mockOrderService{
		updateStatusFn: func(_ context.Context, id uuid.UUID, newStatus database.OrderStatus, _ string) (*database.Order, error) {
			if newStatus != database.OrderStatusPREPARING {
				t.Errorf("newStatus: got %s, want PREPARING", newStatus)
			}
			return &order, nil
		},
	}
	router := setupOrderRouter(t, &mockOrderReadStore{}, svc)

	rr := doAuthRequest(t, router, "PATCH", "/orders/"+order.ID.String()+"/status", map[string]interface{}{
		"status": "PREPARING",
	}, uuid.New(), "KITCHEN")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeOrderResponse(t, rr)
	if resp["status"] != "PREPARING" {
		t.Errorf("status: got %v, want PREPARING", resp["status"])
	}
}

func TestOrderUpdateStatus_ServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid transition", service.ErrInvalidTransition, http.StatusConflict},
		{"terminal order", service.ErrOrderTerminal, http.StatusConflict},
		{"concurrent change", service.ErrStatusConflict, http.StatusConflict},
		{"unknown status", service.ErrInvalidStatus, http.StatusBadRequest},
		{"unknown order", service.ErrOrderNotFound, http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockOrderService{
				updateStatusFn: func(_ context.Context, _ uuid.UUID, _ database.OrderStatus, _ string) (*database.Order, error) {
					return nil, tc.err
				},
			}
			router := setupOrderRouter(t, &mockOrderReadStore{}, svc)

			rr := doAuthRequest(t, router, "PATCH", "/orders/"+uuid.NewString()+"/status", map[string]interface{}{
				"status": "READY",
			}, uuid.New(), "KITCHEN")

			if rr.Code != tc.want {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

func TestOrderUpdateStatus_MissingStatus(t *testing.T) {
	router := setupOrderRouter(t, &mockOrderReadStore{}, &mockOrderService{})

	rr := doAuthRequest(t, router, "PATCH", "/orders/"+uuid.NewString()+"/status",
		map[string]interface{}{}, uuid.New(), "KITCHEN")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Item tests ---

func TestOrderAddItem_Valid(t *testing.T) {
	orderID := uuid.New()
	item := database.OrderItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		DishID:    uuid.New(),
		Quantity:  2,
		UnitPrice: makeNumeric(t, "45.00"),
		Subtotal:  makeNumeric(t, "90.00"),
		CreatedAt: time.Now(),
	}
	svc := &mockOrderService{
		addItemFn: func(_ context.Context, id uuid.UUID, req service.CreateOrderItemRequest, _ string) (*database.OrderItem, error) {
			if id != orderID {
				t.Errorf("orderID: got %s, want %s", id, orderID)
			}
			return &item, nil
		},
	}
	router := setupOrderRouter(t, &mockOrderReadStore{}, svc)

	rr := doAuthRequest(t, router, "POST", "/orders/"+orderID.String()+"/items", map[string]interface{}{
		"dish_id":  item.DishID.String(),
		"quantity": 2,
	}, uuid.New(), "SERVER")

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeOrderResponse(t, rr)
	if resp["subtotal"] != "90.00" {
		t.Errorf("subtotal: got %v, want 90.00", resp["subtotal"])
	}
}

func TestOrderAddItem_ClosedOrder(t *testing.T) {
	svc := &mockOrderService{
		addItemFn: func(_ context.Context, _ uuid.UUID, _ service.CreateOrderItemRequest, _ string) (*database.OrderItem, error) {
			return nil, service.ErrOrderNotOpen
		},
	}
	router := setupOrderRouter(t, &mockOrderReadStore{}, svc)

	rr := doAuthRequest(t, router, "POST", "/orders/"+uuid.NewString()+"/items", map[string]interface{}{
		"dish_id":  uuid.NewString(),
		"quantity": 1,
	}, uuid.New(), "SERVER")

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestOrderRemoveItem_Valid(t *testing.T) {
	orderID := uuid.New()
	itemID := uuid.New()
	called := false
	svc := &mockOrderService{
		removeItemFn: func(_ context.Context, oid, iid uuid.UUID) error {
			called = true
			if oid != orderID || iid != itemID {
				t.Errorf("ids: got %s/%s, want %s/%s", oid, iid, orderID, itemID)
			}
			return nil
		},
	}
	router := setupOrderRouter(t, &mockOrderReadStore{}, svc)

	rr := doAuthRequest(t, router, "DELETE",
		"/orders/"+orderID.String()+"/items/"+itemID.String(), nil, uuid.New(), "SERVER")

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}
	if !called {
		t.Error("RemoveItem was not called")
	}
}

func TestOrderRemoveItem_NotFound(t *testing.T) {
	svc := &mockOrderService{
		removeItemFn: func(_ context.Context, _, _ uuid.UUID) error {
			return service.ErrItemNotFound
		},
	}
	router := setupOrderRouter(t, &mockOrderReadStore{}, svc)

	rr := doAuthRequest(t, router, "DELETE",
		"/orders/"+uuid.NewString()+"/items/"+uuid.NewString(), nil, uuid.New(), "SERVER")

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
