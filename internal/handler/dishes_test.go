package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/handler"
)

// makeNumeric builds a pgtype.Numeric from a decimal string for test fixtures.
func makeNumeric(t *testing.T, s string) pgtype.Numeric {
	t.Helper()
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		t.Fatalf("scan numeric %q: %v", s, err)
	}
	return n
}

// --- Mock store ---

type mockDishStore struct {
	dishes map[uuid.UUID]database.Dish // keyed by dish ID
}

func newMockDishStore() *mockDishStore {
	return &mockDishStore{dishes: make(map[uuid.UUID]database.Dish)}
}

func (m *mockDishStore) ListDishes(_ context.Context, arg database.ListDishesParams) ([]database.Dish, error) {
	var result []database.Dish
	for _, d := range m.dishes {
		if arg.CategoryID.Valid && d.CategoryID != uuid.UUID(arg.CategoryID.Bytes) {
			continue
		}
		if arg.Search.Valid && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(arg.Search.String)) {
			continue
		}
		result = append(result, d)
	}
	return result, nil
}

func (m *mockDishStore) GetDish(_ context.Context, id uuid.UUID) (database.Dish, error) {
	d, ok := m.dishes[id]
	if !ok {
		return database.Dish{}, pgx.ErrNoRows
	}
	return d, nil
}

func (m *mockDishStore) CreateDish(_ context.Context, arg database.CreateDishParams) (database.Dish, error) {
	d := database.Dish{
		ID:          uuid.New(),
		CategoryID:  arg.CategoryID,
		Name:        arg.Name,
		Description: arg.Description,
		Price:       arg.Price,
		IsAvailable: arg.IsAvailable,
		PrepMinutes: arg.PrepMinutes,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.dishes[d.ID] = d
	return d, nil
}

func (m *mockDishStore) UpdateDish(_ context.Context, arg database.UpdateDishParams) (database.Dish, error) {
	d, ok := m.dishes[arg.ID]
	if !ok {
		return database.Dish{}, pgx.ErrNoRows
	}
	d.CategoryID = arg.CategoryID
	d.Name = arg.Name
	d.Description = arg.Description
	d.Price = arg.Price
	d.IsAvailable = arg.IsAvailable
	d.PrepMinutes = arg.PrepMinutes
	m.dishes[d.ID] = d
	return d, nil
}

func (m *mockDishStore) SetDishAvailability(_ context.Context, arg database.SetDishAvailabilityParams) (database.Dish, error) {
	d, ok := m.dishes[arg.ID]
	if !ok {
		return database.Dish{}, pgx.ErrNoRows
	}
	d.IsAvailable = arg.IsAvailable
	m.dishes[d.ID] = d
	return d, nil
}

func (m *mockDishStore) DeleteDish(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	if _, ok := m.dishes[id]; !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(m.dishes, id)
	return id, nil
}

// --- Helpers ---

func setupDishRouter(store *mockDishStore) *chi.Mux {
	h := handler.NewDishHandler(store)
	r := chi.NewRouter()
	r.Route("/dishes", h.RegisterRoutes)
	return r
}

func decodeDishResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func seedDish(store *mockDishStore, t *testing.T, name, price string) database.Dish {
	t.Helper()
	d := database.Dish{
		ID:          uuid.New(),
		CategoryID:  uuid.New(),
		Name:        name,
		Price:       makeNumeric(t, price),
		IsAvailable: true,
		PrepMinutes: 10,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	store.dishes[d.ID] = d
	return d
}

// --- List tests ---

func TestDishList_All(t *testing.T) {
	store := newMockDishStore()
	seedDish(store, t, "Tacos al pastor", "45.00")
	seedDish(store, t, "Flan", "38.00")

	router := setupDishRouter(store)
	rr := doRequest(t, router, "GET", "/dishes", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Errorf("expected 2 dishes, got %d", len(resp))
	}
}

func TestDishList_FilterByCategory(t *testing.T) {
	store := newMockDishStore()
	d := seedDish(store, t, "Tacos al pastor", "45.00")
	seedDish(store, t, "Flan", "38.00")

	router := setupDishRouter(store)
	rr := doRequest(t, router, "GET", "/dishes?category_id="+d.CategoryID.String(), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 dish, got %d", len(resp))
	}
	if resp[0]["name"] != "Tacos al pastor" {
		t.Errorf("name: got %v, want 'Tacos al pastor'", resp[0]["name"])
	}
}

func TestDishList_SearchByName(t *testing.T) {
	store := newMockDishStore()
	seedDish(store, t, "Tacos al pastor", "45.00")
	seedDish(store, t, "Flan", "38.00")

	router := setupDishRouter(store)
	rr := doRequest(t, router, "GET", "/dishes?q=taco", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 dish, got %d", len(resp))
	}
}

func TestDishList_InvalidCategoryID(t *testing.T) {
	store := newMockDishStore()
	router := setupDishRouter(store)

	rr := doRequest(t, router, "GET", "/dishes?category_id=not-a-uuid", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Create tests ---

func TestDishCreate_Valid(t *testing.T) {
	store := newMockDishStore()
	router := setupDishRouter(store)
	categoryID := uuid.New()

	rr := doRequest(t, router, "POST", "/dishes", map[string]interface{}{
		"category_id":  categoryID.String(),
		"name":         "Tacos de barbacoa",
		"description":  "Tres piezas",
		"price":        "52.00",
		"prep_minutes": 12,
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeDishResponse(t, rr)
	if resp["name"] != "Tacos de barbacoa" {
		t.Errorf("name: got %v, want 'Tacos de barbacoa'", resp["name"])
	}
	if resp["price"] != "52.00" {
		t.Errorf("price: got %v, want 52.00", resp["price"])
	}
	// Defaults to available when not specified
	if resp["is_available"] != true {
		t.Errorf("is_available: got %v, want true", resp["is_available"])
	}
}

func TestDishCreate_Validation(t *testing.T) {
	categoryID := uuid.NewString()
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{
			"category_id": categoryID, "price": "45.00", "prep_minutes": 10,
		}},
		{"zero price", map[string]interface{}{
			"category_id": categoryID, "name": "Gratis", "price": "0", "prep_minutes": 10,
		}},
		{"negative price", map[string]interface{}{
			"category_id": categoryID, "name": "Raro", "price": "-5.00", "prep_minutes": 10,
		}},
		{"malformed price", map[string]interface{}{
			"category_id": categoryID, "name": "Raro", "price": "cuarenta", "prep_minutes": 10,
		}},
		{"prep too low", map[string]interface{}{
			"category_id": categoryID, "name": "Rapido", "price": "45.00", "prep_minutes": 0,
		}},
		{"prep too high", map[string]interface{}{
			"category_id": categoryID, "name": "Lento", "price": "45.00", "prep_minutes": 181,
		}},
		{"invalid category", map[string]interface{}{
			"category_id": "nope", "name": "Perdido", "price": "45.00", "prep_minutes": 10,
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newMockDishStore()
			router := setupDishRouter(store)

			rr := doRequest(t, router, "POST", "/dishes", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
			}
			if len(store.dishes) != 0 {
				t.Error("no dish should be created on validation failure")
			}
		})
	}
}

// --- Get tests ---

func TestDishGet_Valid(t *testing.T) {
	store := newMockDishStore()
	d := seedDish(store, t, "Churros", "32.00")

	router := setupDishRouter(store)
	rr := doRequest(t, router, "GET", "/dishes/"+d.ID.String(), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeDishResponse(t, rr)
	if resp["name"] != "Churros" {
		t.Errorf("name: got %v, want Churros", resp["name"])
	}
	if resp["price"] != "32.00" {
		t.Errorf("price: got %v, want 32.00", resp["price"])
	}
}

func TestDishGet_NotFound(t *testing.T) {
	store := newMockDishStore()
	router := setupDishRouter(store)

	rr := doRequest(t, router, "GET", "/dishes/"+uuid.NewString(), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Update tests ---

func TestDishUpdate_Valid(t *testing.T) {
	store := newMockDishStore()
	d := seedDish(store, t, "Tacos al pastor", "45.00")

	router := setupDishRouter(store)
	rr := doRequest(t, router, "PUT", "/dishes/"+d.ID.String(), map[string]interface{}{
		"category_id":  d.CategoryID.String(),
		"name":         "Tacos al pastor",
		"price":        "48.00",
		"prep_minutes": 10,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeDishResponse(t, rr)
	if resp["price"] != "48.00" {
		t.Errorf("price: got %v, want 48.00", resp["price"])
	}
}

func TestDishUpdate_NotFound(t *testing.T) {
	store := newMockDishStore()
	router := setupDishRouter(store)

	rr := doRequest(t, router, "PUT", "/dishes/"+uuid.NewString(), map[string]interface{}{
		"category_id":  uuid.NewString(),
		"name":         "Ghost",
		"price":        "10.00",
		"prep_minutes": 5,
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Availability tests ---

func TestDishSetAvailability_EightySix(t *testing.T) {
	store := newMockDishStore()
	d := seedDish(store, t, "Tacos de suadero", "48.00")

	router := setupDishRouter(store)
	rr := doRequest(t, router, "PATCH", "/dishes/"+d.ID.String()+"/availability", map[string]interface{}{
		"is_available": false,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeDishResponse(t, rr)
	if resp["is_available"] != false {
		t.Errorf("is_available: got %v, want false", resp["is_available"])
	}
	if store.dishes[d.ID].IsAvailable {
		t.Error("dish should be unavailable in store")
	}
}

func TestDishSetAvailability_NotFound(t *testing.T) {
	store := newMockDishStore()
	router := setupDishRouter(store)

	rr := doRequest(t, router, "PATCH", "/dishes/"+uuid.NewString()+"/availability", map[string]interface{}{
		"is_available": false,
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Delete tests ---

func TestDishDelete_Valid(t *testing.T) {
	store := newMockDishStore()
	d := seedDish(store, t, "Fuera del menu", "20.00")

	router := setupDishRouter(store)
	rr := doRequest(t, router, "DELETE", "/dishes/"+d.ID.String(), nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}
	if _, exists := store.dishes[d.ID]; exists {
		t.Error("dish should be removed from store")
	}
}

func TestDishDelete_NotFound(t *testing.T) {
	store := newMockDishStore()
	router := setupDishRouter(store)

	rr := doRequest(t, router, "DELETE", "/dishes/"+uuid.NewString(), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
