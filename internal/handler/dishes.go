package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/database"
)

const (
	minPrepMinutes = 1
	maxPrepMinutes = 180
)

// DishStore defines the database methods needed by dish handlers.
type DishStore interface {
	ListDishes(ctx context.Context, arg database.ListDishesParams) ([]database.Dish, error)
	GetDish(ctx context.Context, id uuid.UUID) (database.Dish, error)
	CreateDish(ctx context.Context, arg database.CreateDishParams) (database.Dish, error)
	UpdateDish(ctx context.Context, arg database.UpdateDishParams) (database.Dish, error)
	SetDishAvailability(ctx context.Context, arg database.SetDishAvailabilityParams) (database.Dish, error)
	DeleteDish(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// DishHandler handles dish (menu item) endpoints.
type DishHandler struct {
	store DishStore
}

// NewDishHandler creates a new DishHandler.
func NewDishHandler(store DishStore) *DishHandler {
	return &DishHandler{store: store}
}

// RegisterRoutes registers dish endpoints on the given Chi router.
func (h *DishHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/availability", h.SetAvailability)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type dishRequest struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	IsAvailable *bool  `json:"is_available"`
	PrepMinutes int32  `json:"prep_minutes"`
}

type setAvailabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}

type dishResponse struct {
	ID          uuid.UUID `json:"id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	IsAvailable bool      `json:"is_available"`
	PrepMinutes int32     `json:"prep_minutes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toDishResponse(d database.Dish) dishResponse {
	resp := dishResponse{
		ID:          d.ID,
		CategoryID:  d.CategoryID,
		Name:        d.Name,
		Price:       numericToDecimal(d.Price).StringFixed(2),
		IsAvailable: d.IsAvailable,
		PrepMinutes: d.PrepMinutes,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.Description.Valid {
		resp.Description = &d.Description.String
	}
	return resp
}

// validateDishRequest parses and checks the shared create/update fields.
func validateDishRequest(req dishRequest) (uuid.UUID, decimal.Decimal, string) {
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return uuid.Nil, decimal.Zero, "invalid category_id"
	}
	if req.Name == "" {
		return uuid.Nil, decimal.Zero, "name is required"
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.LessThanOrEqual(decimal.Zero) {
		return uuid.Nil, decimal.Zero, "price must be positive"
	}
	if req.PrepMinutes < minPrepMinutes || req.PrepMinutes > maxPrepMinutes {
		return uuid.Nil, decimal.Zero, "prep_minutes must be between 1 and 180"
	}
	return categoryID, price, ""
}

// --- Handlers ---

// List returns dishes, optionally filtered by category and a name search.
func (h *DishHandler) List(w http.ResponseWriter, r *http.Request) {
	params := database.ListDishesParams{}

	if cat := r.URL.Query().Get("category_id"); cat != "" {
		catID, err := uuid.Parse(cat)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
			return
		}
		params.CategoryID = pgtype.UUID{Bytes: catID, Valid: true}
	}
	if q := r.URL.Query().Get("q"); q != "" {
		params.Search = pgtype.Text{String: q, Valid: true}
	}

	dishes, err := h.store.ListDishes(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list dishes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]dishResponse, len(dishes))
	for i, d := range dishes {
		resp[i] = toDishResponse(d)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single dish by ID.
func (h *DishHandler) Get(w http.ResponseWriter, r *http.Request) {
	dishID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}

	dish, err := h.store.GetDish(r.Context(), dishID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
			return
		}
		log.Printf("ERROR: get dish: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toDishResponse(dish))
}

// Create adds a new dish to the menu.
func (h *DishHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	categoryID, price, errMsg := validateDishRequest(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	desc := pgtype.Text{}
	if req.Description != "" {
		desc = pgtype.Text{String: req.Description, Valid: true}
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	dish, err := h.store.CreateDish(r.Context(), database.CreateDishParams{
		CategoryID:  categoryID,
		Name:        req.Name,
		Description: desc,
		Price:       decimalToNumeric(price),
		IsAvailable: available,
		PrepMinutes: req.PrepMinutes,
	})
	if err != nil {
		log.Printf("ERROR: create dish: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toDishResponse(dish))
}

// Update replaces a dish's fields. Existing order lines keep their snapshotted
// unit price; a price change here only affects future orders.
func (h *DishHandler) Update(w http.ResponseWriter, r *http.Request) {
	dishID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}

	var req dishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	categoryID, price, errMsg := validateDishRequest(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	desc := pgtype.Text{}
	if req.Description != "" {
		desc = pgtype.Text{String: req.Description, Valid: true}
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	dish, err := h.store.UpdateDish(r.Context(), database.UpdateDishParams{
		CategoryID:  categoryID,
		Name:        req.Name,
		Description: desc,
		Price:       decimalToNumeric(price),
		IsAvailable: available,
		PrepMinutes: req.PrepMinutes,
		ID:          dishID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
			return
		}
		log.Printf("ERROR: update dish: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toDishResponse(dish))
}

// SetAvailability toggles the 86'd flag without touching other fields.
func (h *DishHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	dishID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}

	var req setAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	dish, err := h.store.SetDishAvailability(r.Context(), database.SetDishAvailabilityParams{
		IsAvailable: req.IsAvailable,
		ID:          dishID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
			return
		}
		log.Printf("ERROR: set dish availability: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toDishResponse(dish))
}

// Delete removes a dish from the menu.
func (h *DishHandler) Delete(w http.ResponseWriter, r *http.Request) {
	dishID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}

	_, err = h.store.DeleteDish(r.Context(), dishID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
			return
		}
		log.Printf("ERROR: delete dish: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
