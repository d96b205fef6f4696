package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mesa-pos/api/internal/database"
)

const (
	minTableCapacity = 1
	maxTableCapacity = 20
)

// TableStore defines the database methods needed by table handlers.
type TableStore interface {
	ListTables(ctx context.Context) ([]database.Table, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	CreateTable(ctx context.Context, arg database.CreateTableParams) (database.Table, error)
	UpdateTable(ctx context.Context, arg database.UpdateTableParams) (database.Table, error)
	SoftDeleteTable(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	GetOpenOrderForTable(ctx context.Context, tableID uuid.UUID) (database.Order, error)
}

// TableHandler handles dining table endpoints.
type TableHandler struct {
	store TableStore
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(store TableStore) *TableHandler {
	return &TableHandler{store: store}
}

// RegisterRoutes registers table endpoints on the given Chi router.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type tableRequest struct {
	Number   int32  `json:"number"`
	Capacity int32  `json:"capacity"`
	Location string `json:"location"`
}

type tableResponse struct {
	ID       uuid.UUID `json:"id"`
	Number   int32     `json:"number"`
	Capacity int32     `json:"capacity"`
	Location string    `json:"location"`
	IsActive bool      `json:"is_active"`
	Occupied bool      `json:"occupied"`
}

func (h *TableHandler) toTableResponse(ctx context.Context, t database.Table) tableResponse {
	resp := tableResponse{
		ID:       t.ID,
		Number:   t.Number,
		Capacity: t.Capacity,
		Location: t.Location,
		IsActive: t.IsActive,
	}
	if _, err := h.store.GetOpenOrderForTable(ctx, t.ID); err == nil {
		resp.Occupied = true
	}
	return resp
}

func validateTableRequest(req tableRequest) string {
	if req.Number <= 0 {
		return "number must be positive"
	}
	if req.Capacity < minTableCapacity || req.Capacity > maxTableCapacity {
		return "capacity must be between 1 and 20"
	}
	return ""
}

// isUniqueViolation checks for pgconn error code 23505 (unique constraint).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- Handlers ---

// List returns all active tables with occupancy state.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListTables(r.Context())
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = h.toTableResponse(r.Context(), t)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single table by ID.
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	table, err := h.store.GetTable(r.Context(), tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Printf("ERROR: get table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, h.toTableResponse(r.Context(), table))
}

// Create adds a new table. Numbers must be unique among active tables; the
// partial unique index reports the conflict.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if errMsg := validateTableRequest(req); errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	table, err := h.store.CreateTable(r.Context(), database.CreateTableParams{
		Number:   req.Number,
		Capacity: req.Capacity,
		Location: req.Location,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "table number already in use"})
			return
		}
		log.Printf("ERROR: create table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, h.toTableResponse(r.Context(), table))
}

// Update modifies an existing table.
func (h *TableHandler) Update(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if errMsg := validateTableRequest(req); errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	table, err := h.store.UpdateTable(r.Context(), database.UpdateTableParams{
		Number:   req.Number,
		Capacity: req.Capacity,
		Location: req.Location,
		ID:       tableID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "table number already in use"})
			return
		}
		log.Printf("ERROR: update table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, h.toTableResponse(r.Context(), table))
}

// Delete soft-deletes a table. Tables with an open order cannot be removed.
func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	if _, err := h.store.GetOpenOrderForTable(r.Context(), tableID); err == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "table has an open order"})
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("ERROR: check open order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	_, err = h.store.SoftDeleteTable(r.Context(), tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Printf("ERROR: delete table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
