package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mesa-pos/api/internal/database"
)

// ReportStore defines the database methods needed by report handlers.
type ReportStore interface {
	GetDashboardStats(ctx context.Context) (database.GetDashboardStatsRow, error)
	GetTopDishes(ctx context.Context, limit int32) ([]database.GetTopDishesRow, error)
}

// ReportHandler handles reporting endpoints.
type ReportHandler struct {
	store ReportStore
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
	r.Get("/top-dishes", h.TopDishes)
}

// --- Response types ---

type dashboardResponse struct {
	OrdersToday    int64  `json:"orders_today"`
	ActiveOrders   int64  `json:"active_orders"`
	SalesToday     string `json:"sales_today"`
	OccupiedTables int64  `json:"occupied_tables"`
}

type topDishResponse struct {
	DishID    uuid.UUID `json:"dish_id"`
	Name      string    `json:"name"`
	UnitsSold int64     `json:"units_sold"`
	Revenue   string    `json:"revenue"`
}

// --- Handlers ---

// Dashboard returns today's headline numbers.
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetDashboardStats(r.Context())
	if err != nil {
		log.Printf("ERROR: dashboard stats: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		OrdersToday:    stats.OrdersToday,
		ActiveOrders:   stats.ActiveOrders,
		SalesToday:     numericToDecimal(stats.SalesToday).StringFixed(2),
		OccupiedTables: stats.OccupiedTables,
	})
}

// TopDishes returns the best selling dishes across delivered orders.
func (h *ReportHandler) TopDishes(w http.ResponseWriter, r *http.Request) {
	limit := int32(10)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 1 || n > 100 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = int32(n)
	}

	rows, err := h.store.GetTopDishes(r.Context(), limit)
	if err != nil {
		log.Printf("ERROR: top dishes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]topDishResponse, len(rows))
	for i, row := range rows {
		resp[i] = topDishResponse{
			DishID:    row.ID,
			Name:      row.Name,
			UnitsSold: row.UnitsSold,
			Revenue:   numericToDecimal(row.Revenue).StringFixed(2),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
