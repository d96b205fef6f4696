package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/settings"
)

// SettingsHandler exposes the runtime restaurant configuration.
type SettingsHandler struct {
	settings *settings.Settings
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(s *settings.Settings) *SettingsHandler {
	return &SettingsHandler{settings: s}
}

// RegisterRoutes registers settings endpoints on the given Chi router.
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Update)
}

// --- Request types ---

// Pointer fields so a PUT can change one value without resending the rest.
type updateSettingsRequest struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone"`
	Currency    *string `json:"currency"`
	TaxRate     *string `json:"tax_rate"`
	TipRate     *string `json:"tip_rate"`
	MaxCapacity *int    `json:"max_capacity"`
}

// --- Handlers ---

// Get returns the current configuration.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Snapshot())
}

// Update applies the provided fields and persists the result. A rejected
// rate leaves the previous value in place.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.TaxRate != nil {
		rate, err := decimal.NewFromString(*req.TaxRate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tax_rate"})
			return
		}
		if err := h.settings.SetTaxRate(rate); err != nil {
			if errors.Is(err, settings.ErrRateOutOfRange) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tax_rate must be between 0 and 1"})
				return
			}
			log.Printf("ERROR: set tax rate: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}
	if req.TipRate != nil {
		rate, err := decimal.NewFromString(*req.TipRate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tip_rate"})
			return
		}
		if err := h.settings.SetTipRate(rate); err != nil {
			if errors.Is(err, settings.ErrRateOutOfRange) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tip_rate must be between 0 and 1"})
				return
			}
			log.Printf("ERROR: set tip rate: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}
	if req.MaxCapacity != nil {
		if err := h.settings.SetMaxCapacity(*req.MaxCapacity); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "max_capacity must be positive"})
			return
		}
	}
	if req.Name != nil {
		h.settings.SetName(*req.Name)
	}
	if req.Address != nil {
		h.settings.SetAddress(*req.Address)
	}
	if req.Phone != nil {
		h.settings.SetPhone(*req.Phone)
	}
	if req.Currency != nil {
		h.settings.SetCurrency(*req.Currency)
	}

	if err := h.settings.Save(); err != nil {
		log.Printf("ERROR: save settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, h.settings.Snapshot())
}
