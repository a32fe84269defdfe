package stocks

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/models"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/store"
)

// Handler holds stock catalog HTTP handlers.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create adds a stock to the catalog.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.StockCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Symbol == "" || req.Name == "" {
		http.Error(w, `{"error":"symbol and name are required"}`, http.StatusBadRequest)
		return
	}
	if req.Price < 0 {
		http.Error(w, `{"error":"price must not be negative"}`, http.StatusBadRequest)
		return
	}

	stock, err := h.service.Create(r.Context(), req)
	if errors.Is(err, store.ErrDuplicateSymbol) {
		http.Error(w, `{"error":"symbol already exists"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, stock)
}

// List returns stocks with skip/limit pagination. Also serves the public
// /stocks/companies listing.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r, 100)
	stocks, err := h.service.List(r.Context(), skip, limit)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stocks)
}

// Get returns a stock by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	stock, err := h.service.Get(r.Context(), chi.URLParam(r, "stock_id"))
	if h.respondStock(w, err) {
		writeJSON(w, http.StatusOK, stock)
	}
}

// Update applies a partial update to a stock.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var upd models.StockUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	stock, err := h.service.Update(r.Context(), chi.URLParam(r, "stock_id"), upd)
	if errors.Is(err, store.ErrDuplicateSymbol) {
		http.Error(w, `{"error":"symbol already exists"}`, http.StatusBadRequest)
		return
	}
	if h.respondStock(w, err) {
		writeJSON(w, http.StatusOK, stock)
	}
}

// Delete removes a stock.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), chi.URLParam(r, "stock_id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"stock not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondStock(w http.ResponseWriter, err error) bool {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"stock not found"}`, http.StatusNotFound)
		return false
	}
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func pagination(r *http.Request, defaultLimit int64) (skip, limit int64) {
	limit = defaultLimit
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			skip = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			limit = n
		}
	}
	return skip, limit
}
