package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kimhsiao/merchsync/internal/cache"
	"github.com/kimhsiao/merchsync/internal/services"
)

// CacheHandler handles snapshot read and maintenance endpoints.
type CacheHandler struct {
	svc *services.OfflineService
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(svc *services.OfflineService) *CacheHandler {
	return &CacheHandler{svc: svc}
}

// GetInfo handles GET /cache/info
// Returns the diagnostic summary of the offline state.
func (h *CacheHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.svc.CacheInfo())
}

// GetSnapshot handles GET /cache
// Returns the full cached snapshot (empty sentinel when expired or absent).
func (h *CacheHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.svc.CachedData())
}

// GetProducts handles GET /cache/products
func (h *CacheHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	products := h.svc.CachedProducts()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"products": products,
		"count":    len(products),
		"valid":    h.svc.IsCacheValid(),
	})
}

// GetOrders handles GET /cache/orders
func (h *CacheHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.svc.CachedOrders()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"orders": orders,
		"count":  len(orders),
		"valid":  h.svc.IsCacheValid(),
	})
}

// GetCashbackRequests handles GET /cache/cashback-requests
func (h *CacheHandler) GetCashbackRequests(w http.ResponseWriter, r *http.Request) {
	requests := h.svc.CachedCashbackRequests()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"cashback_requests": requests,
		"count":             len(requests),
		"valid":             h.svc.IsCacheValid(),
	})
}

// PutSnapshot handles PUT /cache
// Merges a partial snapshot from the backend; omitted collections keep
// their cached values.
func (h *CacheHandler) PutSnapshot(w http.ResponseWriter, r *http.Request) {
	var partial cache.Partial
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.svc.CacheData(partial)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "success",
	})
}

// Clear handles DELETE /cache
// Wipes snapshot, queue, dead letters and drain bookkeeping.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearCache()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "Offline state cleared",
	})
}
