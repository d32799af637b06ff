package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/kimhsiao/merchsync/internal/errors"
	"github.com/kimhsiao/merchsync/internal/models"
	"github.com/kimhsiao/merchsync/internal/services"
)

// ActionsHandler handles queueing of offline mutations.
type ActionsHandler struct {
	svc   *services.OfflineService
	wsHub WSActionBroadcaster
}

// WSActionBroadcaster interface for queue WebSocket events.
type WSActionBroadcaster interface {
	BroadcastActionQueued(action *models.OfflineAction, pending int)
}

// NewActionsHandler creates a new ActionsHandler.
func NewActionsHandler(svc *services.OfflineService) *ActionsHandler {
	return &ActionsHandler{svc: svc}
}

// SetWebSocketHub sets the WebSocket hub for broadcasting queue events.
func (h *ActionsHandler) SetWebSocketHub(wsHub WSActionBroadcaster) {
	h.wsHub = wsHub
}

// writeQueued writes the standard response for a queued action and
// broadcasts it. A full queue maps to 409, anything else to 500.
func (h *ActionsHandler) writeQueued(w http.ResponseWriter, action *models.OfflineAction, err error) {
	if err != nil {
		if apperrors.Is(err, apperrors.ErrQueueFull) {
			http.Error(w, "Action queue is full", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to queue action", http.StatusInternalServerError)
		return
	}

	if h.wsHub != nil {
		h.wsHub.BroadcastActionQueued(action, len(h.svc.PendingActions()))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "queued",
		"action": action,
	})
}

// CreateProduct handles POST /actions/products
// Queues creation of a product for replay on reconnect.
func (h *ActionsHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var payload models.ProductPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	action, err := h.svc.QueueProductCreate(payload)
	h.writeQueued(w, action, err)
}

// UpdateProduct handles PUT /actions/products/{id}
func (h *ActionsHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	if productID == "" {
		http.Error(w, "product id is required", http.StatusBadRequest)
		return
	}

	var payload models.ProductPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	action, err := h.svc.QueueProductUpdate(productID, payload)
	h.writeQueued(w, action, err)
}

// DeleteProduct handles DELETE /actions/products/{id}
func (h *ActionsHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	if productID == "" {
		http.Error(w, "product id is required", http.StatusBadRequest)
		return
	}

	action, err := h.svc.QueueProductDelete(productID)
	h.writeQueued(w, action, err)
}

// UpdateOrder handles PUT /actions/orders/{id}
// Queues an order status change.
func (h *ActionsHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	if orderID == "" {
		http.Error(w, "order id is required", http.StatusBadRequest)
		return
	}

	var payload models.OrderStatusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.Status == "" {
		http.Error(w, "status is required", http.StatusBadRequest)
		return
	}

	action, err := h.svc.QueueOrderUpdate(orderID, payload)
	h.writeQueued(w, action, err)
}

// ApproveCashback handles POST /actions/cashback/{id}/approve
func (h *ActionsHandler) ApproveCashback(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	if requestID == "" {
		http.Error(w, "request id is required", http.StatusBadRequest)
		return
	}

	action, err := h.svc.QueueCashbackApproval(requestID)
	h.writeQueued(w, action, err)
}

// RejectCashback handles POST /actions/cashback/{id}/reject
func (h *ActionsHandler) RejectCashback(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	if requestID == "" {
		http.Error(w, "request id is required", http.StatusBadRequest)
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	action, err := h.svc.QueueCashbackRejection(requestID, body.Reason)
	h.writeQueued(w, action, err)
}
