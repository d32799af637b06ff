// Package handlers provides REST API handlers for the offline core:
// sync operations, cached reads and queued mutations.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kimhsiao/merchsync/internal/models"
	"github.com/kimhsiao/merchsync/internal/services"
)

// SyncHandler handles drain status and trigger endpoints.
type SyncHandler struct {
	svc *services.OfflineService
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(svc *services.OfflineService) *SyncHandler {
	return &SyncHandler{svc: svc}
}

// GetStatus handles GET /sync/status
// Returns connectivity, drain state and pending/dropped counts.
func (h *SyncHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	info := h.svc.CacheInfo()

	response := map[string]interface{}{
		"online":          info.Online,
		"draining":        info.Draining,
		"pending_actions": info.PendingActions,
		"dropped_actions": info.DroppedActions,
	}
	if info.LastDrainAt > 0 {
		response["last_drain_at"] = info.LastDrainAt
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// TriggerSync handles POST /sync/now
// Runs one drain pass immediately and reports its result. A pass
// already in flight yields a zero result with drained=false.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.svc.CacheInfo().Draining {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"drained": false,
			"reason":  "drain already in progress",
		})
		return
	}

	result := h.svc.SyncOfflineActions(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"drained":    true,
		"successful": result.Successful,
		"failed":     result.Failed,
		"remaining":  len(h.svc.PendingActions()),
	})
}

// ListActions handles GET /sync/actions
// Returns the pending action queue, oldest first.
func (h *SyncHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	actions := h.svc.PendingActions()
	if actions == nil {
		actions = []models.OfflineAction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"actions": actions,
		"count":   len(actions),
	})
}

// ListDeadLetters handles GET /sync/dead-letters
// Returns actions dropped at their retry ceiling.
func (h *SyncHandler) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	dead := h.svc.DeadLetters()
	if dead == nil {
		dead = []models.DeadAction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"dead_letters": dead,
		"count":        len(dead),
	})
}
