// Package services provides the application-facing facade over the
// offline core. UI and transport layers talk to OfflineService; the
// cache, queue and coordinator stay internal details.
package services

import (
	"context"

	"github.com/kimhsiao/merchsync/internal/cache"
	"github.com/kimhsiao/merchsync/internal/logging"
	"github.com/kimhsiao/merchsync/internal/models"
	"github.com/kimhsiao/merchsync/internal/netwatch"
	"github.com/kimhsiao/merchsync/internal/queue"
	"github.com/kimhsiao/merchsync/internal/syncer"
)

// OfflineService is the public surface of the offline core.
type OfflineService struct {
	cache   *cache.Store
	queue   *queue.Queue
	coord   *syncer.Coordinator
	watcher *netwatch.Watcher
}

// NewOfflineService wires the facade over its collaborators.
func NewOfflineService(c *cache.Store, q *queue.Queue, coord *syncer.Coordinator, w *netwatch.Watcher) *OfflineService {
	return &OfflineService{cache: c, queue: q, coord: coord, watcher: w}
}

// Start begins connectivity watching and reconnect-triggered draining.
func (s *OfflineService) Start(ctx context.Context) {
	s.coord.Start()
	s.watcher.Start(ctx)
}

// Stop tears down the background loops. A drain in progress completes.
func (s *OfflineService) Stop() {
	s.watcher.Stop()
	s.coord.Stop()
}

// ── Queue operations ─────────────────────────────────────

// QueueProductCreate queues creation of a product.
func (s *OfflineService) QueueProductCreate(p models.ProductPayload) (*models.OfflineAction, error) {
	return s.queue.QueueProductCreate(p)
}

// QueueProductUpdate queues an update of a product.
func (s *OfflineService) QueueProductUpdate(productID string, p models.ProductPayload) (*models.OfflineAction, error) {
	return s.queue.QueueProductUpdate(productID, p)
}

// QueueProductDelete queues deletion of a product.
func (s *OfflineService) QueueProductDelete(productID string) (*models.OfflineAction, error) {
	return s.queue.QueueProductDelete(productID)
}

// QueueOrderUpdate queues an order status change.
func (s *OfflineService) QueueOrderUpdate(orderID string, p models.OrderStatusPayload) (*models.OfflineAction, error) {
	return s.queue.QueueOrderUpdate(orderID, p)
}

// QueueCashbackApproval queues approval of a cashback request.
func (s *OfflineService) QueueCashbackApproval(requestID string) (*models.OfflineAction, error) {
	return s.queue.QueueCashbackApproval(requestID)
}

// QueueCashbackRejection queues rejection of a cashback request.
func (s *OfflineService) QueueCashbackRejection(requestID, reason string) (*models.OfflineAction, error) {
	return s.queue.QueueCashbackRejection(requestID, reason)
}

// PendingActions returns the queued actions, oldest first.
func (s *OfflineService) PendingActions() []models.OfflineAction {
	return s.queue.Actions()
}

// DeadLetters returns actions dropped at their retry ceiling.
func (s *OfflineService) DeadLetters() []models.DeadAction {
	return s.queue.DeadLetters()
}

// ── Cache operations ─────────────────────────────────────

// CacheData writes a partial snapshot; omitted collections are kept.
func (s *OfflineService) CacheData(p cache.Partial) {
	s.cache.CacheData(p)
}

// CachedData returns the current snapshot (empty sentinel when invalid).
func (s *OfflineService) CachedData() *models.CachedSnapshot {
	return s.cache.Snapshot()
}

// CachedProducts returns the cached product collection.
func (s *OfflineService) CachedProducts() []models.Product {
	return s.cache.Products()
}

// CachedOrders returns the cached order collection.
func (s *OfflineService) CachedOrders() []models.Order {
	return s.cache.Orders()
}

// CachedCashbackRequests returns the cached cashback requests.
func (s *OfflineService) CachedCashbackRequests() []models.CashbackRequest {
	return s.cache.CashbackRequests()
}

// IsCacheValid reports whether a non-expired snapshot exists.
func (s *OfflineService) IsCacheValid() bool {
	return s.cache.Valid()
}

// ClearCache removes the snapshot, the action queue, the dead-letter
// record and the confirmed-ID bookkeeping. Idempotent.
func (s *OfflineService) ClearCache() {
	s.cache.Clear()
	s.queue.Clear()
	s.coord.Reset()
	logging.Info("Offline state cleared", nil)
}

// ── Sync operations ──────────────────────────────────────

// SyncOfflineActions runs one drain pass. Safe to call anytime; a pass
// already in flight makes this a zero-result no-op.
func (s *OfflineService) SyncOfflineActions(ctx context.Context) syncer.Result {
	return s.coord.SyncOfflineActions(ctx)
}

// IsDeviceOnline reports the last observed connectivity state.
func (s *OfflineService) IsDeviceOnline() bool {
	return s.watcher.Online()
}

// CacheInfo is the diagnostic summary exposed to status UIs.
type CacheInfo struct {
	Cache          cache.Info `json:"cache"`
	PendingActions int        `json:"pending_actions"`
	DroppedActions int        `json:"dropped_actions"`
	Draining       bool       `json:"draining"`
	Online         bool       `json:"online"`
	LastDrainAt    int64      `json:"last_drain_at,omitempty"` // Unix ms
}

// CacheInfo returns the diagnostic summary.
func (s *OfflineService) CacheInfo() CacheInfo {
	lastDrain, _ := s.coord.LastSync()
	info := CacheInfo{
		Cache:          s.cache.Info(),
		PendingActions: s.queue.Size(),
		DroppedActions: len(s.queue.DeadLetters()),
		Draining:       s.coord.Draining(),
		Online:         s.watcher.Online(),
	}
	if !lastDrain.IsZero() {
		info.LastDrainAt = lastDrain.UnixMilli()
	}
	return info
}
