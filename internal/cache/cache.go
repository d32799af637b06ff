// Package cache provides the durable, time-boxed snapshot store for
// merchant entities. Reads go through the snapshot while it is valid;
// writes replace it wholesale with the shared timestamps restamped.
package cache

import (
	"encoding/json"
	"time"

	"github.com/kimhsiao/merchsync/internal/db"
	"github.com/kimhsiao/merchsync/internal/errors"
	"github.com/kimhsiao/merchsync/internal/logging"
	"github.com/kimhsiao/merchsync/internal/models"
)

// DefaultDuration is how long a written snapshot stays valid.
const DefaultDuration = 24 * time.Hour

// KV is the persistent key-value capability the store writes through.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Store is the snapshot cache. All failure modes degrade to the empty
// sentinel; no method surfaces storage errors to the caller.
type Store struct {
	kv       KV
	duration time.Duration
}

// NewStore creates a snapshot store over kv. A non-positive duration
// falls back to DefaultDuration.
func NewStore(kv KV, duration time.Duration) *Store {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Store{kv: kv, duration: duration}
}

// Partial is a partial snapshot write. Nil collections are preserved
// from the prior snapshot; non-nil collections replace theirs wholesale.
type Partial struct {
	Products         []models.Product         `json:"products,omitempty"`
	Orders           []models.Order           `json:"orders,omitempty"`
	CashbackRequests []models.CashbackRequest `json:"cashback_requests,omitempty"`
}

// CacheData merges the supplied collections into the current snapshot,
// restamps the shared timestamps, and persists the result as one record.
// Cache writes are best-effort: failures are logged, never returned.
func (s *Store) CacheData(p Partial) {
	snap := s.Snapshot()

	if p.Products != nil {
		snap.Products = p.Products
	}
	if p.Orders != nil {
		snap.Orders = p.Orders
	}
	if p.CashbackRequests != nil {
		snap.CashbackRequests = p.CashbackRequests
	}

	now := time.Now()
	snap.SchemaVersion = models.SnapshotSchemaVersion
	snap.LastSyncAt = now.UnixMilli()
	snap.ExpiresAt = now.Add(s.duration).UnixMilli()

	data, err := json.Marshal(snap)
	if err != nil {
		logging.ErrorWithCode("Failed to serialize cache snapshot", string(errors.ErrCacheWrite), err)
		return
	}
	if err := s.kv.Set(db.KeyOfflineCache, data); err != nil {
		logging.ErrorWithCode("Failed to persist cache snapshot", string(errors.ErrCacheWrite), err)
	}
}

// Snapshot returns the current snapshot. A missing, corrupt,
// unknown-version or expired record yields the empty sentinel; the
// stored record is left in place on expiry (logical deletion).
func (s *Store) Snapshot() *models.CachedSnapshot {
	data, ok, err := s.kv.Get(db.KeyOfflineCache)
	if err != nil {
		logging.ErrorWithCode("Failed to read cache snapshot", string(errors.ErrCacheRead), err)
		return models.EmptySnapshot()
	}
	if !ok {
		return models.EmptySnapshot()
	}

	var snap models.CachedSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logging.ErrorWithCode("Corrupt cache snapshot, falling back to empty", string(errors.ErrCorrupt), err)
		return models.EmptySnapshot()
	}
	if snap.SchemaVersion != models.SnapshotSchemaVersion {
		logging.Warn("Unknown cache snapshot schema version, falling back to empty",
			map[string]interface{}{"schema_version": snap.SchemaVersion})
		return models.EmptySnapshot()
	}
	if !snap.ValidAt(time.Now()) {
		return models.EmptySnapshot()
	}

	// Keep the empty-sentinel shape stable for callers
	if snap.Products == nil {
		snap.Products = []models.Product{}
	}
	if snap.Orders == nil {
		snap.Orders = []models.Order{}
	}
	if snap.CashbackRequests == nil {
		snap.CashbackRequests = []models.CashbackRequest{}
	}
	return &snap
}

// Valid reports whether a non-empty, unexpired snapshot exists.
func (s *Store) Valid() bool {
	return !s.Snapshot().IsEmpty()
}

// Clear removes the stored snapshot. Idempotent.
func (s *Store) Clear() {
	if err := s.kv.Delete(db.KeyOfflineCache); err != nil {
		logging.ErrorWithCode("Failed to clear cache snapshot", string(errors.ErrCacheWrite), err)
	}
}

// Products returns the cached product collection.
func (s *Store) Products() []models.Product {
	return s.Snapshot().Products
}

// Orders returns the cached order collection.
func (s *Store) Orders() []models.Order {
	return s.Snapshot().Orders
}

// CashbackRequests returns the cached cashback request collection.
func (s *Store) CashbackRequests() []models.CashbackRequest {
	return s.Snapshot().CashbackRequests
}

// Info is a diagnostic summary of the cache state.
type Info struct {
	Products         int   `json:"products"`
	Orders           int   `json:"orders"`
	CashbackRequests int   `json:"cashback_requests"`
	LastSyncAt       int64 `json:"last_sync_at"`
	Expired          bool  `json:"expired"`
}

// Info returns counts and expiry state for diagnostics. Expired is true
// whenever no valid snapshot is readable, including the never-written case.
func (s *Store) Info() Info {
	snap := s.Snapshot()
	return Info{
		Products:         len(snap.Products),
		Orders:           len(snap.Orders),
		CashbackRequests: len(snap.CashbackRequests),
		LastSyncAt:       snap.LastSyncAt,
		Expired:          snap.IsEmpty(),
	}
}
