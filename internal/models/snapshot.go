// Package models provides data model definitions for the MerchSync core.
package models

import "time"

// SnapshotSchemaVersion is the persisted format version of CachedSnapshot.
// Readers treat an unknown version like a corrupt record.
const SnapshotSchemaVersion = 1

// CachedSnapshot holds the full set of cached entity collections plus the
// shared sync timestamps. It is persisted and replaced as a single unit.
type CachedSnapshot struct {
	SchemaVersion    int               `json:"schema_version"`
	Products         []Product         `json:"products"`
	Orders           []Order           `json:"orders"`
	CashbackRequests []CashbackRequest `json:"cashback_requests"`
	LastSyncAt       int64             `json:"last_sync_at"` // Unix ms; 0 means empty sentinel
	ExpiresAt        int64             `json:"expires_at"`   // Unix ms
}

// EmptySnapshot returns the empty sentinel snapshot.
// LastSyncAt == 0 marks a snapshot that was never written.
func EmptySnapshot() *CachedSnapshot {
	return &CachedSnapshot{
		SchemaVersion:    SnapshotSchemaVersion,
		Products:         []Product{},
		Orders:           []Order{},
		CashbackRequests: []CashbackRequest{},
	}
}

// IsEmpty reports whether the snapshot is the empty sentinel.
func (s *CachedSnapshot) IsEmpty() bool {
	return s.LastSyncAt == 0
}

// ValidAt reports whether the snapshot is usable at the given instant.
func (s *CachedSnapshot) ValidAt(now time.Time) bool {
	return s.LastSyncAt > 0 && now.UnixMilli() < s.ExpiresAt
}

// LastSyncTime returns LastSyncAt as time.Time.
func (s *CachedSnapshot) LastSyncTime() time.Time {
	return time.UnixMilli(s.LastSyncAt)
}
