// Package models provides data model definitions for the MerchSync core.
package models

import (
	"encoding/json"
	"time"
)

// ActionSchemaVersion is the persisted format version of the action list.
const ActionSchemaVersion = 1

// ActionType identifies the kind of queued mutation.
type ActionType string

const (
	ActionProductCreate   ActionType = "product.create"
	ActionProductUpdate   ActionType = "product.update"
	ActionProductDelete   ActionType = "product.delete"
	ActionOrderUpdate     ActionType = "order.update"
	ActionCashbackApprove ActionType = "cashback.approve"
	ActionCashbackReject  ActionType = "cashback.reject"
)

// Retry ceilings per action kind. Order and cashback mutations carry
// financial state and get more attempts than catalog edits.
const (
	DefaultMaxRetries  = 3
	CriticalMaxRetries = 5
)

// OfflineAction is a queued mutation awaiting replay against the backend.
type OfflineAction struct {
	ID         string          `json:"id"`
	Type       ActionType      `json:"type"`
	Endpoint   string          `json:"endpoint"`
	Method     string          `json:"method"` // POST, PUT or DELETE
	Payload    json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt int64           `json:"enqueued_at"` // Unix ms, immutable
	RetryCount int             `json:"retry_count"`
	MaxRetries int             `json:"max_retries"`
}

// EnqueuedAtTime returns EnqueuedAt as time.Time.
func (a *OfflineAction) EnqueuedAtTime() time.Time {
	return time.UnixMilli(a.EnqueuedAt)
}

// Exhausted reports whether the action has reached its retry ceiling.
func (a *OfflineAction) Exhausted() bool {
	return a.RetryCount >= a.MaxRetries
}

// DeadAction records a permanently dropped action for later review.
type DeadAction struct {
	Action    OfflineAction `json:"action"`
	LastError string        `json:"last_error"`
	DroppedAt int64         `json:"dropped_at"` // Unix ms
}

// ProductPayload is the request body for product create/update actions.
type ProductPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	Category    string `json:"category,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// OrderStatusPayload is the request body for order update actions.
type OrderStatusPayload struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// CashbackDecisionPayload is the request body for cashback decisions.
type CashbackDecisionPayload struct {
	Decision string `json:"decision"` // approved or rejected
	Reason   string `json:"reason,omitempty"`
}
