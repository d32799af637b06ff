// Package models provides data model definitions for the MerchSync core.
package models

// Cashback request statuses.
const (
	CashbackStatusPending  = "pending"
	CashbackStatusApproved = "approved"
	CashbackStatusRejected = "rejected"
)

// CashbackRequest represents a customer cashback claim awaiting a
// merchant decision.
type CashbackRequest struct {
	ID           UUID   `json:"id"`
	OrderID      UUID   `json:"order_id"`
	CustomerName string `json:"customer_name"`
	Amount       int64  `json:"amount"` // Minor currency units
	Reason       string `json:"reason,omitempty"`
	Status       string `json:"status"`
	CreatedAt    int64  `json:"created_at"`
	DecidedAt    int64  `json:"decided_at,omitempty"`
}
