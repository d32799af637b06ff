// Package models provides data model definitions for the MerchSync core.
package models

import (
	"database/sql/driver"
	"time"
)

// UUID is a wrapper around string for UUID v4 type safety.
type UUID string

// Value implements driver.Valuer for UUID.
func (u UUID) Value() (driver.Value, error) {
	return string(u), nil
}

// Scan implements sql.Scanner for UUID.
func (u *UUID) Scan(value interface{}) error {
	if value == nil {
		*u = ""
		return nil
	}
	*u = UUID(value.([]byte))
	return nil
}

// String returns the string representation of the UUID.
func (u UUID) String() string {
	return string(u)
}

// Product represents a catalog product as the backend returns it.
type Product struct {
	ID          UUID   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price"` // Minor currency units
	Stock       int    `json:"stock"`
	Category    string `json:"category,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (p *Product) CreatedAtTime() time.Time {
	return time.Unix(p.CreatedAt, 0)
}

// Touch updates the UpdatedAt timestamp.
func (p *Product) Touch() {
	p.UpdatedAt = time.Now().Unix()
}
