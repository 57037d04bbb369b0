// Package model defines the core domain types shared across the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"math"
	"time"
)

// DataSegment isolates demonstration data from live data. A model trained
// on one segment is never used to score the other.
type DataSegment string

// Known data segments.
const (
	SegmentSample DataSegment = "sample"
	SegmentReal   DataSegment = "real"
)

// Valid reports whether the segment is one of the known tags.
func (s DataSegment) Valid() bool {
	return s == SegmentSample || s == SegmentReal
}

// Transaction represents a single financial transaction in the active ledger.
type Transaction struct {
	Date         time.Time
	ID           string
	UserID       string
	Name         string // Raw transaction descriptor
	MerchantName string
	Description  string
	Category     string
	AccountID    string
	Hash         string
	Segment      DataSegment
	Amount       float64 // Signed; negative for most expenses
	IsExpense    bool
}

// Magnitude returns the currency-less absolute amount.
func (t *Transaction) Magnitude() float64 {
	return math.Abs(t.Amount)
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%.2f:%s:%s",
		t.UserID,
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Name,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
