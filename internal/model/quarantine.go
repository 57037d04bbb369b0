package model

import "time"

// Quarantine record status values.
const (
	QuarantineStatusBlocked = "blocked"
	QuarantineStatusCleared = "cleared"
)

// QuarantineRecord is a denormalized copy of a blocked transaction plus
// the verdict that blocked it. Records are created exclusively by the
// quarantine manager, which removes the original transaction from the
// active ledger in the same logical step.
type QuarantineRecord struct {
	DetectedAt    time.Time
	Date          time.Time
	ID            string
	UserID        string
	TransactionID string
	Name          string
	Category      string
	AccountID     string
	Description   string
	Status        string
	Segment       DataSegment
	Severity      Severity
	Reasons       []string
	Amount        float64
	Score         float64
	IsExpense     bool
}
