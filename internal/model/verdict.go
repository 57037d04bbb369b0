package model

import "time"

// Severity classifies how suspicious a scored transaction is.
type Severity string

// Severity tiers, lowest to highest. SeverityLow exists in the taxonomy
// but the current threshold arrangement never produces it; both bands at
// or above the blocking threshold map to medium or high.
const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// AnomalyVerdict is the transient result of scoring one transaction.
// It is either discarded (score below the flag threshold) or converted
// into a QuarantineRecord; it is never persisted on its own.
type AnomalyVerdict struct {
	DetectedAt      time.Time
	TransactionID   string
	TransactionName string
	Category        string
	Severity        Severity
	Reasons         []string
	Amount          float64
	Score           float64
	Blocked         bool
}
