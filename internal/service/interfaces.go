// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/biguard/biguard/internal/model"
)

// TransactionStore defines the contract for the active transaction ledger.
type TransactionStore interface {
	// SaveTransactions persists a batch of transactions, ignoring duplicates.
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	// GetTransactions returns transactions for a (user, segment) pair sorted
	// by date descending. A limit of 0 means no limit.
	GetTransactions(ctx context.Context, userID string, segment model.DataSegment, limit int) ([]model.Transaction, error)
	// GetTransactionByID returns a single transaction or common.ErrNotFound.
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	// DeleteTransaction removes a transaction from the active ledger.
	DeleteTransaction(ctx context.Context, id string) error
	// CountTransactions returns the number of active transactions for a pair.
	CountTransactions(ctx context.Context, userID string, segment model.DataSegment) (int, error)
}

// ModelStore persists fitted risk models keyed by (user, segment).
type ModelStore interface {
	// SaveModel upserts the model for its (user, segment) pair.
	SaveModel(ctx context.Context, riskModel *model.RiskModel) error
	// GetModel returns the stored model or common.ErrNotFound.
	GetModel(ctx context.Context, userID string, segment model.DataSegment) (*model.RiskModel, error)
	// ModelExists reports whether a model is stored for the pair.
	ModelExists(ctx context.Context, userID string, segment model.DataSegment) (bool, error)
}

// QuarantineStore persists blocked transactions with their verdicts.
type QuarantineStore interface {
	// InsertQuarantine stores a record; inserting the same transaction ID
	// twice returns common.ErrDuplicateEntry.
	InsertQuarantine(ctx context.Context, record *model.QuarantineRecord) error
	// GetQuarantineByTransactionID returns the record for a transaction or
	// common.ErrNotFound.
	GetQuarantineByTransactionID(ctx context.Context, transactionID string) (*model.QuarantineRecord, error)
	// GetQuarantined returns all records for a pair sorted by detection time
	// descending.
	GetQuarantined(ctx context.Context, userID string, segment model.DataSegment) ([]model.QuarantineRecord, error)
	// DeleteQuarantined removes all records for a pair and returns the count.
	DeleteQuarantined(ctx context.Context, userID string, segment model.DataSegment) (int, error)
}

// Storage is the full persistence contract implemented by the SQLite layer.
type Storage interface {
	TransactionStore
	ModelStore
	QuarantineStore

	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations that may fail
// transiently.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// QuarantineSummary aggregates a user's quarantined transactions.
type QuarantineSummary struct {
	RiskLevel      string
	Recent         []model.QuarantineRecord
	Total          int
	HighSeverity   int
	MediumSeverity int
	LowSeverity    int
}
