package detector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/biguard/biguard/internal/common"
	"github.com/biguard/biguard/internal/metrics"
	"github.com/biguard/biguard/internal/model"
	"github.com/biguard/biguard/internal/service"
)

// recentLimit caps the number of records returned in a summary.
const recentLimit = 10

// QuarantineManager is the only writer of the quarantine store and the
// only remover from the active ledger. Moving a transaction is treated
// as a single logical transition: the record is inserted first, and the
// transaction-ID uniqueness constraint plus a per-transaction critical
// section make a replayed or concurrent quarantine converge on one
// record and one deletion.
type QuarantineManager struct {
	transactions service.TransactionStore
	quarantine   service.QuarantineStore
	collector    *metrics.Collector
	locks        map[string]*sync.Mutex
	cfg          Config
	mu           sync.Mutex
}

// NewQuarantineManager creates a quarantine manager with the given store
// dependencies.
func NewQuarantineManager(transactions service.TransactionStore, quarantine service.QuarantineStore, cfg Config, collector *metrics.Collector) *QuarantineManager {
	return &QuarantineManager{
		transactions: transactions,
		quarantine:   quarantine,
		cfg:          cfg,
		collector:    collector,
		locks:        make(map[string]*sync.Mutex),
	}
}

// Quarantine moves a blocked transaction out of the active ledger and
// records it with its verdict. Quarantining an already-quarantined
// transaction returns the existing record without a second deletion.
func (m *QuarantineManager) Quarantine(ctx context.Context, txn *model.Transaction, verdict *model.AnomalyVerdict) (*model.QuarantineRecord, error) {
	if verdict == nil || !verdict.Blocked {
		return nil, fmt.Errorf("%w: transaction %s", common.ErrNotBlocked, txn.ID)
	}

	lock := m.transactionLock(txn.ID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := m.quarantine.GetQuarantineByTransactionID(ctx, txn.ID)
	if err == nil {
		slog.Debug("Transaction already quarantined", "transaction_id", txn.ID)
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	record := &model.QuarantineRecord{
		ID:            uuid.NewString(),
		TransactionID: txn.ID,
		UserID:        txn.UserID,
		Segment:       txn.Segment,
		Date:          txn.Date,
		Name:          txn.Name,
		Category:      txn.Category,
		AccountID:     txn.AccountID,
		Description:   txn.Description,
		Amount:        txn.Amount,
		IsExpense:     txn.IsExpense,
		Score:         verdict.Score,
		Severity:      verdict.Severity,
		Reasons:       verdict.Reasons,
		Status:        model.QuarantineStatusBlocked,
		DetectedAt:    verdict.DetectedAt,
	}

	if err := m.quarantine.InsertQuarantine(ctx, record); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			// Lost a race with another process sharing the store.
			return m.quarantine.GetQuarantineByTransactionID(ctx, txn.ID)
		}
		return nil, err
	}

	if err := m.transactions.DeleteTransaction(ctx, txn.ID); err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			// The record is in place; the unique transaction ID keeps a
			// retried quarantine from double-counting it.
			return nil, fmt.Errorf("quarantined but failed to remove from active ledger: %w", err)
		}
	}

	m.collector.RecordQuarantine()
	slog.Info("Transaction quarantined",
		"transaction_id", txn.ID,
		"user_id", txn.UserID,
		"severity", verdict.Severity,
		"score", verdict.Score)

	return record, nil
}

// Summarize aggregates the pair's quarantine records into totals,
// per-severity counts, an overall risk level, and the most recent
// records.
func (m *QuarantineManager) Summarize(ctx context.Context, userID string, segment model.DataSegment) (*service.QuarantineSummary, error) {
	records, err := m.quarantine.GetQuarantined(ctx, userID, segment)
	if err != nil {
		return nil, err
	}

	summary := &service.QuarantineSummary{
		Total:     len(records),
		RiskLevel: "low",
	}

	for _, record := range records {
		switch record.Severity {
		case model.SeverityHigh:
			summary.HighSeverity++
		case model.SeverityMedium:
			summary.MediumSeverity++
		case model.SeverityLow:
			summary.LowSeverity++
		case model.SeverityNone:
		}
	}

	switch {
	case summary.HighSeverity > 0:
		summary.RiskLevel = "high"
	case summary.MediumSeverity > m.cfg.MediumRiskCount:
		summary.RiskLevel = "medium"
	}

	if len(records) > recentLimit {
		records = records[:recentLimit]
	}
	summary.Recent = records

	return summary, nil
}

// Clear bulk-deletes the pair's quarantine records and returns the count
// removed. The original transactions are not restored to the active
// ledger.
func (m *QuarantineManager) Clear(ctx context.Context, userID string, segment model.DataSegment) (int, error) {
	removed, err := m.quarantine.DeleteQuarantined(ctx, userID, segment)
	if err != nil {
		return 0, err
	}

	slog.Info("Cleared quarantine records",
		"user_id", userID,
		"segment", segment,
		"removed", removed)
	return removed, nil
}

func (m *QuarantineManager) transactionLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	return lock
}
