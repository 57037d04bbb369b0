package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/biguard/biguard/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidSegment     = errors.New("invalid data segment")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidModel       = errors.New("invalid risk model")
	ErrInvalidRecord      = errors.New("invalid quarantine record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateSegment ensures the segment is a known tag.
func validateSegment(segment model.DataSegment) error {
	if !segment.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSegment, segment)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTransaction)
	}
	if err := validateSegment(txn.Segment); err != nil {
		return err
	}
	return nil
}

// validateRiskModel validates a risk model before persistence.
func validateRiskModel(riskModel *model.RiskModel) error {
	if riskModel == nil {
		return fmt.Errorf("%w: risk model", ErrNilParameter)
	}
	if riskModel.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidModel)
	}
	if err := validateSegment(riskModel.Segment); err != nil {
		return err
	}
	if len(riskModel.Artifact) == 0 {
		return fmt.Errorf("%w: empty artifact", ErrInvalidModel)
	}
	if riskModel.SampleCount <= 0 {
		return fmt.Errorf("%w: sample count must be positive", ErrInvalidModel)
	}
	return nil
}

// validateQuarantineRecord validates a quarantine record before insert.
func validateQuarantineRecord(record *model.QuarantineRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if record.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRecord)
	}
	if record.TransactionID == "" {
		return fmt.Errorf("%w: missing transaction ID", ErrInvalidRecord)
	}
	if record.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidRecord)
	}
	if err := validateSegment(record.Segment); err != nil {
		return err
	}
	return nil
}
