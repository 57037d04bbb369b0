package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/biguard/biguard/internal/common"
	"github.com/biguard/biguard/internal/model"
)

// InsertQuarantine stores a quarantine record. Inserting a record for a
// transaction that is already quarantined returns common.ErrDuplicateEntry.
func (s *SQLiteStorage) InsertQuarantine(ctx context.Context, record *model.QuarantineRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateQuarantineRecord(record); err != nil {
		return err
	}

	reasonsJSON := ""
	if len(record.Reasons) > 0 {
		data, err := json.Marshal(record.Reasons)
		if err != nil {
			return fmt.Errorf("failed to marshal reasons: %w", err)
		}
		reasonsJSON = string(data)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quarantined_transactions (
			id, transaction_id, user_id, segment, date, name, category,
			account_id, description, amount, is_expense, score, severity,
			reasons, status, detected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.TransactionID,
		record.UserID,
		string(record.Segment),
		record.Date,
		record.Name,
		record.Category,
		record.AccountID,
		record.Description,
		record.Amount,
		record.IsExpense,
		record.Score,
		string(record.Severity),
		reasonsJSON,
		record.Status,
		record.DetectedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transaction %s already quarantined",
				common.ErrDuplicateEntry, record.TransactionID)
		}
		return fmt.Errorf("%w: failed to insert quarantine record: %v", common.ErrStoreUnavailable, err)
	}
	return nil
}

// GetQuarantineByTransactionID returns the record quarantining a
// transaction or common.ErrNotFound.
func (s *SQLiteStorage) GetQuarantineByTransactionID(ctx context.Context, transactionID string) (*model.QuarantineRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, quarantineSelect+" WHERE transaction_id = ?", transactionID)
	record, err := scanQuarantineRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: quarantine record for transaction %s", common.ErrNotFound, transactionID)
	}
	return record, err
}

// GetQuarantined returns all records for a pair, most recent detection
// first.
func (s *SQLiteStorage) GetQuarantined(ctx context.Context, userID string, segment model.DataSegment) ([]model.QuarantineRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateSegment(segment); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		quarantineSelect+` WHERE user_id = ? AND segment = ? ORDER BY detected_at DESC`,
		userID, string(segment))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query quarantine records: %v", common.ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.QuarantineRecord
	for rows.Next() {
		record, err := scanQuarantineRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	return records, rows.Err()
}

// DeleteQuarantined removes all records for a pair and returns the count.
func (s *SQLiteStorage) DeleteQuarantined(ctx context.Context, userID string, segment model.DataSegment) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return 0, err
	}
	if err := validateSegment(segment); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM quarantined_transactions WHERE user_id = ? AND segment = ?",
		userID, string(segment))
	if err != nil {
		return 0, fmt.Errorf("%w: failed to delete quarantine records: %v", common.ErrStoreUnavailable, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check delete result: %w", err)
	}
	return int(affected), nil
}

const quarantineSelect = `
	SELECT id, transaction_id, user_id, segment, date, name, category,
	       account_id, description, amount, is_expense, score, severity,
	       reasons, status, detected_at
	FROM quarantined_transactions`

func scanQuarantineRecord(row rowScanner) (*model.QuarantineRecord, error) {
	var record model.QuarantineRecord
	var segment, severity, reasonsJSON string
	var category, accountID, description sql.NullString

	err := row.Scan(
		&record.ID,
		&record.TransactionID,
		&record.UserID,
		&segment,
		&record.Date,
		&record.Name,
		&category,
		&accountID,
		&description,
		&record.Amount,
		&record.IsExpense,
		&record.Score,
		&severity,
		&reasonsJSON,
		&record.Status,
		&record.DetectedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan quarantine record: %w", err)
	}

	record.Segment = model.DataSegment(segment)
	record.Severity = model.Severity(severity)
	record.Category = category.String
	record.AccountID = accountID.String
	record.Description = description.String
	if reasonsJSON != "" {
		if err := json.Unmarshal([]byte(reasonsJSON), &record.Reasons); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reasons: %w", err)
		}
	}
	return &record, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
