package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/biguard/biguard/internal/common"
	"github.com/biguard/biguard/internal/model"
)

// SaveTransactions saves multiple transactions to the active ledger,
// ignoring duplicates by hash.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", common.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, hash, user_id, segment, date, name, merchant_name,
			description, category, account_id, amount, is_expense
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, txn := range transactions {
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}

		if _, err := stmt.ExecContext(ctx,
			txn.ID,
			txn.Hash,
			txn.UserID,
			string(txn.Segment),
			txn.Date,
			txn.Name,
			txn.MerchantName,
			txn.Description,
			txn.Category,
			txn.AccountID,
			txn.Amount,
			txn.IsExpense,
		); err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
		}
	}

	return tx.Commit()
}

// GetTransactions returns the pair's transactions sorted by date
// descending. A limit of 0 returns all of them.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, userID string, segment model.DataSegment, limit int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateSegment(segment); err != nil {
		return nil, err
	}

	query := `
		SELECT id, hash, user_id, segment, date, name, merchant_name,
		       description, category, account_id, amount, is_expense
		FROM transactions
		WHERE user_id = ? AND segment = ?
		ORDER BY date DESC`
	args := []any{userID, string(segment)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query transactions: %v", common.ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *txn)
	}

	return transactions, rows.Err()
}

// GetTransactionByID returns a single transaction or common.ErrNotFound.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, hash, user_id, segment, date, name, merchant_name,
		       description, category, account_id, amount, is_expense
		FROM transactions
		WHERE id = ?`, id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	return txn, err
}

// DeleteTransaction removes a transaction from the active ledger.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete transaction: %v", common.ErrStoreUnavailable, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	return nil
}

// CountTransactions returns the number of active transactions for a pair.
func (s *SQLiteStorage) CountTransactions(ctx context.Context, userID string, segment model.DataSegment) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return 0, err
	}
	if err := validateSegment(segment); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE user_id = ? AND segment = ?",
		userID, string(segment)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count transactions: %v", common.ErrStoreUnavailable, err)
	}
	return count, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var segment string
	var merchantName, description, category, accountID sql.NullString

	err := row.Scan(
		&txn.ID,
		&txn.Hash,
		&txn.UserID,
		&segment,
		&txn.Date,
		&txn.Name,
		&merchantName,
		&description,
		&category,
		&accountID,
		&txn.Amount,
		&txn.IsExpense,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.Segment = model.DataSegment(segment)
	txn.MerchantName = merchantName.String
	txn.Description = description.String
	txn.Category = category.String
	txn.AccountID = accountID.String
	return &txn, nil
}
