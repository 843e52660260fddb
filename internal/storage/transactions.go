package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yobazy/MyFinance/internal/common"
	"github.com/yobazy/MyFinance/internal/model"
	"github.com/yobazy/MyFinance/internal/service"
)

const transactionColumns = "id, date, description, amount, account_id, category_id, suggested_category_id, auto_categorized, confidence_score"

// recurringPrefixLen is how many characters of the description participate in
// recurrence matching.
const recurringPrefixLen = 15

func scanTransaction(row interface{ Scan(...any) error }) (*model.Transaction, error) {
	var txn model.Transaction
	var categoryID, suggestedID sql.NullInt64
	err := row.Scan(&txn.ID, &txn.Date, &txn.Description, &txn.Amount, &txn.AccountID,
		&categoryID, &suggestedID, &txn.AutoCategorized, &txn.ConfidenceScore)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		id := int(categoryID.Int64)
		txn.CategoryID = &id
	}
	if suggestedID.Valid {
		id := int(suggestedID.Int64)
		txn.SuggestedCategoryID = &id
	}
	return &txn, nil
}

// SaveTransactions inserts transactions in a single batch. Existing ids are
// left untouched so re-imports never clobber categorization work.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions
		(id, date, description, amount, account_id, category_id, suggested_category_id, auto_categorized, confidence_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for i := range transactions {
		txn := &transactions[i]
		result, err := stmt.ExecContext(ctx, txn.ID, txn.Date, txn.Description, txn.Amount,
			txn.AccountID, nullableInt(txn.CategoryID), nullableInt(txn.SuggestedCategoryID),
			txn.AutoCategorized, txn.ConfidenceScore)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
		if rows, err := result.RowsAffected(); err == nil && rows > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}

	slog.Info("saved transactions", "total", len(transactions), "inserted", inserted)
	return nil
}

// GetTransactionByID returns a transaction by its id.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

	txn, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}

	return txn, nil
}

// GetUncategorizedTransactions returns uncategorized transactions ordered by
// date descending. A negative limit means no limit.
func (s *SQLiteStorage) GetUncategorizedTransactions(ctx context.Context, limit, offset int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE category_id IS NULL
		ORDER BY date DESC, id
		LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query uncategorized transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTransactions(rows)
}

// CountUncategorizedTransactions returns the number of transactions without a
// category.
func (s *SQLiteStorage) CountUncategorizedTransactions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category_id IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count uncategorized transactions: %w", err)
	}
	return count, nil
}

// GetCategorizedByDescriptionPrefix returns the most recent categorized
// transactions whose description contains the given prefix. accountID and
// excludeID narrow the match when non-empty.
func (s *SQLiteStorage) GetCategorizedByDescriptionPrefix(ctx context.Context, prefix, accountID, excludeID string, limit int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(prefix, "prefix"); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE category_id IS NOT NULL
		  AND instr(UPPER(description), UPPER(?)) > 0`
	args := []any{prefix}

	if accountID != "" {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}
	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}
	query += ` ORDER BY date DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTransactions(rows)
}

// CountRecurringTransactions counts other transactions on the same account
// with the same amount and a description sharing the given transaction's
// leading prefix.
func (s *SQLiteStorage) CountRecurringTransactions(ctx context.Context, txn model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransaction(&txn); err != nil {
		return 0, err
	}

	prefix := txn.Description
	if runes := []rune(prefix); len(runes) > recurringPrefixLen {
		prefix = string(runes[:recurringPrefixLen])
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM transactions
		WHERE account_id = ?
		  AND id != ?
		  AND amount = ?
		  AND instr(UPPER(description), UPPER(?)) > 0`,
		txn.AccountID, txn.ID, txn.Amount, prefix).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recurring transactions: %w", err)
	}
	return count, nil
}

// UpdateTransactionCategory assigns a category to a transaction and records
// how the assignment was made. Any pending suggestion is cleared.
func (s *SQLiteStorage) UpdateTransactionCategory(ctx context.Context, id string, categoryID int, autoCategorized bool, confidence float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?,
		    suggested_category_id = NULL,
		    auto_categorized = ?,
		    confidence_score = ?
		WHERE id = ?`,
		categoryID, autoCategorized, confidence, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction category: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}

	return nil
}

// ClearTransactionCategory removes a transaction's category assignment along
// with its suggestion and confidence.
func (s *SQLiteStorage) ClearTransactionCategory(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = NULL,
		    suggested_category_id = NULL,
		    auto_categorized = 0,
		    confidence_score = 0
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to clear transaction category: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}

	return nil
}

// SetTransactionSuggestion records a suggested category and confidence on a
// transaction without assigning it.
func (s *SQLiteStorage) SetTransactionSuggestion(ctx context.Context, id string, categoryID int, confidence float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET suggested_category_id = ?,
		    confidence_score = ?
		WHERE id = ?`,
		categoryID, confidence, id)
	if err != nil {
		return fmt.Errorf("failed to set transaction suggestion: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}

	return nil
}

// UpdateCategoryForDescription assigns a category to every uncategorized
// transaction whose description equals the given one, ignoring case. It
// returns how many rows changed.
func (s *SQLiteStorage) UpdateCategoryForDescription(ctx context.Context, description string, categoryID int) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(description, "description"); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?,
		    suggested_category_id = NULL,
		    auto_categorized = 1,
		    confidence_score = 0.9
		WHERE category_id IS NULL
		  AND UPPER(description) = UPPER(?)`,
		categoryID, description)
	if err != nil {
		return 0, fmt.Errorf("failed to update transactions by description: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Info("bulk assigned category by description", "description", description, "category_id", categoryID, "updated", rows)
	return int(rows), nil
}

// CountTransactionsByDescription counts uncategorized transactions whose
// description equals the given one, ignoring case, excluding one id when
// non-empty.
func (s *SQLiteStorage) CountTransactionsByDescription(ctx context.Context, description, excludeID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(description, "description"); err != nil {
		return 0, err
	}

	query := `
		SELECT COUNT(*)
		FROM transactions
		WHERE category_id IS NULL
		  AND UPPER(description) = UPPER(?)`
	args := []any{description}
	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions by description: %w", err)
	}
	return count, nil
}

// GetTransactionCounts returns aggregate counts over all transactions.
func (s *SQLiteStorage) GetTransactionCounts(ctx context.Context) (service.TransactionCounts, error) {
	if err := validateContext(ctx); err != nil {
		return service.TransactionCounts{}, err
	}

	var counts service.TransactionCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(category_id),
		       IFNULL(SUM(CASE WHEN auto_categorized = 1 AND category_id IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM transactions`).Scan(
		&counts.Total, &counts.Categorized, &counts.AutoCategorized)
	if err != nil {
		return service.TransactionCounts{}, fmt.Errorf("failed to query transaction counts: %w", err)
	}

	return counts, nil
}

func collectTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}
