package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/yobazy/MyFinance/internal/model"
)

// RecordRuleUsage appends an audit record of a rule matching a transaction.
func (s *SQLiteStorage) RecordRuleUsage(ctx context.Context, usage *model.RuleUsage) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if usage == nil {
		return fmt.Errorf("usage: %w", ErrNilParameter)
	}
	if err := validateString(usage.TransactionID, "transaction id"); err != nil {
		return err
	}

	if usage.MatchedAt.IsZero() {
		usage.MatchedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO rule_usage (rule_id, transaction_id, confidence_score, was_applied, matched_at)
		VALUES (?, ?, ?, ?, ?)`,
		usage.RuleID, usage.TransactionID, usage.Confidence, usage.WasApplied, usage.MatchedAt)
	if err != nil {
		return fmt.Errorf("failed to record rule usage: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get usage ID: %w", err)
	}
	usage.ID = id

	return nil
}

// GetRuleUsageCount returns how many usage records a rule has accumulated.
func (s *SQLiteStorage) GetRuleUsageCount(ctx context.Context, ruleID int) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rule_usage WHERE rule_id = ?`, ruleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rule usage: %w", err)
	}
	return count, nil
}
