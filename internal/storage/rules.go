package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yobazy/MyFinance/internal/common"
	"github.com/yobazy/MyFinance/internal/model"
	"github.com/yobazy/MyFinance/internal/rule"
)

const ruleColumns = "id, name, description, rule_type, pattern, category_id, priority, is_active, case_sensitive, conditions, match_count, last_matched, created_at, updated_at"

func scanRule(row interface{ Scan(...any) error }) (*model.CategorizationRule, error) {
	var r model.CategorizationRule
	var conditions sql.NullString
	var lastMatched sql.NullTime
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Type, &r.Pattern, &r.CategoryID,
		&r.Priority, &r.IsActive, &r.CaseSensitive, &conditions, &r.MatchCount,
		&lastMatched, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastMatched.Valid {
		t := lastMatched.Time
		r.LastMatched = &t
	}
	if conditions.Valid && conditions.String != "" {
		var rc model.RuleConditions
		if err := json.Unmarshal([]byte(conditions.String), &rc); err != nil {
			// Corrupt conditions disable the combined rule rather than
			// failing every read.
			slog.Warn("unreadable rule conditions", "rule_id", r.ID, "error", err)
		} else {
			r.Conditions = &rc
		}
	}
	return &r, nil
}

func marshalConditions(r *model.CategorizationRule) (any, error) {
	if r.Conditions == nil {
		return nil, nil
	}
	data, err := json.Marshal(r.Conditions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rule conditions: %w", err)
	}
	return string(data), nil
}

// CreateRule persists a new categorization rule after validating its pattern
// and target category.
func (s *SQLiteStorage) CreateRule(ctx context.Context, r *model.CategorizationRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(r); err != nil {
		return err
	}
	if err := rule.ValidatePattern(r.Type, r.Pattern); err != nil {
		return err
	}
	if _, err := s.GetCategoryByID(ctx, r.CategoryID); err != nil {
		return fmt.Errorf("rule category: %w", err)
	}

	conditions, err := marshalConditions(r)
	if err != nil {
		return err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categorization_rules
		(name, description, rule_type, pattern, category_id, priority, is_active, case_sensitive, conditions, match_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		r.Name, r.Description, r.Type, r.Pattern, r.CategoryID, r.Priority,
		r.IsActive, r.CaseSensitive, conditions, now, now)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule ID: %w", err)
	}

	r.ID = int(id)
	r.CreatedAt = now
	r.UpdatedAt = now

	slog.Info("created rule", "name", r.Name, "id", r.ID, "type", r.Type)
	return nil
}

// GetRule returns a rule by id.
func (s *SQLiteStorage) GetRule(ctx context.Context, id int) (*model.CategorizationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + ruleColumns + ` FROM categorization_rules WHERE id = ?`

	r, err := scanRule(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rule: %w", err)
	}

	return r, nil
}

// GetRules returns all rules, active or not, in evaluation order.
func (s *SQLiteStorage) GetRules(ctx context.Context) ([]model.CategorizationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryRules(ctx, `SELECT `+ruleColumns+` FROM categorization_rules ORDER BY priority DESC, name`)
}

// GetActiveRules returns active rules in evaluation order: highest priority
// first, ties broken by name.
func (s *SQLiteStorage) GetActiveRules(ctx context.Context) ([]model.CategorizationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryRules(ctx, `SELECT `+ruleColumns+` FROM categorization_rules WHERE is_active = 1 ORDER BY priority DESC, name`)
}

func (s *SQLiteStorage) queryRules(ctx context.Context, query string) ([]model.CategorizationRule, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.CategorizationRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return rules, nil
}

// UpdateRule updates an existing rule after re-validating its pattern.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, r *model.CategorizationRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(r); err != nil {
		return err
	}
	if err := rule.ValidatePattern(r.Type, r.Pattern); err != nil {
		return err
	}
	if _, err := s.GetCategoryByID(ctx, r.CategoryID); err != nil {
		return fmt.Errorf("rule category: %w", err)
	}

	conditions, err := marshalConditions(r)
	if err != nil {
		return err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE categorization_rules
		SET name = ?, description = ?, rule_type = ?, pattern = ?, category_id = ?,
		    priority = ?, is_active = ?, case_sensitive = ?, conditions = ?, updated_at = ?
		WHERE id = ?`,
		r.Name, r.Description, r.Type, r.Pattern, r.CategoryID,
		r.Priority, r.IsActive, r.CaseSensitive, conditions, now, r.ID)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("rule %d: %w", r.ID, common.ErrNotFound)
	}

	r.UpdatedAt = now
	return nil
}

// DeleteRule removes a rule and its usage records.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rule_usage WHERE rule_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete rule usage: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM categorization_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rule deletion: %w", err)
	}

	return nil
}

// IncrementRuleMatchCount bumps a rule's match counter and stamps the match
// time in a single statement, so concurrent matches never lose an increment.
func (s *SQLiteStorage) IncrementRuleMatchCount(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE categorization_rules
		SET match_count = match_count + 1,
		    last_matched = ?
		WHERE id = ?`,
		time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to increment rule match count: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}

	return nil
}
