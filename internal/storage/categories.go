package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yobazy/MyFinance/internal/common"
	"github.com/yobazy/MyFinance/internal/model"
)

const categoryColumns = "id, name, parent_id, description, color, is_active, created_at"

// scanCategory scans one category row.
func scanCategory(row interface{ Scan(...any) error }) (*model.Category, error) {
	var cat model.Category
	var parentID sql.NullInt64
	if err := row.Scan(&cat.ID, &cat.Name, &parentID, &cat.Description, &cat.Color, &cat.IsActive, &cat.CreatedAt); err != nil {
		return nil, err
	}
	if parentID.Valid {
		id := int(parentID.Int64)
		cat.ParentID = &id
	}
	return &cat, nil
}

// GetCategories returns all active categories ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE is_active = 1
		ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategoryByID returns a category by its id.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id int) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

	cat, err := scanCategory(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	return cat, nil
}

// GetRootCategoryByName returns the active root category with the given name.
func (s *SQLiteStorage) GetRootCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE name = ? AND parent_id IS NULL AND is_active = 1`

	cat, err := scanCategory(s.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("root category %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query root category: %w", err)
	}

	return cat, nil
}

// GetSubcategoryByName returns the active subcategory with the given name.
// When several parents carry a same-named subcategory the lowest id wins.
func (s *SQLiteStorage) GetSubcategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE name = ? AND parent_id IS NOT NULL AND is_active = 1
		ORDER BY id
		LIMIT 1`

	cat, err := scanCategory(s.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subcategory %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subcategory: %w", err)
	}

	return cat, nil
}

// GetSubcategories returns the active children of a category ordered by name.
func (s *SQLiteStorage) GetSubcategories(ctx context.Context, parentID int) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE parent_id = ? AND is_active = 1
		ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subcategories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subcategory: %w", err)
		}
		categories = append(categories, *cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subcategories: %w", err)
	}

	return categories, nil
}

// CreateCategory creates a new category. The (name, parent) pair must be
// unique; a category with a parent is a subcategory.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	if category.ParentID != nil {
		if _, err := s.GetCategoryByID(ctx, *category.ParentID); err != nil {
			return fmt.Errorf("parent category: %w", err)
		}
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE name = ? AND IFNULL(parent_id, 0) = IFNULL(?, 0)`,
		category.Name, nullableInt(category.ParentID)).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check existing category: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("category %q: %w", category.Name, common.ErrDuplicateEntry)
	}

	if category.Color == "" {
		category.Color = "#2196F3"
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, parent_id, description, color, is_active, created_at)
		 VALUES (?, ?, ?, ?, 1, ?)`,
		category.Name, nullableInt(category.ParentID), category.Description, category.Color, now)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get category ID: %w", err)
	}

	category.ID = int(id)
	category.IsActive = true
	category.CreatedAt = now

	slog.Info("created category", "name", category.Name, "id", category.ID, "parent", category.ParentID)
	return nil
}

// GetOrCreateSubcategory returns the subcategory with the given name under
// the given parent, creating it if missing. The insert is idempotent under
// concurrent callers: the unique (name, parent) index makes the racing insert
// a no-op and the follow-up select observes the winner's row.
func (s *SQLiteStorage) GetOrCreateSubcategory(ctx context.Context, name string, parentID int) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE name = ? AND parent_id = ?`

	cat, err := scanCategory(s.db.QueryRowContext(ctx, query, name, parentID))
	if err == nil {
		return cat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query subcategory: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (name, parent_id, created_at) VALUES (?, ?, ?)`,
		name, parentID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create subcategory: %w", err)
	}

	cat, err = scanCategory(s.db.QueryRowContext(ctx, query, name, parentID))
	if err != nil {
		return nil, fmt.Errorf("failed to re-query subcategory: %w", err)
	}

	slog.Info("created subcategory", "name", name, "parent_id", parentID, "id", cat.ID)
	return cat, nil
}

// UpdateCategory updates a category's fields. A parent change is rejected if
// it would introduce a cycle in the parent chain.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	if category.ParentID != nil {
		if *category.ParentID == category.ID {
			return fmt.Errorf("category %d: %w", category.ID, common.ErrCategoryCycle)
		}
		if err := s.checkAncestorCycle(ctx, category.ID, *category.ParentID); err != nil {
			return err
		}
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE categories
		 SET name = ?, parent_id = ?, description = ?, color = ?, is_active = ?
		 WHERE id = ?`,
		category.Name, nullableInt(category.ParentID), category.Description,
		category.Color, category.IsActive, category.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("category %d: %w", category.ID, common.ErrNotFound)
	}

	return nil
}

// checkAncestorCycle walks the parent chain upward from newParentID and
// rejects the update if it reaches categoryID.
func (s *SQLiteStorage) checkAncestorCycle(ctx context.Context, categoryID, newParentID int) error {
	current := newParentID
	for {
		if current == categoryID {
			return fmt.Errorf("category %d: %w", categoryID, common.ErrCategoryCycle)
		}

		var parentID sql.NullInt64
		err := s.db.QueryRowContext(ctx,
			`SELECT parent_id FROM categories WHERE id = ?`, current).Scan(&parentID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("parent category %d: %w", current, common.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to walk parent chain: %w", err)
		}

		if !parentID.Valid {
			return nil
		}
		current = int(parentID.Int64)
	}
}

// DeleteCategory removes a category. Deletion is blocked while the category
// still has subcategories.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var children int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE parent_id = ?`, id).Scan(&children)
	if err != nil {
		return fmt.Errorf("failed to count subcategories: %w", err)
	}
	if children > 0 {
		return fmt.Errorf("category %d: %w", id, common.ErrHasSubcategories)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}

	return nil
}

// nullableInt converts a *int to a driver-friendly value.
func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
