// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/yobazy/MyFinance/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetUncategorizedTransactions(ctx context.Context, limit, offset int) ([]model.Transaction, error)
	CountUncategorizedTransactions(ctx context.Context) (int, error)
	GetCategorizedByDescriptionPrefix(ctx context.Context, prefix, accountID, excludeID string, limit int) ([]model.Transaction, error)
	CountRecurringTransactions(ctx context.Context, txn model.Transaction) (int, error)
	UpdateTransactionCategory(ctx context.Context, id string, categoryID int, autoCategorized bool, confidence float64) error
	ClearTransactionCategory(ctx context.Context, id string) error
	SetTransactionSuggestion(ctx context.Context, id string, categoryID int, confidence float64) error
	UpdateCategoryForDescription(ctx context.Context, description string, categoryID int) (int, error)
	CountTransactionsByDescription(ctx context.Context, description, excludeID string) (int, error)
	GetTransactionCounts(ctx context.Context) (TransactionCounts, error)

	// Category tree operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id int) (*model.Category, error)
	GetRootCategoryByName(ctx context.Context, name string) (*model.Category, error)
	GetSubcategoryByName(ctx context.Context, name string) (*model.Category, error)
	GetSubcategories(ctx context.Context, parentID int) ([]model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	GetOrCreateSubcategory(ctx context.Context, name string, parentID int) (*model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id int) error

	// Rule operations
	CreateRule(ctx context.Context, rule *model.CategorizationRule) error
	GetRule(ctx context.Context, id int) (*model.CategorizationRule, error)
	GetRules(ctx context.Context) ([]model.CategorizationRule, error)
	GetActiveRules(ctx context.Context) ([]model.CategorizationRule, error)
	UpdateRule(ctx context.Context, rule *model.CategorizationRule) error
	DeleteRule(ctx context.Context, id int) error
	IncrementRuleMatchCount(ctx context.Context, id int) error

	// Rule usage audit log
	RecordRuleUsage(ctx context.Context, usage *model.RuleUsage) error
	GetRuleUsageCount(ctx context.Context, ruleID int) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
