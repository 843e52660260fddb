package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/yobazy/MyFinance/internal/service"
)

// Confidence level cutoffs for preview bucketing.
const (
	highCutoff   = 0.8
	mediumCutoff = 0.5
)

func confidenceLevel(hasCandidate bool, confidence float64) service.ConfidenceLevel {
	switch {
	case !hasCandidate:
		return service.LevelNone
	case confidence >= highCutoff:
		return service.LevelHigh
	case confidence >= mediumCutoff:
		return service.LevelMedium
	default:
		return service.LevelLow
	}
}

// PreviewCategorize reports what a bulk run at the given threshold would do
// to one page of uncategorized transactions, without changing anything.
// Pages are 1-based; items come back ordered by confidence, highest first.
func (e *Engine) PreviewCategorize(ctx context.Context, page, pageSize int, threshold float64) (service.PreviewPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	total, err := e.store.CountUncategorizedTransactions(ctx)
	if err != nil {
		return service.PreviewPage{}, fmt.Errorf("failed to count uncategorized transactions: %w", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	transactions, err := e.store.GetUncategorizedTransactions(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return service.PreviewPage{}, fmt.Errorf("failed to load uncategorized transactions: %w", err)
	}

	result := service.PreviewPage{
		Items: make([]service.PreviewItem, 0, len(transactions)),
		Pagination: service.Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			HasNext:     page < totalPages,
			HasPrevious: page > 1,
		},
	}

	for _, txn := range transactions {
		r, err := e.Preview(ctx, txn)
		if err != nil {
			return service.PreviewPage{}, fmt.Errorf("failed to preview transaction %s: %w", txn.ID, err)
		}

		item := service.PreviewItem{
			Transaction: txn,
			Category:    r.Category,
			Confidence:  r.Confidence,
			Level:       confidenceLevel(r.Category != nil, r.Confidence),
			WouldApply:  r.Category != nil && r.Confidence >= threshold,
		}
		result.Items = append(result.Items, item)

		switch item.Level {
		case service.LevelHigh:
			result.Stats.High++
		case service.LevelMedium:
			result.Stats.Medium++
		case service.LevelLow:
			result.Stats.Low++
		case service.LevelNone:
			result.Stats.None++
		}
	}

	sort.SliceStable(result.Items, func(i, j int) bool {
		return result.Items[i].Confidence > result.Items[j].Confidence
	})

	return result, nil
}

// ApplyChanges applies reviewed categorization decisions one by one. A
// failed item is recorded and the rest still apply.
func (e *Engine) ApplyChanges(ctx context.Context, changes []service.CategoryChange) (service.ApplyResult, error) {
	var result service.ApplyResult

	for _, change := range changes {
		if err := e.applyChange(ctx, change); err != nil {
			result.Errors = append(result.Errors, service.ApplyError{
				TransactionID: change.TransactionID,
				Error:         err.Error(),
			})
			continue
		}
		result.AppliedCount++
	}

	return result, nil
}

func (e *Engine) applyChange(ctx context.Context, change service.CategoryChange) error {
	switch change.Action {
	case service.ActionCategorize:
		if _, err := e.store.GetCategoryByID(ctx, change.CategoryID); err != nil {
			return err
		}
		return e.store.UpdateTransactionCategory(ctx, change.TransactionID, change.CategoryID, false, ExistingConfidence)
	case service.ActionRemove:
		return e.store.ClearTransactionCategory(ctx, change.TransactionID)
	default:
		return fmt.Errorf("unknown action %q", change.Action)
	}
}

// ApplyCategoryToSimilar assigns a category to every uncategorized
// transaction whose description is identical to the given transaction's,
// the transaction itself included. It returns how many transactions were
// updated.
func (e *Engine) ApplyCategoryToSimilar(ctx context.Context, txnID string, categoryID int) (int, error) {
	txn, err := e.store.GetTransactionByID(ctx, txnID)
	if err != nil {
		return 0, err
	}
	if _, err := e.store.GetCategoryByID(ctx, categoryID); err != nil {
		return 0, err
	}
	return e.store.UpdateCategoryForDescription(ctx, txn.Description, categoryID)
}

// CountSimilarTransactions counts the other uncategorized transactions
// whose description is identical to the given transaction's.
func (e *Engine) CountSimilarTransactions(ctx context.Context, txnID string) (int, error) {
	txn, err := e.store.GetTransactionByID(ctx, txnID)
	if err != nil {
		return 0, err
	}
	return e.store.CountTransactionsByDescription(ctx, txn.Description, txn.ID)
}
