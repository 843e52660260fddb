package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yobazy/MyFinance/internal/service"
)

// suggestionFloor is the confidence below which a candidate is not worth
// flagging for review.
const suggestionFloor = 0.3

// BulkCategorize runs the pipeline over every uncategorized transaction.
// Candidates at or above threshold are assigned; weaker candidates are
// stored as suggestions. progress, when non-nil, is called after each
// transaction.
func (e *Engine) BulkCategorize(ctx context.Context, threshold float64, progress func(done, total int)) (service.BulkStats, error) {
	var stats service.BulkStats

	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	transactions, err := e.store.GetUncategorizedTransactions(ctx, -1, 0)
	if err != nil {
		return stats, fmt.Errorf("failed to load uncategorized transactions: %w", err)
	}

	total := len(transactions)
	for i, txn := range transactions {
		stats.TotalProcessed++

		// Re-runs never touch work that landed between fetch and now.
		if txn.IsCategorized() {
			if progress != nil {
				progress(i+1, total)
			}
			continue
		}

		result, err := e.Categorize(ctx, txn)
		if err != nil {
			return stats, fmt.Errorf("failed to categorize transaction %s: %w", txn.ID, err)
		}

		switch {
		case result.Category != nil && result.Confidence >= threshold:
			err = e.store.UpdateTransactionCategory(ctx, txn.ID, result.Category.ID, true, result.Confidence)
			if err != nil {
				return stats, fmt.Errorf("failed to assign category to %s: %w", txn.ID, err)
			}
			if result.Confidence >= 0.9 {
				stats.UserRuleCategorized++
			} else {
				stats.AutoCategorized++
			}

		case result.Category != nil && result.Confidence > suggestionFloor:
			err = e.store.SetTransactionSuggestion(ctx, txn.ID, result.Category.ID, result.Confidence)
			if err != nil {
				return stats, fmt.Errorf("failed to store suggestion for %s: %w", txn.ID, err)
			}
			stats.NeedsReview++

		default:
			if result.Category != nil {
				err = e.store.SetTransactionSuggestion(ctx, txn.ID, result.Category.ID, result.Confidence)
				if err != nil {
					return stats, fmt.Errorf("failed to store suggestion for %s: %w", txn.ID, err)
				}
			}
			stats.NoMatch++
		}

		if progress != nil {
			progress(i+1, total)
		}
	}

	slog.Info("bulk categorization complete",
		"processed", stats.TotalProcessed,
		"auto", stats.AutoCategorized,
		"user_rule", stats.UserRuleCategorized,
		"needs_review", stats.NeedsReview,
		"no_match", stats.NoMatch)

	return stats, nil
}

// RefreshSuggestions recomputes the suggested category for every
// uncategorized transaction without assigning anything. The pipeline runs
// in preview mode, so rule statistics are left alone.
func (e *Engine) RefreshSuggestions(ctx context.Context) (service.RefreshStats, error) {
	var stats service.RefreshStats

	transactions, err := e.store.GetUncategorizedTransactions(ctx, -1, 0)
	if err != nil {
		return stats, fmt.Errorf("failed to load uncategorized transactions: %w", err)
	}

	for _, txn := range transactions {
		stats.TotalProcessed++

		result, err := e.Preview(ctx, txn)
		if err != nil {
			return stats, fmt.Errorf("failed to categorize transaction %s: %w", txn.ID, err)
		}

		if result.Category == nil {
			stats.NoSuggestion++
			continue
		}

		if err := e.store.SetTransactionSuggestion(ctx, txn.ID, result.Category.ID, result.Confidence); err != nil {
			return stats, fmt.Errorf("failed to store suggestion for %s: %w", txn.ID, err)
		}
		stats.SuggestionsUpdated++
	}

	return stats, nil
}

// Stats reports how much of the ledger is categorized.
func (e *Engine) Stats(ctx context.Context) (service.CategorizationStats, error) {
	counts, err := e.store.GetTransactionCounts(ctx)
	if err != nil {
		return service.CategorizationStats{}, err
	}

	stats := service.CategorizationStats{
		TotalTransactions: counts.Total,
		Categorized:       counts.Categorized,
		AutoCategorized:   counts.AutoCategorized,
		Uncategorized:     counts.Total - counts.Categorized,
	}
	if counts.Total > 0 {
		stats.CategorizationRate = float64(counts.Categorized) / float64(counts.Total)
	}

	return stats, nil
}
