package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/yobazy/MyFinance/internal/model"
	"github.com/yobazy/MyFinance/internal/service"
)

const (
	suggestPrefixLen    = 10
	suggestSampleSize   = 10
	suggestWeight       = 0.6
	suggestCap          = 0.7
	defaultSuggestLimit = 3
)

// Suggest ranks candidate subcategories for one transaction. The pipeline's
// own answer leads; alternatives come from how similar transactions were
// categorized in the past.
func (e *Engine) Suggest(ctx context.Context, txn model.Transaction, limit int) ([]service.Suggestion, error) {
	if limit < 1 {
		limit = defaultSuggestLimit
	}

	var suggestions []service.Suggestion
	seen := make(map[int]bool)

	primary, err := e.Preview(ctx, txn)
	if err != nil {
		return nil, err
	}
	if primary.Category != nil && primary.Category.IsSubcategory() {
		suggestions = append(suggestions, service.Suggestion{
			Category:   primary.Category,
			Confidence: primary.Confidence,
			Reason:     "Auto-match",
		})
		seen[primary.Category.ID] = true
	}

	prefix := txn.Description
	if runes := []rune(prefix); len(runes) > suggestPrefixLen {
		prefix = string(runes[:suggestPrefixLen])
	}

	similar, err := e.store.GetCategorizedByDescriptionPrefix(ctx, prefix, "", txn.ID, suggestSampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load similar transactions: %w", err)
	}

	counts := make(map[int]int)
	for _, t := range similar {
		if t.CategoryID != nil {
			counts[*t.CategoryID]++
		}
	}

	type candidate struct {
		categoryID int
		count      int
	}
	candidates := make([]candidate, 0, len(counts))
	for id, count := range counts {
		candidates = append(candidates, candidate{id, count})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].categoryID < candidates[j].categoryID
	})

	for _, c := range candidates {
		if seen[c.categoryID] {
			continue
		}
		cat, err := e.store.GetCategoryByID(ctx, c.categoryID)
		if err != nil {
			continue
		}
		if cat.IsRoot() {
			continue
		}

		confidence := float64(c.count) / float64(len(similar)) * suggestWeight
		if confidence > suggestCap {
			confidence = suggestCap
		}

		suggestions = append(suggestions, service.Suggestion{
			Category:   cat,
			Confidence: confidence,
			Reason:     fmt.Sprintf("Similar transactions (%d matches)", c.count),
		})
		seen[c.categoryID] = true
	}

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}
