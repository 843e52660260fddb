// Package engine implements the transaction categorization pipeline: user
// rules first, then the default keyword lexicon, then recurring-pattern
// inference over the transaction history.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yobazy/MyFinance/internal/common"
	"github.com/yobazy/MyFinance/internal/lexicon"
	"github.com/yobazy/MyFinance/internal/model"
	"github.com/yobazy/MyFinance/internal/rule"
	"github.com/yobazy/MyFinance/internal/service"
)

// Confidence scores per categorization source. User rules always beat the
// lexicon, which always beats pattern inference.
const (
	ExistingConfidence  = 1.0
	RuleConfidence      = 0.95
	recurringWeight     = 0.7
	recurringCap        = 0.75
	recurringSampleSize = 5
	recurringPrefixLen  = 20
)

// DefaultThreshold is the minimum confidence at which bulk categorization
// assigns a category instead of suggesting one.
const DefaultThreshold = 0.6

// Source identifies which pipeline tier produced a categorization.
type Source string

// Pipeline tier sources.
const (
	SourceExisting  Source = "existing"
	SourceRule      Source = "user_rule"
	SourceLexicon   Source = "keyword"
	SourceRecurring Source = "recurring_pattern"
	SourceNone      Source = ""
)

// Result is the outcome of categorizing one transaction. Category is nil
// when no tier produced a match.
type Result struct {
	Category   *model.Category
	Rule       *model.CategorizationRule
	Source     Source
	Confidence float64
}

// Engine runs the categorization pipeline against a storage backend.
type Engine struct {
	store   service.Storage
	matcher *rule.Matcher
	lex     []lexicon.Entry
}

// New creates an engine with the default keyword lexicon.
func New(store service.Storage) *Engine {
	return &Engine{
		store:   store,
		matcher: rule.NewMatcher(recurrenceSource{store}),
		lex:     lexicon.Default(),
	}
}

// recurrenceSource adapts storage history lookups for the rule matcher.
type recurrenceSource struct {
	store service.Storage
}

func (r recurrenceSource) CountRecurring(ctx context.Context, txn model.Transaction) (int, error) {
	return r.store.CountRecurringTransactions(ctx, txn)
}

// Categorize runs the full pipeline for one transaction, recording rule
// usage and match counts for any rule that fires.
func (e *Engine) Categorize(ctx context.Context, txn model.Transaction) (Result, error) {
	return e.categorize(ctx, txn, true)
}

// Preview runs the pipeline without side effects: no usage records, no
// match-count increments, no subcategory creation.
func (e *Engine) Preview(ctx context.Context, txn model.Transaction) (Result, error) {
	return e.categorize(ctx, txn, false)
}

func (e *Engine) categorize(ctx context.Context, txn model.Transaction, apply bool) (Result, error) {
	if txn.CategoryID != nil {
		cat, err := e.store.GetCategoryByID(ctx, *txn.CategoryID)
		if err != nil {
			return Result{}, fmt.Errorf("failed to resolve existing category: %w", err)
		}
		return Result{Category: cat, Source: SourceExisting, Confidence: ExistingConfidence}, nil
	}

	result, err := e.checkRules(ctx, txn, apply)
	if err != nil {
		return Result{}, err
	}
	if result.Category != nil {
		return result, nil
	}

	result, err = e.checkLexicon(ctx, txn, apply)
	if err != nil {
		return Result{}, err
	}
	if result.Category != nil {
		return result, nil
	}

	result, err = e.checkRecurring(ctx, txn)
	if err != nil {
		return Result{}, err
	}
	if result.Category != nil {
		return result, nil
	}

	return Result{Source: SourceNone}, nil
}

// checkRules evaluates active user rules in priority order. Rules that
// target a root category never fire.
func (e *Engine) checkRules(ctx context.Context, txn model.Transaction, apply bool) (Result, error) {
	rules, err := e.store.GetActiveRules(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load rules: %w", err)
	}

	for i := range rules {
		r := &rules[i]
		if !e.matcher.Matches(ctx, txn, *r) {
			continue
		}

		cat, err := e.store.GetCategoryByID(ctx, r.CategoryID)
		if errors.Is(err, common.ErrNotFound) {
			slog.Warn("rule targets missing category", "rule_id", r.ID, "category_id", r.CategoryID)
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("failed to resolve rule category: %w", err)
		}
		if cat.IsRoot() {
			continue
		}

		if apply {
			usage := model.RuleUsage{
				RuleID:        r.ID,
				TransactionID: txn.ID,
				Confidence:    RuleConfidence,
				WasApplied:    true,
			}
			if err := e.store.RecordRuleUsage(ctx, &usage); err != nil {
				return Result{}, fmt.Errorf("failed to record rule usage: %w", err)
			}
			if err := e.store.IncrementRuleMatchCount(ctx, r.ID); err != nil {
				return Result{}, fmt.Errorf("failed to update rule stats: %w", err)
			}
		}

		slog.Debug("rule matched", "rule", r.Name, "transaction", txn.ID, "category", cat.Name)
		return Result{Category: cat, Rule: r, Source: SourceRule, Confidence: RuleConfidence}, nil
	}

	return Result{}, nil
}

// checkLexicon scans the default keyword lexicon. A hit resolves to the
// entry's subcategory label; in apply mode a missing subcategory is created
// under the entry's root category.
func (e *Engine) checkLexicon(ctx context.Context, txn model.Transaction, apply bool) (Result, error) {
	description := strings.ToUpper(txn.Description)

	for _, entry := range e.lex {
		hit := false
		for _, keyword := range entry.Keywords {
			if strings.Contains(description, keyword) {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}

		label := lexicon.SubcategoryFor(entry.Category)

		cat, err := e.store.GetSubcategoryByName(ctx, label)
		if err == nil {
			confidence := lexicon.MatchConfidence
			if entry.IsCanonical(description) {
				confidence = lexicon.CanonicalConfidence
			}
			return Result{Category: cat, Source: SourceLexicon, Confidence: confidence}, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return Result{}, fmt.Errorf("failed to resolve lexicon subcategory: %w", err)
		}

		// No suggestion without a persisted subcategory in preview mode.
		if !apply {
			continue
		}

		root, err := e.store.GetRootCategoryByName(ctx, entry.Category)
		if errors.Is(err, common.ErrNotFound) {
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("failed to resolve lexicon root category: %w", err)
		}

		cat, err = e.store.GetOrCreateSubcategory(ctx, label, root.ID)
		if err != nil {
			return Result{}, fmt.Errorf("failed to create lexicon subcategory: %w", err)
		}
		return Result{Category: cat, Source: SourceLexicon, Confidence: lexicon.MatchConfidence}, nil
	}

	return Result{}, nil
}

// checkRecurring infers a category from recent categorized transactions on
// the same account that share the description's leading prefix. Only a
// subcategory winner counts.
func (e *Engine) checkRecurring(ctx context.Context, txn model.Transaction) (Result, error) {
	prefix := txn.Description
	if runes := []rune(prefix); len(runes) > recurringPrefixLen {
		prefix = string(runes[:recurringPrefixLen])
	}
	if strings.TrimSpace(prefix) == "" {
		return Result{}, nil
	}

	similar, err := e.store.GetCategorizedByDescriptionPrefix(ctx, prefix, txn.AccountID, txn.ID, recurringSampleSize)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load similar transactions: %w", err)
	}
	if len(similar) == 0 {
		return Result{}, nil
	}

	counts := make(map[int]int)
	for _, t := range similar {
		if t.CategoryID == nil {
			continue
		}
		counts[*t.CategoryID]++
	}

	// Most common category wins; ties break on the lowest id.
	var winner int
	var winnerCount int
	for id, count := range counts {
		if count > winnerCount || (count == winnerCount && id < winner) {
			winner = id
			winnerCount = count
		}
	}
	if winnerCount == 0 {
		return Result{}, nil
	}

	cat, err := e.store.GetCategoryByID(ctx, winner)
	if errors.Is(err, common.ErrNotFound) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve recurring category: %w", err)
	}
	if cat.IsRoot() {
		return Result{}, nil
	}

	confidence := float64(winnerCount) / float64(len(similar)) * recurringWeight
	if confidence > recurringCap {
		confidence = recurringCap
	}

	return Result{Category: cat, Source: SourceRecurring, Confidence: confidence}, nil
}
