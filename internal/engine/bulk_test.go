package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yobazy/MyFinance/internal/engine"
	"github.com/yobazy/MyFinance/internal/model"
	"github.com/yobazy/MyFinance/internal/testutil"
)

func TestBulkCategorize(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	eng := engine.New(db.Storage)

	rule := &model.CategorizationRule{
		Name: "hydro bill", Type: model.RuleContains, Pattern: "toronto hydro",
		CategoryID: db.Subs["Miscellaneous"], Priority: 10, IsActive: true,
	}
	require.NoError(t, db.Storage.CreateRule(ctx, rule))

	byRule := db.SaveTransaction(testutil.NewTransaction("TORONTO HYDRO PAYMENT", -120.55))
	byLexicon := db.SaveTransaction(testutil.NewTransaction("STARBUCKS #1234", -6.45))
	noMatch := db.SaveTransaction(testutil.NewTransaction("XQZ 9912 UNKNOWN", -47.12))

	// Split history: 2 of 3 similar transactions agree, so the candidate
	// lands below the threshold and above the suggestion floor.
	db.SaveCategorized("ACME SERVICES INVOICE 01", -80, "Miscellaneous")
	db.SaveCategorized("ACME SERVICES INVOICE 02", -80, "Miscellaneous")
	db.SaveCategorized("ACME SERVICES INVOICE 03", -75, "Clothing")
	weak := db.SaveTransaction(testutil.NewTransaction("ACME SERVICES INVOICE 04", -80))

	// Scattered history: 2 of 5 agree, putting the candidate at 0.28,
	// under the suggestion floor.
	db.SaveCategorized("GLOBEX CONSULTING 0001", -200, "Groceries")
	db.SaveCategorized("GLOBEX CONSULTING 0002", -200, "Groceries")
	db.SaveCategorized("GLOBEX CONSULTING 0003", -200, "Clothing")
	db.SaveCategorized("GLOBEX CONSULTING 0004", -200, "Events")
	db.SaveCategorized("GLOBEX CONSULTING 0005", -200, "Personal Care")
	faint := db.SaveTransaction(testutil.NewTransaction("GLOBEX CONSULTING 0006", -200))

	var progressCalls int
	stats, err := eng.BulkCategorize(ctx, 0.6, func(_, _ int) { progressCalls++ })
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalProcessed)
	assert.Equal(t, 1, stats.UserRuleCategorized)
	assert.Equal(t, 1, stats.AutoCategorized)
	assert.Equal(t, 1, stats.NeedsReview)
	assert.Equal(t, 2, stats.NoMatch)
	assert.Equal(t, 5, progressCalls)

	t.Run("assignments recorded with confidence", func(t *testing.T) {
		got, err := db.Storage.GetTransactionByID(ctx, byRule.ID)
		require.NoError(t, err)
		require.NotNil(t, got.CategoryID)
		assert.Equal(t, db.Subs["Miscellaneous"], *got.CategoryID)
		assert.True(t, got.AutoCategorized)
		assert.InDelta(t, 0.95, got.ConfidenceScore, 0.001)

		got, err = db.Storage.GetTransactionByID(ctx, byLexicon.ID)
		require.NoError(t, err)
		require.NotNil(t, got.CategoryID)
		assert.Equal(t, "STARBUCKS #1234", got.Description)
		assert.InDelta(t, 0.85, got.ConfidenceScore, 0.001)
	})

	t.Run("weak candidate stored as suggestion only", func(t *testing.T) {
		got, err := db.Storage.GetTransactionByID(ctx, weak.ID)
		require.NoError(t, err)
		assert.Nil(t, got.CategoryID)
		require.NotNil(t, got.SuggestedCategoryID)
		assert.Equal(t, db.Subs["Miscellaneous"], *got.SuggestedCategoryID)
	})

	t.Run("low confidence candidate counts as no match but keeps the suggestion", func(t *testing.T) {
		got, err := db.Storage.GetTransactionByID(ctx, faint.ID)
		require.NoError(t, err)
		assert.Nil(t, got.CategoryID)
		require.NotNil(t, got.SuggestedCategoryID)
		assert.Equal(t, db.Subs["Groceries"], *got.SuggestedCategoryID)
		assert.InDelta(t, 0.28, got.ConfidenceScore, 0.001)
	})

	t.Run("no match leaves the transaction untouched", func(t *testing.T) {
		got, err := db.Storage.GetTransactionByID(ctx, noMatch.ID)
		require.NoError(t, err)
		assert.Nil(t, got.CategoryID)
		assert.Nil(t, got.SuggestedCategoryID)
	})

	t.Run("rerun only reprocesses what is still uncategorized", func(t *testing.T) {
		again, err := eng.BulkCategorize(ctx, 0.6, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, again.TotalProcessed)
		assert.Zero(t, again.UserRuleCategorized)
		assert.Zero(t, again.AutoCategorized)
	})
}

func TestRefreshSuggestions(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	eng := engine.New(db.Storage)

	rule := &model.CategorizationRule{
		Name: "netflix", Type: model.RuleContains, Pattern: "netflix",
		CategoryID: db.Subs["Subscriptions"], Priority: 1, IsActive: true,
	}
	require.NoError(t, db.Storage.CreateRule(ctx, rule))

	suggested := db.SaveTransaction(testutil.NewTransaction("NETFLIX.COM", -16.99))
	db.SaveTransaction(testutil.NewTransaction("XQZ 9912 UNKNOWN", -47.12))

	stats, err := eng.RefreshSuggestions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalProcessed)
	assert.Equal(t, 1, stats.SuggestionsUpdated)
	assert.Equal(t, 1, stats.NoSuggestion)

	got, err := db.Storage.GetTransactionByID(ctx, suggested.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID, "refresh never assigns")
	require.NotNil(t, got.SuggestedCategoryID)
	assert.Equal(t, db.Subs["Subscriptions"], *got.SuggestedCategoryID)

	// Preview mode leaves rule statistics alone.
	gotRule, err := db.Storage.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Zero(t, gotRule.MatchCount)

	usage, err := db.Storage.GetRuleUsageCount(ctx, rule.ID)
	require.NoError(t, err)
	assert.Zero(t, usage)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	eng := engine.New(db.Storage)

	t.Run("empty ledger", func(t *testing.T) {
		stats, err := eng.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.TotalTransactions)
		assert.Zero(t, stats.CategorizationRate)
	})

	db.SaveCategorized("METRO ONTARIO", -54.20, "Groceries")
	db.SaveTransaction(testutil.NewTransaction("XQZ 9912", -5))

	stats, err := eng.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalTransactions)
	assert.Equal(t, 1, stats.Categorized)
	assert.Equal(t, 1, stats.Uncategorized)
	assert.InDelta(t, 0.5, stats.CategorizationRate, 0.001)
}
