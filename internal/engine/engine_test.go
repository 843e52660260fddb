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

func TestCategorize_AlreadyCategorized(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	eng := engine.New(db.Storage)

	txn := db.SaveCategorized("WHATEVER", -10, "Groceries")

	result, err := eng.Categorize(ctx, txn)
	require.NoError(t, err)
	require.NotNil(t, result.Category)
	assert.Equal(t, engine.SourceExisting, result.Source)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, db.Subs["Groceries"], result.Category.ID)
}

func TestCategorize_LexiconTier(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	eng := engine.New(db.Storage)

	t.Run("canonical merchant gets boosted confidence", func(t *testing.T) {
		txn := db.SaveTransaction(testutil.NewTransaction("STARBUCKS #1234 TORONTO", -6.45))

		result, err := eng.Categorize(ctx, txn)
		require.NoError(t, err)
		require.NotNil(t, result.Category)
		assert.Equal(t, engine.SourceLexicon, result.Source)
		assert.Equal(t, "Dining Out", result.Category.Name)
		assert.InDelta(t, 0.85, result.Confidence, 0.001)
	})

	t.Run("generic keyword gets base confidence", func(t *testing.T) {
		txn := db.SaveTransaction(testutil.NewTransaction("LOCAL CAFE DOWNTOWN", -4.25))

		result, err := eng.Categorize(ctx, txn)
		require.NoError(t, err)
		require.NotNil(t, result.Category)
		assert.Equal(t, "Dining Out", result.Category.Name)
		assert.InDelta(t, 0.8, result.Confidence, 0.001)
	})

	t.Run("general root maps to its conventional subcategory", func(t *testing.T) {
		txn := db.SaveTransaction(testutil.NewTransaction("PRESTO FARE TORONTO", -3.35))

		result, err := eng.Categorize(ctx, txn)
		require.NoError(t, err)
		require.NotNil(t, result.Category)
		assert.Equal(t, "Public Transit", result.Category.Name)
	})

	t.Run("missing subcategory is created under existing root", func(t *testing.T) {
		root := &model.Category{Name: "Alcohol"}
		require.NoError(t, db.Storage.CreateCategory(ctx, root))

		txn := db.SaveTransaction(testutil.NewTransaction("LCBO/RAO STORE 0421", -32.15))

		result, err := eng.Categorize(ctx, txn)
		require.NoError(t, err)
		require.NotNil(t, result.Category)
		assert.Equal(t, "Alcohol", result.Category.Name)
		assert.True(t, result.Category.IsSubcategory())
		assert.InDelta(t, 0.8, result.Confidence, 0.001)

		// The subcategory is persisted for next time.
		sub, err := db.Storage.GetSubcategoryByName(ctx, "Alcohol")
		require.NoError(t, err)
		require.NotNil(t, sub.ParentID)
		assert.Equal(t, root.ID, *sub.ParentID)
	})

	t.Run("no keyword hit and no history means no match", func(t *testing.T) {
		txn := db.SaveTransaction(testutil.NewTransaction("XQZ 9912 UNKNOWN", -47.12))

		result, err := eng.Categorize(ctx, txn)
		require.NoError(t, err)
		assert.Nil(t, result.Category)
		assert.Equal(t, engine.SourceNone, result.Source)
		assert.Zero(t, result.Confidence)
	})
}

func TestCategorize_RuleTier(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	eng := engine.New(db.Storage)

	t.Run("user rule overrides the lexicon", func(t *testing.T) {
		// STARBUCKS would hit the lexicon, but the user wants it elsewhere.
		r := &model.CategorizationRule{
			Name:       "starbucks is a subscription",
			Type:       model.RuleKeyword,
			Pattern:    "starbucks",
			CategoryID: db.Subs["Subscriptions"],
			Priority:   10,
			IsActive:   true,
		}
		require.NoError(t, db.Storage.CreateRule(ctx, r))

		txn := db.SaveTransaction(testutil.NewTransaction("STARBUCKS #1234", -6.45))

		result, err := eng.Categorize(ctx, txn)
		require.NoError(t, err)
		require.NotNil(t, result.Category)
		assert.Equal(t, engine.SourceRule, result.Source)
		assert.Equal(t, db.Subs["Subscriptions"], result.Category.ID)
		assert.InDelta(t, 0.95, result.Confidence, 0.001)

		// The match is audited and counted.
		usage, err := db.Storage.GetRuleUsageCount(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, usage)

		got, err := db.Storage.GetRule(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.MatchCount)

		require.NoError(t, db.Storage.DeleteRule(ctx, r.ID))
	})

	t.Run("highest priority rule wins and only it is audited", func(t *testing.T) {
		low := &model.CategorizationRule{
			Name: "low", Type: model.RuleKeyword, Pattern: "gymco",
			CategoryID: db.Subs["Miscellaneous"], Priority: 1, IsActive: true,
		}
		high := &model.CategorizationRule{
			Name: "high", Type: model.RuleKeyword, Pattern: "gymco",
			CategoryID: db.Subs["Personal Care"], Priority: 99, IsActive: true,
		}
		require.NoError(t, db.Storage.CreateRule(ctx, low))
		require.NoError(t, db.Storage.CreateRule(ctx, high))

		txn := db.SaveTransaction(testutil.NewTransaction("GYMCO MONTHLY", -45))

		result, err := eng.Categorize(ctx, txn)
		require.NoError(t, err)
		require.NotNil(t, result.Category)
		assert.Equal(t, db.Subs["Personal Care"], result.Category.ID)

		highUsage, err := db.Storage.GetRuleUsageCount(ctx, high.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, highUsage)

		lowUsage, err := db.Storage.GetRuleUsageCount(ctx, low.ID)
		require.NoError(t, err)
		assert.Zero(t, lowUsage)

		require.NoError(t, db.Storage.DeleteRule(ctx, low.ID))
		require.NoError(t, db.Storage.DeleteRule(ctx, high.ID))
	})

	t.Run("rule targeting a root category never fires", func(t *testing.T) {
		r := &model.CategorizationRule{
			Name: "root target", Type: model.RuleKeyword, Pattern: "mystery",
			CategoryID: db.Roots["Food"], Priority: 50, IsActive: true,
		}
		require.NoError(t, db.Storage.CreateRule(ctx, r))

		txn := db.SaveTransaction(testutil.NewTransaction("MYSTERY MERCHANT", -12))

		result, err := eng.Categorize(ctx, txn)
		require.NoError(t, err)
		assert.Nil(t, result.Category)

		usage, err := db.Storage.GetRuleUsageCount(ctx, r.ID)
		require.NoError(t, err)
		assert.Zero(t, usage)

		require.NoError(t, db.Storage.DeleteRule(ctx, r.ID))
	})

	t.Run("combined OR rule fires on either branch", func(t *testing.T) {
		r := &model.CategorizationRule{
			Name: "rideshare", Type: model.RuleCombined, Pattern: "uber or lyft",
			CategoryID: db.Subs["Rideshare"], Priority: 5, IsActive: true,
			Conditions: &model.RuleConditions{
				Operator: model.CombineOr,
				Conditions: []model.RuleCondition{
					{Kind: model.ConditionDescriptionContains, Text: "LYFT"},
					{Kind: model.ConditionDescriptionRegex, Text: `UBER\s+TRIP`},
				},
			},
		}
		require.NoError(t, db.Storage.CreateRule(ctx, r))

		txn := db.SaveTransaction(testutil.NewTransaction("UBER TRIP HELP.UBER.COM", -23.50))

		result, err := eng.Categorize(ctx, txn)
		require.NoError(t, err)
		require.NotNil(t, result.Category)
		assert.Equal(t, db.Subs["Rideshare"], result.Category.ID)

		require.NoError(t, db.Storage.DeleteRule(ctx, r.ID))
	})
}

func TestCategorize_RecurringTier(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	eng := engine.New(db.Storage)

	db.SaveCategorized("GYMCO MEMBERSHIP", -45, "Personal Care")
	db.SaveCategorized("GYMCO MEMBERSHIP", -45, "Personal Care")
	db.SaveCategorized("GYMCO MEMBERSHIP", -45, "Personal Care")

	txn := db.SaveTransaction(testutil.NewTransaction("GYMCO MEMBERSHIP", -45))

	result, err := eng.Categorize(ctx, txn)
	require.NoError(t, err)
	require.NotNil(t, result.Category)
	assert.Equal(t, engine.SourceRecurring, result.Source)
	assert.Equal(t, db.Subs["Personal Care"], result.Category.ID)
	// Unanimous history: 3/3 * 0.7.
	assert.InDelta(t, 0.7, result.Confidence, 0.001)
}
