package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yobazy/MyFinance/internal/common"
	"github.com/yobazy/MyFinance/internal/testutil"
)

func TestTransactionPersistence(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	t.Run("re-import leaves existing rows alone", func(t *testing.T) {
		txn := db.SaveTransaction(testutil.NewTransaction("METRO ONTARIO", -54.20))

		categoryID := db.Subs["Groceries"]
		require.NoError(t, db.Storage.UpdateTransactionCategory(ctx, txn.ID, categoryID, true, 0.8))

		// Saving the same id again must not clobber the categorization.
		db.SaveTransaction(txn)

		got, err := db.Storage.GetTransactionByID(ctx, txn.ID)
		require.NoError(t, err)
		require.NotNil(t, got.CategoryID)
		assert.Equal(t, categoryID, *got.CategoryID)
	})

	t.Run("categorize clears pending suggestion", func(t *testing.T) {
		txn := db.SaveTransaction(testutil.NewTransaction("NETFLIX.COM", -16.99))

		require.NoError(t, db.Storage.SetTransactionSuggestion(ctx, txn.ID, db.Subs["Subscriptions"], 0.75))
		got, err := db.Storage.GetTransactionByID(ctx, txn.ID)
		require.NoError(t, err)
		require.NotNil(t, got.SuggestedCategoryID)

		require.NoError(t, db.Storage.UpdateTransactionCategory(ctx, txn.ID, db.Subs["Subscriptions"], false, 1.0))
		got, err = db.Storage.GetTransactionByID(ctx, txn.ID)
		require.NoError(t, err)
		assert.Nil(t, got.SuggestedCategoryID)
		require.NotNil(t, got.CategoryID)
	})

	t.Run("clear category resets assignment fields", func(t *testing.T) {
		txn := db.SaveCategorized("SPOTIFY", -10.99, "Subscriptions")

		require.NoError(t, db.Storage.ClearTransactionCategory(ctx, txn.ID))

		got, err := db.Storage.GetTransactionByID(ctx, txn.ID)
		require.NoError(t, err)
		assert.Nil(t, got.CategoryID)
		assert.False(t, got.AutoCategorized)
		assert.Zero(t, got.ConfidenceScore)
	})

	t.Run("unknown transaction yields not found", func(t *testing.T) {
		_, err := db.Storage.GetTransactionByID(ctx, "no-such-id")
		assert.ErrorIs(t, err, common.ErrNotFound)

		err = db.Storage.UpdateTransactionCategory(ctx, "no-such-id", db.Subs["Groceries"], false, 1.0)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestTransactionQueries(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	db.SaveCategorized("SPOTIFY SUBSCRIPTION 01/24", -10.99, "Subscriptions")
	db.SaveCategorized("SPOTIFY SUBSCRIPTION 02/24", -10.99, "Subscriptions")
	db.SaveTransaction(testutil.NewTransaction("SPOTIFY SUBSCRIPTION 03/24", -10.99))
	db.SaveTransaction(testutil.NewTransaction("MYSTERY CHARGE", -47.12))

	t.Run("description prefix search is case insensitive", func(t *testing.T) {
		similar, err := db.Storage.GetCategorizedByDescriptionPrefix(ctx, "spotify", "", "", 10)
		require.NoError(t, err)
		assert.Len(t, similar, 2)
	})

	t.Run("recurring count matches on shared prefix and amount", func(t *testing.T) {
		txn := testutil.NewTransaction("SPOTIFY SUBSCRIPTION 04/24", -10.99)
		count, err := db.Storage.CountRecurringTransactions(ctx, txn)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("bulk description update matches identical descriptions only", func(t *testing.T) {
		// A substring of an existing description matches nothing.
		updated, err := db.Storage.UpdateCategoryForDescription(ctx, "SPOTIFY", db.Subs["Subscriptions"])
		require.NoError(t, err)
		assert.Zero(t, updated)

		updated, err = db.Storage.UpdateCategoryForDescription(ctx, "spotify subscription 03/24", db.Subs["Subscriptions"])
		require.NoError(t, err)
		assert.Equal(t, 1, updated)

		count, err := db.Storage.CountTransactionsByDescription(ctx, "SPOTIFY SUBSCRIPTION 03/24", "")
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("aggregate counts", func(t *testing.T) {
		counts, err := db.Storage.GetTransactionCounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, counts.Total)
		assert.Equal(t, 3, counts.Categorized)
		assert.Equal(t, 1, counts.AutoCategorized)

		pending, err := db.Storage.CountUncategorizedTransactions(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, pending)
	})
}
