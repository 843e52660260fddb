package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yobazy/MyFinance/internal/engine"
	"github.com/yobazy/MyFinance/internal/testutil"
)

func TestSuggest(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	eng := engine.New(db.Storage)

	t.Run("pipeline answer leads, history fills alternatives", func(t *testing.T) {
		// STARBUCKS hits the lexicon; past STARBUCKS transactions were
		// filed under different subcategories.
		db.SaveCategorized("STARBUCKS #0001", -6.45, "Dining Out")
		db.SaveCategorized("STARBUCKS #0002", -6.45, "Dining Out")
		db.SaveCategorized("STARBUCKS #0003", -18.20, "Groceries")

		txn := testutil.NewTransaction("STARBUCKS #1234", -6.45)

		suggestions, err := eng.Suggest(ctx, txn, 3)
		require.NoError(t, err)
		require.NotEmpty(t, suggestions)

		assert.Equal(t, "Dining Out", suggestions[0].Category.Name)
		assert.Equal(t, "Auto-match", suggestions[0].Reason)
		assert.InDelta(t, 0.85, suggestions[0].Confidence, 0.001)

		// The history duplicate of the primary is deduplicated; the
		// minority category still shows up as an alternative.
		names := make([]string, 0, len(suggestions))
		for _, s := range suggestions {
			names = append(names, s.Category.Name)
		}
		assert.Equal(t, []string{"Dining Out", "Groceries"}, names)
		assert.Contains(t, suggestions[1].Reason, "1 matches")
	})

	t.Run("no signal means no suggestions", func(t *testing.T) {
		txn := testutil.NewTransaction("XQZ 9912 UNKNOWN", -47.12)

		suggestions, err := eng.Suggest(ctx, txn, 3)
		require.NoError(t, err)
		assert.Empty(t, suggestions)
	})

	t.Run("limit caps the list", func(t *testing.T) {
		txn := testutil.NewTransaction("STARBUCKS #1234", -6.45)

		suggestions, err := eng.Suggest(ctx, txn, 1)
		require.NoError(t, err)
		assert.Len(t, suggestions, 1)
	})
}
