package rule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yobazy/MyFinance/internal/model"
)

// stubHistory answers recurring lookups with a fixed count.
type stubHistory struct {
	count int
	err   error
}

func (s stubHistory) CountRecurring(_ context.Context, _ model.Transaction) (int, error) {
	return s.count, s.err
}

func txnOn(description string, amount float64, date time.Time) model.Transaction {
	return model.Transaction{
		ID:          "txn-1",
		Date:        date,
		Description: description,
		Amount:      amount,
		AccountID:   "acct-1",
	}
}

func TestMatcher_Matches(t *testing.T) {
	ctx := context.Background()
	tuesday := time.Date(2024, 6, 11, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		rule model.CategorizationRule
		txn  model.Transaction
		want bool
	}{
		{
			name: "keyword single term",
			rule: model.CategorizationRule{Type: model.RuleKeyword, Pattern: "starbucks"},
			txn:  txnOn("STARBUCKS #1234 TORONTO", -6.45, tuesday),
			want: true,
		},
		{
			name: "keyword list matches any term",
			rule: model.CategorizationRule{Type: model.RuleKeyword, Pattern: "tim hortons, starbucks, second cup"},
			txn:  txnOn("SECOND CUP COFFEE", -4.10, tuesday),
			want: true,
		},
		{
			name: "keyword list skips empty terms",
			rule: model.CategorizationRule{Type: model.RuleKeyword, Pattern: ", ,starbucks"},
			txn:  txnOn("NO COFFEE HERE", -4.10, tuesday),
			want: false,
		},
		{
			name: "contains is case insensitive by default",
			rule: model.CategorizationRule{Type: model.RuleContains, Pattern: "netflix"},
			txn:  txnOn("NETFLIX.COM SUBSCRIPTION", -16.99, tuesday),
			want: true,
		},
		{
			name: "contains respects case sensitivity",
			rule: model.CategorizationRule{Type: model.RuleContains, Pattern: "netflix", CaseSensitive: true},
			txn:  txnOn("NETFLIX.COM SUBSCRIPTION", -16.99, tuesday),
			want: false,
		},
		{
			name: "exact match",
			rule: model.CategorizationRule{Type: model.RuleExact, Pattern: "monthly rent"},
			txn:  txnOn("MONTHLY RENT", -1800, tuesday),
			want: true,
		},
		{
			name: "exact rejects partial",
			rule: model.CategorizationRule{Type: model.RuleExact, Pattern: "rent"},
			txn:  txnOn("MONTHLY RENT", -1800, tuesday),
			want: false,
		},
		{
			name: "regex match",
			rule: model.CategorizationRule{Type: model.RuleRegex, Pattern: `uber\s*(trip|eats)`},
			txn:  txnOn("UBER TRIP TORONTO", -23.50, tuesday),
			want: true,
		},
		{
			name: "malformed regex never matches",
			rule: model.CategorizationRule{Type: model.RuleRegex, Pattern: "[unclosed"},
			txn:  txnOn("ANYTHING", -10, tuesday),
			want: false,
		},
		{
			name: "amount range inclusive bounds",
			rule: model.CategorizationRule{Type: model.RuleAmountRange, Pattern: `{"min": 10, "max": 50}`},
			txn:  txnOn("SOMETHING", -50.00, tuesday),
			want: true,
		},
		{
			name: "amount range uses absolute value",
			rule: model.CategorizationRule{Type: model.RuleAmountRange, Pattern: `{"min": 10, "max": 50}`},
			txn:  txnOn("SOMETHING", -25.00, tuesday),
			want: true,
		},
		{
			name: "amount range outside",
			rule: model.CategorizationRule{Type: model.RuleAmountRange, Pattern: `{"min": 10, "max": 50}`},
			txn:  txnOn("SOMETHING", -50.02, tuesday),
			want: false,
		},
		{
			name: "amount range malformed payload never matches",
			rule: model.CategorizationRule{Type: model.RuleAmountRange, Pattern: "10-50"},
			txn:  txnOn("SOMETHING", -25.00, tuesday),
			want: false,
		},
		{
			name: "amount exact within tolerance",
			rule: model.CategorizationRule{Type: model.RuleAmountExact, Pattern: "16.99"},
			txn:  txnOn("SUBSCRIPTION", -16.994, tuesday),
			want: true,
		},
		{
			name: "amount exact outside tolerance",
			rule: model.CategorizationRule{Type: model.RuleAmountExact, Pattern: "16.99"},
			txn:  txnOn("SUBSCRIPTION", -17.01, tuesday),
			want: false,
		},
		{
			name: "amount greater strict",
			rule: model.CategorizationRule{Type: model.RuleAmountGreater, Pattern: "100"},
			txn:  txnOn("BIG PURCHASE", -100.00, tuesday),
			want: false,
		},
		{
			name: "amount less",
			rule: model.CategorizationRule{Type: model.RuleAmountLess, Pattern: "5"},
			txn:  txnOn("COFFEE", -3.25, tuesday),
			want: true,
		},
		{
			name: "merchant extracted from noisy description",
			rule: model.CategorizationRule{Type: model.RuleMerchant, Pattern: "metro"},
			txn:  txnOn("POS METRO ONTARIO #0042 REF:99812", -54.20, tuesday),
			want: true,
		},
		{
			name: "date range inclusive",
			rule: model.CategorizationRule{Type: model.RuleDateRange, Pattern: `{"start": "2024-06-01", "end": "2024-06-11"}`},
			txn:  txnOn("SOMETHING", -10, tuesday),
			want: true,
		},
		{
			name: "date range before start",
			rule: model.CategorizationRule{Type: model.RuleDateRange, Pattern: `{"start": "2024-06-12", "end": "2024-06-30"}`},
			txn:  txnOn("SOMETHING", -10, tuesday),
			want: false,
		},
		{
			name: "day of week matches tuesday as 1",
			rule: model.CategorizationRule{Type: model.RuleDayOfWeek, Pattern: "1,3"},
			txn:  txnOn("SOMETHING", -10, tuesday),
			want: true,
		},
		{
			name: "day of week rejects other days",
			rule: model.CategorizationRule{Type: model.RuleDayOfWeek, Pattern: "5,6"},
			txn:  txnOn("SOMETHING", -10, tuesday),
			want: false,
		},
		{
			name: "unknown rule type never matches",
			rule: model.CategorizationRule{Type: "telepathy", Pattern: "anything"},
			txn:  txnOn("SOMETHING", -10, tuesday),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(nil)
			got := m.Matches(ctx, tt.txn, tt.rule)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatcher_Recurring(t *testing.T) {
	ctx := context.Background()
	rule := model.CategorizationRule{Type: model.RuleRecurring}
	txn := txnOn("SPOTIFY P2ABC123", -10.99, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	t.Run("two prior occurrences match", func(t *testing.T) {
		m := NewMatcher(stubHistory{count: 2})
		assert.True(t, m.Matches(ctx, txn, rule))
	})

	t.Run("one prior occurrence is not recurring", func(t *testing.T) {
		m := NewMatcher(stubHistory{count: 1})
		assert.False(t, m.Matches(ctx, txn, rule))
	})

	t.Run("nil history never matches", func(t *testing.T) {
		m := NewMatcher(nil)
		assert.False(t, m.Matches(ctx, txn, rule))
	})

	t.Run("history error is a non-match", func(t *testing.T) {
		m := NewMatcher(stubHistory{err: assert.AnError})
		assert.False(t, m.Matches(ctx, txn, rule))
	})
}

func TestMatcher_CombinedConditions(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC)

	contains := func(text string) model.RuleCondition {
		return model.RuleCondition{Kind: model.ConditionDescriptionContains, Text: text}
	}

	tests := []struct {
		name       string
		conditions *model.RuleConditions
		txn        model.Transaction
		want       bool
	}{
		{
			name: "AND requires all conditions",
			conditions: &model.RuleConditions{
				Operator: model.CombineAnd,
				Conditions: []model.RuleCondition{
					contains("UBER"),
					{Kind: model.ConditionAmountMax, Amount: 30},
				},
			},
			txn:  txnOn("UBER TRIP", -23.50, date),
			want: true,
		},
		{
			name: "AND fails on one miss",
			conditions: &model.RuleConditions{
				Operator: model.CombineAnd,
				Conditions: []model.RuleCondition{
					contains("UBER"),
					{Kind: model.ConditionAmountMax, Amount: 10},
				},
			},
			txn:  txnOn("UBER TRIP", -23.50, date),
			want: false,
		},
		{
			name: "OR needs any condition",
			conditions: &model.RuleConditions{
				Operator: model.CombineOr,
				Conditions: []model.RuleCondition{
					contains("LYFT"),
					{Kind: model.ConditionAmountExact, Amount: 23.50},
				},
			},
			txn:  txnOn("UBER TRIP", -23.50, date),
			want: true,
		},
		{
			name: "empty condition list never matches",
			conditions: &model.RuleConditions{
				Operator:   model.CombineAnd,
				Conditions: []model.RuleCondition{},
			},
			txn:  txnOn("UBER TRIP", -23.50, date),
			want: false,
		},
		{
			name: "date window with AND",
			conditions: &model.RuleConditions{
				Operator: model.CombineAnd,
				Conditions: []model.RuleCondition{
					{Kind: model.ConditionDateAfter, Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
					{Kind: model.ConditionDateBefore, Date: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)},
				},
			},
			txn:  txnOn("ANYTHING", -5, date),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(nil)
			r := model.CategorizationRule{Type: model.RuleCombined, Conditions: tt.conditions}
			assert.Equal(t, tt.want, m.Matches(ctx, tt.txn, r))
		})
	}

	t.Run("nil conditions never match", func(t *testing.T) {
		m := NewMatcher(nil)
		r := model.CategorizationRule{Type: model.RuleCombined}
		assert.False(t, m.Matches(ctx, txnOn("ANYTHING", -5, date), r))
	})
}

func TestExtractMerchantName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips POS prefix and store suffix", "POS METRO ONTARIO #0042", "METRO ONTARIO"},
		{"strips ref marker", "DEBIT STARBUCKS REF:8891", "STARBUCKS"},
		{"plain description unchanged", "NETFLIX.COM", "NETFLIX.COM"},
		{"only first prefix is stripped", "PAYMENT PURCHASE ACME", "PURCHASE ACME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMerchantName(tt.in))
		})
	}
}
