// Package rule evaluates user-defined categorization rules against
// transactions and validates rule patterns at creation time.
package rule

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yobazy/MyFinance/internal/model"
)

// Tolerance for exact amount comparisons.
const amountTolerance = 0.01

// RecurrenceSource counts prior transactions that share a recurring payment
// shape with the given transaction (same account, same amount, same leading
// description).
type RecurrenceSource interface {
	CountRecurring(ctx context.Context, txn model.Transaction) (int, error)
}

// Matcher evaluates one rule against one transaction. It never returns an
// error: malformed rule payloads are treated as non-matches so a single bad
// rule cannot halt a bulk run.
type Matcher struct {
	history RecurrenceSource
	regexes map[string]*regexp.Regexp
	mu      sync.Mutex
}

// NewMatcher creates a matcher. The history source backs the recurring rule
// type; it may be nil, in which case recurring rules never match.
func NewMatcher(history RecurrenceSource) *Matcher {
	return &Matcher{
		history: history,
		regexes: make(map[string]*regexp.Regexp),
	}
}

// Matches reports whether the transaction satisfies the rule's pattern.
// Case sensitivity is controlled per rule; the default is case-insensitive.
func (m *Matcher) Matches(ctx context.Context, txn model.Transaction, r model.CategorizationRule) bool {
	description := txn.Description
	pattern := r.Pattern
	if !r.CaseSensitive {
		description = strings.ToUpper(description)
		pattern = strings.ToUpper(pattern)
	}
	amount := math.Abs(txn.Amount)

	switch r.Type {
	case model.RuleKeyword:
		for _, term := range strings.Split(pattern, ",") {
			term = strings.TrimSpace(term)
			if term != "" && strings.Contains(description, term) {
				return true
			}
		}
		return false

	case model.RuleContains:
		return strings.Contains(description, pattern)

	case model.RuleExact:
		return description == pattern

	case model.RuleRegex:
		re := m.compile(r.Pattern, r.CaseSensitive)
		if re == nil {
			m.skip(r, "regex does not compile")
			return false
		}
		return re.MatchString(txn.Description)

	case model.RuleAmountRange:
		low, high, err := parseAmountRange(r.Pattern)
		if err != nil {
			m.skip(r, err.Error())
			return false
		}
		return low <= amount && amount <= high

	case model.RuleAmountExact:
		target, err := strconv.ParseFloat(strings.TrimSpace(r.Pattern), 64)
		if err != nil {
			m.skip(r, "amount is not numeric")
			return false
		}
		return math.Abs(amount-target) < amountTolerance

	case model.RuleAmountGreater:
		target, err := strconv.ParseFloat(strings.TrimSpace(r.Pattern), 64)
		if err != nil {
			m.skip(r, "amount is not numeric")
			return false
		}
		return amount > target

	case model.RuleAmountLess:
		target, err := strconv.ParseFloat(strings.TrimSpace(r.Pattern), 64)
		if err != nil {
			m.skip(r, "amount is not numeric")
			return false
		}
		return amount < target

	case model.RuleMerchant:
		merchant := ExtractMerchantName(txn.Description)
		if !r.CaseSensitive {
			merchant = strings.ToUpper(merchant)
		}
		return strings.Contains(merchant, pattern)

	case model.RuleDateRange:
		start, end, err := parseDateRange(r.Pattern)
		if err != nil {
			m.skip(r, err.Error())
			return false
		}
		day := dateOnly(txn.Date)
		return !day.Before(start) && !day.After(end)

	case model.RuleDayOfWeek:
		days, err := parseWeekdays(r.Pattern)
		if err != nil {
			m.skip(r, err.Error())
			return false
		}
		// Monday=0 .. Sunday=6.
		weekday := (int(txn.Date.Weekday()) + 6) % 7
		for _, day := range days {
			if day == weekday {
				return true
			}
		}
		return false

	case model.RuleRecurring:
		if m.history == nil {
			return false
		}
		count, err := m.history.CountRecurring(ctx, txn)
		if err != nil {
			m.skip(r, err.Error())
			return false
		}
		return count >= 2

	case model.RuleCombined:
		return m.evaluateConditions(txn, r)
	}

	return false
}

// compile returns a cached compiled regex, or nil if the pattern is invalid.
func (m *Matcher) compile(pattern string, caseSensitive bool) *regexp.Regexp {
	expr := pattern
	if !caseSensitive {
		expr = "(?i)" + pattern
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if re, ok := m.regexes[expr]; ok {
		return re
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		re = nil
	}
	m.regexes[expr] = re
	return re
}

// skip logs a malformed pattern encountered during matching. The rule is
// treated as a non-match; nothing is surfaced to the caller.
func (m *Matcher) skip(r model.CategorizationRule, reason string) {
	slog.Debug("skipping malformed rule pattern",
		"rule_id", r.ID,
		"rule", r.Name,
		"type", r.Type,
		"reason", reason)
}

// amountRangePattern is the structured payload of an amount_range rule.
type amountRangePattern struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

func parseAmountRange(pattern string) (low, high float64, err error) {
	var bounds amountRangePattern
	if err := json.Unmarshal([]byte(pattern), &bounds); err != nil {
		return 0, 0, err
	}
	low = 0
	high = math.Inf(1)
	if bounds.Min != nil {
		low = *bounds.Min
	}
	if bounds.Max != nil {
		high = *bounds.Max
	}
	return low, high, nil
}

// dateRangePattern is the structured payload of a date_range rule.
type dateRangePattern struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func parseDateRange(pattern string) (start, end time.Time, err error) {
	var bounds dateRangePattern
	if err := json.Unmarshal([]byte(pattern), &bounds); err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err = time.Parse("2006-01-02", bounds.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = time.Parse("2006-01-02", bounds.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func parseWeekdays(pattern string) ([]int, error) {
	parts := strings.Split(pattern, ",")
	days := make([]int, 0, len(parts))
	for _, part := range parts {
		day, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

// dateOnly truncates a timestamp to its calendar day in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
