package rule

import (
	"math"
	"strings"
	"time"

	"github.com/yobazy/MyFinance/internal/model"
)

// evaluateConditions folds the tagged condition list of a combined rule with
// its operator. An empty condition list never matches.
func (m *Matcher) evaluateConditions(txn model.Transaction, r model.CategorizationRule) bool {
	if r.Conditions == nil || len(r.Conditions.Conditions) == 0 {
		return false
	}

	amount := math.Abs(txn.Amount)
	day := dateOnly(txn.Date)

	results := make([]bool, 0, len(r.Conditions.Conditions))
	for _, cond := range r.Conditions.Conditions {
		results = append(results, m.evaluateCondition(txn, r, cond, amount, day))
	}

	if r.Conditions.Operator == model.CombineOr {
		for _, ok := range results {
			if ok {
				return true
			}
		}
		return false
	}

	// AND is the default operator.
	for _, ok := range results {
		if !ok {
			return false
		}
	}
	return true
}

func (m *Matcher) evaluateCondition(txn model.Transaction, r model.CategorizationRule, cond model.RuleCondition, amount float64, day time.Time) bool {
	switch cond.Kind {
	case model.ConditionDescriptionContains:
		text := cond.Text
		description := txn.Description
		if !r.CaseSensitive {
			text = strings.ToUpper(text)
			description = strings.ToUpper(description)
		}
		return strings.Contains(description, text)

	case model.ConditionDescriptionRegex:
		re := m.compile(cond.Text, r.CaseSensitive)
		if re == nil {
			m.skip(r, "condition regex does not compile")
			return false
		}
		return re.MatchString(txn.Description)

	case model.ConditionAmountMin:
		return amount >= cond.Amount

	case model.ConditionAmountMax:
		return amount <= cond.Amount

	case model.ConditionAmountExact:
		return math.Abs(amount-cond.Amount) < amountTolerance

	case model.ConditionDateAfter:
		return !day.Before(dateOnly(cond.Date))

	case model.ConditionDateBefore:
		return !day.After(dateOnly(cond.Date))
	}

	return false
}
