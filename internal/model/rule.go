package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// RuleType identifies how a categorization rule's pattern is interpreted.
type RuleType string

// Rule type constants. The matcher dispatches exhaustively on this set;
// anything else never matches.
const (
	RuleKeyword       RuleType = "keyword"
	RuleContains      RuleType = "contains"
	RuleExact         RuleType = "exact"
	RuleRegex         RuleType = "regex"
	RuleAmountRange   RuleType = "amount_range"
	RuleAmountExact   RuleType = "amount_exact"
	RuleAmountGreater RuleType = "amount_greater"
	RuleAmountLess    RuleType = "amount_less"
	RuleMerchant      RuleType = "merchant"
	RuleDateRange     RuleType = "date_range"
	RuleDayOfWeek     RuleType = "day_of_week"
	RuleRecurring     RuleType = "recurring"
	RuleCombined      RuleType = "combined"
)

// RuleTypes returns all valid rule types.
func RuleTypes() []RuleType {
	return []RuleType{
		RuleKeyword, RuleContains, RuleExact, RuleRegex,
		RuleAmountRange, RuleAmountExact, RuleAmountGreater, RuleAmountLess,
		RuleMerchant, RuleDateRange, RuleDayOfWeek, RuleRecurring, RuleCombined,
	}
}

// CategorizationRule represents a user-defined rule for matching transactions
// to a category. A rule whose target category is a root category is inert: it
// is skipped during matching even when its pattern matches.
type CategorizationRule struct {
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	LastMatched   *time.Time      `json:"last_matched,omitempty"`
	Conditions    *RuleConditions `json:"conditions,omitempty"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Type          RuleType        `json:"rule_type"`
	Pattern       string          `json:"pattern"`
	ID            int             `json:"id"`
	CategoryID    int             `json:"category_id"`
	Priority      int             `json:"priority"`
	MatchCount    int             `json:"match_count"`
	IsActive      bool            `json:"is_active"`
	CaseSensitive bool            `json:"case_sensitive"`
}

// Preview returns a human-readable description of what the rule matches.
func (r *CategorizationRule) Preview() string {
	switch r.Type {
	case RuleKeyword:
		return fmt.Sprintf("Description contains any of: %s", r.Pattern)
	case RuleContains:
		return fmt.Sprintf("Description contains: %s", r.Pattern)
	case RuleExact:
		return fmt.Sprintf("Description exactly matches: %s", r.Pattern)
	case RuleRegex:
		return fmt.Sprintf("Description matches regex: %s", r.Pattern)
	case RuleAmountRange:
		var bounds struct {
			Min *float64 `json:"min"`
			Max *float64 `json:"max"`
		}
		if err := json.Unmarshal([]byte(r.Pattern), &bounds); err == nil && bounds.Min != nil && bounds.Max != nil {
			return fmt.Sprintf("Amount between $%.2f and $%.2f", *bounds.Min, *bounds.Max)
		}
		return fmt.Sprintf("Amount range: %s", r.Pattern)
	case RuleAmountExact:
		return fmt.Sprintf("Amount exactly: $%s", r.Pattern)
	case RuleAmountGreater:
		return fmt.Sprintf("Amount greater than: $%s", r.Pattern)
	case RuleAmountLess:
		return fmt.Sprintf("Amount less than: $%s", r.Pattern)
	case RuleMerchant:
		return fmt.Sprintf("Merchant name contains: %s", r.Pattern)
	case RuleDateRange:
		return fmt.Sprintf("Date within: %s", r.Pattern)
	case RuleDayOfWeek:
		return fmt.Sprintf("Day of week in: %s", r.Pattern)
	case RuleRecurring:
		return "Recurring payment pattern"
	case RuleCombined:
		if r.Conditions != nil {
			return fmt.Sprintf("Combined conditions (%s)", r.Conditions.Operator)
		}
		return "Combined conditions"
	default:
		return fmt.Sprintf("Custom rule: %s", r.Pattern)
	}
}
