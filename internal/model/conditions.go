package model

import "time"

// CombineOperator controls how the sub-results of a combined rule fold
// together.
type CombineOperator string

// Combine operator constants.
const (
	CombineAnd CombineOperator = "AND"
	CombineOr  CombineOperator = "OR"
)

// ConditionKind identifies one condition variant of a combined rule.
type ConditionKind string

// Condition kind constants.
const (
	ConditionDescriptionContains ConditionKind = "description_contains"
	ConditionDescriptionRegex    ConditionKind = "description_regex"
	ConditionAmountMin           ConditionKind = "amount_min"
	ConditionAmountMax           ConditionKind = "amount_max"
	ConditionAmountExact         ConditionKind = "amount_exact"
	ConditionDateAfter           ConditionKind = "date_after"
	ConditionDateBefore          ConditionKind = "date_before"
)

// RuleCondition is one tagged condition of a combined rule. Only the payload
// field matching Kind is meaningful: Text for description kinds, Amount for
// amount kinds, Date for date kinds.
type RuleCondition struct {
	Date   time.Time     `json:"date,omitempty"`
	Kind   ConditionKind `json:"kind"`
	Text   string        `json:"text,omitempty"`
	Amount float64       `json:"amount,omitempty"`
}

// RuleConditions is the structured payload of a combined rule: a list of
// conditions folded with the stated operator. An empty list never matches.
type RuleConditions struct {
	Operator   CombineOperator `json:"operator"`
	Conditions []RuleCondition `json:"conditions"`
}
