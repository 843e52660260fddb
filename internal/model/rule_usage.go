package model

import "time"

// RuleUsage is an append-only audit record of a user rule matching a specific
// transaction. One record is created per qualifying match.
type RuleUsage struct {
	MatchedAt     time.Time
	TransactionID string
	ID            int64
	RuleID        int
	Confidence    float64
	WasApplied    bool
}
