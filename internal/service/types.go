package service

import "github.com/yobazy/MyFinance/internal/model"

// BulkStats shows the results of a bulk categorization run. Each transaction
// lands in exactly one bucket besides TotalProcessed.
type BulkStats struct {
	TotalProcessed      int `json:"total_processed"`
	AutoCategorized     int `json:"auto_categorized"`
	UserRuleCategorized int `json:"user_rule_categorized"`
	NeedsReview         int `json:"needs_review"`
	NoMatch             int `json:"no_match"`
}

// RefreshStats shows the results of a suggestion refresh pass over
// uncategorized transactions.
type RefreshStats struct {
	TotalProcessed     int `json:"total_processed"`
	SuggestionsUpdated int `json:"suggestions_updated"`
	NoSuggestion       int `json:"no_suggestion"`
}

// ConfidenceLevel buckets a preview candidate by confidence.
type ConfidenceLevel string

// Confidence level constants.
const (
	LevelHigh   ConfidenceLevel = "high"   // >= 0.8
	LevelMedium ConfidenceLevel = "medium" // >= 0.5
	LevelLow    ConfidenceLevel = "low"    // anything else with a candidate
	LevelNone   ConfidenceLevel = "none"   // no candidate
)

// PreviewItem is one transaction of a preview page with its candidate
// category.
type PreviewItem struct {
	Category    *model.Category   `json:"category,omitempty"`
	Level       ConfidenceLevel   `json:"confidence_level"`
	Transaction model.Transaction `json:"transaction"`
	Confidence  float64           `json:"confidence"`
	WouldApply  bool              `json:"would_apply"`
}

// PageStats counts preview items per confidence level.
type PageStats struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	None   int `json:"none"`
}

// Pagination carries page metadata for the preview workflow.
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// PreviewPage is the result of a read-only categorization preview.
type PreviewPage struct {
	Items      []PreviewItem `json:"items"`
	Stats      PageStats     `json:"page_stats"`
	Pagination Pagination    `json:"pagination"`
}

// ChangeAction is the kind of mutation requested for one preview item.
type ChangeAction string

// Change action constants.
const (
	ActionCategorize ChangeAction = "categorize"
	ActionRemove     ChangeAction = "remove"
)

// CategoryChange is one itemized mutation of the apply step.
type CategoryChange struct {
	TransactionID string       `json:"transaction_id"`
	Action        ChangeAction `json:"action"`
	CategoryID    int          `json:"category_id"`
}

// ApplyError records a single failed change within an apply batch.
type ApplyError struct {
	TransactionID string `json:"transaction_id"`
	Error         string `json:"error"`
}

// ApplyResult accumulates per-item outcomes of an apply batch; one bad item
// does not abort the rest.
type ApplyResult struct {
	Errors       []ApplyError `json:"errors"`
	AppliedCount int          `json:"applied_count"`
}

// Suggestion is one ranked category suggestion for manual review.
type Suggestion struct {
	Category   *model.Category `json:"category"`
	Reason     string          `json:"reason"`
	Confidence float64         `json:"confidence"`
}

// TransactionCounts aggregates transaction totals for statistics reporting.
type TransactionCounts struct {
	Total           int `json:"total_transactions"`
	Categorized     int `json:"categorized"`
	AutoCategorized int `json:"auto_categorized"`
}

// CategorizationStats summarizes how much of the ledger is categorized.
type CategorizationStats struct {
	TotalTransactions  int     `json:"total_transactions"`
	Categorized        int     `json:"categorized"`
	AutoCategorized    int     `json:"auto_categorized"`
	Uncategorized      int     `json:"uncategorized"`
	CategorizationRate float64 `json:"categorization_rate"`
}
