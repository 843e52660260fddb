package model

import "time"

// Transaction represents a single financial transaction from any source.
// Negative amounts are commonly expenses, depending on the source convention;
// the categorization engine compares on absolute value.
type Transaction struct {
	Date                time.Time
	ID                  string
	Description         string
	AccountID           string
	CategoryID          *int
	SuggestedCategoryID *int
	Amount              float64
	ConfidenceScore     float64
	AutoCategorized     bool
}

// IsCategorized reports whether the transaction already has a category.
func (t *Transaction) IsCategorized() bool {
	return t.CategoryID != nil
}
