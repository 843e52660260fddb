// Package model defines the core domain models used throughout the application.
package model

import "time"

// Category represents a node in the category taxonomy. A category without a
// parent is a root; a category with a parent is a subcategory. Only
// subcategories are valid auto-categorization targets.
type Category struct {
	CreatedAt   time.Time
	Name        string
	Description string
	Color       string
	ParentID    *int
	ID          int
	IsActive    bool
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// IsSubcategory reports whether the category has a parent.
func (c *Category) IsSubcategory() bool {
	return c.ParentID != nil
}
