// Package testutil provides test fixtures: an in-memory database with the
// standard category tree, and transaction builders.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yobazy/MyFinance/internal/model"
	"github.com/yobazy/MyFinance/internal/service"
	"github.com/yobazy/MyFinance/internal/storage"
)

// TestDB wraps an in-memory storage with the seeded category tree.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
	// Roots and Subs map category names to ids for assertions.
	Roots map[string]int
	Subs  map[string]int
}

// seedTree is the category tree most tests need: a few roots, each with
// subcategories, mirroring the defaults a fresh install gets.
var seedTree = map[string][]string{
	"Food":           {"Dining Out", "Groceries", "Convenience"},
	"Transportation": {"Public Transit", "Gas & Fuel", "Rideshare"},
	"Shopping":       {"Online Shopping", "Clothing"},
	"Entertainment":  {"Subscriptions", "Events", "Nightlife"},
	"Utilities":      {"Miscellaneous", "Banking & Fees"},
	"Healthcare":     {"Personal Care"},
}

// SetupTestDB creates a migrated in-memory database seeded with the standard
// category tree. Cleanup is registered automatically.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db := &TestDB{
		Storage: store,
		t:       t,
		Roots:   make(map[string]int),
		Subs:    make(map[string]int),
	}

	for rootName, subs := range seedTree {
		root := &model.Category{Name: rootName}
		if err := store.CreateCategory(ctx, root); err != nil {
			t.Fatalf("failed to seed root category %q: %v", rootName, err)
		}
		db.Roots[rootName] = root.ID

		for _, subName := range subs {
			sub, err := store.GetOrCreateSubcategory(ctx, subName, root.ID)
			if err != nil {
				t.Fatalf("failed to seed subcategory %q: %v", subName, err)
			}
			db.Subs[subName] = sub.ID
		}
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return db
}

// NewTransaction builds an uncategorized transaction fixture with a fresh id.
func NewTransaction(description string, amount float64) model.Transaction {
	return model.Transaction{
		ID:          uuid.New().String(),
		Date:        time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		Description: description,
		Amount:      amount,
		AccountID:   "acct-checking",
	}
}

// SaveTransaction stores one transaction fixture and returns it.
func (db *TestDB) SaveTransaction(txn model.Transaction) model.Transaction {
	db.t.Helper()
	if err := db.Storage.SaveTransactions(context.Background(), []model.Transaction{txn}); err != nil {
		db.t.Fatalf("failed to save transaction fixture: %v", err)
	}
	return txn
}

// SaveCategorized stores a transaction fixture already assigned to the named
// subcategory.
func (db *TestDB) SaveCategorized(description string, amount float64, subcategory string) model.Transaction {
	db.t.Helper()
	txn := NewTransaction(description, amount)
	id, ok := db.Subs[subcategory]
	if !ok {
		db.t.Fatalf("unknown seeded subcategory %q", subcategory)
	}
	txn.CategoryID = &id
	txn.ConfidenceScore = 1.0
	return db.SaveTransaction(txn)
}
