package precedent

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/themis/pkg/constitution"
)

func storedPrecedent(id string) *Precedent {
	return &Precedent{
		ID:       id,
		Title:    "memory quota exceeded",
		KeyFacts: []string{"allocation spike during batch processing"},
		Applicability: Applicability{
			Category: constitution.CategoryResourceUse,
			Severity: constitution.SeverityModerate,
		},
		Verdict:          VerdictSnapshot{VerdictID: "verd-001", Outcome: "REJECTED", Confidence: 0.9},
		RulesInvolved:    []string{"res-limit-001"},
		ReasoningSummary: "repeated quota violations warrant rejection",
		CreatedAt:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testStores(t *testing.T) map[string]Store {
	t.Helper()

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "precedents.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqliteStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.Add(ctx, storedPrecedent("prec-001")); err != nil {
				t.Fatalf("Add: %v", err)
			}

			got, err := store.Get(ctx, "prec-001")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got == nil {
				t.Fatal("Get returned nil for stored precedent")
			}
			if got.Title != "memory quota exceeded" {
				t.Errorf("title = %q", got.Title)
			}
			if got.Applicability.Category != constitution.CategoryResourceUse {
				t.Errorf("category = %s", got.Applicability.Category)
			}
			if got.CitationCount != 0 {
				t.Errorf("new precedent citation count = %d, want 0", got.CitationCount)
			}
		})
	}
}

func TestStoreRejectsDuplicates(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.Add(ctx, storedPrecedent("prec-001")); err != nil {
				t.Fatalf("first Add: %v", err)
			}
			if err := store.Add(ctx, storedPrecedent("prec-001")); err == nil {
				t.Error("duplicate Add succeeded, want error")
			}
		})
	}
}

func TestStoreGetMissing(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := store.Get(context.Background(), "no-such-id")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got != nil {
				t.Errorf("Get returned %+v for missing id", got)
			}
		})
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			older := storedPrecedent("prec-001")
			older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			newer := storedPrecedent("prec-002")
			newer.CreatedAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

			if err := store.Add(ctx, older); err != nil {
				t.Fatalf("Add older: %v", err)
			}
			if err := store.Add(ctx, newer); err != nil {
				t.Fatalf("Add newer: %v", err)
			}

			got, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("List returned %d precedents, want 2", len(got))
			}
			if got[0].ID != "prec-002" {
				t.Errorf("first listed = %s, want prec-002 (newest)", got[0].ID)
			}
		})
	}
}

func TestStoreIncrementCitation(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.Add(ctx, storedPrecedent("prec-001")); err != nil {
				t.Fatalf("Add: %v", err)
			}

			for i := 0; i < 3; i++ {
				if err := store.IncrementCitation(ctx, "prec-001"); err != nil {
					t.Fatalf("IncrementCitation: %v", err)
				}
			}

			got, err := store.Get(ctx, "prec-001")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.CitationCount != 3 {
				t.Errorf("citation count = %d, want 3", got.CitationCount)
			}

			if err := store.IncrementCitation(ctx, "no-such-id"); err == nil {
				t.Error("IncrementCitation on missing id succeeded, want error")
			}
		})
	}
}
