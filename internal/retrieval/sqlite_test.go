package retrieval

import (
	"context"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAdvancedQueryEmptyIndexSentinel(t *testing.T) {
	store := testStore(t)

	results, err := store.AdvancedQuery(context.Background(), "anything", nil, 3, nil)
	if err != nil {
		t.Fatalf("AdvancedQuery: %v", err)
	}
	if !Empty(results) {
		t.Fatalf("results = %+v, want empty sentinel", results)
	}
	if results[0].URL != "None" {
		t.Errorf("sentinel URL = %q, want None", results[0].URL)
	}
}

func TestAddQueryDelete(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	docs := []Document{
		{ID: "doc-fdi", Collection: "economics", Text: "Foreign direct investment flows into Asia rose sharply in 2021."},
		{ID: "doc-trade", Collection: "economics", Text: "Trade balances shifted as exports recovered."},
		{ID: "doc-cooking", Collection: "recipes", Text: "Slice the onions thinly before frying."},
	}
	for _, d := range docs {
		if err := store.AddDocument(ctx, d); err != nil {
			t.Fatalf("AddDocument %s: %v", d.ID, err)
		}
	}

	results, err := store.AdvancedQuery(ctx, "foreign investment flows", []string{"asia"}, 2, nil)
	if err != nil {
		t.Fatalf("AdvancedQuery: %v", err)
	}
	if Empty(results) {
		t.Fatal("got empty sentinel, want matches")
	}
	if results[0].URL != "doc-fdi" {
		t.Errorf("top result = %s, want doc-fdi", results[0].URL)
	}

	if err := store.DeleteDocument(ctx, "doc-fdi"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if err := store.DeleteDocument(ctx, "doc-fdi"); err == nil {
		t.Error("want error deleting missing document")
	}
}

func TestAdvancedQueryCollectionPrefix(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	store.AddDocument(ctx, Document{ID: "a", Collection: "economics/asia", Text: "investment data for asia"})
	store.AddDocument(ctx, Document{ID: "b", Collection: "weather", Text: "investment in weather stations"})

	results, err := store.AdvancedQuery(ctx, "investment", nil, 5, []string{"economics"})
	if err != nil {
		t.Fatalf("AdvancedQuery: %v", err)
	}
	if len(results) != 1 || results[0].URL != "a" {
		t.Errorf("results = %+v, want only doc a", results)
	}
}

func TestAddDocumentUpsert(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	store.AddDocument(ctx, Document{ID: "x", Text: "original text about pandas"})
	if err := store.AddDocument(ctx, Document{ID: "x", Text: "revised text about pandas"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, _ := store.AdvancedQuery(ctx, "pandas", nil, 5, nil)
	if len(results) != 1 {
		t.Fatalf("results = %+v, want single revised doc", results)
	}
	if results[0].Text != "revised text about pandas" {
		t.Errorf("text = %q, want revised", results[0].Text)
	}
}

func TestSaveAndLoadState(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	if err := store.SaveState(ctx); err != nil {
		t.Errorf("SaveState: %v", err)
	}
	if err := store.LoadState(ctx); err != nil {
		t.Errorf("LoadState: %v", err)
	}
}
