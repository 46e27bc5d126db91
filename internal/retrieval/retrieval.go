// Package retrieval defines the document retrieval collaborator and a
// SQLite-backed default store.
package retrieval

import "context"

// Result is one retrieved passage.
type Result struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// EmptyResult is the sentinel returned instead of an error when nothing
// matches. Downstream validity checks key on it.
var EmptyResult = Result{URL: "None", Text: ""}

// Empty reports whether a result set is the empty sentinel.
func Empty(results []Result) bool {
	if len(results) == 0 {
		return true
	}
	return len(results) == 1 && results[0].URL == EmptyResult.URL && results[0].Text == ""
}

// Document is one stored passage.
type Document struct {
	// ID is the caller-assigned identifier; also the result URL.
	ID string
	// Collection groups documents for prefix-scoped queries.
	Collection string
	// Text is the passage body.
	Text string
	// Metadata carries free-form annotations.
	Metadata map[string]string
}

// Retriever is the retrieval collaborator the orchestrator depends on.
// Implementations never error on an empty index; they return the sentinel.
type Retriever interface {
	// AdvancedQuery returns the topK passages most relevant to the query
	// text and keywords, restricted to collections matching any of the
	// given prefixes (no prefixes means all collections).
	AdvancedQuery(ctx context.Context, text string, keywords []string, topK int, collectionPrefixes []string) ([]Result, error)
	// AddDocument inserts or replaces a document.
	AddDocument(ctx context.Context, doc Document) error
	// DeleteDocument removes a document by ID.
	DeleteDocument(ctx context.Context, id string) error
	// SaveState flushes pending writes to durable storage.
	SaveState(ctx context.Context) error
	// LoadState restores the store from durable storage.
	LoadState(ctx context.Context) error
}
