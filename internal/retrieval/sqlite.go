package retrieval

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the default Retriever. Relevance is keyword-overlap
// scoring over the stored text, an interface-true stand-in rather than a
// search engine.
type SQLiteStore struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// OpenSQLite opens (or creates) a document store at the given path.
// WAL mode is enabled for concurrent reads.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &SQLiteStore{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			collection TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}'
		)
	`)
	if err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	_, err = s.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection)`)
	if err != nil {
		return fmt.Errorf("create collection index: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) AddDocument(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document missing id")
	}
	meta := "{}"
	if len(doc.Metadata) > 0 {
		b, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		meta = string(b)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO documents (id, collection, text, metadata)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET collection=excluded.collection, text=excluded.text, metadata=excluded.metadata
	`, doc.ID, doc.Collection, doc.Text, meta)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", doc.ID, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.conn.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s not found", id)
	}
	return nil
}

func (s *SQLiteStore) AdvancedQuery(ctx context.Context, text string, keywords []string, topK int, collectionPrefixes []string) ([]Result, error) {
	if topK <= 0 {
		topK = 3
	}
	terms := queryTerms(text, keywords)

	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.conn.QueryContext(ctx, `SELECT id, collection, text FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	type scored struct {
		result Result
		score  int
	}
	var candidates []scored
	for rows.Next() {
		var id, collection, body string
		if err := rows.Scan(&id, &collection, &body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if !matchesPrefix(collection, collectionPrefixes) {
			continue
		}
		if score := overlapScore(body, terms); score > 0 {
			candidates = append(candidates, scored{result: Result{URL: id, Text: body}, score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	if len(candidates) == 0 {
		return []Result{EmptyResult}, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, c.result)
	}
	return results, nil
}

// SaveState is a no-op beyond a WAL checkpoint: sqlite is the durable state.
func (s *SQLiteStore) SaveState(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.conn.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

// LoadState validates that the database file is present and readable.
func (s *SQLiteStore) LoadState(ctx context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("state file: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn.PingContext(ctx)
}

var termSplitRe = regexp.MustCompile(`[^a-z0-9]+`)

func queryTerms(text string, keywords []string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, source := range append([]string{text}, keywords...) {
		for _, term := range termSplitRe.Split(strings.ToLower(source), -1) {
			if len(term) > 2 {
				terms[term] = struct{}{}
			}
		}
	}
	return terms
}

func overlapScore(body string, terms map[string]struct{}) int {
	lower := strings.ToLower(body)
	score := 0
	for term := range terms {
		if strings.Contains(lower, term) {
			score++
		}
	}
	return score
}

func matchesPrefix(collection string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(collection, p) {
			return true
		}
	}
	return false
}
