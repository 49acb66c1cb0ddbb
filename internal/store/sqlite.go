package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a single SQLite documents table.
// Writes dispatch fresh snapshots to live subscribers synchronously,
// so within one session a caller observes its own writes on the next
// delivery.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	nextSub int
	subs    map[int]*subscription
}

type subscription struct {
	// Exactly one of collection or docPath is set.
	collection string
	docPath    string
	deliver    func(docs []Document, doc *Document)
}

// OpenSQLite opens or creates the document database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve store db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure store db dir: %w", err)
	}

	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}

	s := &SQLiteStore{
		db:   db,
		subs: make(map[int]*subscription),
	}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection. Open subscriptions stop
// receiving snapshots.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	s.subs = make(map[int]*subscription)
	s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS documents (
	path TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	payload_json TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, created_at);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create store schema: %w", err)
	}
	return nil
}

// Subscribe registers a live query over a collection. The current
// snapshot is delivered before Subscribe returns.
func (s *SQLiteStore) Subscribe(collection string, fn func([]Document)) (func(), error) {
	docs, err := s.queryCollection(collection)
	if err != nil {
		return nil, err
	}

	sub := &subscription{
		collection: collection,
		deliver:    func(docs []Document, _ *Document) { fn(docs) },
	}
	cancel := s.register(sub)
	fn(docs)
	return cancel, nil
}

// SubscribeDoc registers a live read of a single document. The current
// state (nil when absent) is delivered before SubscribeDoc returns.
func (s *SQLiteStore) SubscribeDoc(path string, fn func(*Document)) (func(), error) {
	doc, err := s.queryDoc(path)
	if err != nil {
		return nil, err
	}

	sub := &subscription{
		docPath: path,
		deliver: func(_ []Document, doc *Document) { fn(doc) },
	}
	cancel := s.register(sub)
	fn(doc)
	return cancel, nil
}

func (s *SQLiteStore) register(sub *subscription) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Create inserts a new document with a store-assigned id and returns it.
func (s *SQLiteStore) Create(collection string, data any) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", &StoreError{Op: "create", Path: collection, Err: err}
	}

	id := uuid.NewString()
	path := DocPath(collection, id)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = s.db.Exec(`
		INSERT INTO documents (path, collection, payload_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, path, collection, string(payload), now, now)
	if err != nil {
		return "", &StoreError{Op: "create", Path: path, Err: err}
	}

	s.notify(collection, path)
	return id, nil
}

// SetDoc overwrites a singleton document, creating it if absent. With
// merge set, top-level fields of data are merged over the existing
// payload instead of replacing it wholesale.
func (s *SQLiteStore) SetDoc(path string, data any, merge bool) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return &StoreError{Op: "set", Path: path, Err: err}
	}

	if merge {
		existing, err := s.queryDoc(path)
		if err != nil {
			return err
		}
		if existing != nil {
			payload, err = mergePayloads(existing.Data, payload)
			if err != nil {
				return &StoreError{Op: "set", Path: path, Err: err}
			}
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	collection := parentCollection(path)
	_, err = s.db.Exec(`
		INSERT INTO documents (path, collection, payload_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET payload_json = excluded.payload_json, updated_at = excluded.updated_at
	`, path, collection, string(payload), now, now)
	if err != nil {
		return &StoreError{Op: "set", Path: path, Err: err}
	}

	s.notify(collection, path)
	return nil
}

// Update merges partial top-level fields into an existing document.
// Missing documents fail with ErrNotFound.
func (s *SQLiteStore) Update(path string, partial any) error {
	payload, err := json.Marshal(partial)
	if err != nil {
		return &StoreError{Op: "update", Path: path, Err: err}
	}

	existing, err := s.queryDoc(path)
	if err != nil {
		return err
	}
	if existing == nil {
		return &StoreError{Op: "update", Path: path, Err: ErrNotFound}
	}

	merged, err := mergePayloads(existing.Data, payload)
	if err != nil {
		return &StoreError{Op: "update", Path: path, Err: err}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.Exec(`
		UPDATE documents SET payload_json = ?, updated_at = ? WHERE path = ?
	`, string(merged), now, path)
	if err != nil {
		return &StoreError{Op: "update", Path: path, Err: err}
	}

	s.notify(parentCollection(path), path)
	return nil
}

// Delete removes a document. Deleting an absent document is a no-op.
func (s *SQLiteStore) Delete(path string) error {
	if _, err := s.db.Exec("DELETE FROM documents WHERE path = ?", path); err != nil {
		return &StoreError{Op: "delete", Path: path, Err: err}
	}
	s.notify(parentCollection(path), path)
	return nil
}

// notify re-queries the affected collection and document and dispatches
// fresh snapshots to matching subscribers.
func (s *SQLiteStore) notify(collection, path string) {
	s.mu.Lock()
	targets := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.collection == collection || sub.docPath == path {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	docs, docsErr := s.queryCollection(collection)
	doc, docErr := s.queryDoc(path)

	for _, sub := range targets {
		if sub.collection != "" {
			if docsErr == nil {
				sub.deliver(docs, nil)
			}
			continue
		}
		if docErr == nil {
			sub.deliver(nil, doc)
		}
	}
}

func (s *SQLiteStore) queryCollection(collection string) ([]Document, error) {
	rows, err := s.db.Query(`
		SELECT path, payload_json FROM documents
		WHERE collection = ?
		ORDER BY created_at ASC, path ASC
	`, collection)
	if err != nil {
		return nil, &StoreError{Op: "query", Path: collection, Err: err}
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var path, payload string
		if err := rows.Scan(&path, &payload); err != nil {
			return nil, &StoreError{Op: "query", Path: collection, Err: err}
		}
		docs = append(docs, Document{
			ID:   docID(path),
			Data: json.RawMessage(payload),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "query", Path: collection, Err: err}
	}
	return docs, nil
}

func (s *SQLiteStore) queryDoc(path string) (*Document, error) {
	var payload string
	err := s.db.QueryRow("SELECT payload_json FROM documents WHERE path = ?", path).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "query", Path: path, Err: err}
	}
	return &Document{ID: docID(path), Data: json.RawMessage(payload)}, nil
}

func mergePayloads(existing, partial json.RawMessage) (json.RawMessage, error) {
	var base map[string]json.RawMessage
	if err := json.Unmarshal(existing, &base); err != nil {
		return nil, fmt.Errorf("decode existing payload: %w", err)
	}
	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(partial, &overlay); err != nil {
		return nil, fmt.Errorf("decode partial payload: %w", err)
	}
	if base == nil {
		base = make(map[string]json.RawMessage)
	}
	for k, v := range overlay {
		base[k] = v
	}
	merged, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("encode merged payload: %w", err)
	}
	return merged, nil
}

func parentCollection(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

func docID(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}
