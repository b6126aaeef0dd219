// Package file provides a file-backed implementation of the record store,
// keeping one JSON document per record under a per-collection directory.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brewprint/brewprint/pkg/persistence"
)

// Store implements persistence.Store on the local file system. It is meant
// for single-process use; a mutex serializes writers within the process.
type Store struct {
	root string
	mu   sync.RWMutex
}

// NewStore creates a file store rooted at the given directory.
func NewStore(root string) *Store {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Store{root: cleanRoot}
}

func (s *Store) dir(col persistence.Collection) string {
	return filepath.Join(s.root, string(col))
}

func (s *Store) path(col persistence.Collection, id string) string {
	return filepath.Join(s.dir(col), id+".json")
}

// Insert assigns identity and timestamps, enforces uniqueness, and writes the
// record.
func (s *Store) Insert(ctx context.Context, col persistence.Collection, doc persistence.Document) (persistence.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertLocked(ctx, col, doc)
}

func (s *Store) insertLocked(ctx context.Context, col persistence.Collection, doc persistence.Document) (persistence.Document, error) {
	if !persistence.KnownCollection(col) {
		return nil, persistence.NewStoreError("Insert", col, "", persistence.ErrUnknownCollection)
	}

	if err := s.checkUnique(ctx, col, doc, ""); err != nil {
		return nil, err
	}

	stored := doc.Clone()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	stored["id"] = uuid.New().String()
	stored["created_at"] = now
	stored["updated_at"] = now

	if err := s.write(col, stored); err != nil {
		return nil, persistence.NewStoreError("Insert", col, stored.ID(), err)
	}

	return stored, nil
}

// InsertMany inserts a batch. Uniqueness is checked for the whole batch up
// front so a conflicting batch leaves the store untouched; a write failure
// mid-batch rolls back the records already written.
func (s *Store) InsertMany(ctx context.Context, col persistence.Collection, docs []persistence.Document) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !persistence.KnownCollection(col) {
		return nil, persistence.NewStoreError("InsertMany", col, "", persistence.ErrUnknownCollection)
	}

	seen := make(map[string]bool, len(docs))

	for _, doc := range docs {
		if err := s.checkUnique(ctx, col, doc, ""); err != nil {
			return nil, err
		}

		if key := uniqueKeyValue(col, doc); key != "" {
			if seen[key] {
				return nil, persistence.NewStoreError("InsertMany", col, "", persistence.ErrConflict)
			}

			seen[key] = true
		}
	}

	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		stored, err := s.insertUnchecked(col, doc)
		if err != nil {
			for _, id := range ids {
				_ = os.Remove(s.path(col, id))
			}

			return nil, err
		}

		ids = append(ids, stored.ID())
	}

	return ids, nil
}

func (s *Store) insertUnchecked(col persistence.Collection, doc persistence.Document) (persistence.Document, error) {
	stored := doc.Clone()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	stored["id"] = uuid.New().String()
	stored["created_at"] = now
	stored["updated_at"] = now

	if err := s.write(col, stored); err != nil {
		return nil, persistence.NewStoreError("InsertMany", col, stored.ID(), err)
	}

	return stored, nil
}

// UpdateByID merges fields into an existing record. Identity and creation
// time are not patchable.
func (s *Store) UpdateByID(ctx context.Context, col persistence.Collection, id string, fields persistence.Document) (persistence.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.read(col, id)
	if err != nil {
		return nil, persistence.NewStoreError("UpdateByID", col, id, err)
	}

	updated := stored.Clone()
	for k, v := range fields {
		if k == "id" || k == "created_at" {
			continue
		}

		updated[k] = v
	}

	if err := s.checkUnique(ctx, col, updated, id); err != nil {
		return nil, err
	}

	updated["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.write(col, updated); err != nil {
		return nil, persistence.NewStoreError("UpdateByID", col, id, err)
	}

	return updated, nil
}

// DeleteByID removes a record. Deleting a missing record is not an error.
func (s *Store) DeleteByID(_ context.Context, col persistence.Collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(col, id))
	if err != nil && !os.IsNotExist(err) {
		return persistence.NewStoreError("DeleteByID", col, id, err)
	}

	return nil
}

// DeleteWhere removes every record matching the filter.
func (s *Store) DeleteWhere(ctx context.Context, col persistence.Collection, filter persistence.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.scan(col)
	if err != nil {
		return persistence.NewStoreError("DeleteWhere", col, "", err)
	}

	for _, doc := range docs {
		if !matches(doc, filter) {
			continue
		}

		if err := os.Remove(s.path(col, doc.ID())); err != nil && !os.IsNotExist(err) {
			return persistence.NewStoreError("DeleteWhere", col, doc.ID(), err)
		}
	}

	return nil
}

// GetByID reads one record.
func (s *Store) GetByID(_ context.Context, col persistence.Collection, id string) (persistence.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.read(col, id)
	if err != nil {
		return nil, persistence.NewStoreError("GetByID", col, id, err)
	}

	return doc, nil
}

// Query returns all records matching the filter, sorted by the given order.
func (s *Store) Query(_ context.Context, col persistence.Collection, filter persistence.Filter, order ...persistence.Order) ([]persistence.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !persistence.KnownCollection(col) {
		return nil, persistence.NewStoreError("Query", col, "", persistence.ErrUnknownCollection)
	}

	docs, err := s.scan(col)
	if err != nil {
		return nil, persistence.NewStoreError("Query", col, "", err)
	}

	matched := make([]persistence.Document, 0, len(docs))

	for _, doc := range docs {
		if matches(doc, filter) {
			matched = append(matched, doc)
		}
	}

	if len(order) > 0 {
		sortDocuments(matched, order[0])
	}

	return matched, nil
}

// HealthCheck verifies the root directory is reachable.
func (s *Store) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close is a no-op for the file store.
func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) read(col persistence.Collection, id string) (persistence.Document, error) {
	body, err := os.ReadFile(s.path(col, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrNotFound
		}

		return nil, err
	}

	var doc persistence.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return doc, nil
}

func (s *Store) write(col persistence.Collection, doc persistence.Document) error {
	if err := os.MkdirAll(s.dir(col), 0750); err != nil {
		return fmt.Errorf("failed to create collection directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	return os.WriteFile(s.path(col, doc.ID()), data, 0600)
}

func (s *Store) scan(col persistence.Collection) ([]persistence.Document, error) {
	entries, err := os.ReadDir(s.dir(col))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	docs := make([]persistence.Document, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		doc, err := s.read(col, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

// checkUnique scans the collection for another record carrying the same
// unique key. selfID exempts the record being updated.
func (s *Store) checkUnique(_ context.Context, col persistence.Collection, doc persistence.Document, selfID string) error {
	key := uniqueKeyValue(col, doc)
	if key == "" {
		return nil
	}

	existing, err := s.scan(col)
	if err != nil {
		return persistence.NewStoreError("Insert", col, "", err)
	}

	for _, other := range existing {
		if selfID != "" && other.ID() == selfID {
			continue
		}

		if uniqueKeyValue(col, other) == key {
			return persistence.NewStoreError("Insert", col, "", persistence.ErrConflict)
		}
	}

	return nil
}

// uniqueKeyValue flattens a document's unique key fields into one comparable
// string, or "" when the collection has no uniqueness constraint.
func uniqueKeyValue(col persistence.Collection, doc persistence.Document) string {
	fields := persistence.UniqueKeys[col]
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, 0, len(fields))

	for _, f := range fields {
		v, ok := doc[f].(string)
		if !ok || v == "" {
			return ""
		}

		parts = append(parts, v)
	}

	return strings.Join(parts, "\x00")
}

func matches(doc persistence.Document, filter persistence.Filter) bool {
	for k, want := range filter {
		if !valueEqual(doc[k], want) {
			return false
		}
	}

	return true
}

// valueEqual compares a stored value with a filter value, tolerating the
// numeric widening a JSON round trip applies.
func valueEqual(got, want any) bool {
	if got == nil || want == nil {
		return got == want
	}

	if gf, ok := toFloat(got); ok {
		if wf, ok := toFloat(want); ok {
			return gf == wf
		}

		return false
	}

	return fmt.Sprint(got) == fmt.Sprint(want)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func sortDocuments(docs []persistence.Document, order persistence.Order) {
	sort.SliceStable(docs, func(i, j int) bool {
		less := lessValue(docs[i][order.Field], docs[j][order.Field])
		if order.Desc {
			return !less
		}

		return less
	})
}

func lessValue(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af < bf
		}
	}

	return fmt.Sprint(a) < fmt.Sprint(b)
}
