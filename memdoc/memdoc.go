// Package memdoc is an in-memory docukit.Store. It is the reference
// implementation of the store contract - Query filters with the condition
// tree's own Matches semantics and sorts with the shared null-first
// comparator - and the test vehicle for the core.
package memdoc

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/docukit/docukit"
)

// Store keeps documents in memory behind a mutex. Reads and writes copy
// documents so callers never alias stored state.
type Store struct {
	mu      sync.RWMutex
	idField string
	docs    map[string]docukit.Document
	order   []string
}

// New builds an empty store. idField names the unique identifier field and
// must match the repository configuration.
func New(idField string) *Store {
	return &Store{
		idField: idField,
		docs:    make(map[string]docukit.Document),
	}
}

// PointRead implements docukit.Reader.
func (s *Store) PointRead(_ context.Context, id any) (docukit.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[idKey(id)]
	if !ok {
		return nil, docukit.ErrNotFound
	}

	return doc.Clone(), nil
}

// Query implements docukit.Reader. A nil cond matches everything; limit <= 0
// means no limit.
func (s *Store) Query(_ context.Context, cond docukit.Condition, orderBy docukit.Orderings, limit int) ([]docukit.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]docukit.Document, 0, len(s.order))
	for _, key := range s.order {
		doc := s.docs[key]
		if cond == nil || cond.Matches(doc) {
			matched = append(matched, doc)
		}
	}

	// Insertion order breaks whatever ties the orderings leave, keeping the
	// result deterministic even for non-canonical sorts.
	sort.SliceStable(matched, func(i, j int) bool {
		return orderBy.Compare(matched[i], matched[j]) < 0
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	ret := make([]docukit.Document, 0, len(matched))
	for _, doc := range matched {
		ret = append(ret, doc.Clone())
	}

	return ret, nil
}

// Insert implements docukit.Store. Duplicate ids are rejected and the whole
// batch is discarded, mirroring the atomicity of the real backends.
func (s *Store) Insert(_ context.Context, docs []docukit.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for i, doc := range docs {
		id, presence := doc.Lookup(s.idField)
		if presence != docukit.PresenceValue {
			return fmt.Errorf("document %d has no '%s' field", i, s.idField)
		}

		key := idKey(id)
		if _, ok := s.docs[key]; ok {
			return fmt.Errorf("duplicate id '%s'", key)
		}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("duplicate id '%s'", key)
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	for i, doc := range docs {
		s.docs[keys[i]] = doc.Clone()
		s.order = append(s.order, keys[i])
	}

	return nil
}

// Update implements docukit.Store: top-level field assignment on every
// matching document. A nil value under a field sets the field to null, it
// does not remove it.
func (s *Store) Update(_ context.Context, cond docukit.Condition, set docukit.Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched int64
	for key, doc := range s.docs {
		if cond != nil && !cond.Matches(doc) {
			continue
		}

		updated := doc.Clone()
		for field, value := range set {
			updated[field] = value
		}
		s.docs[key] = updated
		matched++
	}

	return matched, nil
}

// Delete implements docukit.Store.
func (s *Store) Delete(_ context.Context, cond docukit.Condition) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	kept := s.order[:0]
	for _, key := range s.order {
		doc := s.docs[key]
		if cond == nil || cond.Matches(doc) {
			delete(s.docs, key)
			removed++
			continue
		}
		kept = append(kept, key)
	}
	s.order = kept

	return removed, nil
}

// Len returns the number of stored documents, soft-deleted included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.docs)
}

// idKey renders an id to its map key. Formatting unifies integer widths so
// that an int64 decoded from a cursor finds a document inserted with an int.
func idKey(id any) string {
	return fmt.Sprintf("%v", id)
}

var _ docukit.Store = (*Store)(nil)
