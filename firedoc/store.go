// Package firedoc adapts a Cloud Firestore collection to the docukit.Store
// contract. Firestore is the batch backend: writes commit through atomic
// write batches of at most 500 operations, with no atomicity across batches.
//
// Firestore document ids are strings, so repositories over this store use
// string ids and mirror them into the configured id field (the adapter
// injects the document id into that field on reads when absent).
package firedoc

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/docukit/docukit"
)

// maxBatchWrites is Firestore's hard cap on operations per write batch.
const maxBatchWrites = 500

// Store implements docukit.Store over one collection.
type Store struct {
	client  *firestore.Client
	col     *firestore.CollectionRef
	idField string
}

// New builds a Store over the named collection. idField must match the
// repository configuration.
func New(client *firestore.Client, collection string, idField string) *Store {
	return &Store{
		client:  client,
		col:     client.Collection(collection),
		idField: idField,
	}
}

// PointRead implements docukit.Reader. Firestore point reads cannot carry
// filters; visibility re-checks happen in the core.
func (s *Store) PointRead(ctx context.Context, id any) (docukit.Document, error) {
	sid, ok := id.(string)
	if !ok {
		return nil, fmt.Errorf("firestore ids are strings, got %T", id)
	}

	snap, err := s.col.Doc(sid).Get(ctx)
	switch {
	case status.Code(err) == codes.NotFound:
		return nil, docukit.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("get document: %w", err)
	}

	return s.fromSnapshot(snap), nil
}

// Query implements docukit.Reader.
//
// Firestore excludes documents lacking any order-by field from results
// entirely, so rows missing a sort field never appear in pages served by
// this backend; store a null explicitly to keep a row orderable.
func (s *Store) Query(ctx context.Context, cond docukit.Condition, orderBy docukit.Orderings, limit int) ([]docukit.Document, error) {
	q := s.col.Query
	if f := TranslateCondition(cond); f != nil {
		q = q.WhereEntity(f)
	}
	for _, ob := range orderBy {
		q = q.OrderBy(ob.Field, translateDirection(ob.Direction))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	it := q.Documents(ctx)
	defer it.Stop()

	var ret []docukit.Document
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate documents: %w", err)
		}

		ret = append(ret, s.fromSnapshot(snap))
	}

	return ret, nil
}

// Insert implements docukit.Store, chunking the documents into atomic write
// batches of maxBatchWrites operations each. Atomicity holds within a chunk,
// not across chunks.
func (s *Store) Insert(ctx context.Context, docs []docukit.Document) error {
	for start := 0; start < len(docs); start += maxBatchWrites {
		end := min(start+maxBatchWrites, len(docs))

		batch := s.client.Batch()
		for _, doc := range docs[start:end] {
			id, err := s.documentID(doc)
			if err != nil {
				return err
			}
			batch.Create(s.col.Doc(id), map[string]any(doc))
		}

		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
	}

	return nil
}

// Update implements docukit.Store. Each matching document updates in its own
// store-native transaction that re-checks the condition against a fresh
// snapshot, so compare-and-set conditions from the repository hold per
// document even though Firestore filters cannot express them server-side in
// a blind write.
func (s *Store) Update(ctx context.Context, cond docukit.Condition, set docukit.Document) (int64, error) {
	refs, err := s.matchingRefs(ctx, cond)
	if err != nil {
		return 0, err
	}

	var matched int64
	for _, ref := range refs {
		// The closure may run more than once on contention; count a document
		// only after its transaction actually committed.
		applied := false
		err = s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
			applied = false

			snap, err := tx.Get(ref)
			if status.Code(err) == codes.NotFound {
				return nil
			}
			if err != nil {
				return err
			}

			if cond != nil && !cond.Matches(s.fromSnapshot(snap)) {
				return nil
			}

			if err = tx.Set(ref, map[string]any(set), firestore.MergeAll); err != nil {
				return err
			}
			applied = true

			return nil
		})
		if err != nil {
			return matched, fmt.Errorf("update transaction: %w", err)
		}
		if applied {
			matched++
		}
	}

	return matched, nil
}

// Delete implements docukit.Store, batching removals in chunks of
// maxBatchWrites.
func (s *Store) Delete(ctx context.Context, cond docukit.Condition) (int64, error) {
	refs, err := s.matchingRefs(ctx, cond)
	if err != nil {
		return 0, err
	}

	for start := 0; start < len(refs); start += maxBatchWrites {
		end := min(start+maxBatchWrites, len(refs))

		batch := s.client.Batch()
		for _, ref := range refs[start:end] {
			batch.Delete(ref)
		}

		if _, err = batch.Commit(ctx); err != nil {
			return 0, fmt.Errorf("commit delete batch: %w", err)
		}
	}

	return int64(len(refs)), nil
}

func (s *Store) matchingRefs(ctx context.Context, cond docukit.Condition) ([]*firestore.DocumentRef, error) {
	q := s.col.Query
	if f := TranslateCondition(cond); f != nil {
		q = q.WhereEntity(f)
	}

	it := q.Documents(ctx)
	defer it.Stop()

	var refs []*firestore.DocumentRef
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate documents: %w", err)
		}

		refs = append(refs, snap.Ref)
	}

	return refs, nil
}

func (s *Store) fromSnapshot(snap *firestore.DocumentSnapshot) docukit.Document {
	doc := docukit.Document(snap.Data())
	if _, ok := doc[s.idField]; !ok {
		doc[s.idField] = snap.Ref.ID
	}

	return doc
}

func (s *Store) documentID(doc docukit.Document) (string, error) {
	id, presence := doc.Lookup(s.idField)
	if presence != docukit.PresenceValue {
		return "", fmt.Errorf("document has no '%s' field", s.idField)
	}

	sid, ok := id.(string)
	if !ok {
		return "", fmt.Errorf("firestore ids are strings, got %T", id)
	}

	return sid, nil
}

var _ docukit.Store = (*Store)(nil)
