package docukit

import "context"

// Reader is the read-side collaborator interface the pagination core
// consumes. Backend adapters keep it deliberately small: a point read and a
// filtered, sorted, limited query. Everything else - scope, soft-delete
// visibility, keyset ranges - is expressed through the Condition tree by the
// core.
type Reader interface {
	// PointRead fetches one document by its unique id. Returns ErrNotFound
	// when no document has that id. Visibility rules are NOT applied here;
	// the core re-checks them on the returned document.
	PointRead(ctx context.Context, id any) (Document, error)

	// Query returns up to limit documents matching cond in the order given.
	// A nil cond matches everything; limit <= 0 means no limit.
	Query(ctx context.Context, cond Condition, sort Orderings, limit int) ([]Document, error)
}

// Store adds the write operations the Repository layer needs on top of
// Reader. Implementations map each call to their native operation: the
// transactional backend wraps Insert in a multi-document transaction, the
// batch backend chunks it into atomic write batches.
type Store interface {
	Reader

	// Insert stores new documents. Ids must be unique.
	Insert(ctx context.Context, docs []Document) error

	// Update applies the top-level field assignments in set to every
	// document matching cond and returns the number of matched documents.
	Update(ctx context.Context, cond Condition, set Document) (int64, error)

	// Delete removes every document matching cond and returns the number of
	// removed documents.
	Delete(ctx context.Context, cond Condition) (int64, error)
}
