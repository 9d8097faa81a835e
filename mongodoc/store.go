// Package mongodoc adapts a MongoDB collection to the docukit.Store
// contract. MongoDB is the transactional backend: multi-document inserts run
// inside a native session transaction.
//
// Repositories over this store must configure IDField as "_id".
package mongodoc

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/docukit/docukit"
)

// Store implements docukit.Store over one collection.
type Store struct {
	col       *mongo.Collection
	txEnabled bool
}

// Option customizes the adapter.
type Option func(*Store)

// WithoutTransactions disables the session transaction around multi-document
// inserts, for deployments without replica sets.
func WithoutTransactions() Option {
	return func(s *Store) {
		s.txEnabled = false
	}
}

// New builds a Store over col.
func New(col *mongo.Collection, opts ...Option) *Store {
	s := &Store{
		col:       col,
		txEnabled: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// PointRead implements docukit.Reader.
func (s *Store) PointRead(ctx context.Context, id any) (docukit.Document, error) {
	var raw bson.M
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, docukit.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("find one: %w", err)
	}

	return fromBSON(raw), nil
}

// Query implements docukit.Reader.
func (s *Store) Query(ctx context.Context, cond docukit.Condition, orderBy docukit.Orderings, limit int) ([]docukit.Document, error) {
	findOpts := options.Find()
	if len(orderBy) > 0 {
		findOpts.SetSort(TranslateSort(orderBy))
	}
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}

	cur, err := s.col.Find(ctx, TranslateCondition(cond), findOpts)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	var raw []bson.M
	if err = cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("drain cursor: %w", err)
	}

	ret := make([]docukit.Document, 0, len(raw))
	for _, m := range raw {
		ret = append(ret, fromBSON(m))
	}

	return ret, nil
}

// Insert implements docukit.Store. Multiple documents go in atomically via a
// session transaction unless WithoutTransactions was set.
func (s *Store) Insert(ctx context.Context, docs []docukit.Document) error {
	payload := make([]any, 0, len(docs))
	for _, doc := range docs {
		payload = append(payload, toBSON(doc))
	}

	if len(payload) <= 1 || !s.txEnabled {
		_, err := s.col.InsertMany(ctx, payload)
		if err != nil {
			return fmt.Errorf("insert many: %w", err)
		}
		return nil
	}

	sess, err := s.col.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return s.col.InsertMany(sc, payload)
	})
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

// Update implements docukit.Store.
func (s *Store) Update(ctx context.Context, cond docukit.Condition, set docukit.Document) (int64, error) {
	res, err := s.col.UpdateMany(ctx, TranslateCondition(cond), bson.M{"$set": toBSON(set)})
	if err != nil {
		return 0, fmt.Errorf("update many: %w", err)
	}

	return res.MatchedCount, nil
}

// Delete implements docukit.Store.
func (s *Store) Delete(ctx context.Context, cond docukit.Condition) (int64, error) {
	res, err := s.col.DeleteMany(ctx, TranslateCondition(cond))
	if err != nil {
		return 0, fmt.Errorf("delete many: %w", err)
	}

	return res.DeletedCount, nil
}

var _ docukit.Store = (*Store)(nil)
