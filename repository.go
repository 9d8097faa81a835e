package docukit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository layers the cross-cutting bookkeeping - audit timestamps,
// optimistic versioning, soft delete, provenance tracing and scope masking -
// on top of a Store's native operations. A Repository holds no mutable
// state; every call is an independent round trip.
type Repository struct {
	cfg   Config
	store Store
	pager *Pager
	log   zerolog.Logger
	clock func() time.Time
}

// NewRepository validates cfg and builds a Repository over store.
func NewRepository(store Store, cfg Config, opts ...Option) (*Repository, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid repository config: %w", err)
	}

	settings := newSettings(opts...)

	pager, err := NewPager(store, cfg, opts...)
	if err != nil {
		return nil, err
	}

	return &Repository{
		cfg:   cfg,
		store: store,
		pager: pager,
		log:   settings.log,
		clock: settings.clock,
	}, nil
}

// Config returns a copy of the repository configuration.
func (r *Repository) Config() Config { return r.cfg }

// Create stamps and stores a new document: created/updated timestamps,
// version 1, scope fields merged in, and the first provenance trace entry.
// The input must carry the id field and may not set bookkeeping fields.
// Returns the stored document.
func (r *Repository) Create(ctx context.Context, doc Document) (Document, error) {
	stamped, err := r.stampNew(doc)
	if err != nil {
		return nil, err
	}

	if err = r.store.Insert(ctx, []Document{stamped}); err != nil {
		return nil, wrapErr(KindUnavailable, "store unavailable", err)
	}

	r.log.Debug().Str("op", traceOpCreate).Msg("document created")

	return stamped, nil
}

// CreateMany stamps and stores a batch of documents in one Insert call; the
// backend chunks it to its native batch limit.
func (r *Repository) CreateMany(ctx context.Context, docs []Document) ([]Document, error) {
	stamped := make([]Document, 0, len(docs))
	for i, doc := range docs {
		s, err := r.stampNew(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		stamped = append(stamped, s)
	}

	if err := r.store.Insert(ctx, stamped); err != nil {
		return nil, wrapErr(KindUnavailable, "store unavailable", err)
	}

	r.log.Debug().Str("op", traceOpCreate).Int("count", len(stamped)).Msg("documents created")

	return stamped, nil
}

// Get fetches one visible document by id: soft-deleted and out-of-scope
// documents surface as ErrNotFound.
func (r *Repository) Get(ctx context.Context, id any) (Document, error) {
	return r.visibleRead(ctx, id)
}

// Update applies the field changes to a visible document, bumping the
// updated timestamp and version and appending a trace entry. The version
// check anchors on the version observed by the read inside this call, so a
// concurrent writer surfaces as ErrVersionConflict.
func (r *Repository) Update(ctx context.Context, id any, changes Document) error {
	current, err := r.visibleRead(ctx, id)
	if err != nil {
		return err
	}

	return r.applyVersioned(ctx, id, current, changes, traceOpUpdate, nil)
}

// UpdateVersioned is Update with a caller-supplied expected version: it
// fails with ErrVersionConflict when the stored version has moved since the
// caller last read the document.
func (r *Repository) UpdateVersioned(ctx context.Context, id any, changes Document, expectedVersion int64) error {
	current, err := r.visibleRead(ctx, id)
	if err != nil {
		return err
	}

	if currentVersion(current, r.cfg.VersionField) != expectedVersion {
		return wrapErr(KindConflict, "version conflict", fmt.Errorf("document version moved"))
	}

	return r.applyVersioned(ctx, id, current, changes, traceOpUpdate, nil)
}

// SoftDelete marks a visible document deleted. Reads and page fetches stop
// returning it; the row itself stays in the store.
func (r *Repository) SoftDelete(ctx context.Context, id any) error {
	current, err := r.visibleRead(ctx, id)
	if err != nil {
		return err
	}

	marker := Document{
		r.cfg.SoftDeleteField: true,
		r.cfg.DeletedAtField:  r.clock(),
	}

	return r.applyVersioned(ctx, id, current, nil, traceOpDelete, marker)
}

// Restore clears the soft-delete marker of a deleted in-scope document.
// A document that is visible (not deleted) or out of scope surfaces as
// ErrNotFound.
func (r *Repository) Restore(ctx context.Context, id any) error {
	current, err := r.store.PointRead(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case err != nil:
		return wrapErr(KindUnavailable, "store unavailable", err)
	}

	reachable := NewAnd(r.cfg.scopeCondition(), r.cfg.deletedCondition())
	if !reachable.Matches(current) {
		return ErrNotFound
	}

	marker := Document{
		r.cfg.SoftDeleteField: false,
		r.cfg.DeletedAtField:  nil,
	}

	return r.applyVersioned(ctx, id, current, nil, traceOpRestore, marker)
}

// HardDelete removes an in-scope document from the store entirely,
// soft-deleted or not.
func (r *Repository) HardDelete(ctx context.Context, id any) error {
	cond := NewAnd(
		Compare{Field: r.cfg.IDField, Op: OperatorEQ, Value: id},
		r.cfg.scopeCondition(),
	)

	removed, err := r.store.Delete(ctx, cond)
	if err != nil {
		return wrapErr(KindUnavailable, "store unavailable", err)
	}
	if removed == 0 {
		return ErrNotFound
	}

	r.log.Debug().Str("op", "hard_delete").Msg("document removed")

	return nil
}

// FetchPage runs one keyset page fetch under the repository's scope and
// soft-delete visibility. See Pager.FetchPage.
func (r *Repository) FetchPage(ctx context.Context, filter Filter, opts PageOptions) (*Page, error) {
	return r.pager.FetchPage(ctx, filter, opts)
}

func (r *Repository) stampNew(doc Document) (Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	if _, presence := doc.Lookup(r.cfg.IDField); presence != PresenceValue {
		return nil, fmt.Errorf("document has no '%s' field", r.cfg.IDField)
	}

	out := doc.Clone()
	for _, field := range r.cfg.bookkeepingFields() {
		if _, ok := out[field]; ok {
			return nil, fmt.Errorf("field '%s' is reserved for bookkeeping", field)
		}
	}

	now := r.clock()
	out[r.cfg.CreatedAtField] = now
	out[r.cfg.UpdatedAtField] = now
	out[r.cfg.VersionField] = int64(1)
	out[r.cfg.TraceField] = appendTrace(nil, traceOpCreate, now, r.cfg.MaxTraceEntries)

	for k, v := range r.cfg.Scope {
		out[k] = v
	}

	return out, nil
}

// visibleRead is the one point-read path: fetch by id, then re-apply scope
// and soft-delete visibility locally. The cursor resolver uses the same
// rules, which is what keeps anchor resolution from leaking existence.
func (r *Repository) visibleRead(ctx context.Context, id any) (Document, error) {
	doc, err := r.store.PointRead(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, wrapErr(KindUnavailable, "store unavailable", err)
	}

	visible := NewAnd(r.cfg.scopeCondition(), r.cfg.visibilityCondition())
	if visible != nil && !visible.Matches(doc) {
		return nil, ErrNotFound
	}

	return doc, nil
}

// applyVersioned performs the compare-and-set write shared by every mutating
// operation: the condition pins the id, the scope and the version observed
// in current, and the set carries the caller changes plus bookkeeping.
func (r *Repository) applyVersioned(ctx context.Context, id any, current, changes Document, op string, marker Document) error {
	version := currentVersion(current, r.cfg.VersionField)

	set := make(Document, len(changes)+len(marker)+4)
	for field, value := range changes {
		if field == r.cfg.IDField {
			return fmt.Errorf("field '%s' is immutable", field)
		}
		for _, reserved := range r.cfg.bookkeepingFields() {
			if field == reserved {
				return fmt.Errorf("field '%s' is reserved for bookkeeping", field)
			}
		}
		if _, ok := r.cfg.Scope[field]; ok {
			return fmt.Errorf("field '%s' is fixed by scope", field)
		}
		set[field] = value
	}
	for field, value := range marker {
		set[field] = value
	}

	now := r.clock()
	set[r.cfg.UpdatedAtField] = now
	set[r.cfg.VersionField] = version + 1

	existingTrace, _ := current.Lookup(r.cfg.TraceField)
	set[r.cfg.TraceField] = appendTrace(existingTrace, op, now, r.cfg.MaxTraceEntries)

	cond := NewAnd(
		Compare{Field: r.cfg.IDField, Op: OperatorEQ, Value: id},
		r.cfg.scopeCondition(),
		Compare{Field: r.cfg.VersionField, Op: OperatorEQ, Value: version},
	)

	matched, err := r.store.Update(ctx, cond, set)
	if err != nil {
		return wrapErr(KindUnavailable, "store unavailable", err)
	}
	if matched == 0 {
		return wrapErr(KindConflict, "version conflict", fmt.Errorf("document version moved"))
	}

	r.log.Debug().Str("op", op).Int64("version", version+1).Msg("document updated")

	return nil
}

func currentVersion(doc Document, versionField string) int64 {
	v, presence := doc.Lookup(versionField)
	if presence != PresenceValue {
		return 0
	}

	f, ok := numericValue(v)
	if !ok {
		return 0
	}

	return int64(f)
}
