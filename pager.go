package docukit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// PageRequest is intended for API payloads. For proper code generation,
// inline it:
//
//	type MyFilter struct {
//	    Paging PageRequest `json:",inline"`
//	}
type PageRequest struct {
	// Limit - maximum number of records to return in the response.
	Limit int `json:"limit"`
	// Sort - orderings in "alias asc|desc" form, resolved via FieldMapping.
	Sort []string `json:"sort"`
	// Cursor - opaque token obtained from a previous Page. If empty, the
	// first page is returned.
	Cursor string `json:"cursor"`
}

// Options converts the request into PageOptions, normalizing Limit and
// resolving sort aliases. Returns an error for unknown aliases.
func (r PageRequest) Options(mapping FieldMapping) (PageOptions, error) {
	sort, err := ParseSort(r.Sort, mapping)
	if err != nil {
		return PageOptions{}, err
	}

	return PageOptions{
		Limit:   NormalizeLimit(r.Limit),
		OrderBy: sort,
		Cursor:  r.Cursor,
	}, nil
}

// PageOptions parameterizes a single page fetch.
type PageOptions struct {
	// Limit - maximum number of rows in the page. Limit <= 0 is defined
	// behavior, not an error: an empty page with no next cursor, without
	// touching the store.
	Limit int
	// OrderBy - requested orderings; canonicalized with the id tiebreaker
	// before use. May be empty (id-only ordering).
	OrderBy Orderings
	// Cursor - opaque resume token from the previous page, empty for the
	// first page.
	Cursor string
	// Lookahead fetches one extra row to decide whether the current page is
	// the last. Without it, a result set whose size is an exact multiple of
	// Limit costs one extra empty fetch before the cursor disappears.
	Lookahead bool
}

// Page is one page of results. NextCursor is empty exactly when the end of
// the result set has been reached.
type Page struct {
	Items      []Document
	NextCursor string
}

// DecodeItems decodes page items into a typed slice via JSON round-trip.
// The fallback to a string-keyed map stops at this boundary.
func DecodeItems[T any](items []Document) ([]T, error) {
	ret := make([]T, 0, len(items))
	for i, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("cannot marshal item %d: %w", i, err)
		}

		var decoded T
		if err = json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("cannot decode item %d: %w", i, err)
		}

		ret = append(ret, decoded)
	}

	return ret, nil
}

// Pager orchestrates keyset page fetches against a Reader. It keeps no
// mutable state between calls: page correctness under concurrent writes
// comes entirely from the range predicate being a pure function of a fixed
// anchor. The documented limitation is mutation of the sort-key fields of an
// already-yielded row mid-pagination, which can skip or repeat that row.
type Pager struct {
	cfg   Config
	store Reader
	log   zerolog.Logger
}

// NewPager validates cfg and builds a Pager over store.
func NewPager(store Reader, cfg Config, opts ...Option) (*Pager, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pager config: %w", err)
	}

	settings := newSettings(opts...)

	return &Pager{
		cfg:   cfg,
		store: store,
		log:   settings.log,
	}, nil
}

// FetchPage executes one page fetch: canonicalize the sort, resolve the
// cursor to a store-fresh anchor, combine the caller filter with scope,
// soft-delete visibility and the keyset range, run the query and derive the
// next cursor from the last returned row.
func (p *Pager) FetchPage(ctx context.Context, filter Filter, opts PageOptions) (*Page, error) {
	if opts.Limit <= 0 {
		return &Page{}, nil
	}

	sort := opts.OrderBy.Normalize(p.cfg.IDField)
	if err := sort.validate(); err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	conds := []Condition{
		filter.Condition(),
		p.cfg.scopeCondition(),
		p.cfg.visibilityCondition(),
	}

	if opts.Cursor != "" {
		anchor, err := p.resolveAnchor(ctx, opts.Cursor)
		if err != nil {
			return nil, err
		}

		conds = append(conds, buildRangeCondition(sort, anchor))
	}

	fetchLimit := lo.Ternary(opts.Lookahead, opts.Limit+1, opts.Limit)

	p.log.Debug().
		Int("limit", fetchLimit).
		Bool("lookahead", opts.Lookahead).
		Str("sort", fmt.Sprint(sort)).
		Msg("fetching page")

	docs, err := p.store.Query(ctx, NewAnd(conds...), sort, fetchLimit)
	if err != nil {
		return nil, wrapErr(KindUnavailable, "store unavailable", err)
	}

	if opts.Lookahead {
		// With lookahead, the page is last when the extra row did not come
		// back. Otherwise trim it: the next cursor must anchor on the last
		// row actually returned to the caller.
		if len(docs) <= opts.Limit {
			return &Page{Items: docs}, nil
		}
		docs = docs[:opts.Limit]
	} else if len(docs) < opts.Limit {
		return &Page{Items: docs}, nil
	}

	next, err := p.nextCursor(docs)
	if err != nil {
		return nil, err
	}

	return &Page{Items: docs, NextCursor: next}, nil
}

// resolveAnchor decodes the token and re-reads the anchor document fresh
// from the store, applying the same scope and soft-delete visibility as any
// normal read. A deleted, out-of-scope or never-existing anchor is
// indistinguishable from a malformed token.
func (p *Pager) resolveAnchor(ctx context.Context, token string) (Document, error) {
	id, err := DecodeCursor(token, p.cfg.IDCodec)
	if err != nil {
		return nil, err
	}

	anchor, err := p.store.PointRead(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, wrapErr(KindInvalidCursor, "invalid cursor", fmt.Errorf("anchor not visible"))
	case err != nil:
		return nil, wrapErr(KindUnavailable, "store unavailable", err)
	}

	visible := NewAnd(p.cfg.scopeCondition(), p.cfg.visibilityCondition())
	if visible != nil && !visible.Matches(anchor) {
		return nil, wrapErr(KindInvalidCursor, "invalid cursor", fmt.Errorf("anchor not visible"))
	}

	return anchor, nil
}

func (p *Pager) nextCursor(docs []Document) (string, error) {
	last := lo.LastOrEmpty(docs)

	id, presence := last.Lookup(p.cfg.IDField)
	if presence != PresenceValue {
		return "", fmt.Errorf("cannot build next cursor: row has no '%s' field", p.cfg.IDField)
	}

	token, err := EncodeCursor(id, p.cfg.IDCodec)
	if err != nil {
		return "", fmt.Errorf("cannot build next cursor: %w", err)
	}

	return token, nil
}
