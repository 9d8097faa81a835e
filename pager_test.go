package docukit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docukit/docukit"
	"github.com/docukit/docukit/memdoc"
)

func seedPeople(t *testing.T) *memdoc.Store {
	t.Helper()

	store := memdoc.New("id")
	docs := []docukit.Document{
		{"id": 1, "name": "alice", "age": 25},
		{"id": 2, "name": "bob", "age": 30},
		{"id": 3, "name": "charlie", "age": 30},
		{"id": 4, "name": "dora"},
		{"id": 5, "name": "eve", "age": 40},
	}
	require.NoError(t, store.Insert(context.Background(), docs))

	return store
}

func newPager(t *testing.T, store docukit.Reader, cfg docukit.Config) *docukit.Pager {
	t.Helper()

	pager, err := docukit.NewPager(store, cfg)
	require.NoError(t, err)

	return pager
}

// walk drains the pager page by page and returns the concatenated ids.
func walk(t *testing.T, pager *docukit.Pager, filter docukit.Filter, opts docukit.PageOptions) []any {
	t.Helper()

	var ids []any
	for i := 0; ; i++ {
		require.Less(t, i, 100, "pagination did not terminate")

		page, err := pager.FetchPage(context.Background(), filter, opts)
		require.NoError(t, err)

		ids = append(ids, idsOf(page.Items)...)
		if page.NextCursor == "" {
			return ids
		}
		opts.Cursor = page.NextCursor
	}
}

func idsOf(docs []docukit.Document) []any {
	ids := make([]any, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc["id"])
	}
	return ids
}

func Test_Pager_FetchPage_WalksInOrder(t *testing.T) {
	pager := newPager(t, seedPeople(t), docukit.Config{})

	page, err := pager.FetchPage(context.Background(), nil, docukit.PageOptions{
		Limit:   2,
		OrderBy: docukit.Orderings{{Field: "name", Direction: docukit.DirectionASC}},
	})
	require.NoError(t, err)
	require.Equal(t, []any{1, 2}, idsOf(page.Items))
	require.NotEmpty(t, page.NextCursor)

	page, err = pager.FetchPage(context.Background(), nil, docukit.PageOptions{
		Limit:   2,
		OrderBy: docukit.Orderings{{Field: "name", Direction: docukit.DirectionASC}},
		Cursor:  page.NextCursor,
	})
	require.NoError(t, err)
	require.Equal(t, []any{3, 4}, idsOf(page.Items))
	require.NotEmpty(t, page.NextCursor)

	page, err = pager.FetchPage(context.Background(), nil, docukit.PageOptions{
		Limit:   2,
		OrderBy: docukit.Orderings{{Field: "name", Direction: docukit.DirectionASC}},
		Cursor:  page.NextCursor,
	})
	require.NoError(t, err)
	require.Equal(t, []any{5}, idsOf(page.Items))
	require.Empty(t, page.NextCursor)
}

func Test_Pager_FetchPage_NoDuplicatesNoGaps(t *testing.T) {
	store := seedPeople(t)
	pager := newPager(t, store, docukit.Config{})

	sorts := map[string]docukit.Orderings{
		"id only":        nil,
		"age asc":        {{Field: "age", Direction: docukit.DirectionASC}},
		"age desc":       {{Field: "age", Direction: docukit.DirectionDESC}},
		"age then name":  {{Field: "age", Direction: docukit.DirectionDESC}, {Field: "name", Direction: docukit.DirectionASC}},
		"name desc":      {{Field: "name", Direction: docukit.DirectionDESC}},
		"redundant tail": {{Field: "age", Direction: docukit.DirectionASC}, {Field: "id", Direction: docukit.DirectionASC}},
	}

	for name, orderBy := range sorts {
		t.Run(name, func(t *testing.T) {
			want := walk(t, pager, nil, docukit.PageOptions{Limit: 100, OrderBy: orderBy})

			for limit := 1; limit <= len(want); limit++ {
				got := walk(t, pager, nil, docukit.PageOptions{Limit: limit, OrderBy: orderBy})
				require.Equalf(t, want, got, "limit=%d", limit)
			}
		})
	}
}

func Test_Pager_FetchPage_NullsOrderFirstAscending(t *testing.T) {
	pager := newPager(t, seedPeople(t), docukit.Config{})

	asc := walk(t, pager, nil, docukit.PageOptions{
		Limit:   2,
		OrderBy: docukit.Orderings{{Field: "age", Direction: docukit.DirectionASC}},
	})
	require.Equal(t, []any{4, 1, 2, 3, 5}, asc)

	desc := walk(t, pager, nil, docukit.PageOptions{
		Limit:   2,
		OrderBy: docukit.Orderings{{Field: "age", Direction: docukit.DirectionDESC}},
	})
	require.Equal(t, []any{5, 2, 3, 1, 4}, desc)
}

func Test_Pager_FetchPage_MixedDirections(t *testing.T) {
	pager := newPager(t, seedPeople(t), docukit.Config{})

	got := walk(t, pager, nil, docukit.PageOptions{
		Limit: 2,
		OrderBy: docukit.Orderings{
			{Field: "age", Direction: docukit.DirectionDESC},
			{Field: "name", Direction: docukit.DirectionASC},
		},
	})
	require.Equal(t, []any{5, 2, 3, 1, 4}, got)
}

func Test_Pager_FetchPage_Filter(t *testing.T) {
	pager := newPager(t, seedPeople(t), docukit.Config{})

	got := walk(t, pager, docukit.Filter{"age": 30}, docukit.PageOptions{
		Limit:   1,
		OrderBy: docukit.Orderings{{Field: "name", Direction: docukit.DirectionASC}},
	})
	require.Equal(t, []any{2, 3}, got)
}

func Test_Pager_FetchPage_ResumeIsIdempotent(t *testing.T) {
	pager := newPager(t, seedPeople(t), docukit.Config{})
	opts := docukit.PageOptions{Limit: 2}

	first, err := pager.FetchPage(context.Background(), nil, opts)
	require.NoError(t, err)
	require.NotEmpty(t, first.NextCursor)

	opts.Cursor = first.NextCursor
	second, err := pager.FetchPage(context.Background(), nil, opts)
	require.NoError(t, err)

	again, err := pager.FetchPage(context.Background(), nil, opts)
	require.NoError(t, err)
	require.Equal(t, second.Items, again.Items)
	require.Equal(t, second.NextCursor, again.NextCursor)
}

func Test_Pager_FetchPage_ExactMultiple(t *testing.T) {
	store := memdoc.New("id")
	require.NoError(t, store.Insert(context.Background(), []docukit.Document{
		{"id": 1}, {"id": 2}, {"id": 3}, {"id": 4},
	}))
	pager := newPager(t, store, docukit.Config{})

	t.Run("default mode needs one extra empty fetch", func(t *testing.T) {
		opts := docukit.PageOptions{Limit: 2}

		page, err := pager.FetchPage(context.Background(), nil, opts)
		require.NoError(t, err)
		require.Equal(t, []any{1, 2}, idsOf(page.Items))
		require.NotEmpty(t, page.NextCursor)

		opts.Cursor = page.NextCursor
		page, err = pager.FetchPage(context.Background(), nil, opts)
		require.NoError(t, err)
		require.Equal(t, []any{3, 4}, idsOf(page.Items))
		require.NotEmpty(t, page.NextCursor)

		opts.Cursor = page.NextCursor
		page, err = pager.FetchPage(context.Background(), nil, opts)
		require.NoError(t, err)
		require.Empty(t, page.Items)
		require.Empty(t, page.NextCursor)
	})

	t.Run("lookahead stops at the exact boundary", func(t *testing.T) {
		opts := docukit.PageOptions{Limit: 2, Lookahead: true}

		page, err := pager.FetchPage(context.Background(), nil, opts)
		require.NoError(t, err)
		require.Equal(t, []any{1, 2}, idsOf(page.Items))
		require.NotEmpty(t, page.NextCursor)

		opts.Cursor = page.NextCursor
		page, err = pager.FetchPage(context.Background(), nil, opts)
		require.NoError(t, err)
		require.Equal(t, []any{3, 4}, idsOf(page.Items))
		require.Empty(t, page.NextCursor)
	})
}

func Test_Pager_FetchPage_NonPositiveLimit(t *testing.T) {
	pager := newPager(t, seedPeople(t), docukit.Config{})

	for _, limit := range []int{0, -1} {
		page, err := pager.FetchPage(context.Background(), nil, docukit.PageOptions{Limit: limit})
		require.NoError(t, err)
		require.Empty(t, page.Items)
		require.Empty(t, page.NextCursor)
	}
}

func Test_Pager_FetchPage_ScopeAndVisibility(t *testing.T) {
	store := memdoc.New("id")
	require.NoError(t, store.Insert(context.Background(), []docukit.Document{
		{"id": 1, "tenant": "acme"},
		{"id": 2, "tenant": "acme", "deleted": true},
		{"id": 3, "tenant": "other"},
		{"id": 4, "tenant": "acme", "deleted": false},
	}))

	pager := newPager(t, store, docukit.Config{Scope: docukit.Filter{"tenant": "acme"}})

	got := walk(t, pager, nil, docukit.PageOptions{Limit: 10})
	require.Equal(t, []any{1, 4}, got)
}

func Test_Pager_FetchPage_InvalidCursor(t *testing.T) {
	store := seedPeople(t)
	pager := newPager(t, store, docukit.Config{})

	staleFor := func(id any) string {
		token, err := docukit.EncodeCursor(id, nil)
		require.NoError(t, err)
		return token
	}

	t.Run("malformed token", func(t *testing.T) {
		_, err := pager.FetchPage(context.Background(), nil, docukit.PageOptions{Limit: 2, Cursor: "!!!"})
		require.ErrorIs(t, err, docukit.ErrInvalidCursor)
	})

	t.Run("unknown anchor", func(t *testing.T) {
		_, err := pager.FetchPage(context.Background(), nil, docukit.PageOptions{Limit: 2, Cursor: staleFor(999)})
		require.ErrorIs(t, err, docukit.ErrInvalidCursor)
	})

	t.Run("soft-deleted anchor", func(t *testing.T) {
		cond := docukit.Compare{Field: "id", Op: docukit.OperatorEQ, Value: 2}
		_, err := store.Update(context.Background(), cond, docukit.Document{"deleted": true})
		require.NoError(t, err)

		_, err = pager.FetchPage(context.Background(), nil, docukit.PageOptions{Limit: 2, Cursor: staleFor(2)})
		require.ErrorIs(t, err, docukit.ErrInvalidCursor)
	})
}

func Test_Pager_FetchPage_AnchorDeletedBetweenPages(t *testing.T) {
	// Hard-deleting the anchor row must invalidate the cursor rather than
	// silently restarting or skipping.
	store := seedPeople(t)
	pager := newPager(t, store, docukit.Config{})

	page, err := pager.FetchPage(context.Background(), nil, docukit.PageOptions{Limit: 2})
	require.NoError(t, err)
	require.NotEmpty(t, page.NextCursor)

	cond := docukit.Compare{Field: "id", Op: docukit.OperatorEQ, Value: 2}
	removed, err := store.Delete(context.Background(), cond)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, err = pager.FetchPage(context.Background(), nil, docukit.PageOptions{Limit: 2, Cursor: page.NextCursor})
	require.ErrorIs(t, err, docukit.ErrInvalidCursor)
	require.Equal(t, docukit.KindInvalidCursor, docukit.KindOf(err))
}

func Test_PageRequest_Options(t *testing.T) {
	mapping := docukit.FieldMapping{
		"name": "name",
		"age":  "profile.age",
	}

	t.Run("resolves aliases and normalizes limit", func(t *testing.T) {
		req := docukit.PageRequest{Limit: 0, Sort: []string{"age desc", "name asc"}, Cursor: "tok"}

		opts, err := req.Options(mapping)
		require.NoError(t, err)
		require.Equal(t, docukit.DefaultLimit, opts.Limit)
		require.Equal(t, "tok", opts.Cursor)
		require.Equal(t, docukit.Orderings{
			{Field: "profile.age", Direction: docukit.DirectionDESC},
			{Field: "name", Direction: docukit.DirectionASC},
		}, opts.OrderBy)
	})

	t.Run("unknown alias suggests the closest one", func(t *testing.T) {
		_, err := docukit.PageRequest{Sort: []string{"agee desc"}}.Options(mapping)
		require.ErrorContains(t, err, "closest: 'age'")
	})

	t.Run("bad direction", func(t *testing.T) {
		_, err := docukit.PageRequest{Sort: []string{"age sideways"}}.Options(mapping)
		require.ErrorContains(t, err, "invalid ordering direction")
	})
}

func Test_DecodeItems(t *testing.T) {
	type person struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	items := []docukit.Document{
		{"id": 1, "name": "alice"},
		{"id": 2, "name": "bob"},
	}

	got, err := docukit.DecodeItems[person](items)
	require.NoError(t, err)
	require.Equal(t, []person{{1, "alice"}, {2, "bob"}}, got)
}
