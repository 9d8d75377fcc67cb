package route

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nop(context.Context, *Args) (any, error) { return nil, nil }

func rt(verb Verb, path, module string) Route {
	return Route{Verb: verb, Path: path, Module: module, Handler: nop}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "/"},
		{"/", "/"},
		{"api/Movies/", "/api/movies"},
		{"/api//movies/../films", "/api/films"},
		{"/api/movies/{movieID}", "/api/movies/{movieID}"},
		{"/api/movies?limit=3", "/api/movies"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePath(tt.in))
		})
	}
}

func TestTable_InsertConflict(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Insert(rt(GET, "/api/movies/list", "a")))
	require.NoError(t, tbl.Insert(rt(POST, "/api/movies/list", "a")))

	err := tbl.Insert(rt(GET, "/API/Movies/List/", "b"))
	var ce *ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "a", ce.Existing.Module)
	assert.Equal(t, "b", ce.Incoming.Module)
	assert.Equal(t, 2, tbl.Len())
}

func TestTable_InsertTemplateShapeConflict(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Insert(rt(GET, "/movies/{id}", "a")))
	err := tbl.Insert(rt(GET, "/movies/{name}", "b"))
	var ce *ConflictError
	assert.True(t, errors.As(err, &ce))
}

func TestTable_InsertInvalid(t *testing.T) {
	tbl := NewTable()
	assert.Error(t, tbl.Insert(Route{Path: "/x"}))
	assert.Error(t, tbl.Insert(Route{Handler: nop}))
	assert.Error(t, tbl.Insert(Route{Verb: "PATCH", Path: "/x", Handler: nop}))
}

func TestTable_LookupExact(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Insert(rt(GET, "/api/movies/list", "a")))

	b, ok := tbl.Lookup(GET, "/Api/Movies/List/")
	require.True(t, ok)
	assert.Equal(t, "a", b.Route.Module)
	assert.Empty(t, b.PathParams)

	_, ok = tbl.Lookup(POST, "/api/movies/list")
	assert.False(t, ok)
	_, ok = tbl.Lookup(GET, "/api/movies")
	assert.False(t, ok)
}

func TestTable_LookupAnyVerb(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Insert(rt(ANY, "/echo", "a")))
	require.NoError(t, tbl.Insert(rt(POST, "/echo", "b")))

	b, ok := tbl.Lookup(POST, "/echo")
	require.True(t, ok)
	assert.Equal(t, "b", b.Route.Module)

	b, ok = tbl.Lookup(DELETE, "/echo")
	require.True(t, ok)
	assert.Equal(t, "a", b.Route.Module)
}

func TestTable_LookupTemplateMostSpecific(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Insert(rt(GET, "/movies/{id}", "generic")))
	require.NoError(t, tbl.Insert(rt(GET, "/movies/{id}/cast", "cast")))
	require.NoError(t, tbl.Insert(rt(GET, "/{kind}/{id}/cast", "wild")))
	require.NoError(t, tbl.Insert(rt(GET, "/movies/top", "exact")))

	b, ok := tbl.Lookup(GET, "/movies/Tt0111161")
	require.True(t, ok)
	assert.Equal(t, "generic", b.Route.Module)
	assert.Equal(t, map[string]string{"id": "Tt0111161"}, b.PathParams)

	b, ok = tbl.Lookup(GET, "/movies/42/cast")
	require.True(t, ok)
	assert.Equal(t, "cast", b.Route.Module)

	b, ok = tbl.Lookup(GET, "/shows/42/cast")
	require.True(t, ok)
	assert.Equal(t, "wild", b.Route.Module)
	assert.Equal(t, map[string]string{"kind": "shows", "id": "42"}, b.PathParams)

	b, ok = tbl.Lookup(GET, "/movies/top")
	require.True(t, ok)
	assert.Equal(t, "exact", b.Route.Module)
}

func TestTable_MergeDisjoint(t *testing.T) {
	a := NewTable()
	require.NoError(t, a.Insert(rt(GET, "/a", "a")))
	require.NoError(t, a.Insert(rt(GET, "/b", "a")))
	b := NewTable()
	require.NoError(t, b.Insert(rt(GET, "/c", "b")))

	rep := a.Merge(b, KeepFirst)
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, MergeReport{Inserted: 1}, rep)
}

func TestTable_MergePolicies(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		want   string
		report MergeReport
	}{
		{"keep first", KeepFirst, "a", MergeReport{Inserted: 1, Skipped: 1}},
		{"overwrite", Overwrite, "b", MergeReport{Inserted: 1, Overwritten: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := NewTable()
			require.NoError(t, dst.Insert(rt(GET, "/api/movies/list", "a")))
			src := NewTable()
			require.NoError(t, src.Insert(rt(GET, "/api/movies/list", "b")))
			require.NoError(t, src.Insert(rt(GET, "/api/movies/{id}", "b")))

			rep := dst.Merge(src, tt.policy)
			require.Len(t, rep.Conflicts, 1)
			rep.Conflicts = nil
			assert.Equal(t, tt.report, rep)

			b, ok := dst.Lookup(GET, "/api/movies/list")
			require.True(t, ok)
			assert.Equal(t, tt.want, b.Route.Module)
		})
	}
}

func TestTable_RoutesSorted(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Insert(rt(POST, "/b", "m")))
	require.NoError(t, tbl.Insert(rt(GET, "/b", "m")))
	require.NoError(t, tbl.Insert(rt(GET, "/a/{id}", "m")))

	var got []string
	for _, r := range tbl.Routes() {
		got = append(got, r.Key().String())
	}
	assert.Equal(t, []string{"GET /a/{}", "GET /b", "POST /b"}, got)
}
