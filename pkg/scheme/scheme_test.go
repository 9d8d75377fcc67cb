package scheme

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/joeydtaylor/steeze-desk/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okFactory(tag string) Factory {
	return FactoryFunc(func(string, string) Handler {
		return HandlerFunc(func(context.Context, *wire.Request) *wire.Response {
			return wire.Text(http.StatusOK, tag)
		})
	})
}

func TestRegistry_InternalAndExternal(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterScheme("app", "local", okFactory("app"), false))
	require.NoError(t, r.RegisterScheme("ext", "cdn", okFactory("ext"), true))

	f, ok := r.GetFactory("app", "local")
	require.True(t, ok)
	resp := f.Create("app", "local").Handle(context.Background(), &wire.Request{})
	assert.Equal(t, "app", string(resp.Body))

	f, ok = r.GetFactory("EXT", "CDN")
	require.True(t, ok)
	assert.NotNil(t, f)
	assert.True(t, r.IsExternal("ext", "cdn"))
	assert.False(t, r.IsExternal("app", "local"))

	assert.Len(t, r.Internal(), 1)
	assert.Len(t, r.External(), 1)
}

func TestRegistry_Duplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterScheme("app", "local", okFactory("a"), false))
	err := r.RegisterScheme("App", "Local", okFactory("b"), true)

	var de *DuplicateSchemeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "app", de.Scheme)
	assert.Equal(t, "local", de.Domain)
}

func TestRegistry_Validation(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.RegisterScheme("", "x", okFactory("a"), false))
	assert.Error(t, r.RegisterScheme("app", "x", nil, false))

	require.NoError(t, r.RegisterExternal("https", "github.com", nil))
	reg, ok := r.Get("https", "github.com")
	require.True(t, ok)
	assert.True(t, reg.External)
	assert.Nil(t, reg.Factory.Create("https", "github.com"))
}

func TestRegistry_Freeze(t *testing.T) {
	r := NewRegistry()
	r.Freeze()
	assert.True(t, r.Frozen())
	assert.ErrorIs(t, r.RegisterScheme("app", "local", okFactory("a"), false), ErrFrozen)
}

func TestRegistry_Match(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterScheme("http", "chromely.com", okFactory("a"), false))
	require.NoError(t, r.RegisterScheme("local", "", okFactory("b"), false))

	reg, ok := r.Match("http://chromely.com/api/movies?x=1")
	require.True(t, ok)
	assert.Equal(t, "chromely.com", reg.Domain)

	reg, ok = r.Match("local://anything/index.html")
	require.True(t, ok)
	assert.Equal(t, "local", reg.Scheme)

	_, ok = r.Match("http://example.com/")
	assert.False(t, ok)
}

func TestRegistry_RegistrationsSorted(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterScheme("b", "z", okFactory("1"), false))
	require.NoError(t, r.RegisterScheme("a", "y", okFactory("2"), false))
	require.NoError(t, r.RegisterScheme("b", "a", okFactory("3"), false))

	var got []string
	for _, reg := range r.Registrations() {
		got = append(got, reg.Scheme+"://"+reg.Domain)
	}
	assert.Equal(t, []string{"a://y", "b://a", "b://z"}, got)
}
