package host

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-desk/pkg/core"
	"github.com/joeydtaylor/steeze-desk/pkg/dispatch"
	"github.com/joeydtaylor/steeze-desk/pkg/manifest"
	"github.com/joeydtaylor/steeze-desk/pkg/provider"
	"github.com/joeydtaylor/steeze-desk/pkg/route"
	"github.com/joeydtaylor/steeze-desk/pkg/scan"
	"github.com/joeydtaylor/steeze-desk/pkg/scheme"
	"github.com/joeydtaylor/steeze-desk/pkg/wire"
)

type fakeBrowser struct {
	mu     sync.Mutex
	sizes  [][2]int
	closed bool
}

func (b *fakeBrowser) Resize(w, h int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sizes = append(b.sizes, [2]int{w, h})
	return nil
}

func (b *fakeBrowser) Close() error {
	b.closed = true
	return nil
}

type fakeEngine struct {
	initErr      error
	browserErr   error
	settings     Settings
	frozenAtInit bool
	sealedAtInit bool
	cfg          BrowserConfig
	browser      *fakeBrowser
	shutdowns    int
	provider     *provider.Provider
}

func (e *fakeEngine) Initialize(_ context.Context, s Settings, reg *scheme.Registry) error {
	e.settings = s
	e.frozenAtInit = reg.Frozen()
	e.sealedAtInit = e.provider.Sealed()
	return e.initErr
}

func (e *fakeEngine) CreateBrowser(_ context.Context, cfg BrowserConfig) (Browser, error) {
	if e.browserErr != nil {
		return nil, e.browserErr
	}
	e.cfg = cfg
	e.browser = &fakeBrowser{}
	return e.browser, nil
}

func (e *fakeEngine) Shutdown(context.Context) error {
	e.shutdowns++
	return nil
}

type warnings []scan.Warning

func (w *warnings) ScanWarning(x scan.Warning) { *w = append(*w, x) }

func newHost(t *testing.T, eng *fakeEngine, handlers *core.Handlers, obs ScanObserver) (*Host, *provider.Provider) {
	t.Helper()
	p := provider.New()
	reg := scheme.NewRegistry()
	eng.provider = p
	h, err := New(Deps{
		Engine:     eng,
		Provider:   p,
		Schemes:    reg,
		Dispatcher: dispatch.New(p, dispatch.WithSchemes(reg)),
		Handlers:   handlers,
		Observer:   obs,
	}, manifest.HostSpec{StartURL: "app://local/index.html", Width: 800, Height: 600, Args: []string{"--disable-gpu"}})
	require.NoError(t, err)
	return h, p
}

func list(name string) route.Handler {
	return func(context.Context, *route.Args) (any, error) { return []string{name}, nil }
}

func movies(module, owner string) scan.Module {
	return scan.NewModule(module, scan.Service{Name: "movies", Endpoints: []scan.Endpoint{
		{Name: "list", Path: "/api/movies/list", Handler: list(owner)},
	}})
}

func TestHost_CreateLifecycle(t *testing.T) {
	eng := &fakeEngine{}
	var warn warnings
	h, p := newHost(t, eng, nil, &warn)

	require.NoError(t, h.RegisterScheme("app", "local", false))
	require.NoError(t, h.RegisterExternalScheme("ext", "cdn"))
	require.NoError(t, h.RegisterServiceModule(movies("A", "a")))
	require.NoError(t, h.RegisterServiceModule(movies("B", "b")))
	require.NoError(t, h.RegisterServiceModule(scan.NewModule("C", scan.Service{Name: "misc", Endpoints: []scan.Endpoint{
		{Name: "ping", Handler: list("c")},
	}})))

	var loads []LoadStart
	h.OnLoadStart(func(ev LoadStart) { loads = append(loads, ev) })

	require.NoError(t, h.Create(context.Background()))
	assert.True(t, eng.frozenAtInit)
	assert.True(t, eng.sealedAtInit)
	assert.Equal(t, []string{"--disable-gpu"}, eng.settings.Args)
	assert.Equal(t, "app://local/index.html", eng.cfg.StartURL)
	assert.Equal(t, 800, eng.cfg.Width)

	eng.cfg.OnLoadStart(LoadStart{URL: "app://local/index.html", MainFrame: true})
	require.Len(t, loads, 1)

	require.Len(t, p.Conflicts(), 1)
	assert.Equal(t, "B", p.Conflicts()[0].Dropped.Module)
	require.Len(t, warn, 1)
	assert.Equal(t, scan.WarnConventionPath, warn[0].Kind)

	assert.ErrorIs(t, h.Create(context.Background()), ErrCreated)
	assert.ErrorIs(t, h.RegisterServiceModule(movies("D", "d")), ErrCreated)
	assert.ErrorIs(t, h.RegisterScheme("late", "x", false), scheme.ErrFrozen)

	require.NoError(t, h.Resize(1024, 768))
	assert.Equal(t, [][2]int{{1024, 768}}, eng.browser.sizes)
	assert.Error(t, h.Resize(0, 10))

	require.NoError(t, h.Destroy(context.Background()))
	assert.True(t, eng.browser.closed)
	assert.Equal(t, 1, eng.shutdowns)
	require.NoError(t, h.Destroy(context.Background()))
	assert.Equal(t, 1, eng.shutdowns)
	assert.ErrorIs(t, h.Resize(10, 10), ErrNotCreated)
}

func TestHost_HandleProtocol(t *testing.T) {
	eng := &fakeEngine{}
	h, _ := newHost(t, eng, nil, nil)
	require.NoError(t, h.RegisterScheme("app", "local", false))
	require.NoError(t, h.RegisterScheme("ext", "cdn", true))
	require.NoError(t, h.RegisterServiceModule(movies("A", "a")))
	require.NoError(t, h.Create(context.Background()))

	do := func(raw string) *wire.Response {
		req, err := wire.NewRequest("GET", raw, nil, nil)
		require.NoError(t, err)
		return h.HandleProtocol(context.Background(), req)
	}

	resp := do("app://local/api/movies/list")
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `["a"]`, string(resp.Body))

	assert.Equal(t, http.StatusNotFound, do("app://local/api/shows").Status)
	assert.Equal(t, http.StatusMisdirectedRequest, do("ext://cdn/lib.js").Status)
	assert.Equal(t, http.StatusNotFound, do("other://x/y").Status)
	assert.Equal(t, http.StatusNotFound, h.HandleProtocol(context.Background(), nil).Status)
}

func TestHost_CreateFailuresAbort(t *testing.T) {
	t.Run("scan error", func(t *testing.T) {
		eng := &fakeEngine{}
		h, _ := newHost(t, eng, nil, nil)
		require.NoError(t, h.RegisterServiceModule(scan.NewModule("dup", scan.Service{Name: "s", Endpoints: []scan.Endpoint{
			{Name: "a", Path: "/x", Handler: list("a")},
			{Name: "b", Path: "/X", Handler: list("b")},
		}})))
		err := h.Create(context.Background())
		var se *scan.ScanError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, scan.ErrDuplicateRoute, se.Kind)
		assert.Nil(t, eng.browser)
		assert.ErrorIs(t, h.Create(context.Background()), ErrCreated)
	})

	t.Run("engine init", func(t *testing.T) {
		eng := &fakeEngine{initErr: errors.New("no chrome")}
		h, _ := newHost(t, eng, nil, nil)
		assert.ErrorContains(t, h.Create(context.Background()), "no chrome")
	})

	t.Run("browser", func(t *testing.T) {
		eng := &fakeEngine{browserErr: errors.New("no window")}
		h, _ := newHost(t, eng, nil, nil)
		assert.ErrorContains(t, h.Create(context.Background()), "no window")
		assert.Equal(t, 1, eng.shutdowns)
	})
}

func TestHost_RegisterServiceFileAndManifest(t *testing.T) {
	handlers := core.NewHandlers()
	require.NoError(t, handlers.Register("movies.list", list("file")))

	dir := t.TempDir()
	path := filepath.Join(dir, "movies.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[module]]
name = "movies"
  [[module.route]]
  path = "/api/movies/list"
  handler = { name = "movies.list" }
`), 0o644))

	eng := &fakeEngine{}
	h, p := newHost(t, eng, handlers, nil)
	require.NoError(t, h.RegisterServiceFile(path))
	assert.Error(t, h.RegisterServiceFile(filepath.Join(dir, "missing.toml")))

	cfg := manifest.Config{
		Host:    manifest.HostSpec{Title: "Movies", StartURL: "app://local/", Width: 640, Height: 480},
		Schemes: []manifest.SchemeSpec{{Name: "app", Domain: "local"}},
	}
	require.NoError(t, h.RegisterManifest(cfg))

	rep, err := h.ScanModules()
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Inserted)
	assert.Equal(t, 1, p.Len())

	require.NoError(t, h.Create(context.Background()))
	assert.Equal(t, "Movies", eng.cfg.Title)
	assert.Equal(t, 640, eng.cfg.Width)
	assert.Len(t, h.Routes(), 1)
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{}, manifest.HostSpec{})
	assert.Error(t, err)
}
