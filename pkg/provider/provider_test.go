package provider

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/joeydtaylor/steeze-desk/pkg/route"
	"github.com/joeydtaylor/steeze-desk/pkg/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func nop(context.Context, *route.Args) (any, error) { return nil, nil }

func fragment(t *testing.T, module string, paths ...string) scan.Result {
	t.Helper()
	eps := make([]scan.Endpoint, 0, len(paths))
	for _, p := range paths {
		eps = append(eps, scan.Endpoint{Name: p, Path: p, Handler: nop})
	}
	res, err := scan.New().Scan(scan.NewModule(module, scan.Service{Name: "svc", Endpoints: eps}))
	require.NoError(t, err)
	return res
}

type conflictRecorder struct{ got []route.MergeConflict }

func (c *conflictRecorder) MergeConflict(mc route.MergeConflict) { c.got = append(c.got, mc) }

func TestMergeRoutes_Disjoint(t *testing.T) {
	p := New()
	_, err := p.MergeRoutes(fragment(t, "a", "/a/1", "/a/2"))
	require.NoError(t, err)
	rep, err := p.MergeRoutes(fragment(t, "b", "/b/1", "/b/2", "/b/3"))
	require.NoError(t, err)

	assert.Equal(t, 5, p.Len())
	assert.Equal(t, 3, rep.Inserted)
	assert.Empty(t, p.Conflicts())
}

func TestMergeRoutes_FirstRegistrationWins(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rec := &conflictRecorder{}
	p := New(WithLogger(zap.New(core)), WithConflictObserver(rec))

	_, err := p.MergeRoutes(fragment(t, "A", "/api/movies/list"))
	require.NoError(t, err)
	rep, err := p.MergeRoutes(fragment(t, "B", "/api/movies/list"))
	require.NoError(t, err)

	b, ok := p.Resolve(route.GET, "/api/movies/list")
	require.True(t, ok)
	assert.Equal(t, "A", b.Route.Module)

	require.Len(t, rep.Conflicts, 1)
	assert.Equal(t, "B", rep.Conflicts[0].Dropped.Module)
	assert.Equal(t, 1, rep.Skipped)
	assert.Len(t, p.Conflicts(), 1)
	assert.Len(t, rec.got, 1)
	assert.Equal(t, 1, logs.FilterMessage("route conflict, keeping first registration").Len())
}

func TestMergeRoutes_AfterSeal(t *testing.T) {
	p := New()
	p.Seal()
	_, err := p.MergeRoutes(fragment(t, "a", "/a"))
	assert.ErrorIs(t, err, ErrSealed)
	assert.True(t, p.Sealed())
}

func TestMergeRoutes_RacingSeal(t *testing.T) {
	p := New()
	var (
		wg      sync.WaitGroup
		merged  atomic.Int32
		release = make(chan struct{})
	)
	frags := make([]scan.Result, 32)
	for i := range frags {
		frags[i] = fragment(t, fmt.Sprintf("m%d", i), fmt.Sprintf("/r%d", i))
	}
	for i := range frags {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-release
			if _, err := p.MergeRoutes(frags[i]); err == nil {
				merged.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrSealed)
			}
		}(i)
	}
	close(release)
	p.Seal()
	atSeal := p.Len()
	wg.Wait()

	assert.Equal(t, atSeal, p.Len())
	assert.Equal(t, int(merged.Load()), p.Len())
}

func TestResolve_IdempotentAndConcurrent(t *testing.T) {
	p := New()
	_, err := p.MergeRoutes(fragment(t, "a", "/api/movies/list", "/api/movies/{id}"))
	require.NoError(t, err)
	p.Seal()

	first, ok := p.Resolve(route.GET, "/api/movies/7")
	require.True(t, ok)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b, ok := p.Resolve(route.GET, "/api/movies/7")
				if !assert.True(t, ok) {
					return
				}
				assert.Equal(t, first.Route.Key(), b.Route.Key())
				assert.Equal(t, first.PathParams, b.PathParams)
				_, ok = p.Resolve(route.GET, "/missing")
				assert.False(t, ok)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, p.Len())
}
