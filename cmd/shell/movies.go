package main

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joeydtaylor/steeze-desk/pkg/core"
	"github.com/joeydtaylor/steeze-desk/pkg/route"
	"github.com/joeydtaylor/steeze-desk/pkg/wire"
)

//go:embed web/index.html
var indexHTML []byte

type Movie struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Year     int       `json:"year"`
	Director string    `json:"director,omitempty"`
}

func trimMovie(m Movie) (Movie, error) {
	m.Title = strings.TrimSpace(m.Title)
	m.Director = strings.TrimSpace(m.Director)
	if m.Title == "" {
		return m, errors.New("title is required")
	}
	return m, nil
}

// catalog is an in-memory movie store.
type catalog struct {
	mu     sync.RWMutex
	movies map[uuid.UUID]Movie
}

func newCatalog() *catalog {
	c := &catalog{movies: map[uuid.UUID]Movie{}}
	for _, m := range []Movie{
		{Title: "Heat", Year: 1995, Director: "Michael Mann"},
		{Title: "Ran", Year: 1985, Director: "Akira Kurosawa"},
	} {
		m.ID = uuid.New()
		c.movies[m.ID] = m
	}
	return c
}

func (c *catalog) register(h *core.Handlers) error {
	return errors.Join(
		h.Register("page.index", c.index),
		h.Register("movies.list", c.list),
		h.Register("movies.get", c.get),
		h.Register("movies.create", c.create),
		h.Register("movies.slow", c.slow),
		h.Register("movies.fail", c.fail),
		h.RegisterInproc("movies.echo", func(_ context.Context, in []byte) ([]byte, int, error) {
			return in, http.StatusOK, nil
		}),
	)
}

func (c *catalog) index(context.Context, *route.Args) (any, error) {
	return wire.NewResponse(http.StatusOK, "text/html; charset=utf-8", indexHTML), nil
}

func (c *catalog) list(_ context.Context, a *route.Args) (any, error) {
	c.mu.RLock()
	out := make([]Movie, 0, len(c.movies))
	for _, m := range c.movies {
		out = append(out, m)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	if n := int(a.Int("limit")); n > 0 && n < len(out) {
		out = out[:n]
	}
	return out, nil
}

func (c *catalog) get(_ context.Context, a *route.Args) (any, error) {
	c.mu.RLock()
	m, ok := c.movies[a.UUID("id")]
	c.mu.RUnlock()
	if !ok {
		return nil, route.Errorf(http.StatusNotFound, "movie %s not found", a.UUID("id"))
	}
	return m, nil
}

func (c *catalog) create(_ context.Context, a *route.Args) (any, error) {
	m, ok := a.Value("movie").(Movie)
	if !ok {
		return nil, &route.InputError{Err: errors.New("movie body is required")}
	}
	m.ID = uuid.New()
	c.mu.Lock()
	c.movies[m.ID] = m
	c.mu.Unlock()
	return m, nil
}

// fail always errors; the page uses it to show a HandlerError.
func (c *catalog) fail(context.Context, *route.Args) (any, error) {
	return nil, errors.New("ratings service unavailable")
}

// slow outlives its route timeout so the window can show a TimeoutError.
func (c *catalog) slow(ctx context.Context, _ *route.Args) (any, error) {
	select {
	case <-time.After(2 * time.Second):
		return map[string]string{"status": "done"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
