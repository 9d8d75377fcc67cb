// Package provider holds the canonical route table built from every scanned
// module. It is constructed once by the host and passed by reference; after
// Seal it is read-only and Resolve needs no locking.
package provider

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/joeydtaylor/steeze-desk/pkg/route"
	"github.com/joeydtaylor/steeze-desk/pkg/scan"
	"go.uber.org/zap"
)

// ErrSealed is returned by MergeRoutes once dispatch has started.
var ErrSealed = errors.New("provider: route table is sealed")

// ConflictObserver is told about every dropped duplicate.
type ConflictObserver interface {
	MergeConflict(c route.MergeConflict)
}

type Provider struct {
	mu        sync.Mutex // serializes registration only
	table     *route.Table
	conflicts []route.MergeConflict
	// frozen is set once by Seal; readers go through it without locking.
	frozen atomic.Pointer[route.Table]
	log       *zap.Logger
	obs       ConflictObserver
}

type Option func(*Provider)

func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.log = l
		}
	}
}

func WithConflictObserver(o ConflictObserver) Option {
	return func(p *Provider) { p.obs = o }
}

func New(opts ...Option) *Provider {
	p := &Provider{table: route.NewTable(), log: zap.NewNop()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// MergeRoutes folds a scan fragment into the canonical table. The first
// registration of a (verb, path) wins; later ones are dropped and reported.
func (p *Provider) MergeRoutes(res scan.Result) (route.MergeReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frozen.Load() != nil {
		return route.MergeReport{}, ErrSealed
	}

	rep := p.table.Merge(res.Routes, route.KeepFirst)
	for _, c := range rep.Conflicts {
		p.log.Warn("route conflict, keeping first registration",
			zap.String("route", c.Key.String()),
			zap.String("kept", c.Kept.Origin()),
			zap.String("dropped", c.Dropped.Origin()),
		)
		if p.obs != nil {
			p.obs.MergeConflict(c)
		}
	}
	p.conflicts = append(p.conflicts, rep.Conflicts...)
	p.log.Info("routes merged",
		zap.String("module", res.Module),
		zap.Int("inserted", rep.Inserted),
		zap.Int("skipped", rep.Skipped),
		zap.Int("total", p.table.Len()),
	)
	return rep, nil
}

// Seal ends the registration phase.
func (p *Provider) Seal() {
	p.mu.Lock()
	p.frozen.CompareAndSwap(nil, p.table)
	p.mu.Unlock()
}

func (p *Provider) Sealed() bool { return p.frozen.Load() != nil }

// Resolve is the only call made at request time. After Seal it reads the
// frozen table lock-free; before, it serializes with registration.
func (p *Provider) Resolve(verb route.Verb, path string) (route.Bound, bool) {
	if t := p.frozen.Load(); t != nil {
		return t.Lookup(verb, path)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.table.Lookup(verb, path)
}

// Routes returns the canonical routes sorted by path then verb.
func (p *Provider) Routes() []route.Route {
	if t := p.frozen.Load(); t != nil {
		return t.Routes()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.table.Routes()
}

// Conflicts returns every conflict recorded so far.
func (p *Provider) Conflicts() []route.MergeConflict {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]route.MergeConflict(nil), p.conflicts...)
}

func (p *Provider) Len() int {
	if t := p.frozen.Load(); t != nil {
		return t.Len()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.table.Len()
}
