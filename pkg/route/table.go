package route

import (
	"errors"
	"sort"
	"strings"
)

// Policy decides what Merge does with a key that already exists.
type Policy int

const (
	// KeepFirst drops the incoming route and records a conflict.
	KeepFirst Policy = iota
	// Overwrite replaces the existing route and records a conflict.
	Overwrite
)

// Table maps (verb, path key) to a Route. It is not safe for concurrent
// mutation; concurrent Lookup is safe once mutation has stopped.
type Table struct {
	exact map[Key]Route
	tmpl  map[Key]Route
	order []Key
}

func NewTable() *Table {
	return &Table{
		exact: make(map[Key]Route),
		tmpl:  make(map[Key]Route),
	}
}

// Insert normalizes r and adds it, failing with *ConflictError on a taken key.
func (t *Table) Insert(r Route) error {
	r, err := prepare(r)
	if err != nil {
		return err
	}
	k := r.Key()
	if cur, ok := t.get(k); ok {
		return &ConflictError{Key: k, Existing: cur, Incoming: r}
	}
	t.put(r)
	return nil
}

func prepare(r Route) (Route, error) {
	if strings.TrimSpace(r.Path) == "" {
		return r, errors.New("route path is required")
	}
	if r.Handler == nil {
		return r, errors.New("route handler is required")
	}
	v, err := ParseVerb(string(r.Verb))
	if err != nil {
		return r, err
	}
	r.Verb = v
	r.Path = NormalizePath(r.Path)
	return r, nil
}

func (t *Table) get(k Key) (Route, bool) {
	if r, ok := t.exact[k]; ok {
		return r, true
	}
	r, ok := t.tmpl[k]
	return r, ok
}

// Get returns the route stored under k.
func (t *Table) Get(k Key) (Route, bool) { return t.get(k) }

func (t *Table) put(r Route) {
	k := r.Key()
	if !IsTemplate(r.Path) {
		t.exact[k] = r
		return
	}
	if _, ok := t.tmpl[k]; !ok {
		t.order = append(t.order, k)
		sortTemplates(t.order)
	}
	t.tmpl[k] = r
}

// most literal segments first, then more segments, then lexical; ANY last
func sortTemplates(keys []Key) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if la, lb := literals(a.Path), literals(b.Path); la != lb {
			return la > lb
		}
		if sa, sb := strings.Count(a.Path, "/"), strings.Count(b.Path, "/"); sa != sb {
			return sa > sb
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if (a.Verb == ANY) != (b.Verb == ANY) {
			return b.Verb == ANY
		}
		return a.Verb < b.Verb
	})
}

// Lookup resolves verb and path: exact key first, then ANY, then the most
// specific template.
func (t *Table) Lookup(verb Verb, p string) (Bound, bool) {
	clean := CleanPath(p)
	norm := NormalizePath(clean)
	verb = Verb(strings.ToUpper(string(verb)))

	if r, ok := t.exact[Key{Verb: verb, Path: norm}]; ok {
		return Bound{Route: r}, true
	}
	if r, ok := t.exact[Key{Verb: ANY, Path: norm}]; ok {
		return Bound{Route: r}, true
	}
	for _, k := range t.order {
		if k.Verb != verb && k.Verb != ANY {
			continue
		}
		r := t.tmpl[k]
		if vals, ok := match(r.Path, clean); ok {
			return Bound{Route: r, PathParams: vals}, true
		}
	}
	return Bound{}, false
}

// Merge copies other into t under policy. Incoming routes are visited in
// Routes() order so reports are deterministic.
func (t *Table) Merge(other *Table, policy Policy) MergeReport {
	var rep MergeReport
	if other == nil {
		return rep
	}
	for _, r := range other.Routes() {
		k := r.Key()
		cur, ok := t.get(k)
		if !ok {
			t.put(r)
			rep.Inserted++
			continue
		}
		switch policy {
		case Overwrite:
			t.put(r)
			rep.Overwritten++
			rep.Conflicts = append(rep.Conflicts, MergeConflict{Key: k, Kept: r, Dropped: cur})
		default:
			rep.Skipped++
			rep.Conflicts = append(rep.Conflicts, MergeConflict{Key: k, Kept: cur, Dropped: r})
		}
	}
	return rep
}

// Routes returns all routes sorted by path then verb.
func (t *Table) Routes() []Route {
	out := make([]Route, 0, t.Len())
	for _, r := range t.exact {
		out = append(out, r)
	}
	for _, r := range t.tmpl {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Verb < out[j].Verb
	})
	return out
}

func (t *Table) Len() int { return len(t.exact) + len(t.tmpl) }
