package codec

import (
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"
)

// Registry maps codec names and content types to codecs.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Codec
	byType map[string]string
	def    string
}

func NewRegistry(defaultName string) *Registry {
	return &Registry{
		byName: make(map[string]Codec),
		byType: make(map[string]string),
		def:    defaultName,
	}
}

// Default has json (default), yaml and toml.
func Default() *Registry {
	r := NewRegistry("json")
	r.MustRegister("json", JSON)
	r.MustRegister("yaml", YAML)
	r.MustRegister("toml", TOML)
	return r
}

func (r *Registry) Register(name string, c Codec) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || c == nil {
		return fmt.Errorf("codec name and codec required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("codec %q already registered", name)
	}
	r.byName[name] = c
	if _, ok := r.byType[c.ContentType()]; !ok {
		r.byType[c.ContentType()] = name
	}
	return nil
}

func (r *Registry) MustRegister(name string, c Codec) {
	if err := r.Register(name, c); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(name string) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// DefaultCodec returns the codec used when nothing else matches.
func (r *Registry) DefaultCodec() Codec {
	c, _ := r.Get(r.def)
	if c == nil {
		return JSON
	}
	return c
}

// ForAccept picks the first codec whose content type appears in an Accept
// header, honoring list order but not q-values.
func (r *Registry) ForAccept(accept string) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, part := range strings.Split(accept, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if name, ok := r.byType[mt]; ok {
			return r.byName[name], true
		}
	}
	return nil, false
}

// Names lists registered codec names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
