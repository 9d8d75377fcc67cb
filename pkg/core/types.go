// core/types.go
package core

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/joeydtaylor/steeze-desk/pkg/codec"
)

// TypeBinding ties a symbolic datatype name to its codec and zero-value constructor.
type TypeBinding struct {
	Name  string
	Codec codec.Codec
	Zero  func() any
}

// Types is the datatype registry consulted by the scanner (known names) and
// the dispatcher (decoding typed body params).
type Types struct {
	mu sync.RWMutex
	m  map[string]TypeBinding
}

func NewTypes() *Types { return &Types{m: make(map[string]TypeBinding)} }

// RegisterType binds T to name. A nil codec means codec.JSONStrict.
func RegisterType[T any](t *Types, name string, c codec.Codec) error {
	if name == "" {
		return fmt.Errorf("type name required")
	}
	if c == nil {
		c = codec.JSONStrict
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.m[name]; ok {
		return fmt.Errorf("type %q already registered", name)
	}
	t.m[name] = TypeBinding{
		Name:  name,
		Codec: c,
		Zero:  func() any { var x T; return &x },
	}
	return nil
}

func MustRegisterType[T any](t *Types, name string, c codec.Codec) {
	if err := RegisterType[T](t, name, c); err != nil {
		panic(err)
	}
}

func (t *Types) Binding(name string) (TypeBinding, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.m[name]
	return b, ok
}

// Known satisfies scan.TypeChecker.
func (t *Types) Known(name string) bool {
	_, ok := t.Binding(name)
	return ok
}

func (t *Types) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.m))
	for n := range t.m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Decode unmarshals data into a fresh value of the registered type and
// returns it by value (T, not *T).
func (t *Types) Decode(name string, data []byte) (any, error) {
	b, ok := t.Binding(name)
	if !ok {
		return nil, fmt.Errorf("unregistered type %q", name)
	}
	dst := b.Zero()
	if err := b.Codec.Unmarshal(data, dst); err != nil {
		return nil, fmt.Errorf("payload type %q invalid: %w", name, err)
	}
	return reflect.ValueOf(dst).Elem().Interface(), nil
}

// ValidateAndCanonicalize asserts bytes decode into the registered type,
// then re-encodes canonically via the codec (round-trip).
func (t *Types) ValidateAndCanonicalize(name string, data []byte) (contentType string, out []byte, err error) {
	v, err := t.Decode(name, data)
	if err != nil {
		return "", nil, err
	}
	b, _ := t.Binding(name)
	raw, err := b.Codec.Marshal(v)
	if err != nil {
		return "", nil, fmt.Errorf("re-encode: %w", err)
	}
	return b.Codec.ContentType(), raw, nil
}
