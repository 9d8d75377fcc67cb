package dispatch

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/joeydtaylor/steeze-desk/pkg/route"
	"github.com/joeydtaylor/steeze-desk/pkg/wire"
)

// bodyKey is the Args name of a whole-body param declared without a name.
const bodyKey = "body"

// binder collects the arguments of one request. The JSON body is parsed into
// fields at most once.
type binder struct {
	d      *Dispatcher
	req    *wire.Request
	bound  route.Bound
	fields map[string]json.RawMessage
	parsed bool
}

func (d *Dispatcher) bind(req *wire.Request, b route.Bound) (*route.Args, error) {
	bn := &binder{d: d, req: req, bound: b}
	values := make(map[string]any, len(b.Route.Params))
	for _, p := range b.Route.Params {
		name := p.Name
		if p.Whole() && (name == "" || name == "*") {
			name = bodyKey
		}
		v, ok, err := bn.param(p)
		if err != nil {
			return nil, errorf(BindingError, err, "param %q: %v", name, err)
		}
		if !ok {
			continue
		}
		values[name] = v
	}
	return route.NewArgs(req, values, b.PathParams), nil
}

// param returns ok=false when an optional param is absent.
func (bn *binder) param(p route.Param) (any, bool, error) {
	if p.Whole() {
		return bn.wholeBody(p)
	}

	raw, present, err := bn.raw(p)
	if err != nil {
		return nil, false, err
	}
	if !present {
		if p.Default != "" {
			raw, present = p.Default, true
		} else if p.Required {
			return nil, false, fmt.Errorf("missing required %s param", p.Source)
		} else {
			return nil, false, nil
		}
	}
	v, err := bn.convert(p, []byte(raw))
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (bn *binder) wholeBody(p route.Param) (any, bool, error) {
	body := bn.req.Body
	if len(body) == 0 {
		switch {
		case p.Default != "":
			body = []byte(p.Default)
		case p.Required:
			return nil, false, fmt.Errorf("missing required body")
		default:
			return nil, false, nil
		}
	}
	v, err := bn.convert(p, body)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// raw finds the textual value of a non-body-whole param.
func (bn *binder) raw(p route.Param) (string, bool, error) {
	switch p.Source {
	case route.FromPath:
		v, ok := bn.bound.PathParams[p.Name]
		return v, ok, nil
	case route.FromQuery:
		v, ok := bn.req.Query.Get(p.Name)
		return v, ok, nil
	case route.FromHeader:
		vals := bn.req.Header.Values(p.Name)
		if len(vals) == 0 {
			return "", false, nil
		}
		return vals[0], true, nil
	case route.FromBody:
		return bn.field(p.Name)
	default:
		return "", false, fmt.Errorf("unknown source %q", p.Source)
	}
}

// field reads one member of a JSON object body. Exact name first, then a
// case-insensitive match.
func (bn *binder) field(name string) (string, bool, error) {
	if !bn.parsed {
		bn.parsed = true
		if len(bn.req.Body) > 0 {
			if err := json.Unmarshal(bn.req.Body, &bn.fields); err != nil {
				return "", false, fmt.Errorf("body is not a JSON object: %w", err)
			}
		}
	}
	raw, ok := bn.fields[name]
	if !ok {
		for k, v := range bn.fields {
			if strings.EqualFold(k, name) {
				raw, ok = v, true
				break
			}
		}
	}
	if !ok || string(raw) == "null" {
		return "", false, nil
	}
	var s string
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, true, nil
		}
	}
	return string(raw), true, nil
}

func (bn *binder) convert(p route.Param, raw []byte) (any, error) {
	s := string(raw)
	switch p.Type {
	case route.TypeString, "":
		return s, nil
	case route.TypeInt:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("want int, got %q", s)
		}
		return n, nil
	case route.TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("want float, got %q", s)
		}
		return f, nil
	case route.TypeBool:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("want bool, got %q", s)
		}
		return b, nil
	case route.TypeUUID:
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("want uuid, got %q", s)
		}
		return id, nil
	case route.TypeJSON:
		if !json.Valid(raw) {
			return nil, fmt.Errorf("invalid json")
		}
		return json.RawMessage(append([]byte(nil), raw...)), nil
	case route.TypeBytes:
		return append([]byte(nil), raw...), nil
	}
	return bn.datatype(p, raw)
}

func (bn *binder) datatype(p route.Param, raw []byte) (any, error) {
	if bn.d.types == nil {
		return nil, fmt.Errorf("datatype %q: no type registry", p.Type)
	}
	v, err := bn.d.types.Decode(string(p.Type), raw)
	if err != nil {
		return nil, err
	}
	if len(p.Transformers) == 0 {
		return v, nil
	}
	if bn.d.transforms == nil {
		return nil, fmt.Errorf("datatype %q: no transform registry", p.Type)
	}
	return bn.d.transforms.Apply(string(p.Type), v, p.Transformers)
}
