package route

// ParamType names the expected type of a bound parameter. Builtins are listed
// below; any other name refers to a datatype registered with core.Types.
type ParamType string

const (
	TypeString ParamType = "string"
	TypeInt    ParamType = "int"
	TypeFloat  ParamType = "float"
	TypeBool   ParamType = "bool"
	TypeUUID   ParamType = "uuid"
	TypeJSON   ParamType = "json"
	TypeBytes  ParamType = "bytes"
)

// Builtin reports whether t is bound without a datatype registry.
func (t ParamType) Builtin() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBool, TypeUUID, TypeJSON, TypeBytes:
		return true
	}
	return false
}

// ParamSource says where a parameter value comes from.
type ParamSource string

const (
	FromPath   ParamSource = "path"
	FromQuery  ParamSource = "query"
	FromBody   ParamSource = "body"
	FromHeader ParamSource = "header"
)

func (s ParamSource) Valid() bool {
	switch s {
	case FromPath, FromQuery, FromBody, FromHeader:
		return true
	}
	return false
}

// Param describes one handler argument.
type Param struct {
	Name     string
	Type     ParamType
	Source   ParamSource
	Required bool
	// Default is used when the value is absent; it is parsed like request input.
	Default string
	// Transformers run in order on a decoded datatype value (body params only).
	Transformers []string
}

// Whole reports whether a body param binds the entire body rather than one field.
func (p Param) Whole() bool {
	return p.Source == FromBody && (p.Name == "" || p.Name == "*" || p.Type == TypeBytes || !p.Type.Builtin())
}
