package scan

import "fmt"

// WarningKind classifies non-fatal scan findings.
type WarningKind string

const (
	WarnConventionPath   WarningKind = "convention_path"
	WarnUnsupportedParam WarningKind = "unsupported_param"
	WarnInvalidEndpoint  WarningKind = "invalid_endpoint"
)

// Warning is a non-fatal finding; skipped endpoints are reported here.
type Warning struct {
	Kind     WarningKind
	Module   string
	Service  string
	Endpoint string
	Detail   string
}

// Skipped reports whether the endpoint was left out of the fragment.
func (w Warning) Skipped() bool { return w.Kind != WarnConventionPath }

func (w Warning) String() string {
	return fmt.Sprintf("%s %s:%s.%s: %s", w.Kind, w.Module, w.Service, w.Endpoint, w.Detail)
}

// ErrorKind classifies fatal scan failures.
type ErrorKind string

const (
	ErrDuplicateRoute ErrorKind = "duplicate_route"
	ErrSkipThreshold  ErrorKind = "skip_threshold"
	ErrNilModule      ErrorKind = "nil_module"
)

// ScanError aborts startup: the module is internally inconsistent.
type ScanError struct {
	Module string
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scan %s: %s: %s: %v", e.Module, e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("scan %s: %s: %s", e.Module, e.Kind, e.Detail)
}

func (e *ScanError) Unwrap() error { return e.Err }
