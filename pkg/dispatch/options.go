package dispatch

import (
	"time"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-desk/pkg/codec"
)

type Option func(*Dispatcher)

func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithTimeout sets the global handler deadline; a route's own Timeout wins.
// Zero disables it.
func WithTimeout(t time.Duration) Option { return func(d *Dispatcher) { d.timeout = t } }

func WithCodecs(r *codec.Registry) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.codecs = r
		}
	}
}

// WithTypes supplies the datatype registry used for typed params.
func WithTypes(t TypeDecoder) Option { return func(d *Dispatcher) { d.types = t } }

func WithTransforms(t Transformer) Option { return func(d *Dispatcher) { d.transforms = t } }

// WithSchemes lets the dispatcher refuse requests addressed to external schemes.
func WithSchemes(s SchemeChecker) Option { return func(d *Dispatcher) { d.schemes = s } }

// WithObserver adds an observer; observers run in the order added.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.observers = append(d.observers, o)
		}
	}
}
