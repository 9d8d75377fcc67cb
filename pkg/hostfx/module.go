package hostfx

import (
	"fmt"

	"github.com/joeydtaylor/steeze-desk/pkg/config"
	"github.com/joeydtaylor/steeze-desk/pkg/core"
	"github.com/joeydtaylor/steeze-desk/pkg/host"
	"github.com/joeydtaylor/steeze-desk/pkg/manifest"
	"github.com/joeydtaylor/steeze-desk/pkg/scan"
	"go.uber.org/fx"
)

// ---------- Options ----------

type Options struct {
	Config   *config.Config
	Manifest *manifest.Config
	Engine   host.Engine
	Handlers *core.Handlers
}

type Option func(*Options)

// WithConfig skips reading the environment.
func WithConfig(c config.Config) Option { return func(o *Options) { o.Config = &c } }

// WithManifest skips loading Config.Manifest from disk.
func WithManifest(m manifest.Config) Option { return func(o *Options) { o.Manifest = &m } }

// WithEngine replaces the default Chromium engine.
func WithEngine(e host.Engine) Option { return func(o *Options) { o.Engine = e } }

// WithHandlers supplies the handler registry; by default each app gets a
// fresh one that fx.Invoke callers register into.
func WithHandlers(h *core.Handlers) Option { return func(o *Options) { o.Handlers = h } }

// AsModule contributes a service module to the host through the
// "modules" value group.
func AsModule(m scan.Module) fx.Option {
	return fx.Provide(fx.Annotate(
		func() scan.Module { return m },
		fx.ResultTags(`group:"modules"`),
	))
}

func provideConfig(o Options) (config.Config, error) {
	if o.Config != nil {
		return *o.Config, nil
	}
	return config.Load()
}

func provideManifest(o Options, cfg config.Config) (manifest.Config, error) {
	if o.Manifest != nil {
		m := *o.Manifest
		if err := m.Validate(); err != nil {
			return manifest.Config{}, fmt.Errorf("manifest: %w", err)
		}
		return m, nil
	}
	return core.LoadConfig(cfg.Manifest)
}
