package hostfx

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-desk/pkg/codec"
	"github.com/joeydtaylor/steeze-desk/pkg/config"
	"github.com/joeydtaylor/steeze-desk/pkg/core"
	"github.com/joeydtaylor/steeze-desk/pkg/core/transform"
	"github.com/joeydtaylor/steeze-desk/pkg/dispatch"
	"github.com/joeydtaylor/steeze-desk/pkg/engine/cdp"
	"github.com/joeydtaylor/steeze-desk/pkg/host"
	"github.com/joeydtaylor/steeze-desk/pkg/manifest"
	"github.com/joeydtaylor/steeze-desk/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-desk/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-desk/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-desk/pkg/provider"
	"github.com/joeydtaylor/steeze-desk/pkg/scan"
	"github.com/joeydtaylor/steeze-desk/pkg/scheme"
	"github.com/joeydtaylor/steeze-desk/pkg/transport/httpx"
)

// Module returns a complete Fx option set. App-specific fx.Invoke(...) calls
// that register types, transforms and handlers must come before it: the host
// resolves manifest handler names when it is built.
func Module(opts ...Option) fx.Option {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return fx.Options(
		fx.Supply(o),
		fx.Provide(provideConfig, provideManifest),
		logger.Module,
		fx.Provide(
			provideRegistry,
			provideCollector,
			provideHandlers,
			codec.Default,
			core.NewTypes,
			transform.New,
			scheme.NewRegistry,
			provideProvider,
			provideScanner,
			provideDispatcher,
			provideEngine,
			provideHost,
			provideBridgeAuth,
			provideBridge,
		),
		fx.Invoke(registerHooks),
	)
}

// ---------- Metrics ----------

func provideRegistry() *prometheus.Registry { return prometheus.NewRegistry() }

func provideCollector(reg *prometheus.Registry) (*metrics.Collector, error) {
	return metrics.NewCollector(reg, metrics.WithSkipPaths("/ping"))
}

// ---------- Registration ----------

func provideHandlers(o Options) *core.Handlers {
	if o.Handlers != nil {
		return o.Handlers
	}
	return core.NewHandlers()
}

func provideProvider(zl *zap.Logger, c *metrics.Collector) *provider.Provider {
	return provider.New(provider.WithLogger(zl), provider.WithConflictObserver(c))
}

func provideScanner(cfg config.Config, types *core.Types, zl *zap.Logger) *scan.Scanner {
	return scan.New(
		scan.WithTypes(types),
		scan.WithSkipThreshold(cfg.SkipThreshold),
		scan.WithLogger(zl),
	)
}

type dispatchDeps struct {
	fx.In
	Config     config.Config
	Logger     *zap.Logger
	Provider   *provider.Provider
	Codecs     *codec.Registry
	Types      *core.Types
	Transforms *transform.Registry
	Schemes    *scheme.Registry
	Access     *logger.AccessLog
	Metrics    *metrics.Collector
}

func provideDispatcher(d dispatchDeps) *dispatch.Dispatcher {
	return dispatch.New(d.Provider,
		dispatch.WithLogger(d.Logger),
		dispatch.WithTimeout(d.Config.DispatchTimeout),
		dispatch.WithCodecs(d.Codecs),
		dispatch.WithTypes(d.Types),
		dispatch.WithTransforms(d.Transforms),
		dispatch.WithSchemes(d.Schemes),
		dispatch.WithObserver(d.Access),
		dispatch.WithObserver(d.Metrics),
	)
}

// ---------- Host ----------

func provideEngine(o Options, cfg config.Config, zl *zap.Logger) host.Engine {
	if o.Engine != nil {
		return o.Engine
	}
	return cdp.New(cdp.WithLogger(zl))
}

type hostDeps struct {
	fx.In
	Config     config.Config
	Manifest   manifest.Config
	Engine     host.Engine
	Provider   *provider.Provider
	Schemes    *scheme.Registry
	Dispatcher *dispatch.Dispatcher
	Scanner    *scan.Scanner
	Handlers   *core.Handlers
	Logger     *zap.Logger
	Metrics    *metrics.Collector
	Modules    []scan.Module `group:"modules"`
}

func provideHost(d hostDeps) (*host.Host, error) {
	spec := d.Manifest.Host
	if d.Config.Headless {
		spec.Headless = true
	}
	if d.Config.ChromePath != "" {
		spec.ExecPath = d.Config.ChromePath
	}
	h, err := host.New(host.Deps{
		Engine:     d.Engine,
		Provider:   d.Provider,
		Schemes:    d.Schemes,
		Dispatcher: d.Dispatcher,
		Scanner:    d.Scanner,
		Handlers:   d.Handlers,
		Log:        d.Logger,
		Observer:   d.Metrics,
	}, spec)
	if err != nil {
		return nil, err
	}
	man := d.Manifest
	man.Host = spec
	if err := h.RegisterManifest(man); err != nil {
		return nil, err
	}
	for _, m := range d.Modules {
		if err := h.RegisterServiceModule(m); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// ---------- Bridge ----------

// provideBridgeAuth returns nil when no bridge secret is configured.
func provideBridgeAuth(cfg config.Config, zl *zap.Logger) (*auth.Middleware, error) {
	if cfg.BridgeSecret == "" {
		return nil, nil
	}
	return auth.New([]byte(cfg.BridgeSecret), auth.WithOpenPaths("/ping"), auth.WithLogger(zl))
}

func provideBridge(man manifest.Config, d *dispatch.Dispatcher, reg *prometheus.Registry, c *metrics.Collector, guard *auth.Middleware, zl *zap.Logger) *httpx.Server {
	name, domain := "app", "local"
	for _, s := range man.Schemes {
		if !s.External {
			name, domain = s.Name, s.Domain
			break
		}
	}
	mw := []func(http.Handler) http.Handler{c.Collect}
	if guard != nil {
		mw = append(mw, guard.Handler)
	}
	r := httpx.NewRouter(httpx.NewBridge(name, domain, d, zl), metrics.Handler(reg), mw...)
	return httpx.NewServer(r.Mux(), zl)
}

// ---------- Lifecycle ----------

func registerHooks(lc fx.Lifecycle, cfg config.Config, h *host.Host, srv *httpx.Server, zl *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := h.Create(ctx); err != nil {
				return err
			}
			if cfg.BridgeListen == "" {
				return nil
			}
			return srv.Start(cfg.BridgeListen)
		},
		OnStop: func(ctx context.Context) error {
			zl.Info("shell stopping", zap.String("service", cfg.Service))
			err := srv.Shutdown(ctx)
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			_ = zl.Sync()
			return errors.Join(err, h.Destroy(ctx))
		},
	})
}
