// Package host binds route scanning, the provider, the scheme registry and the
// dispatcher to the engine's create/resize/destroy lifecycle. Registration
// happens before Create; after Create the route table and the scheme registry
// are read-only.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-desk/pkg/core"
	"github.com/joeydtaylor/steeze-desk/pkg/dispatch"
	"github.com/joeydtaylor/steeze-desk/pkg/manifest"
	"github.com/joeydtaylor/steeze-desk/pkg/provider"
	"github.com/joeydtaylor/steeze-desk/pkg/route"
	"github.com/joeydtaylor/steeze-desk/pkg/scan"
	"github.com/joeydtaylor/steeze-desk/pkg/scheme"
	"github.com/joeydtaylor/steeze-desk/pkg/wire"
)

var (
	ErrCreated    = errors.New("host already created")
	ErrNotCreated = errors.New("host not created")
	ErrDestroyed  = errors.New("host destroyed")
)

// ScanObserver is told about every scanner warning.
type ScanObserver interface {
	ScanWarning(scan.Warning)
}

// Deps bundles what a Host drives. Engine, Provider, Schemes and Dispatcher
// are required.
type Deps struct {
	Engine     Engine
	Provider   *provider.Provider
	Schemes    *scheme.Registry
	Dispatcher *dispatch.Dispatcher
	Scanner    *scan.Scanner
	Handlers   *core.Handlers
	Log        *zap.Logger
	Observer   ScanObserver
}

type state int

const (
	stateRegistering state = iota
	stateCreated
	stateFailed
	stateDestroyed
)

type Host struct {
	d    Deps
	log  *zap.Logger
	spec manifest.HostSpec

	mu      sync.Mutex
	state   state
	modules []scan.Module
	scanned int
	browser Browser
	onLoad  func(LoadStart)
}

func New(d Deps, spec manifest.HostSpec) (*Host, error) {
	if d.Engine == nil || d.Provider == nil || d.Schemes == nil || d.Dispatcher == nil {
		return nil, errors.New("host: engine, provider, schemes and dispatcher are required")
	}
	if d.Scanner == nil {
		d.Scanner = scan.New()
	}
	if d.Handlers == nil {
		d.Handlers = core.Default
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Host{d: d, log: d.Log, spec: spec}, nil
}

// OnLoadStart sets the listener for browser navigation starts.
func (h *Host) OnLoadStart(fn func(LoadStart)) {
	h.mu.Lock()
	h.onLoad = fn
	h.mu.Unlock()
}

func (h *Host) registering() error {
	switch h.state {
	case stateRegistering:
		return nil
	case stateDestroyed:
		return ErrDestroyed
	default:
		return ErrCreated
	}
}

// RegisterServiceModule queues m for scanning. The host borrows m; it is
// never mutated.
func (h *Host) RegisterServiceModule(m scan.Module) error {
	if m == nil {
		return errors.New("host: nil module")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.registering(); err != nil {
		return err
	}
	h.modules = append(h.modules, m)
	h.log.Info("service module registered", zap.String("module", m.Name()))
	return nil
}

// RegisterServiceFile loads the [[module]] blocks of a manifest file and
// registers each as a service module.
func (h *Host) RegisterServiceFile(path string) error {
	cfg, err := core.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("service file %s: %w", path, err)
	}
	mods, err := core.ManifestModules(cfg, h.d.Handlers)
	if err != nil {
		return fmt.Errorf("service file %s: %w", path, err)
	}
	for _, m := range mods {
		if err := h.RegisterServiceModule(m); err != nil {
			return err
		}
	}
	return nil
}

// RegisterScheme registers (name, domain). Internal schemes are served by the
// dispatcher; external ones are left to the engine.
func (h *Host) RegisterScheme(name, domain string, external bool) error {
	var f scheme.Factory = scheme.Passthrough
	if !external {
		f = h.d.Dispatcher.Factory()
	}
	if err := h.d.Schemes.RegisterScheme(name, domain, f, external); err != nil {
		return err
	}
	h.log.Info("scheme registered",
		zap.String("scheme", name), zap.String("domain", domain), zap.Bool("external", external))
	return nil
}

// RegisterExternalScheme always registers as external.
func (h *Host) RegisterExternalScheme(name, domain string) error {
	return h.RegisterScheme(name, domain, true)
}

// RegisterManifest applies the schemes and modules of a manifest and adopts
// its host settings.
func (h *Host) RegisterManifest(cfg manifest.Config) error {
	for _, s := range cfg.Schemes {
		if err := h.RegisterScheme(s.Name, s.Domain, s.External); err != nil {
			return err
		}
	}
	mods, err := core.ManifestModules(cfg, h.d.Handlers)
	if err != nil {
		return err
	}
	for _, m := range mods {
		if err := h.RegisterServiceModule(m); err != nil {
			return err
		}
	}
	h.mu.Lock()
	h.spec = cfg.Host
	h.mu.Unlock()
	return nil
}

// ScanModules scans every module registered since the last call and merges
// each fragment into the provider. A ScanError aborts at that module.
func (h *Host) ScanModules() (route.MergeReport, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.registering(); err != nil {
		return route.MergeReport{}, err
	}
	return h.scanLocked()
}

func (h *Host) scanLocked() (route.MergeReport, error) {
	var total route.MergeReport
	for ; h.scanned < len(h.modules); h.scanned++ {
		m := h.modules[h.scanned]
		res, err := h.d.Scanner.Scan(m)
		if h.d.Observer != nil {
			for _, w := range res.Warnings {
				h.d.Observer.ScanWarning(w)
			}
		}
		if err != nil {
			return total, err
		}
		rep, err := h.d.Provider.MergeRoutes(res)
		if err != nil {
			return total, err
		}
		total.Add(rep)
	}
	return total, nil
}

// Create scans pending modules, seals the provider, freezes the scheme
// registry, initializes the engine and opens the browser. It runs once; a
// failure leaves the host unusable.
func (h *Host) Create(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.registering(); err != nil {
		return err
	}
	if err := h.create(ctx); err != nil {
		h.state = stateFailed
		h.log.Error("host create failed", zap.Error(err))
		return err
	}
	h.state = stateCreated
	return nil
}

func (h *Host) create(ctx context.Context) error {
	rep, err := h.scanLocked()
	if err != nil {
		return fmt.Errorf("scan modules: %w", err)
	}
	h.d.Provider.Seal()
	h.d.Schemes.Freeze()
	h.log.Info("registration sealed",
		zap.Int("routes", h.d.Provider.Len()),
		zap.Int("conflicts", len(rep.Conflicts)),
		zap.Int("schemes", len(h.d.Schemes.Registrations())),
	)

	settings := Settings{
		Args:        h.spec.Args,
		LogSeverity: h.spec.LogSeverity,
		LogFile:     h.spec.LogFile,
		Headless:    h.spec.Headless,
		ExecPath:    h.spec.ExecPath,
		UserDataDir: h.spec.UserDataDir,
	}
	if err := h.d.Engine.Initialize(ctx, settings, h.d.Schemes); err != nil {
		return fmt.Errorf("engine initialize: %w", err)
	}

	onLoad := h.onLoad
	b, err := h.d.Engine.CreateBrowser(ctx, BrowserConfig{
		Title:    h.spec.Title,
		StartURL: h.spec.StartURL,
		Width:    h.spec.Width,
		Height:   h.spec.Height,
		OnLoadStart: func(ev LoadStart) {
			h.log.Debug("load start", zap.String("url", ev.URL), zap.Bool("main", ev.MainFrame))
			if onLoad != nil {
				onLoad(ev)
			}
		},
	})
	if err != nil {
		_ = h.d.Engine.Shutdown(ctx)
		return fmt.Errorf("create browser: %w", err)
	}
	h.browser = b
	h.log.Info("browser created", zap.String("start_url", h.spec.StartURL))
	return nil
}

// Resize forwards a window size change to the browser.
func (h *Host) Resize(width, height int) error {
	h.mu.Lock()
	b := h.browser
	h.mu.Unlock()
	if b == nil {
		return ErrNotCreated
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("host: invalid size %dx%d", width, height)
	}
	return b.Resize(width, height)
}

// Destroy closes the browser and shuts the engine down. Safe to call more
// than once and before Create.
func (h *Host) Destroy(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == stateDestroyed {
		return nil
	}
	created := h.state == stateCreated
	h.state = stateDestroyed

	var errs []error
	if h.browser != nil {
		errs = append(errs, h.browser.Close())
		h.browser = nil
	}
	if created {
		errs = append(errs, h.d.Engine.Shutdown(ctx))
	}
	h.log.Info("host destroyed")
	return errors.Join(errs...)
}

// HandleProtocol is the inbound callback for a request on a registered
// scheme: it finds the factory for (scheme, domain) and lets its handler
// answer. Unknown schemes get a 404 and external schemes a 421.
func (h *Host) HandleProtocol(ctx context.Context, req *wire.Request) *wire.Response {
	if req == nil {
		return dispatch.Reject(dispatch.ResolutionError, "empty request", nil)
	}
	reg, ok := h.d.Schemes.Match(req.URL())
	if !ok {
		return dispatch.Reject(dispatch.ResolutionError,
			fmt.Sprintf("no handler for %s://%s", req.Scheme, req.Domain), req)
	}
	var handler scheme.Handler
	if !reg.External {
		handler = reg.Factory.Create(reg.Scheme, reg.Domain)
	}
	if handler == nil {
		return dispatch.Reject(dispatch.ExternalSchemeError,
			fmt.Sprintf("%s is handled by the engine", reg), req)
	}
	return handler.Handle(ctx, req)
}

// Routes lists the merged routes.
func (h *Host) Routes() []route.Route { return h.d.Provider.Routes() }
