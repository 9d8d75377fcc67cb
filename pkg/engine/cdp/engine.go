// Package cdp drives Chromium over the DevTools protocol. Requests on internal
// schemes are paused with the Fetch domain and fulfilled from the scheme
// registry; everything else continues to the network.
//
// Chromium refuses to load unknown schemes from the network stack, so an
// internal scheme other than http(s) is served from a virtual origin:
// app://local/x is loaded as https://local.app/x and mapped back before
// dispatch.
package cdp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-desk/pkg/host"
	"github.com/joeydtaylor/steeze-desk/pkg/scheme"
)

var ErrNotInitialized = errors.New("cdp: engine not initialized")

type Engine struct {
	log *zap.Logger

	mu       sync.Mutex
	alloc    context.Context
	cancel   context.CancelFunc
	headless bool
	vhosts   *vhosts
	browsers []*Browser
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{log: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Initialize builds the exec allocator and the interception table from the
// frozen registry. Chromium itself starts with the first browser.
func (e *Engine) Initialize(_ context.Context, s host.Settings, reg *scheme.Registry) error {
	if reg == nil {
		return errors.New("cdp: scheme registry required")
	}
	if !reg.Frozen() {
		return errors.New("cdp: scheme registry must be frozen before initialize")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.alloc != nil {
		return errors.New("cdp: already initialized")
	}

	flags, err := Flags(s)
	if err != nil {
		return err
	}
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range flags {
		opts = append(opts, chromedp.Flag(f.Name, f.Value))
	}
	if s.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(s.ExecPath))
	}
	if s.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(s.UserDataDir))
	}

	e.vhosts = newVhosts(reg)
	e.headless = s.Headless
	e.alloc, e.cancel = chromedp.NewExecAllocator(context.Background(), opts...)
	e.log.Info("engine initialized",
		zap.Int("flags", len(flags)),
		zap.Strings("intercept", e.vhosts.patternStrings()),
	)
	return nil
}

// CreateBrowser opens a tab, enables interception and navigates to the start
// URL. The tab lives until Close or Shutdown, not until ctx ends.
func (e *Engine) CreateBrowser(ctx context.Context, cfg host.BrowserConfig) (host.Browser, error) {
	e.mu.Lock()
	alloc, vh := e.alloc, e.vhosts
	e.mu.Unlock()
	if alloc == nil {
		return nil, ErrNotInitialized
	}

	tab, cancel := chromedp.NewContext(alloc, chromedp.WithLogf(e.log.Sugar().Debugf))
	chromedp.ListenTarget(tab, e.listen(tab, vh, cfg.OnLoadStart))

	var actions []chromedp.Action
	if patterns := vh.patterns(); len(patterns) > 0 {
		actions = append(actions, fetch.Enable().WithPatterns(patterns))
	}
	start := vh.toEngine(cfg.StartURL)
	if start != "" {
		actions = append(actions, chromedp.Navigate(start))
	}

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(tab, actions...) }()
	select {
	case err := <-done:
		if err != nil {
			cancel()
			return nil, fmt.Errorf("cdp: open %s: %w", start, err)
		}
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}

	b := &Browser{ctx: tab, cancel: cancel, log: e.log}
	if cfg.Width > 0 && cfg.Height > 0 && !e.headless {
		if err := b.Resize(cfg.Width, cfg.Height); err != nil {
			e.log.Warn("initial resize failed", zap.Error(err))
		}
	}

	e.mu.Lock()
	e.browsers = append(e.browsers, b)
	e.mu.Unlock()
	e.log.Info("browser opened", zap.String("url", start))
	return b, nil
}

// Shutdown closes every browser and stops Chromium.
func (e *Engine) Shutdown(context.Context) error {
	e.mu.Lock()
	browsers, cancel := e.browsers, e.cancel
	e.browsers, e.alloc, e.cancel = nil, nil, nil
	e.mu.Unlock()

	var errs []error
	for _, b := range browsers {
		errs = append(errs, b.Close())
	}
	if cancel != nil {
		cancel()
	}
	e.log.Info("engine shut down")
	return errors.Join(errs...)
}

// Flag is one Chromium command-line switch.
type Flag struct {
	Name  string
	Value any
}

// Flags maps settings onto Chromium switches. Args take the form --name or
// --name=value; later entries override earlier ones.
func Flags(s host.Settings) ([]Flag, error) {
	out := []Flag{{Name: "headless", Value: s.Headless}}
	if !s.Headless {
		out = append(out, Flag{Name: "hide-scrollbars", Value: false}, Flag{Name: "mute-audio", Value: false})
	}

	switch strings.ToLower(s.LogSeverity) {
	case "", "disable":
	case "debug":
		out = append(out, Flag{Name: "enable-logging", Value: true}, Flag{Name: "v", Value: "1"})
	case "info":
		out = append(out, Flag{Name: "enable-logging", Value: true}, Flag{Name: "log-level", Value: "0"})
	case "warn":
		out = append(out, Flag{Name: "enable-logging", Value: true}, Flag{Name: "log-level", Value: "1"})
	case "error":
		out = append(out, Flag{Name: "enable-logging", Value: true}, Flag{Name: "log-level", Value: "2"})
	default:
		return nil, fmt.Errorf("cdp: unknown log severity %q", s.LogSeverity)
	}
	if s.LogFile != "" {
		out = append(out, Flag{Name: "log-file", Value: s.LogFile})
	}

	for _, a := range s.Args {
		a = strings.TrimSpace(a)
		if !strings.HasPrefix(a, "--") || len(a) == 2 {
			return nil, fmt.Errorf("cdp: argument %q must look like --name[=value]", a)
		}
		name, val, ok := strings.Cut(a[2:], "=")
		if ok {
			out = append(out, Flag{Name: name, Value: val})
		} else {
			out = append(out, Flag{Name: name, Value: true})
		}
	}
	return out, nil
}
