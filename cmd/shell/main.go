// Command shell opens the desktop window and serves the movies demo over the
// app://local scheme.
package main

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-desk/pkg/core"
	"github.com/joeydtaylor/steeze-desk/pkg/core/transform"
	"github.com/joeydtaylor/steeze-desk/pkg/host"
	"github.com/joeydtaylor/steeze-desk/pkg/hostfx"
)

func main() {
	fx.New(
		fx.Invoke(registerMovies),
		hostfx.Module(),
		fx.Invoke(func(h *host.Host, log *zap.Logger) {
			h.OnLoadStart(func(ev host.LoadStart) {
				if ev.MainFrame {
					log.Info("navigating", zap.String("url", ev.URL))
				}
			})
		}),
	).Run()
}

func registerMovies(types *core.Types, tr *transform.Registry, h *core.Handlers) error {
	if err := core.RegisterType[Movie](types, "movie", nil); err != nil {
		return err
	}
	if err := transform.Register[Movie](tr, "movie", "trim", trimMovie); err != nil {
		return err
	}
	return newCatalog().register(h)
}
