package cdp

import (
	"context"
	"errors"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Browser is one Chromium tab driven by the engine.
type Browser struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

// Resize sets the outer window bounds of the tab's window.
func (b *Browser) Resize(width, height int) error {
	return chromedp.Run(b.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		id, _, err := browser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		return browser.SetWindowBounds(id, &browser.Bounds{
			Width:       int64(width),
			Height:      int64(height),
			WindowState: browser.WindowStateNormal,
		}).Do(ctx)
	}))
}

func (b *Browser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.log.Warn("browser close", zap.Error(err))
		return err
	}
	return nil
}
