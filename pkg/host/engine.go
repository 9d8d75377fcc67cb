package host

import (
	"context"

	"github.com/joeydtaylor/steeze-desk/pkg/scheme"
)

// Settings is applied once when the engine initializes.
type Settings struct {
	Args        []string
	LogSeverity string
	LogFile     string
	Headless    bool
	ExecPath    string
	UserDataDir string
}

// BrowserConfig describes the single top-level browser the host opens.
type BrowserConfig struct {
	Title    string
	StartURL string
	Width    int
	Height   int
	// OnLoadStart, when set, receives navigation starts of the browser.
	OnLoadStart func(LoadStart)
}

// LoadStart reports a frame starting to load a URL.
type LoadStart struct {
	URL       string
	FrameID   string
	MainFrame bool
}

// Engine is the embedded browser runtime. Initialize receives the frozen
// scheme registry and must route internal scheme requests through it.
type Engine interface {
	Initialize(ctx context.Context, s Settings, schemes *scheme.Registry) error
	CreateBrowser(ctx context.Context, cfg BrowserConfig) (Browser, error)
	Shutdown(ctx context.Context) error
}

type Browser interface {
	Resize(width, height int) error
	Close() error
}
