package manifest

import (
	"errors"
	"strings"
)

const (
	DefaultStartURL = "app://local/index.html"
	DefaultWidth    = 1200
	DefaultHeight   = 900
)

// HostSpec carries the window and engine settings applied on create.
type HostSpec struct {
	Title       string   `toml:"title"`
	StartURL    string   `toml:"start_url"`
	Width       int      `toml:"width"`
	Height      int      `toml:"height"`
	Args        []string `toml:"args"`
	LogSeverity string   `toml:"log_severity"`
	LogFile     string   `toml:"log_file"`
	Headless    bool     `toml:"headless"`
	ExecPath    string   `toml:"exec_path"`
	UserDataDir string   `toml:"user_data_dir"`
}

func (h *HostSpec) normalize() {
	h.StartURL = strings.TrimSpace(h.StartURL)
	if h.StartURL == "" {
		h.StartURL = DefaultStartURL
	}
	if h.Width == 0 {
		h.Width = DefaultWidth
	}
	if h.Height == 0 {
		h.Height = DefaultHeight
	}
	h.LogSeverity = strings.ToLower(strings.TrimSpace(h.LogSeverity))
	if h.LogSeverity == "" {
		h.LogSeverity = "info"
	}
}

func (h *HostSpec) validate() error {
	if h.Width < 0 || h.Height < 0 {
		return errors.New("width and height must be >= 0")
	}
	switch h.LogSeverity {
	case "debug", "info", "warn", "error", "disable":
	default:
		return errors.New("log_severity must be one of debug|info|warn|error|disable")
	}
	return nil
}
