package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment prefix: STEEZE_MANIFEST, STEEZE_LOG_LEVEL, ...
const Prefix = "STEEZE"

// Config holds process settings. Application routes and window settings live
// in the manifest; this covers what differs per machine or run.
type Config struct {
	Service  string `envconfig:"SERVICE" default:"steeze-desk"`
	Manifest string `envconfig:"MANIFEST" default:"manifest.toml"`

	LogDir       string   `envconfig:"LOG_DIR" default:"log"`
	LogLevel     string   `envconfig:"LOG_LEVEL" default:"info"`
	BodyLogPaths []string `envconfig:"BODY_LOG_PATHS"`

	// BridgeListen is the loopback address of the HTTP bridge; empty disables it.
	BridgeListen string `envconfig:"BRIDGE_LISTEN" default:"127.0.0.1:0"`
	// BridgeSecret, when set, requires an HS256 bearer token on bridge calls.
	BridgeSecret string `envconfig:"BRIDGE_SECRET"`

	DispatchTimeout time.Duration `envconfig:"DISPATCH_TIMEOUT" default:"30s"`
	// SkipThreshold fails a module scan once more endpoints than this are
	// skipped; negative disables the check.
	SkipThreshold int `envconfig:"SKIP_THRESHOLD" default:"-1"`

	Headless   bool   `envconfig:"HEADLESS" default:"false"`
	ChromePath string `envconfig:"CHROME_PATH"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// Default returns the same values Load yields with an empty environment.
func Default() Config {
	return Config{
		Service:         "steeze-desk",
		Manifest:        "manifest.toml",
		LogDir:          "log",
		LogLevel:        "info",
		BridgeListen:    "127.0.0.1:0",
		DispatchTimeout: 30 * time.Second,
		SkipThreshold:   -1,
	}
}
