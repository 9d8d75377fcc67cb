package logger

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-desk/pkg/config"
)

// Module provides the system logger and the access log built from config.
var Module = fx.Options(
	fx.Provide(ProvideLogger),
	fx.Provide(ProvideAccessLog),
)

func ProvideLogger(cfg config.Config) (*zap.Logger, error) {
	lvl, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return NewLog(cfg.LogDir, "system.log", lvl), nil
}

func ProvideAccessLog(cfg config.Config) *AccessLog {
	a := NewAccessLog(NewLog(cfg.LogDir, "access.log", zap.InfoLevel))
	a.AddBodyLogPaths(cfg.BodyLogPaths...)
	return a
}
