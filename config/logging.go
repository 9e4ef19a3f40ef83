package config

import (
	"fmt"
	stdslog "log/slog"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/pylon"
	logruslog "github.com/unkn0wn-root/pylon/log/logrus"
	slogl "github.com/unkn0wn-root/pylon/log/slog"
	zapl "github.com/unkn0wn-root/pylon/log/zap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LogZap    = "zap"
	LogLogrus = "logrus"
	LogSlog   = "slog"
)

type Logging struct {
	Backend string `mapstructure:"backend" validate:"oneof=zap logrus slog"`
	Level   string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// NewLogger builds a JSON logger on stderr for the configured backend.
func (l Logging) NewLogger() (pylon.Logger, error) {
	switch l.Backend {
	case LogZap, "":
		lvl, err := zapcore.ParseLevel(l.Level)
		if err != nil {
			return nil, err
		}
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(lvl)
		zl, err := zc.Build()
		if err != nil {
			return nil, fmt.Errorf("build zap logger: %w", err)
		}
		return zapl.New(zl, ""), nil
	case LogLogrus:
		lvl, err := logrus.ParseLevel(l.Level)
		if err != nil {
			return nil, err
		}
		lr := logrus.New()
		lr.SetOutput(os.Stderr)
		lr.SetFormatter(&logrus.JSONFormatter{})
		lr.SetLevel(lvl)
		return logruslog.New(lr), nil
	case LogSlog:
		var lvl stdslog.Level
		if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
			return nil, err
		}
		h := stdslog.NewJSONHandler(os.Stderr, &stdslog.HandlerOptions{Level: lvl})
		return slogl.Logger{L: stdslog.New(h).With("component", "pylon")}, nil
	}
	return nil, fmt.Errorf("unknown logging backend %q", l.Backend)
}
