// Package zap adapts a *zap.Logger to pylon.Logger.
package zap

import (
	"sort"

	"github.com/unkn0wn-root/pylon"
	"go.uber.org/zap"
)

var _ pylon.Logger = Logger{}

// Logger writes pylon records through L. Fields named "err" holding an
// error are emitted as zap.Error.
type Logger struct{ L *zap.Logger }

// New names the logger "pylon" unless name is given.
func New(l *zap.Logger, name string) Logger {
	if name == "" {
		name = "pylon"
	}
	return Logger{L: l.Named(name)}
}

func (z Logger) Debug(msg string, f pylon.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f pylon.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f pylon.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f pylon.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f pylon.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]zap.Field, 0, len(f))
	for _, k := range names {
		if err, ok := f[k].(error); ok && k == "err" {
			out = append(out, zap.Error(err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
