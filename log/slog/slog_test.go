//go:build go1.21

package slog

import (
	"bytes"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/pylon"
)

func TestLoggerWritesSortedAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})
	l := Logger{L: stdslog.New(h)}

	l.Debug("hidden", pylon.Fields{"x": 1})
	l.Warn("aging", pylon.Fields{"soft_limit": 2, "elapsed_blocks": 4})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug should be filtered: %q", out)
	}
	if !strings.Contains(out, "level=WARN msg=aging elapsed_blocks=4 soft_limit=2") {
		t.Fatalf("unexpected output %q", out)
	}
}
