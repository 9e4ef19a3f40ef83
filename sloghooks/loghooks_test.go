package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/pylon/chain"
)

func newBuf() (*bytes.Buffer, *slog.Logger) {
	var buf bytes.Buffer
	return &buf, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRedactsKeysByDefault(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{})

	h.DecodeFailed("recent_SubnetNeurons_1", errors.New("bad"))
	out := buf.String()
	if strings.Contains(out, "recent_SubnetNeurons_1") {
		t.Fatalf("key leaked: %q", out)
	}
	if !strings.Contains(out, "pylon.decode_failed") || !strings.Contains(out, "err=bad") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCustomRedactor(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{Redact: func(s string) string { return "<" + s + ">" }})
	h.StoreSetRejected("k1")
	if !strings.Contains(buf.String(), "key=<k1>") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestAgingIsSampled(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{AgingEvery: 3})
	for i := 0; i < 9; i++ {
		h.RecentAging("SubnetNeurons", 1, 4, 2)
	}
	if n := strings.Count(buf.String(), "pylon.recent_aging"); n != 3 {
		t.Fatalf("expected 3 sampled lines, got %d", n)
	}
}

func TestRefreshEvents(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{})
	h.RefreshFailed("SubnetCommitments", 7, "block_timestamp", errors.New("rpc down"))
	out := buf.String()
	for _, want := range []string{"pylon.refresh_failed", "netuid=7", "stage=block_timestamp", "object=SubnetCommitments"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	h := New(nil, Options{})
	h.RecentMissing("x", 1)
	h.RecentStale("x", 1, 5, 4)
	h.RefreshSaved("x", 1, chain.Block{})
}
