// Package sloghooks reports pylon.Hooks events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/pylon"
	"github.com/unkn0wn-root/pylon/chain"
)

type Options struct {
	// Sampling to avoid floods on hot read paths; 0/1 = log all.
	MissingEvery uint64
	AgingEvery   uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	missingCtr atomic.Uint64
	agingCtr   atomic.Uint64
}

var _ pylon.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) RecentMissing(kind string, netuid chain.NetUID) {
	if h.l == nil || !sample(h.opts.MissingEvery, &h.missingCtr) {
		return
	}
	h.l.Debug("pylon.recent_missing",
		"object", kind,
		"netuid", uint16(netuid))
}

func (h *Hooks) RecentStale(kind string, netuid chain.NetUID, elapsed, hard int64) {
	if h.l == nil {
		return
	}
	h.l.Info("pylon.recent_stale",
		"object", kind,
		"netuid", uint16(netuid),
		"elapsed_blocks", elapsed,
		"hard_limit", hard)
}

func (h *Hooks) RecentAging(kind string, netuid chain.NetUID, elapsed, soft int64) {
	if h.l == nil || !sample(h.opts.AgingEvery, &h.agingCtr) {
		return
	}
	h.l.Warn("pylon.recent_aging",
		"object", kind,
		"netuid", uint16(netuid),
		"elapsed_blocks", elapsed,
		"soft_limit", soft)
}

func (h *Hooks) DecodeFailed(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("pylon.decode_failed",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) StoreSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("pylon.store_set_rejected",
		"key", h.redact(storageKey))
}

func (h *Hooks) RefreshFailed(kind string, netuid chain.NetUID, stage string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("pylon.refresh_failed",
		"object", kind,
		"netuid", uint16(netuid),
		"stage", stage,
		"err", err)
}

func (h *Hooks) RefreshSaved(kind string, netuid chain.NetUID, b chain.Block) {
	if h.l == nil {
		return
	}
	h.l.Debug("pylon.refresh_saved",
		"object", kind,
		"netuid", uint16(netuid),
		"block", uint64(b.Number))
}
