// Package asynchook moves pylon.Hooks calls off the calling goroutine.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{AgingEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	p, _ := pylon.New(pylon.Options{SoftLimit: 2, HardLimit: 4, Store: store, Hooks: hooks})
//
// Events are dropped when the queue is full; Dropped reports how many.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/pylon"
	"github.com/unkn0wn-root/pylon/chain"
)

type Hooks struct {
	inner   pylon.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ pylon.Hooks = (*Hooks)(nil)

func New(inner pylon.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: pylon.OrNopHooks(inner), q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent after
// Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) RecentMissing(kind string, netuid chain.NetUID) {
	h.try(func() { h.inner.RecentMissing(kind, netuid) })
}
func (h *Hooks) RecentStale(kind string, netuid chain.NetUID, elapsed, hard int64) {
	h.try(func() { h.inner.RecentStale(kind, netuid, elapsed, hard) })
}
func (h *Hooks) RecentAging(kind string, netuid chain.NetUID, elapsed, soft int64) {
	h.try(func() { h.inner.RecentAging(kind, netuid, elapsed, soft) })
}
func (h *Hooks) DecodeFailed(k string, err error) { h.try(func() { h.inner.DecodeFailed(k, err) }) }
func (h *Hooks) StoreSetRejected(k string)        { h.try(func() { h.inner.StoreSetRejected(k) }) }
func (h *Hooks) RefreshFailed(kind string, netuid chain.NetUID, stage string, err error) {
	h.try(func() { h.inner.RefreshFailed(kind, netuid, stage, err) })
}
func (h *Hooks) RefreshSaved(kind string, netuid chain.NetUID, b chain.Block) {
	h.try(func() { h.inner.RefreshSaved(kind, netuid, b) })
}
