package asynchook

import (
	"sync"
	"testing"

	"github.com/unkn0wn-root/pylon"
	"github.com/unkn0wn-root/pylon/chain"
)

type countingHooks struct {
	pylon.NopHooks
	mu      sync.Mutex
	missing int
	saved   []chain.Block
	block   chan struct{}
}

func (c *countingHooks) RecentMissing(string, chain.NetUID) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.missing++
	c.mu.Unlock()
}

func (c *countingHooks) RefreshSaved(_ string, _ chain.NetUID, b chain.Block) {
	c.mu.Lock()
	c.saved = append(c.saved, b)
	c.mu.Unlock()
}

func TestCloseDrainsQueue(t *testing.T) {
	inner := &countingHooks{}
	h := New(inner, 2, 100)
	for i := 0; i < 50; i++ {
		h.RecentMissing("SubnetNeurons", 1)
	}
	h.RefreshSaved("SubnetNeurons", 1, chain.Block{Number: 9})
	h.Close()

	if inner.missing != 50 || len(inner.saved) != 1 || inner.saved[0].Number != 9 {
		t.Fatalf("missing=%d saved=%v", inner.missing, inner.saved)
	}
	if h.Dropped() != 0 {
		t.Fatalf("dropped=%d", h.Dropped())
	}
}

func TestFullQueueDrops(t *testing.T) {
	inner := &countingHooks{block: make(chan struct{})}
	h := New(inner, 1, 1)

	// one event held by the worker, one queued, the rest dropped
	for i := 0; i < 10; i++ {
		h.RecentMissing("SubnetNeurons", 1)
	}
	if h.Dropped() < 8 {
		t.Fatalf("expected at least 8 dropped, got %d", h.Dropped())
	}
	close(inner.block)
	h.Close()

	if got := uint64(inner.missing) + h.Dropped(); got != 10 {
		t.Fatalf("delivered+dropped=%d want 10", got)
	}
}

func TestSendAfterCloseIsDropped(t *testing.T) {
	h := New(nil, 1, 1)
	h.Close()
	h.Close()
	h.StoreSetRejected("k")
	if h.Dropped() != 1 {
		t.Fatalf("dropped=%d", h.Dropped())
	}
}
