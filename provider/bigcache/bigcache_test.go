package bigcache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestRoundTripAndDelete(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{LifeWindow: time.Hour, Shards: 16, MaxEntriesInWindow: 100, MaxEntrySize: 256})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close(ctx)

	if _, ok, err := p.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
	if ok, err := p.Set(ctx, "k", []byte("v1"), time.Second); !ok || err != nil {
		t.Fatalf("Set ok=%v err=%v", ok, err)
	}
	if ok, err := p.Set(ctx, "k", []byte("v2"), 0); !ok || err != nil {
		t.Fatalf("overwrite ok=%v err=%v", ok, err)
	}
	got, ok, err := p.Get(ctx, "k")
	if err != nil || !ok || !bytes.Equal(got, []byte("v2")) {
		t.Fatalf("Get got=%q ok=%v err=%v", got, ok, err)
	}
	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("second Del should be a no-op: %v", err)
	}
}
