package pylon

import (
	"context"
	"errors"
	"fmt"

	"github.com/unkn0wn-root/pylon/chain"
	c "github.com/unkn0wn-root/pylon/codec"
	"github.com/unkn0wn-root/pylon/internal/keys"
	"github.com/unkn0wn-root/pylon/internal/wire"
	pr "github.com/unkn0wn-root/pylon/provider"
)

// Entry is a payload with the timestamp of the block it was captured at.
// Entries are written whole and never patched.
type Entry[T any] struct {
	Value      T
	CapturedAt chain.Timestamp
}

// AdapterOptions bind an adapter to one payload type.
// Kind, Store and Codec are required.
type AdapterOptions[T any] struct {
	// Kind names the payload type in storage keys, e.g. "SubnetNeurons".
	Kind  string
	Store pr.Provider
	Codec c.Codec[T]

	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
}

// Adapter stores and loads recent entries of a single payload type.
// It performs no freshness checks; see Provider.
type Adapter[T any] struct {
	kind  string
	store pr.Provider
	codec c.Codec[T]
	log   Logger
	hooks Hooks
}

func NewAdapter[T any](opts AdapterOptions[T]) (*Adapter[T], error) {
	if opts.Kind == "" {
		return nil, errors.New("pylon: adapter kind is required")
	}
	if opts.Store == nil {
		return nil, errors.New("pylon: adapter store is required")
	}
	if opts.Codec == nil {
		return nil, errors.New("pylon: adapter codec is required")
	}
	return &Adapter[T]{
		kind:  opts.Kind,
		store: opts.Store,
		codec: opts.Codec,
		log:   coalesce[Logger](opts.Logger, NopLogger{}),
		hooks: coalesce[Hooks](opts.Hooks, NopHooks{}),
	}, nil
}

func (a *Adapter[T]) Kind() string { return a.kind }

func (a *Adapter[T]) BuildKey(netuid chain.NetUID) string {
	return keys.Recent(a.kind, uint16(netuid))
}

// Save replaces the entry for netuid. No TTL is set: staleness is a read
// time decision.
func (a *Adapter[T]) Save(ctx context.Context, netuid chain.NetUID, ts chain.Timestamp, v T) error {
	k := a.BuildKey(netuid)
	payload, err := a.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", a.kind, err)
	}
	ok, err := a.store.Set(ctx, k, wire.EncodeRecent(int64(ts), payload), 0)
	if err != nil {
		return fmt.Errorf("store set %q: %w", k, err)
	}
	if !ok {
		a.hooks.StoreSetRejected(k)
		a.log.Warn("recent entry rejected by store", Fields{"key": k})
		return ErrStoreRejected
	}
	return nil
}

// Get returns ok=false on a miss. Undecodable bytes are reported as a
// *DecodeError and left in the store.
func (a *Adapter[T]) Get(ctx context.Context, netuid chain.NetUID) (Entry[T], bool, error) {
	k := a.BuildKey(netuid)
	raw, ok, err := a.store.Get(ctx, k)
	if err != nil {
		return Entry[T]{}, false, fmt.Errorf("store get %q: %w", k, err)
	}
	if !ok {
		return Entry[T]{}, false, nil
	}
	ts, payload, err := wire.DecodeRecent(raw)
	if err != nil {
		return Entry[T]{}, false, a.decodeFailed(k, err)
	}
	v, err := a.codec.Decode(payload)
	if err != nil {
		return Entry[T]{}, false, a.decodeFailed(k, err)
	}
	return Entry[T]{Value: v, CapturedAt: chain.Timestamp(ts)}, true, nil
}

func (a *Adapter[T]) decodeFailed(k string, err error) error {
	a.hooks.DecodeFailed(k, err)
	a.log.Error("recent entry decode failed", Fields{"key": k, "err": err})
	return &DecodeError{Key: k, Err: err}
}
