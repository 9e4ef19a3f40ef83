package pylon

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/unkn0wn-root/pylon/chain"
	c "github.com/unkn0wn-root/pylon/codec"
	pr "github.com/unkn0wn-root/pylon/provider"
)

// Storage kinds of the tracked payloads.
const (
	KindNeurons     = "SubnetNeurons"
	KindCommitments = "SubnetCommitments"
)

// Recent is a payload that passed the freshness checks.
type Recent[T any] struct {
	Value         T
	CapturedAt    chain.Timestamp
	ElapsedBlocks int64
	// Aging is set when ElapsedBlocks exceeds the soft limit.
	Aging bool
}

// Options configure a Provider. Store is required.
//
// SoftLimit <= HardLimit is assumed and not checked. With SoftLimit above
// HardLimit entries are refused before they can ever be flagged as aging.
type Options struct {
	SoftLimit int64 // blocks
	HardLimit int64 // blocks
	Store     pr.Provider

	BlockTime time.Duration    // 0 => chain.BlockTime
	Clock     func() time.Time // nil => time.Now
	Logger    Logger
	Hooks     Hooks

	NeuronsCodec     c.Codec[chain.SubnetNeurons]     // nil => JSON
	CommitmentsCodec c.Codec[chain.SubnetCommitments] // nil => JSON
}

// Provider is the read side of the recency cache: it refuses missing or
// hard-stale entries and flags soft-stale ones.
type Provider struct {
	soft      int64
	hard      int64
	blockTime time.Duration
	now       func() time.Time
	log       Logger
	hooks     Hooks

	neurons     *Adapter[chain.SubnetNeurons]
	commitments *Adapter[chain.SubnetCommitments]
}

func New(opts Options) (*Provider, error) {
	if opts.Store == nil {
		return nil, errors.New("pylon: store is required")
	}
	p := &Provider{
		soft:      opts.SoftLimit,
		hard:      opts.HardLimit,
		blockTime: coalesce(opts.BlockTime, chain.BlockTime),
		now:       opts.Clock,
		log:       coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:     coalesce[Hooks](opts.Hooks, NopHooks{}),
	}
	if p.blockTime < 0 {
		return nil, errors.New("pylon: negative block time")
	}
	if p.now == nil {
		p.now = time.Now
	}

	var err error
	p.neurons, err = NewAdapter(AdapterOptions[chain.SubnetNeurons]{
		Kind:   KindNeurons,
		Store:  opts.Store,
		Codec:  coalesce[c.Codec[chain.SubnetNeurons]](opts.NeuronsCodec, c.JSON[chain.SubnetNeurons]{}),
		Logger: p.log,
		Hooks:  p.hooks,
	})
	if err != nil {
		return nil, err
	}
	p.commitments, err = NewAdapter(AdapterOptions[chain.SubnetCommitments]{
		Kind:   KindCommitments,
		Store:  opts.Store,
		Codec:  coalesce[c.Codec[chain.SubnetCommitments]](opts.CommitmentsCodec, c.JSON[chain.SubnetCommitments]{}),
		Logger: p.log,
		Hooks:  p.hooks,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) SoftLimit() int64         { return p.soft }
func (p *Provider) HardLimit() int64         { return p.hard }
func (p *Provider) BlockTime() time.Duration { return p.blockTime }

// NeuronsAdapter shares the provider's store and codec with writers.
func (p *Provider) NeuronsAdapter() *Adapter[chain.SubnetNeurons] { return p.neurons }

func (p *Provider) CommitmentsAdapter() *Adapter[chain.SubnetCommitments] { return p.commitments }

func (p *Provider) RecentNeurons(ctx context.Context, netuid chain.NetUID) (Recent[chain.SubnetNeurons], error) {
	return Get(ctx, p, p.neurons, netuid)
}

func (p *Provider) RecentCommitments(ctx context.Context, netuid chain.NetUID) (Recent[chain.SubnetCommitments], error) {
	return Get(ctx, p, p.commitments, netuid)
}

// Get loads netuid through a and applies p's freshness policy.
//
// Errors:
//   - *MissingError (ErrRecentDataMissing) when nothing is stored.
//   - *StaleError (ErrRecentDataStale) when the entry is more than HardLimit blocks old.
//   - *DecodeError or a wrapped store error otherwise.
func Get[T any](ctx context.Context, p *Provider, a *Adapter[T], netuid chain.NetUID) (Recent[T], error) {
	e, ok, err := a.Get(ctx, netuid)
	if err != nil {
		return Recent[T]{}, err
	}
	kind := a.Kind()
	if !ok {
		p.hooks.RecentMissing(kind, netuid)
		p.log.Debug("recent data missing", Fields{"netuid": netuid, "object": kind})
		return Recent[T]{}, &MissingError{Kind: kind, NetUID: netuid}
	}

	elapsed := p.ElapsedBlocks(e.CapturedAt)
	if elapsed > p.hard {
		p.hooks.RecentStale(kind, netuid, elapsed, p.hard)
		p.log.Debug("recent data stale", Fields{"netuid": netuid, "object": kind, "elapsed_blocks": elapsed, "hard_limit": p.hard})
		return Recent[T]{}, &StaleError{Kind: kind, NetUID: netuid, ElapsedBlocks: elapsed, HardLimit: p.hard}
	}

	r := Recent[T]{Value: e.Value, CapturedAt: e.CapturedAt, ElapsedBlocks: elapsed}
	if elapsed > p.soft {
		r.Aging = true
		p.hooks.RecentAging(kind, netuid, elapsed, p.soft)
		p.log.Warn("recent data is older than soft limit", Fields{
			"netuid":         netuid,
			"object":         kind,
			"elapsed_blocks": elapsed,
			"soft_limit":     p.soft,
		})
	}
	return r, nil
}

// ElapsedBlocks is floor(max(0, now-ts) / blockTime). Clock skew that puts
// ts in the future counts as zero.
func (p *Provider) ElapsedBlocks(ts chain.Timestamp) int64 {
	age := p.now().Unix() - int64(ts)
	if age <= 0 {
		return 0
	}
	if p.blockTime%time.Second == 0 {
		return age / int64(p.blockTime/time.Second)
	}
	if age > math.MaxInt64/int64(time.Second) {
		return math.MaxInt64
	}
	return int64(time.Duration(age) * time.Second / p.blockTime)
}
