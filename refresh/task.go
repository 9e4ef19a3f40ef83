package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/unkn0wn-root/pylon"
	"github.com/unkn0wn-root/pylon/chain"
)

// Stages of a refresh, in order. They are reported through
// pylon.Hooks.RefreshFailed and FetchError.Stage.
const (
	StageLatestBlock    = "latest_block"
	StageBlockTimestamp = "block_timestamp"
	StagePayload        = "payload"
	StageSave           = "save"
)

const DefaultMaxTries uint = 3

// FetchError is a failed refresh of one partition. Tasks log it and report
// it to hooks; it never escapes Execute.
type FetchError struct {
	Kind   string
	NetUID chain.NetUID
	Stage  string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("refresh %s netuid %d: %s: %v", e.Kind, e.NetUID, e.Stage, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetch loads the payload of one partition at block b.
type Fetch[T any] func(ctx context.Context, netuid chain.NetUID, b chain.Block) (T, error)

type taskConfig struct {
	log      pylon.Logger
	hooks    pylon.Hooks
	maxTries uint
	backOff  func() backoff.BackOff
}

type TaskOption func(*taskConfig)

func WithLogger(l pylon.Logger) TaskOption { return func(c *taskConfig) { c.log = pylon.OrNop(l) } }

func WithHooks(h pylon.Hooks) TaskOption { return func(c *taskConfig) { c.hooks = pylon.OrNopHooks(h) } }

// WithMaxTries bounds attempts per fetch stage; 1 disables retries.
func WithMaxTries(n uint) TaskOption {
	return func(c *taskConfig) {
		if n > 0 {
			c.maxTries = n
		}
	}
}

// WithBackOff sets the delay policy between attempts. newBackOff is called
// once per stage so tasks never share state.
func WithBackOff(newBackOff func() backoff.BackOff) TaskOption {
	return func(c *taskConfig) {
		if newBackOff != nil {
			c.backOff = newBackOff
		}
	}
}

func defaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	return bo
}

func newTaskConfig(opts []TaskOption) taskConfig {
	cfg := taskConfig{
		log:      pylon.NopLogger{},
		hooks:    pylon.NopHooks{},
		maxTries: DefaultMaxTries,
		backOff:  defaultBackOff,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// Task refreshes one (kind, netuid) partition.
type Task[T any] struct {
	netuid  chain.NetUID
	adapter *pylon.Adapter[T]
	client  chain.Client
	fetch   Fetch[T]
	cfg     taskConfig
}

func NewTask[T any](netuid chain.NetUID, adapter *pylon.Adapter[T], client chain.Client, fetch Fetch[T], opts ...TaskOption) *Task[T] {
	return &Task[T]{
		netuid:  netuid,
		adapter: adapter,
		client:  client,
		fetch:   fetch,
		cfg:     newTaskConfig(opts),
	}
}

func NewNeuronsTask(p *pylon.Provider, client chain.Client, netuid chain.NetUID, opts ...TaskOption) *Task[chain.SubnetNeurons] {
	return NewTask(netuid, p.NeuronsAdapter(), client, client.Neurons, opts...)
}

func NewCommitmentsTask(p *pylon.Provider, client chain.Client, netuid chain.NetUID, opts ...TaskOption) *Task[chain.SubnetCommitments] {
	return NewTask(netuid, p.CommitmentsAdapter(), client, client.Commitments, opts...)
}

func (t *Task[T]) Name() string { return fmt.Sprintf("%s/%d", t.adapter.Kind(), t.netuid) }

// Execute fetches the latest block, its timestamp and the payload, then saves
// them as one entry. Nothing is written unless every fetch succeeded. Failures
// are logged and reported to hooks; Execute reports whether an entry was saved.
func (t *Task[T]) Execute(ctx context.Context) bool {
	b, fe := t.refresh(ctx)
	if fe != nil {
		t.cfg.hooks.RefreshFailed(fe.Kind, fe.NetUID, fe.Stage, fe.Err)
		t.cfg.log.Error("recent object refresh failed", pylon.Fields{
			"object": fe.Kind,
			"netuid": fe.NetUID,
			"stage":  fe.Stage,
			"err":    fe.Err,
		})
		return false
	}
	t.cfg.hooks.RefreshSaved(t.adapter.Kind(), t.netuid, b)
	t.cfg.log.Debug("recent object saved", pylon.Fields{
		"object": t.adapter.Kind(),
		"netuid": t.netuid,
		"block":  b.Number,
	})
	return true
}

func (t *Task[T]) refresh(ctx context.Context) (chain.Block, *FetchError) {
	b, fe := retry(ctx, t, StageLatestBlock, func() (chain.Block, error) {
		return t.client.LatestBlock(ctx)
	})
	if fe != nil {
		return chain.Block{}, fe
	}
	ts, fe := retry(ctx, t, StageBlockTimestamp, func() (chain.Timestamp, error) {
		return t.client.BlockTimestamp(ctx, b)
	})
	if fe != nil {
		return chain.Block{}, fe
	}
	payload, fe := retry(ctx, t, StagePayload, func() (T, error) {
		return t.fetch(ctx, t.netuid, b)
	})
	if fe != nil {
		return chain.Block{}, fe
	}
	if err := t.adapter.Save(ctx, t.netuid, ts, payload); err != nil {
		return chain.Block{}, t.fail(StageSave, err)
	}
	return b, nil
}

func (t *Task[T]) fail(stage string, err error) *FetchError {
	return &FetchError{Kind: t.adapter.Kind(), NetUID: t.netuid, Stage: stage, Err: err}
}

func retry[T, V any](ctx context.Context, t *Task[T], stage string, op func() (V, error)) (V, *FetchError) {
	v, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(t.cfg.backOff()),
		backoff.WithMaxTries(t.cfg.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			t.cfg.log.Warn("recent object refresh retrying", pylon.Fields{
				"object": t.adapter.Kind(),
				"netuid": t.netuid,
				"stage":  stage,
				"next":   next,
				"err":    err,
			})
		}),
	)
	if err != nil {
		var zero V
		return zero, t.fail(stage, err)
	}
	return v, nil
}
