package pylon

import "github.com/unkn0wn-root/pylon/chain"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; the read path calls them
// inline.
type Hooks interface {
	// No entry exists for (kind, netuid).
	RecentMissing(kind string, netuid chain.NetUID)

	// Entry is older than the hard limit and was refused.
	RecentStale(kind string, netuid chain.NetUID, elapsedBlocks, hardLimit int64)

	// Entry is older than the soft limit but was still served.
	RecentAging(kind string, netuid chain.NetUID, elapsedBlocks, softLimit int64)

	// Stored bytes could not be decoded (framing or codec).
	DecodeFailed(storageKey string, err error)

	// Provider returned ok=false on Set.
	StoreSetRejected(storageKey string)

	// A refresh stage failed; stage ∈ {"latest_block", "block_timestamp", "payload", "save"}.
	RefreshFailed(kind string, netuid chain.NetUID, stage string, err error)

	// A refresh wrote a fresh entry.
	RefreshSaved(kind string, netuid chain.NetUID, block chain.Block)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) RecentMissing(string, chain.NetUID)                {}
func (NopHooks) RecentStale(string, chain.NetUID, int64, int64)    {}
func (NopHooks) RecentAging(string, chain.NetUID, int64, int64)    {}
func (NopHooks) DecodeFailed(string, error)                        {}
func (NopHooks) StoreSetRejected(string)                           {}
func (NopHooks) RefreshFailed(string, chain.NetUID, string, error) {}
func (NopHooks) RefreshSaved(string, chain.NetUID, chain.Block)    {}

// OrNopHooks returns h, or NopHooks when h is nil.
func OrNopHooks(h Hooks) Hooks {
	if h == nil {
		return NopHooks{}
	}
	return h
}
