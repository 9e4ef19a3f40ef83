package chain

import "context"

// Client is the upstream view used to keep recent data warm.
// Implementations are expected to be safe for concurrent use.
type Client interface {
	LatestBlock(ctx context.Context) (Block, error)
	BlockTimestamp(ctx context.Context, b Block) (Timestamp, error)

	Neurons(ctx context.Context, netuid NetUID, b Block) (SubnetNeurons, error)
	Commitments(ctx context.Context, netuid NetUID, b Block) (SubnetCommitments, error)
}
