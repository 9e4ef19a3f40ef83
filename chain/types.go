// Package chain holds the upstream data model and the client contract the
// cache refresher consumes. The wire protocol to the chain lives elsewhere.
package chain

import (
	"strconv"
	"time"
)

// BlockTime converts block counts to wall-clock time.
const BlockTime = 12 * time.Second

type (
	NetUID      uint16
	BlockNumber uint64
	BlockHash   string
	Hotkey      string
	Coldkey     string

	// Timestamp is a block timestamp in unix seconds.
	Timestamp int64
)

func (n NetUID) String() string { return strconv.FormatUint(uint64(n), 10) }

// TimestampOf truncates t to whole seconds.
func TimestampOf(t time.Time) Timestamp { return Timestamp(t.Unix()) }

func (ts Timestamp) Time() time.Time { return time.Unix(int64(ts), 0).UTC() }

type Block struct {
	Number BlockNumber `json:"number" msgpack:"number" cbor:"number"`
	Hash   BlockHash   `json:"hash" msgpack:"hash" cbor:"hash"`
}

type AxonInfo struct {
	IP       string `json:"ip" msgpack:"ip" cbor:"ip"`
	Port     uint16 `json:"port" msgpack:"port" cbor:"port"`
	Protocol int    `json:"protocol" msgpack:"protocol" cbor:"protocol"`
}

type Neuron struct {
	UID             uint16      `json:"uid" msgpack:"uid" cbor:"uid"`
	Coldkey         Coldkey     `json:"coldkey" msgpack:"coldkey" cbor:"coldkey"`
	Hotkey          Hotkey      `json:"hotkey" msgpack:"hotkey" cbor:"hotkey"`
	Active          bool        `json:"active" msgpack:"active" cbor:"active"`
	AxonInfo        AxonInfo    `json:"axon_info" msgpack:"axon_info" cbor:"axon_info"`
	Stake           float64     `json:"stake" msgpack:"stake" cbor:"stake"`
	Rank            float64     `json:"rank" msgpack:"rank" cbor:"rank"`
	Emission        float64     `json:"emission" msgpack:"emission" cbor:"emission"`
	Incentive       float64     `json:"incentive" msgpack:"incentive" cbor:"incentive"`
	Consensus       float64     `json:"consensus" msgpack:"consensus" cbor:"consensus"`
	Trust           float64     `json:"trust" msgpack:"trust" cbor:"trust"`
	ValidatorTrust  float64     `json:"validator_trust" msgpack:"validator_trust" cbor:"validator_trust"`
	Dividends       float64     `json:"dividends" msgpack:"dividends" cbor:"dividends"`
	LastUpdate      BlockNumber `json:"last_update" msgpack:"last_update" cbor:"last_update"`
	ValidatorPermit bool        `json:"validator_permit" msgpack:"validator_permit" cbor:"validator_permit"`
	Pruning         float64     `json:"pruning_score" msgpack:"pruning_score" cbor:"pruning_score"`
}

// SubnetNeurons is the neuron set of one subnet at one block.
type SubnetNeurons struct {
	Block   Block             `json:"block" msgpack:"block" cbor:"block"`
	Neurons map[Hotkey]Neuron `json:"neurons" msgpack:"neurons" cbor:"neurons"`
}

// SubnetCommitments maps hotkeys to their hex encoded commitment data.
type SubnetCommitments struct {
	Block       Block             `json:"block" msgpack:"block" cbor:"block"`
	Commitments map[Hotkey]string `json:"commitments" msgpack:"commitments" cbor:"commitments"`
}
