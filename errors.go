package pylon

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/pylon/chain"
)

var (
	// ErrRecentDataMissing matches every *MissingError.
	ErrRecentDataMissing = errors.New("pylon: recent data missing")
	// ErrRecentDataStale matches every *StaleError.
	ErrRecentDataStale = errors.New("pylon: recent data stale")
	// ErrStoreRejected is returned by Save when the provider refused the write.
	ErrStoreRejected = errors.New("pylon: store rejected write")
)

type MissingError struct {
	Kind   string
	NetUID chain.NetUID
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("recent data not found. netuid: %d, object: %s", e.NetUID, e.Kind)
}

func (e *MissingError) Is(target error) bool { return target == ErrRecentDataMissing }

type StaleError struct {
	Kind          string
	NetUID        chain.NetUID
	ElapsedBlocks int64
	HardLimit     int64
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("recent data is stale. netuid: %d, object: %s, elapsed_blocks: %d, hard_limit: %d",
		e.NetUID, e.Kind, e.ElapsedBlocks, e.HardLimit)
}

func (e *StaleError) Is(target error) bool { return target == ErrRecentDataStale }

// DecodeError reports stored bytes that could not be turned back into a
// payload. The entry is left in place; the next refresh overwrites it.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
