package types

import "github.com/dytallix/go-dytallix/common"

const (
	// MaxEventTopicSize bounds the topic of a single event.
	MaxEventTopicSize = 64
	// MaxEventDataSize bounds the payload of a single event.
	MaxEventDataSize = 1024
	// MaxEventsPerCall bounds the number of events a single contract call may emit.
	MaxEventsPerCall = 100
)

// Event is an ordered log record emitted by a contract call. Events become
// part of the receipt only if the call succeeds.
type Event struct {
	Instance Address
	Topic    []byte
	Data     []byte

	// BlockHeight and TxHash are stamped at receipt assembly, so persisted
	// events identify their origin without the enclosing receipt.
	BlockHeight uint64
	TxHash      common.Hash
}

// Validate checks the per-event size limits. The per-call count limit is
// enforced by the event log.
func (e *Event) Validate() error {
	if len(e.Topic) == 0 || len(e.Topic) > MaxEventTopicSize {
		return NewError(ErrorInvalidInput)
	}
	if len(e.Data) > MaxEventDataSize {
		return NewError(ErrorInvalidInput)
	}
	return nil
}
