package vm

import (
	"github.com/dytallix/go-dytallix/internal/types"
)

// EventLog buffers the events of a single contract call. On success the
// buffer moves into the receipt; on failure it is discarded with the rest of
// the call's effects.
type EventLog struct {
	events []*types.Event
}

func NewEventLog() *EventLog {
	return &EventLog{}
}

func (l *EventLog) Append(event *types.Event) error {
	if err := event.Validate(); err != nil {
		return types.NewVmVerboseError(types.ErrorInvalidInput, "event limits exceeded")
	}
	if len(l.events) >= types.MaxEventsPerCall {
		return types.NewVmVerboseError(types.ErrorInvalidInput, "event count limit exceeded")
	}
	l.events = append(l.events, event)
	return nil
}

func (l *EventLog) Len() int {
	return len(l.events)
}

// Events returns the buffered events in emission order.
func (l *EventLog) Events() []*types.Event {
	return l.events
}
