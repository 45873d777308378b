package spp

import "github.com/xnsstack/xnsd/internal/wire"

// EventKind discriminates the result of a Connection.Get call.
type EventKind int

const (
	EventNone EventKind = iota
	EventData
	EventRecordEnd
	EventSSTChange
	EventEOS
	EventAttention
)

// Event is what Get returns: application data in sequence order, a
// record boundary marker, a notice that the peer switched sub-system
// type, end-of-stream on close, or an out-of-band attention byte.
type Event struct {
	Kind EventKind
	Data []byte
	SST  wire.SST
}

// deliverable is one item placed on the connection's delivery queue by
// the receive-side state machine, consumed by Get.
type deliverable struct {
	event Event
}
